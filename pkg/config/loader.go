package config

import (
	"fmt"
	"os"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if cfg.PopulationSize < 1 {
		return fmt.Errorf("population_size must be positive, got %d", cfg.PopulationSize)
	}

	deadline, err := cfg.GetDeadline()
	if err != nil {
		return fmt.Errorf("invalid deadline %s: %w", cfg.Deadline, err)
	}
	if deadline < 0 {
		return fmt.Errorf("deadline cannot be negative, got %s", cfg.Deadline)
	}

	if cfg.Problem.Name == "" {
		return fmt.Errorf("problem name cannot be empty")
	}

	if err := validateStop(&cfg.Stop); err != nil {
		return fmt.Errorf("stop validation failed: %w", err)
	}

	if cfg.Replacement.Elites < 0 {
		return fmt.Errorf("replacement elites cannot be negative, got %d", cfg.Replacement.Elites)
	}
	if cfg.Replacement.Elites >= cfg.PopulationSize {
		return fmt.Errorf("replacement elites must be less than population_size (%d), got %d", cfg.PopulationSize, cfg.Replacement.Elites)
	}

	if err := validateCache(&cfg.Cache); err != nil {
		return fmt.Errorf("cache validation failed: %w", err)
	}

	return nil
}

// validateStop validates the stopping conditions. A deadline alone is not
// enough: a run that hits its deadline yields no result.
func validateStop(s *Stop) error {
	if !s.HasStop() {
		return fmt.Errorf("at least one stopping condition must be set")
	}
	if s.MaxGenerations < 0 {
		return fmt.Errorf("max_generations cannot be negative, got %d", s.MaxGenerations)
	}
	if s.Stagnation != nil {
		if s.Stagnation.Window < 2 {
			return fmt.Errorf("stagnation window must be at least 2, got %d", s.Stagnation.Window)
		}
		if s.Stagnation.Tolerance < 0 {
			return fmt.Errorf("stagnation tolerance cannot be negative, got %f", s.Stagnation.Tolerance)
		}
	}
	return nil
}

// validateCache validates the cache configuration
func validateCache(c *Cache) error {
	ttl, err := c.GetTTL()
	if err != nil {
		return fmt.Errorf("invalid ttl %s: %w", c.TTL, err)
	}
	if ttl < 0 {
		return fmt.Errorf("ttl cannot be negative, got %s", c.TTL)
	}
	return nil
}

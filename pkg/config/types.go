package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by ParseConfigYAML when a field is left empty.
const (
	DefaultLogLevel       = "info"
	DefaultPopulationSize = 100
	DefaultGRPCAddr       = ":50061"
	DefaultHTTPAddr       = ":8081"
	DefaultNATSSubject    = "evolution.runs"
)

// Config represents one evolution run plus the service settings used by
// the daemon.
type Config struct {
	LogLevel       string      `yaml:"log_level"`
	Seed           int64       `yaml:"seed"`
	PopulationSize int         `yaml:"population_size"`
	Deadline       string      `yaml:"deadline,omitempty"` // e.g., "2s"; empty means no deadline
	Problem        Problem     `yaml:"problem"`
	Stop           Stop        `yaml:"stop"`
	Replacement    Replacement `yaml:"replacement"`
	Cache          Cache       `yaml:"cache"`
	Server         Server      `yaml:"server"`
}

// Problem names a registered benchmark problem and carries its raw params.
type Problem struct {
	Name   string    `yaml:"name"`
	Params yaml.Node `yaml:"params,omitempty"`
}

// Stop represents the stopping conditions. Conditions are combined with
// "any": the run stops as soon as one of them holds.
type Stop struct {
	TargetFitness  *float64    `yaml:"target_fitness,omitempty"`
	MaxGenerations int         `yaml:"max_generations,omitempty"`
	Stagnation     *Stagnation `yaml:"stagnation,omitempty"`
}

// Stagnation stops a run whose best score has settled.
type Stagnation struct {
	Window    int     `yaml:"window"`
	Tolerance float64 `yaml:"tolerance"`
}

// Replacement represents the generation replacement policy
type Replacement struct {
	Elites int `yaml:"elites"`
}

// Cache represents fitness memoisation settings
type Cache struct {
	Enabled bool   `yaml:"enabled"`
	TTL     string `yaml:"ttl,omitempty"` // e.g., "5m"; empty means entries never expire
}

// Server represents the listen addresses of the daemon
type Server struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`

	// Run events are published to NATS when NATSURL is set.
	NATSURL      string `yaml:"nats_url,omitempty"`
	NATSSubject  string `yaml:"nats_subject,omitempty"`
	NATSProgress bool   `yaml:"nats_progress,omitempty"`
}

// GetDeadline parses the deadline string. An empty deadline yields 0.
func (c *Config) GetDeadline() (time.Duration, error) {
	if c.Deadline == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Deadline)
}

// GetTTL parses the cache TTL string. An empty TTL yields 0.
func (c *Cache) GetTTL() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(c.TTL)
}

// HasStop reports whether at least one stopping condition is configured.
func (s *Stop) HasStop() bool {
	return s.TargetFitness != nil || s.MaxGenerations > 0 || s.Stagnation != nil
}

// DecodeParams decodes the problem params into out. Absent params leave out
// untouched, so callers pre-fill it with their defaults.
func (p *Problem) DecodeParams(out any) error {
	if p.Params.IsZero() {
		return nil
	}
	return p.Params.Decode(out)
}

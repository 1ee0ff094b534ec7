package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigYAMLDefaults(t *testing.T) {
	cfg, err := ParseConfigYAMLString(`
problem:
  name: onemax
stop:
  max_generations: 10
`)
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultPopulationSize, cfg.PopulationSize)
	assert.Equal(t, DefaultGRPCAddr, cfg.Server.GRPCAddr)
	assert.Equal(t, DefaultHTTPAddr, cfg.Server.HTTPAddr)
	assert.Equal(t, DefaultNATSSubject, cfg.Server.NATSSubject)
	assert.Empty(t, cfg.Server.NATSURL)
	assert.Zero(t, cfg.Seed)
	assert.False(t, cfg.Cache.Enabled)

	deadline, err := cfg.GetDeadline()
	require.NoError(t, err)
	assert.Zero(t, deadline)

	var params struct{ Length int }
	params.Length = 16
	require.NoError(t, cfg.Problem.DecodeParams(&params))
	assert.Equal(t, 16, params.Length, "absent params keep caller defaults")
}

func TestParseConfigYAMLDeadlineIsNotAStop(t *testing.T) {
	_, err := ParseConfigYAMLString("problem: {name: target}\ndeadline: 100ms\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one stopping condition")
}

func TestParseConfigYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			yaml:    "problem: [",
			wantErr: "failed to parse config yaml",
		},
		{
			name:    "bad log level",
			yaml:    "log_level: loud\nproblem: {name: target}\nstop: {max_generations: 5}\n",
			wantErr: "invalid log_level",
		},
		{
			name:    "negative population",
			yaml:    "population_size: -1\nproblem: {name: target}\nstop: {max_generations: 5}\n",
			wantErr: "population_size must be positive",
		},
		{
			name:    "bad deadline",
			yaml:    "problem: {name: target}\ndeadline: soon\nstop: {max_generations: 5}\n",
			wantErr: "invalid deadline",
		},
		{
			name:    "negative deadline",
			yaml:    "problem: {name: target}\ndeadline: -1s\nstop: {max_generations: 5}\n",
			wantErr: "deadline cannot be negative",
		},
		{
			name:    "missing problem",
			yaml:    "stop: {max_generations: 5}\n",
			wantErr: "problem name cannot be empty",
		},
		{
			name:    "no way to stop",
			yaml:    "problem: {name: target}\n",
			wantErr: "at least one stopping condition",
		},
		{
			name:    "small stagnation window",
			yaml:    "problem: {name: target}\nstop: {stagnation: {window: 1}}\n",
			wantErr: "stagnation window",
		},
		{
			name:    "negative stagnation tolerance",
			yaml:    "problem: {name: target}\nstop: {stagnation: {window: 5, tolerance: -1}}\n",
			wantErr: "stagnation tolerance",
		},
		{
			name:    "negative max generations",
			yaml:    "problem: {name: target}\nstop: {max_generations: -3, target_fitness: 0}\n",
			wantErr: "max_generations cannot be negative",
		},
		{
			name:    "too many elites",
			yaml:    "population_size: 4\nproblem: {name: target}\nstop: {max_generations: 5}\nreplacement: {elites: 4}\n",
			wantErr: "elites must be less than population_size",
		},
		{
			name:    "bad ttl",
			yaml:    "problem: {name: target}\nstop: {max_generations: 5}\ncache: {enabled: true, ttl: forever}\n",
			wantErr: "invalid ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfigYAMLString(tt.yaml)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

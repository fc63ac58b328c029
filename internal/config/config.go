// Package config loads batch run configuration from YAML. Flags on the
// CLI override file values; defaults fill whatever remains.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the run settings shared by the batch commands.
type Config struct {
	// DataDir holds one subdirectory per dataset.
	DataDir string `yaml:"data_dir"`

	// OutDir receives per-dataset output files.
	OutDir string `yaml:"out_dir"`

	// Workers bounds concurrent dataset processing.
	Workers int `yaml:"workers"`

	// RunLog is the optional SQLite run-log path; empty disables outcome
	// recording.
	RunLog string `yaml:"runlog,omitempty"`

	// RestPrefixes override the resting-state task classification.
	RestPrefixes []string `yaml:"rest_prefixes,omitempty"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		OutDir:  "dataset_output",
		Workers: 4,
	}
}

// Load reads a YAML config file over the defaults. Unknown keys are
// rejected: a typoed field silently falling back to a default is the kind
// of misconfiguration that wastes a cluster allocation.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return errors.New("config: workers must be at least 1")
	}
	if c.OutDir == "" {
		return errors.New("config: out_dir must not be empty")
	}
	return nil
}

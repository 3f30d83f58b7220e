// Package config loads gclens settings from an optional YAML file.
// Command-line flags override anything set here.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mabhi256/gclens/internal/gc"
)

// Config holds the tunables a user is likely to want pinned across runs.
type Config struct {
	// Threshold is the throughput percentage below which an interval
	// between collections is reported as a bottleneck.
	Threshold int `yaml:"threshold"`

	// RejectLimit caps how many unidentified log lines are retained.
	RejectLimit int `yaml:"reject_limit"`

	// Preprocess runs the log through normalization before analysis.
	Preprocess bool `yaml:"preprocess"`

	// JvmOptions is the JVM option string, for installations where it is
	// fixed and retyping it per invocation is a chore.
	JvmOptions string `yaml:"jvm_options"`
}

func Default() *Config {
	return &Config{
		Threshold:   gc.DefaultThroughputThreshold,
		RejectLimit: gc.DefaultRejectLimit,
	}
}

// DefaultPath is ~/.gclens.yaml, or empty when the home directory is
// unresolvable.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gclens.yaml")
}

// Load reads the config at path, filling unset fields with defaults.
// A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 100 {
		return nil, fmt.Errorf("config %s: threshold must be in 1..100, got %d", path, cfg.Threshold)
	}
	if cfg.RejectLimit < 0 {
		return nil, fmt.Errorf("config %s: reject_limit must not be negative", path)
	}
	return cfg, nil
}

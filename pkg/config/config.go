// Package config holds the store settings loadable from a YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"protochain/pkg/store"
)

// Config carries the tunable knobs of a store instance. Zero values mean
// "use the default", so a partial YAML file only overrides what it names.
type Config struct {
	// HopCap bounds every chain traversal.
	HopCap int `yaml:"hop_cap"`
	// Strict makes rejected writes raise ReadOnlyProperty instead of
	// returning false.
	Strict bool `yaml:"strict"`
	// LogLevel is a zerolog level string: trace, debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the settings used when no file or flags are given.
func Default() Config {
	return Config{
		HopCap:   store.DefaultHopCap,
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.HopCap < 1 {
		cfg.HopCap = store.DefaultHopCap
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// Level parses the configured log level, falling back to info.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// StoreOptions translates the config into store construction options.
func (c Config) StoreOptions(log zerolog.Logger) []store.Option {
	return []store.Option{
		store.WithHopCap(c.HopCap),
		store.WithStrict(c.Strict),
		store.WithLogger(log),
	}
}

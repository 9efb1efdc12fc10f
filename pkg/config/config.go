// Package config loads packforge configuration from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries everything the default pipeline wiring needs. Flag
// handling in cmd/ overrides individual fields after FromEnv.
type Config struct {
	// SourceRoot is the root of the source asset tree.
	SourceRoot string `env:"PACKFORGE_SOURCE" envDefault:"source"`

	// OutputRoot is where textures, models, and dispatch tables are written.
	OutputRoot string `env:"PACKFORGE_OUTPUT" envDefault:"build"`

	// GeneratorsDir holds external generator modules. Empty disables
	// plugin discovery.
	GeneratorsDir string `env:"PACKFORGE_GENERATORS"`

	// TargetVersion selects which reference dataset snapshot to use.
	TargetVersion string `env:"PACKFORGE_VERSION"`

	// SnapshotURL is the download template for the reference dataset;
	// "{version}" is replaced with TargetVersion.
	SnapshotURL string `env:"PACKFORGE_SNAPSHOT_URL" envDefault:"https://assets.goliatone.com/packforge/vanilla/{version}/items.json"`

	// CacheDir stores the downloaded snapshot, keyed by a version marker.
	CacheDir string `env:"PACKFORGE_CACHE" envDefault:".packforge-cache"`
}

// FromEnv loads configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports missing required fields.
func (c Config) Validate() error {
	if c.SourceRoot == "" {
		return errors.New("config: source root is required")
	}
	if c.OutputRoot == "" {
		return errors.New("config: output root is required")
	}
	return nil
}

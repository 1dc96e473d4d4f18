// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the schedule
// integration engine.
//
// Configuration is loaded from a single YAML file specified by:
//   - SCHEDHUB_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. The file is the
// single source of truth; environment variables never override
// individual values. This keeps configuration deterministic and
// auditable, which matters because the unit divisors and delta
// thresholds below change what the engine reports.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the engine configuration.
type Config struct {
	// Storage configures the ledger database.
	Storage StorageConfig `yaml:"storage"`

	// Units configures the per-format unit conversions. Source tools
	// vary these by version and calendar, so they are configuration,
	// not constants.
	Units UnitsConfig `yaml:"units"`

	// Thresholds configures delta severity classification.
	Thresholds ThresholdsConfig `yaml:"thresholds"`
}

// StorageConfig configures the ledger database.
type StorageConfig struct {
	// Path is the SQLite database file.
	// Default: ${HOME}/.local/share/schedhub/ledger.db
	Path string `yaml:"path"`

	// PoolSize is the connection pool size. Default: 4.
	PoolSize int `yaml:"pool_size"`

	// ChunkSize bounds bulk task/delta inserts per statement batch.
	// Default: 50. Chunking is a transaction-size bound, never a
	// partial-success boundary.
	ChunkSize int `yaml:"chunk_size"`
}

// UnitsConfig configures unit conversion divisors. Zero values fall
// back to the defaults at load time.
type UnitsConfig struct {
	// P6HoursPerDay converts P6 hour-denominated duration and float
	// fields to whole working days. Default: 8. Real P6 calendars may
	// define a different hours-per-day; this is a documented
	// approximation, not a calendar computation.
	P6HoursPerDay int `yaml:"p6_hours_per_day"`

	// MSPSlackUnitsPerDay converts MSP XML TotalSlack values to days.
	// MSP reports slack in tenths of minutes; one 8-hour day is 4800.
	// Default: 4800.
	MSPSlackUnitsPerDay int `yaml:"msp_slack_units_per_day"`
}

// ThresholdsConfig configures delta severity classification, in days.
// Zero values fall back to the defaults at load time.
type ThresholdsConfig struct {
	// Date-shift severity buckets.
	DateShiftMinor    int `yaml:"date_shift_minor"`    // Default: 5
	DateShiftMajor    int `yaml:"date_shift_major"`    // Default: 15
	DateShiftCritical int `yaml:"date_shift_critical"` // Default: 30

	// Float-change classification.
	FloatNoiseFloor   int `yaml:"float_noise_floor"`   // Default: 5
	FloatCriticalBand int `yaml:"float_critical_band"` // Default: 10
	FloatMinorShift   int `yaml:"float_minor_shift"`   // Default: 14
}

// Default returns the default configuration. The defaults are a base
// for the config file, and also valid on their own so the CLI can run
// with just a --db override.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Storage: StorageConfig{
			Path:      filepath.Join(homeDir, ".local", "share", "schedhub", "ledger.db"),
			PoolSize:  4,
			ChunkSize: 50,
		},
		Units: UnitsConfig{
			P6HoursPerDay:       8,
			MSPSlackUnitsPerDay: 4800,
		},
		Thresholds: ThresholdsConfig{
			DateShiftMinor:    5,
			DateShiftMajor:    15,
			DateShiftCritical: 30,
			FloatNoiseFloor:   5,
			FloatCriticalBand: 10,
			FloatMinorShift:   14,
		},
	}
}

// Load loads configuration from the SCHEDHUB_CONFIG environment
// variable. Returns defaults when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv("SCHEDHUB_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merged over
// the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.fillZeroes()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// fillZeroes restores defaults for numeric fields the file left unset.
// yaml.Unmarshal cannot distinguish "absent" from explicit zero for
// plain ints, and zero is invalid for every numeric field here.
func (c *Config) fillZeroes() {
	defaults := Default()

	if c.Storage.PoolSize == 0 {
		c.Storage.PoolSize = defaults.Storage.PoolSize
	}
	if c.Storage.ChunkSize == 0 {
		c.Storage.ChunkSize = defaults.Storage.ChunkSize
	}
	if c.Units.P6HoursPerDay == 0 {
		c.Units.P6HoursPerDay = defaults.Units.P6HoursPerDay
	}
	if c.Units.MSPSlackUnitsPerDay == 0 {
		c.Units.MSPSlackUnitsPerDay = defaults.Units.MSPSlackUnitsPerDay
	}
	if c.Thresholds.DateShiftMinor == 0 {
		c.Thresholds.DateShiftMinor = defaults.Thresholds.DateShiftMinor
	}
	if c.Thresholds.DateShiftMajor == 0 {
		c.Thresholds.DateShiftMajor = defaults.Thresholds.DateShiftMajor
	}
	if c.Thresholds.DateShiftCritical == 0 {
		c.Thresholds.DateShiftCritical = defaults.Thresholds.DateShiftCritical
	}
	if c.Thresholds.FloatNoiseFloor == 0 {
		c.Thresholds.FloatNoiseFloor = defaults.Thresholds.FloatNoiseFloor
	}
	if c.Thresholds.FloatCriticalBand == 0 {
		c.Thresholds.FloatCriticalBand = defaults.Thresholds.FloatCriticalBand
	}
	if c.Thresholds.FloatMinorShift == 0 {
		c.Thresholds.FloatMinorShift = defaults.Thresholds.FloatMinorShift
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Storage.Path == "" {
		errs = append(errs, fmt.Errorf("storage.path is required"))
	}
	if c.Storage.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("storage.pool_size must be positive"))
	}
	if c.Storage.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("storage.chunk_size must be positive"))
	}
	if c.Units.P6HoursPerDay < 1 {
		errs = append(errs, fmt.Errorf("units.p6_hours_per_day must be positive"))
	}
	if c.Units.MSPSlackUnitsPerDay < 1 {
		errs = append(errs, fmt.Errorf("units.msp_slack_units_per_day must be positive"))
	}
	if c.Thresholds.DateShiftMinor >= c.Thresholds.DateShiftMajor ||
		c.Thresholds.DateShiftMajor >= c.Thresholds.DateShiftCritical {
		errs = append(errs, fmt.Errorf("date shift thresholds must be strictly increasing (minor < major < critical)"))
	}
	if c.Thresholds.FloatNoiseFloor < 1 {
		errs = append(errs, fmt.Errorf("thresholds.float_noise_floor must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsureStorageDir creates the parent directory of the database path
// if it does not exist.
func (c *Config) EnsureStorageDir() error {
	dir := filepath.Dir(c.Storage.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

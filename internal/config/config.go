// Package config loads geo-audit settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kass/go-geo-audit/pkg/postgis"
	"github.com/kass/go-geo-audit/pkg/stats"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "GEO_AUDIT_"

// Config is the root configuration
type Config struct {
	Thresholds  stats.Thresholds  `yaml:"thresholds"`
	Bias        BiasConfig        `yaml:"bias"`
	Workbook    WorkbookConfig    `yaml:"workbook"`
	GroundTruth GroundTruthConfig `yaml:"ground_truth"`
	PostGIS     postgis.Config    `yaml:"postgis"`
	Archive     ArchiveConfig     `yaml:"archive"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// BiasConfig tunes directional bias labelling
type BiasConfig struct {
	MaterialityMeters float64 `yaml:"materiality_meters"`
}

// WorkbookConfig locates measurement rows in a workbook
type WorkbookConfig struct {
	Sheet     string `yaml:"sheet"`
	HeaderRow int    `yaml:"header_row"` // 1-based, 0 detects
	GroupBy   string `yaml:"group_by"`   // record field for KML folders and breakdowns
}

// GroundTruthConfig selects and locates the test point source
type GroundTruthConfig struct {
	Path      string `yaml:"path"`
	Sheet     string `yaml:"sheet"`
	HeaderRow int    `yaml:"header_row"`
	Snapshot  string `yaml:"snapshot"` // gob snapshot written by `geo-audit truth`
	UseDB     bool   `yaml:"use_db"`
}

// ArchiveConfig enables the SQLite run archive
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		Thresholds: stats.DefaultThresholds(),
		Bias:       BiasConfig{MaterialityMeters: stats.BiasMaterialityMeters},
		Workbook: WorkbookConfig{
			Sheet:   "Correlation",
			GroupBy: "participant",
		},
		GroundTruth: GroundTruthConfig{Snapshot: "ground_truth.gob"},
		PostGIS: postgis.Config{
			Host:    "localhost",
			Port:    5432,
			User:    "geo",
			DBName:  "geodb",
			SSLMode: "disable",
		},
		Archive: ArchiveConfig{Path: "geo-audit.db"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults. Variables from a .env file in the working directory and the
// process environment are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	// .env is optional
	_ = godotenv.Load()
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	str("POSTGIS_HOST", &c.PostGIS.Host)
	str("POSTGIS_USER", &c.PostGIS.User)
	str("POSTGIS_PASSWORD", &c.PostGIS.Password)
	str("POSTGIS_DB", &c.PostGIS.DBName)
	str("POSTGIS_SSLMODE", &c.PostGIS.SSLMode)
	str("GROUND_TRUTH", &c.GroundTruth.Path)
	str("ARCHIVE_PATH", &c.Archive.Path)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	if v := os.Getenv(EnvPrefix + "POSTGIS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPOSTGIS_PORT %q: %w", EnvPrefix, v, err)
		}
		c.PostGIS.Port = port
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"HORIZONTAL_THRESHOLD", &c.Thresholds.HorizontalMeters},
		{"VERTICAL_THRESHOLD", &c.Thresholds.VerticalMeters},
		{"PERCENTILE", &c.Thresholds.Percentile},
	}
	for _, f := range floats {
		v := os.Getenv(EnvPrefix + f.name)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, f.name, v, err)
		}
		*f.dst = parsed
	}
	return nil
}

// Validate rejects settings the audit cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Thresholds.HorizontalMeters <= 0 {
		errs = append(errs, fmt.Errorf("thresholds.horizontal_meters must be positive, got %g", c.Thresholds.HorizontalMeters))
	}
	if c.Thresholds.VerticalMeters <= 0 {
		errs = append(errs, fmt.Errorf("thresholds.vertical_meters must be positive, got %g", c.Thresholds.VerticalMeters))
	}
	if c.Thresholds.Percentile < 0 || c.Thresholds.Percentile > 100 {
		errs = append(errs, fmt.Errorf("thresholds.percentile must be within 0-100, got %g", c.Thresholds.Percentile))
	}
	if c.Bias.MaterialityMeters < 0 {
		errs = append(errs, fmt.Errorf("bias.materiality_meters must not be negative"))
	}
	if c.Workbook.HeaderRow < 0 || c.GroundTruth.HeaderRow < 0 {
		errs = append(errs, fmt.Errorf("header_row must be 0 (detect) or a 1-based row"))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

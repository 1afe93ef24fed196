// Package config defines service configuration structures and loading.
//
// Conventions:
// - New() returns defaults; Load() layers an optional YAML file and env vars.
// - Absence of SQL settings is not an error; the source resolver falls
//   through to the next candidate.
package config

import (
	"time"
)

// SQL holds the primary backend connection settings. An empty Host means
// no database source is configured.
type SQL struct {
	Host              string `koanf:"host"`
	Port              int    `koanf:"port"`
	Database          string `koanf:"database"`
	Username          string `koanf:"username"`
	Password          string `koanf:"password"`
	Driver            string `koanf:"driver"`
	TrustedConnection bool   `koanf:"trusted_connection"`
	Table             string `koanf:"table"`
}

// Enabled reports whether enough is configured to attempt a connection.
func (s SQL) Enabled() bool { return s.Host != "" && s.Database != "" }

// Thresholds bucket overspeed magnitude into per-event risk levels.
type Thresholds struct {
	Extreme float64 `koanf:"extreme"`
	High    float64 `koanf:"high"`
	Medium  float64 `koanf:"medium"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Timezone is the IANA location all source timestamps are interpreted in.
	Timezone string `koanf:"timezone"`

	// SQL configures the primary database backend.
	SQL SQL `koanf:"sql"`

	// SharePath points at the secondary network-share workbook.
	SharePath string `koanf:"share_path"`

	// SampleData enables the built-in sample dataset as the final fallback.
	SampleData bool `koanf:"sample_data"`

	// UploadDir receives session-uploaded datasets.
	UploadDir string `koanf:"upload_dir"`

	// ReportsDir receives generated report artifacts.
	ReportsDir string `koanf:"reports_dir"`

	// CacheTTLSeconds and CacheEntries bound the dataset cache.
	CacheTTLSeconds int `koanf:"cache_ttl_s"`
	CacheEntries    int `koanf:"cache_entries"`

	// LoadTimeoutMS bounds one source load attempt.
	LoadTimeoutMS int `koanf:"load_timeout_ms"`

	// ProbeTimeoutMS bounds one connectivity probe.
	ProbeTimeoutMS int `koanf:"probe_timeout_ms"`

	// RiskWeights maps event types to composite score weights.
	RiskWeights map[string]float64 `koanf:"risk_weights"`

	// RiskThresholds bucket overspeed values into risk levels.
	RiskThresholds Thresholds `koanf:"risk_thresholds"`

	// WarningThreshold is the minimum overspeed that earns a warning letter.
	WarningThreshold float64 `koanf:"warning_threshold"`

	// TopN caps ranking sizes in summaries and reports.
	TopN int `koanf:"top_n"`

	// DefaultLanguage is the report language fallback.
	DefaultLanguage string `koanf:"default_language"`

	// MaxUploadMB caps accepted upload sizes.
	MaxUploadMB int `koanf:"max_upload_mb"`
}

// New returns the default configuration. The weights and thresholds follow
// the values the deploying organization ran with; both are pure inputs and
// can be changed without re-ingesting data.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8080",
		Timezone:        "UTC",
		SQL:             SQL{Port: 1433, Driver: "sqlserver", Table: "dbo.FMS_SPEED"},
		SampleData:      true,
		UploadDir:       "uploads",
		ReportsDir:      "reports",
		CacheTTLSeconds: 3600,
		CacheEntries:    32,
		LoadTimeoutMS:   10_000,
		ProbeTimeoutMS:  3_000,
		RiskWeights: map[string]float64{
			"speeding":    2,
			"harsh-brake": 5,
			"harsh-accel": 4,
			"idle":        1,
			"geofence":    3,
		},
		RiskThresholds:   Thresholds{Extreme: 20, High: 11, Medium: 6},
		WarningThreshold: 6,
		TopN:             10,
		DefaultLanguage:  "en",
		MaxUploadMB:      100,
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// LoadTimeout returns the per-source load timeout.
func (c *Config) LoadTimeout() time.Duration {
	return time.Duration(c.LoadTimeoutMS) * time.Millisecond
}

// ProbeTimeout returns the per-probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

// Location resolves the configured timezone, defaulting to UTC on error.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

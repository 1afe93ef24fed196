package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FMS_CONFIG is set
//  3. env (prefix FMS_), e.g. FMS_ADDR, FMS_SQL_HOST, FMS_CACHE_TTL_S
//  4. legacy SQL_* env names used by network deployments
func Load(ctx context.Context) (*Config, error) {
	_ = ctx

	k := koanf.New(".")

	if path := os.Getenv("FMS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, wrapLoadErr(err)
		}
	}

	// FMS_SQL_HOST -> sql.host, everything else stays flat with underscores
	// preserved to match the koanf tags on Config.
	envProvider := env.Provider("FMS_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "FMS_"))
		if rest, ok := strings.CutPrefix(s, "sql_"); ok {
			return "sql." + rest
		}
		if rest, ok := strings.CutPrefix(s, "risk_thresholds_"); ok {
			return "risk_thresholds." + rest
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, wrapLoadErr(err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, wrapLoadErr(err)
	}

	applyLegacyEnv(cfg)

	if cfg.Addr == "" {
		return nil, ErrInvalidConfig
	}
	if cfg.CacheEntries <= 0 || cfg.CacheTTLSeconds <= 0 {
		return nil, ErrInvalidConfig
	}
	return cfg, nil
}

// applyLegacyEnv honors the SQL_* variable names the network-deployed
// variant sets, overriding file- and FMS_-based values.
func applyLegacyEnv(cfg *Config) {
	if v := os.Getenv("SQL_SERVER"); v != "" {
		cfg.SQL.Host = v
	}
	if v := os.Getenv("SQL_DATABASE"); v != "" {
		cfg.SQL.Database = v
	}
	if v := os.Getenv("SQL_USERNAME"); v != "" {
		cfg.SQL.Username = v
	}
	if v := os.Getenv("SQL_PASSWORD"); v != "" {
		cfg.SQL.Password = v
	}
}

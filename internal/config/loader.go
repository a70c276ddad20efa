package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment conventions.
const (
	EnvPrefix     = "SENTIVISION_"
	EnvConfigPath = "SENTIVISION_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from path, or SENTIVISION_CONFIG when path is empty
//  3. env (prefix SENTIVISION_, "__" separates nested keys)
//  4. DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME when no DSN was configured
func Load(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SENTIVISION_DATABASE__DSN -> database.dsn, SENTIVISION_PAGE_SIZE -> page_size
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		if s == "CONFIG" {
			return ""
		}
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if !k.Exists("database.dsn") {
		applyLegacyDB(&cfg, legacyFromEnv())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func legacyFromEnv() LegacyDB {
	return LegacyDB{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
	}
}

// applyLegacyDB points the service at the pipeline's database when the
// pipeline's DB_* variables are present.
func applyLegacyDB(cfg *Config, l LegacyDB) {
	if l.Host == "" || l.Name == "" {
		return
	}
	cfg.Database.Driver = DriverMySQL
	cfg.Database.DSN = l.MySQLDSN()
}

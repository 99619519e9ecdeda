// Package config loads CLI settings from DOCMAP_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/aretw0/docmap/internal/platform"
)

// Config mirrors the store options that can be set from the environment.
// Command-line flags take precedence over these values.
type Config struct {
	Adapter       string `env:"ADAPTER" envDefault:"fs"`
	Path          string `env:"PATH" envDefault:"."`
	Format        string `env:"FORMAT" envDefault:".json"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	KeyPrefix     string `env:"KEY_PREFIX"`
	ReadOnly      bool   `env:"READ_ONLY"`
	CreateOnly    bool   `env:"CREATE_ONLY"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

// Prefix is prepended to every variable name.
const Prefix = "DOCMAP_"

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// URI returns the adapter-specific location to open.
func (c Config) URI() string {
	if c.Adapter == platform.AdapterRedis {
		return c.RedisAddr
	}
	return c.Path
}

// Options translates the configuration into store options.
func (c Config) Options() []platform.Option {
	opts := []platform.Option{
		platform.WithAdapter(c.Adapter),
		platform.WithFormat(c.Format),
		platform.WithReadOnly(c.ReadOnly),
		platform.WithCreateOnly(c.CreateOnly),
	}
	if c.Adapter == platform.AdapterRedis {
		opts = append(opts, platform.WithRedisAuth(c.RedisPassword, c.RedisDB))
		if c.KeyPrefix != "" {
			opts = append(opts, platform.WithKeyPrefix(c.KeyPrefix))
		}
	}
	return opts
}

// Level parses LogLevel, falling back to Info for unknown values.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Package config loads runtime settings from defaults, an optional config file
// and STOCKD_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "STOCKD_"

	DefaultPort      = "8080"
	DefaultDBDSN     = "stockd.db"
	DefaultLogLevel  = "info"
	DefaultBodyLimit = 16 * 1024 * 1024
	DefaultRateLimit = 120
)

type Config struct {
	Port      string `koanf:"port" validate:"required"`
	DBDSN     string `koanf:"db_dsn" validate:"required"`
	LogFile   string `koanf:"log_file"`
	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn error"`
	BodyLimit int    `koanf:"body_limit" validate:"gte=5243904"` // 5 MiB file plus multipart overhead
	RateLimit int    `koanf:"rate_limit" validate:"gte=0"`       // requests per minute per IP, 0 disables
}

func defaults() map[string]any {
	return map[string]any{
		"port":       DefaultPort,
		"db_dsn":     DefaultDBDSN,
		"log_file":   "",
		"log_level":  DefaultLogLevel,
		"body_limit": DefaultBodyLimit,
		"rate_limit": DefaultRateLimit,
	}
}

// Load builds the configuration. path may be empty; when set it must name a
// .toml, .yaml or .yml file.
func Load(path string) (Config, error) {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	for key, v := range defaults() {
		if err := k.Set(key, v); err != nil {
			return Config{}, err
		}
	}

	if path != "" {
		if err := k.Load(fileProvider{path: path}, nil); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// fileProvider is a koanf.Provider for TOML and YAML files.
type fileProvider struct {
	path string
}

func (p fileProvider) ReadBytes() ([]byte, error) {
	return os.ReadFile(p.path)
}

func (p fileProvider) Read() (map[string]any, error) {
	b, err := p.ReadBytes()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	switch strings.ToLower(filepath.Ext(p.path)) {
	case ".toml":
		if _, err := toml.Decode(string(b), &out); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &out); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(p.path))
	}
	return out, nil
}

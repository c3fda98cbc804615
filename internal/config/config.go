// Package config loads runtime configuration from config.yaml and
// SHONA_-prefixed environment variables, env taking precedence.
package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Auth    AuthConfig    `koanf:"auth"`
}

type ServerConfig struct {
	Port           int           `koanf:"port"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type StorageConfig struct {
	Driver string `koanf:"driver"` // sqlite, postgres, memory
	DSN    string `koanf:"dsn"`
}

type AuthConfig struct {
	TokenSecret string        `koanf:"token_secret"`
	TokenTTL    time.Duration `koanf:"token_ttl"`
	OTPCodeTTL  time.Duration `koanf:"otp_code_ttl"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config.yaml first; missing file is fine, env vars take over.
	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Environment variables override file config. SHONA_SERVER__PORT=9000
	// maps to server.port.
	if err := k.Load(env.Provider("SHONA_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "SHONA_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("server.request_timeout") {
		k.Set("server.request_timeout", "30s")
	}
	if !k.Exists("storage.driver") {
		k.Set("storage.driver", "sqlite")
	}
	if !k.Exists("storage.dsn") {
		k.Set("storage.dsn", "./data/shonacoin.db")
	}
	if !k.Exists("auth.token_ttl") {
		k.Set("auth.token_ttl", "24h")
	}
	if !k.Exists("auth.otp_code_ttl") {
		k.Set("auth.otp_code_ttl", "10m")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Secrets may be referenced as ${VAR} in config.yaml.
	cfg.Auth.TokenSecret = substituteEnvVars(cfg.Auth.TokenSecret)
	cfg.Storage.DSN = substituteEnvVars(cfg.Storage.DSN)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

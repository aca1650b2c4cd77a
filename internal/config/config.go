// Package config содержит логику чтения конфигурации магазина орхидей.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrDefaultSecret означает, что встроенный секрет токенов используется вне
// локальной разработки на SQLite.
var ErrDefaultSecret = errors.New("default token secret is allowed only with the sqlite driver")

const sqliteDriver = "sqlite"

// Значения по умолчанию.
const (
	DefaultRunAddress     = "localhost:8080"
	DefaultDatabaseDriver = "postgres"
	DefaultJWTSecret      = "orchidshop-dev-secret"
	DefaultJWTIssuer      = "orchidshop"
	DefaultJWTAudience    = "orchidshop-clients"
	DefaultJWTTTL         = 60 * time.Minute
)

// Config содержит параметры конфигурации магазина орхидей.
type Config struct {
	RunAddress     string        `env:"RUN_ADDRESS"`
	DatabaseDriver string        `env:"DATABASE_DRIVER"`
	DatabaseURI    string        `env:"DATABASE_URI"`
	JWTSecret      string        `env:"JWT_SECRET"`
	JWTIssuer      string        `env:"JWT_ISSUER"`
	JWTAudience    string        `env:"JWT_AUDIENCE"`
	JWTTTL         time.Duration `env:"JWT_TTL"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	fromEnv := Config{}
	if err := env.Parse(&fromEnv); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{}
	flag.StringVar(&cfg.RunAddress, "a", DefaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseDriver, "driver", DefaultDatabaseDriver, "database driver: postgres or sqlite")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.JWTSecret, "s", DefaultJWTSecret, "secret for signing access tokens")
	flag.StringVar(&cfg.JWTIssuer, "issuer", DefaultJWTIssuer, "access token issuer")
	flag.StringVar(&cfg.JWTAudience, "audience", DefaultJWTAudience, "access token audience")
	flag.DurationVar(&cfg.JWTTTL, "ttl", DefaultJWTTTL, "access token lifetime")
	flag.StringVar(&cfg.RedisAddr, "r", "", "redis address for token revocation, in-memory store if empty")

	flag.Parse()

	override(&cfg.RunAddress, fromEnv.RunAddress)
	override(&cfg.DatabaseDriver, fromEnv.DatabaseDriver)
	override(&cfg.DatabaseURI, fromEnv.DatabaseURI)
	override(&cfg.JWTSecret, fromEnv.JWTSecret)
	override(&cfg.JWTIssuer, fromEnv.JWTIssuer)
	override(&cfg.JWTAudience, fromEnv.JWTAudience)
	override(&cfg.JWTTTL, fromEnv.JWTTTL)
	override(&cfg.RedisAddr, fromEnv.RedisAddr)
	cfg.RedisPassword = fromEnv.RedisPassword

	if cfg.RunAddress == "" {
		cfg.RunAddress = DefaultRunAddress
	}
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = DefaultDatabaseDriver
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", cfg.JWTTTL)
	}
	if cfg.JWTSecret == DefaultJWTSecret && cfg.DatabaseDriver != sqliteDriver {
		return nil, fmt.Errorf("%w: set JWT_SECRET or -s for the %s driver", ErrDefaultSecret, cfg.DatabaseDriver)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("token secret must not be empty")
	}

	return cfg, nil
}

func override[T comparable](dst *T, fromEnv T) {
	var zero T
	if fromEnv != zero {
		*dst = fromEnv
	}
}

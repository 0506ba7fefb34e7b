package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	CacheMemory    = "memory"
	CacheRedis     = "redis"
	CacheBroadcast = "broadcast"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	LogMode string `env:"LOG_MODE" envDefault:"development"`
	Version string `env:"APP_VERSION" envDefault:"dev"`

	DBDriver    string         `env:"DB_DRIVER" envDefault:"postgres"`
	SQLitePath  string         `env:"SQLITE_PATH" envDefault:"curriculum.db"`
	AutoMigrate bool           `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	Postgres    PostgresConfig `envPrefix:"POSTGRES_"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// CacheBackend is memory (single instance), redis (shared entries) or
	// broadcast (local entries, invalidations fanned out over Redis pub/sub).
	CacheBackend        string        `env:"PACKAGE_CACHE_BACKEND" envDefault:"memory"`
	CacheTTL            time.Duration `env:"PACKAGE_CACHE_TTL" envDefault:"0s"`
	CachePrefix         string        `env:"PACKAGE_CACHE_PREFIX"`
	PackageMaxAge       time.Duration `env:"PACKAGE_MAX_AGE" envDefault:"15m"`
	InvalidationChannel string        `env:"PACKAGE_INVALIDATION_CHANNEL" envDefault:"course_package_invalidations"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	MetricsEnabled bool       `env:"METRICS_ENABLED" envDefault:"true"`
	Otel           OtelConfig `envPrefix:"OTEL_"`
}

type PostgresConfig struct {
	Host         string `env:"HOST" envDefault:"localhost"`
	Port         string `env:"PORT" envDefault:"5432"`
	User         string `env:"USER" envDefault:"postgres"`
	Password     string `env:"PASSWORD"`
	Name         string `env:"DB" envDefault:"curriculum"`
	SSLMode      string `env:"SSLMODE" envDefault:"disable"`
	DSN          string `env:"DSN"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
}

type OtelConfig struct {
	Enabled     bool    `env:"ENABLED" envDefault:"false"`
	ServiceName string  `env:"SERVICE_NAME" envDefault:"curriculum"`
	Environment string  `env:"ENVIRONMENT" envDefault:"development"`
	Endpoint    string  `env:"EXPORTER_OTLP_ENDPOINT"`
	Headers     string  `env:"EXPORTER_OTLP_HEADERS"`
	Insecure    bool    `env:"EXPORTER_OTLP_INSECURE" envDefault:"false"`
	SampleRatio float64 `env:"TRACES_SAMPLER_RATIO" envDefault:"1"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}
	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis, CacheBroadcast:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("PACKAGE_CACHE_BACKEND=%s requires REDIS_ADDR", c.CacheBackend)
		}
	default:
		return fmt.Errorf("unknown PACKAGE_CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.PackageMaxAge < 0 {
		return fmt.Errorf("PACKAGE_MAX_AGE must not be negative")
	}
	return nil
}

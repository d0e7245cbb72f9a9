package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	DBPath     string `env:"DB_PATH" envDefault:"player_cards.db"`

	CacheBackend  string `env:"CACHE_BACKEND" envDefault:"sqlite"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	EnkaBaseURL   string `env:"ENKA_BASE_URL" envDefault:"https://enka.network"`
	EnkaUserAgent string `env:"ENKA_USER_AGENT" envDefault:"player-cards/1.0"`

	MirrorDir   string `env:"MIRROR_DIR" envDefault:"cache/images"`
	TemplateDir string `env:"TEMPLATE_DIR" envDefault:"resources/templates"`
	ChromeURL   string `env:"CHROME_URL"`

	ProfileTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"60s"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", logger.GetLevel().String()).
		Str("cache_backend", cfg.CacheBackend).
		Str("mirror_dir", cfg.MirrorDir).
		Dur("profile_ttl", cfg.ProfileTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.CacheBackend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.ProfileTTL <= 0 {
		return fmt.Errorf("PROFILE_CACHE_TTL must be positive")
	}
	if c.EnkaBaseURL == "" {
		return fmt.Errorf("ENKA_BASE_URL is required")
	}
	return nil
}

var Module = fx.Provide(Load)

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
	"your-super-secret-jwt-key-change-in-production",
}

type Config struct {
	Port             int    `env:"PORT" envDefault:"8080"`
	DatabaseURL      string `env:"DATABASE_URL,required"`
	RedisURL         string `env:"REDIS_URL,required"`
	KickClientID     string `env:"KICK_CLIENT_ID"`
	KickClientSecret string `env:"KICK_CLIENT_SECRET"`
	KickRedirectURI  string `env:"KICK_REDIRECT_URI" envDefault:"http://localhost:8080/api/auth/kick/callback"`
	JWTSecret        string `env:"JWT_SECRET"`
	AppBaseURL       string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.KickClientID == "" {
		log.Warn().Msg("KICK_CLIENT_ID is empty: Kick login disabled until configured")
	}

	if isProduction {
		if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if !strings.HasPrefix(c.AppBaseURL, "https://") {
			log.Warn().Msg("APP_BASE_URL is not https in production: session cookies require a secure origin")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

package config

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// checks settings that depend on each other
func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthJWT:
		if c.JWTSecret == "" && c.JWTPublicKey == "" {
			return fmt.Errorf("JWT_SECRET or JWT_PUBLIC_KEY environment variable is required")
		}
	case AuthGoTrue:
		if c.IdentityURL == "" || c.IdentityAnonKey == "" {
			return fmt.Errorf("IDENTITY_URL and IDENTITY_ANON_KEY environment variables are required")
		}

		if _, err := url.ParseRequestURI(c.IdentityURL); err != nil {
			return fmt.Errorf("IDENTITY_URL is not a valid URL: %w", err)
		}
	default:
		return fmt.Errorf("unsupported AUTH_MODE %q", c.AuthMode)
	}

	switch c.AccountStore {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL environment variable is required")
		}
	case StoreMemory:
		if c.IsProduction() {
			return fmt.Errorf("ACCOUNT_STORE=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unsupported ACCOUNT_STORE %q", c.AccountStore)
	}

	if c.DailyLimit <= 0 {
		return fmt.Errorf("DAILY_LIMIT must be positive")
	}

	if c.CheckoutURL != "" {
		if _, err := url.ParseRequestURI(c.CheckoutURL); err != nil {
			return fmt.Errorf("CHECKOUT_URL is not a valid URL: %w", err)
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables for session tokens
const (
	EnvJWTSecret     = "JWT_SECRET"
	EnvJWTExpiration = "JWT_EXPIRATION_HOURS"
)

// DefaultJWTExpirationHours is how long a session token stays valid
const DefaultJWTExpirationHours = 24

// JWTConfig holds configuration for session token signing and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig creates a JWT configuration from environment variables.
// It reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default: 24).
func NewJWTConfig() (*JWTConfig, error) {
	expirationHours := DefaultJWTExpirationHours
	if v := os.Getenv(EnvJWTExpiration); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", EnvJWTExpiration, err)
		}
		expirationHours = hours
	}
	return NewJWTConfigWith(os.Getenv(EnvJWTSecret), expirationHours)
}

// NewJWTConfigWith creates a JWT configuration from explicit values
func NewJWTConfigWith(secret string, expirationHours int) (*JWTConfig, error) {
	config := &JWTConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
	}
	if err := config.normalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("%s is required but not set", EnvJWTSecret)
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("%s must be at least 1 hour, got: %d", EnvJWTExpiration, c.ExpirationHours)
	}
	return nil
}

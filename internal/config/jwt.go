package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// DefaultSessionIssuer is the iss claim on chat session tokens.
const DefaultSessionIssuer = "portfolio-assistant"

// JWTConfig holds configuration for chat session token signing and validation.
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// NewJWTConfig creates a JWT configuration from environment variables.
// It reads JWT_SECRET (required) and JWT_EXPIRATION_MINUTES (default: 120).
func NewJWTConfig(getenv func(string) string) (*JWTConfig, error) {
	secret := getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	expirationStr := getenv("JWT_EXPIRATION_MINUTES")
	if expirationStr == "" {
		expirationStr = "120"
	}
	minutes, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %v", err)
	}

	config := &JWTConfig{
		Secret:     secret,
		Expiration: time.Duration(minutes) * time.Minute,
		Issuer:     DefaultSessionIssuer,
	}
	if err := config.normalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// EphemeralJWTConfig returns a configuration with a random secret. Tokens it
// signs stop validating when the process restarts.
func EphemeralJWTConfig() (*JWTConfig, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}
	return &JWTConfig{
		Secret:     hex.EncodeToString(buf),
		Expiration: 120 * time.Minute,
		Issuer:     DefaultSessionIssuer,
	}, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.Expiration < time.Minute {
		return fmt.Errorf("JWT_EXPIRATION_MINUTES must be at least 1 minute, got: %s", c.Expiration)
	}
	return nil
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig_DefaultExpiration(t *testing.T) {
	t.Setenv(EnvJWTSecret, "test-secret-key")
	t.Setenv(EnvJWTExpiration, "")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, "test-secret-key", cfg.Secret)
	assert.Equal(t, 24, cfg.ExpirationHours, "should use default expiration of 24 hours")
}

func TestNewJWTConfig_Expiration(t *testing.T) {
	tests := []struct {
		name          string
		expiration    string
		expectedHours int
		wantErr       string
	}{
		{name: "custom 12 hours", expiration: "12", expectedHours: 12},
		{name: "minimum 1 hour", expiration: "1", expectedHours: 1},
		{name: "zero rejected", expiration: "0", wantErr: "at least 1 hour"},
		{name: "negative rejected", expiration: "-5", wantErr: "at least 1 hour"},
		{name: "not a number", expiration: "abc", wantErr: "invalid JWT_EXPIRATION_HOURS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvJWTSecret, "secret")
			t.Setenv(EnvJWTExpiration, tt.expiration)

			cfg, err := NewJWTConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedHours, cfg.ExpirationHours)
		})
	}
}

func TestNewJWTConfig_MissingSecret(t *testing.T) {
	t.Setenv(EnvJWTSecret, "")

	cfg, err := NewJWTConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestNewJWTConfigWith(t *testing.T) {
	cfg, err := NewJWTConfigWith("from-file", 6)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Secret)
	assert.Equal(t, 6, cfg.ExpirationHours)

	_, err = NewJWTConfigWith("", 6)
	assert.Error(t, err)
}

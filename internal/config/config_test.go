package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		JWTSecret:            "secure-secret-at-least-32-chars-long",
		DBPassword:           "secure-password",
		Port:                 "8080",
		ImageMaxUploadSizeMB: 5,
		VideoMaxUploadSizeMB: 100,
		RedisURL:             "redis://localhost:6379",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	t.Run("default secret rejected", func(t *testing.T) {
		c := validConfig()
		c.Env = "production"
		c.DBSSLMode = "require"
		c.JWTSecret = defaultJWTSecret
		assert.Error(t, c.Validate())
	})

	t.Run("short secret rejected", func(t *testing.T) {
		c := validConfig()
		c.Env = "production"
		c.DBSSLMode = "require"
		c.JWTSecret = "short"
		assert.Error(t, c.Validate())
	})

	t.Run("weak db password rejected", func(t *testing.T) {
		c := validConfig()
		c.Env = "production"
		c.DBSSLMode = "require"
		c.DBPassword = "password"
		assert.Error(t, c.Validate())
	})

	t.Run("non-positive upload limit rejected", func(t *testing.T) {
		c := validConfig()
		c.VideoMaxUploadSizeMB = 0
		assert.Error(t, c.Validate())
	})
}

func TestLoadConfig_DefaultsAndNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("JWT_EXPIRES_IN", "2h")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, 2*time.Hour, c.JWTExpiresIn)
	assert.Equal(t, 5, c.ImageMaxUploadSizeMB)
	assert.Equal(t, 100, c.VideoMaxUploadSizeMB)
	assert.Equal(t, 3600, c.VideoMaxDurationSeconds)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "__Host-session", cfg.Session.CookieName)
	assert.Equal(t, 5, cfg.Session.MaxFailedAttempts)
	assert.Equal(t, uint32(5), cfg.AI.BreakerFailures)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestValidate_Production(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "short secret",
			mutate:  func(c *Config) { c.JWT.Secret = "short" },
			wantErr: "at least 32 characters",
		},
		{
			name:    "ssl disabled",
			mutate:  func(c *Config) { c.Database.SSLMode = "disable" },
			wantErr: "DB_SSLMODE=disable",
		},
		{
			name:    "ai without key",
			mutate:  func(c *Config) { c.AI.APIKey = "" },
			wantErr: "AI_API_KEY",
		},
		{
			name:    "half oauth",
			mutate:  func(c *Config) { c.OAuth.GoogleClientSecret = "" },
			wantErr: "must be set together",
		},
		{
			name:    "rate limit off",
			mutate:  func(c *Config) { c.RateLimit.BurstSize = 0 },
			wantErr: "RATE_LIMIT_BURST",
		},
		{
			name:    "insecure cookie",
			mutate:  func(c *Config) { c.Session.CookieSecure = false },
			wantErr: "SESSION_COOKIE_SECURE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				App:       AppConfig{Environment: "production"},
				JWT:       JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
				Database:  DatabaseConfig{Password: "pw", SSLMode: "require"},
				AI:        AIConfig{Enabled: true, APIKey: "key"},
				OAuth:     OAuthConfig{GoogleClientID: "id", GoogleClientSecret: "secret"},
				Session:   SessionConfig{CookieSecure: true},
				RateLimit: RateLimitConfig{RequestsPerSecond: 100, BurstSize: 200},
			}
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Empty(t, splitList(""))
}

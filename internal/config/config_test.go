package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "switzea-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, StoreFirestore, cfg.StoreBackend)
	require.Equal(t, "/index.html", cfg.LoginPath)
	require.Equal(t, "/dashboard.html", cfg.DashboardPath)
	require.Equal(t, "__session", cfg.SessionCookieName)
	require.Equal(t, 5*24*time.Hour, cfg.SessionCookieTTL)
	require.Equal(t, 5*time.Minute, cfg.SessionCacheTTL)
	require.Equal(t, "portal.documents", cfg.RabbitMQQueue)
	require.False(t, cfg.Release())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "switzea-test")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("SESSION_CACHE_TTL", "30s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.Release())
	require.Equal(t, StoreMemory, cfg.StoreBackend)
	require.Equal(t, 30*time.Second, cfg.SessionCacheTTL)
	require.Equal(t, 3, cfg.RedisDB)
	require.InDelta(t, 2.5, cfg.RateLimitRPS, 0.0001)
}

func TestLoadConfig_RequiresProjectID(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "FIREBASE_PROJECT_ID")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			FirebaseProjectID: "p",
			StoreBackend:      StoreMemory,
			LoginPath:         "/index.html",
			DashboardPath:     "/dashboard.html",
			SessionCookieName: "__session",
			SessionCookieTTL:  time.Hour,
			RateLimitRPS:      1,
			RateLimitBurst:    1,
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.StoreBackend = "mongo"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.LoginPath = "index.html"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.SessionCookieTTL = time.Minute
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.RateLimitBurst = 0
	require.Error(t, cfg.Validate())
}

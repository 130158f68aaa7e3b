package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, CacheBackendRedis, cfg.CacheBackend)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, BusDriverRedis, cfg.BusDriver)
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 30 * time.Second}, cfg.RetryIntervals)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.False(t, cfg.ShowCriticalData)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("BUS_DRIVER", "nats")
	t.Setenv("RETRY_INTERVALS", "1s,2s")
	t.Setenv("SHOW_CRITICAL_DATA", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://shop.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, CacheBackendMemory, cfg.CacheBackend)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, BusDriverNATS, cfg.BusDriver)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, cfg.RetryIntervals)
	assert.True(t, cfg.ShowCriticalData)
	assert.Equal(t, []string{"https://shop.example.com"}, cfg.AllowedOrigins)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "unknown cache backend", mutate: func(c *Config) { c.CacheBackend = "memcached" }},
		{name: "unknown bus driver", mutate: func(c *Config) { c.BusDriver = "kafka" }},
		{name: "empty retry schedule", mutate: func(c *Config) { c.RetryIntervals = nil }},
		{name: "non-positive retry interval", mutate: func(c *Config) { c.RetryIntervals = []time.Duration{0} }},
		{name: "zero cache ttl", mutate: func(c *Config) { c.CacheTTL = 0 }},
		{name: "zero batch size", mutate: func(c *Config) { c.PublisherBatchSize = 0 }},
		{name: "empty jwt key", mutate: func(c *Config) { c.JWTKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig()
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, 3001, config.Port)
	assert.Equal(t, []string{"*"}, config.CORSOrigins)
	assert.Equal(t, []string{"deal4real", "zuzu", "buywithus"}, config.DefaultSources)
	assert.Equal(t, 60*time.Second, config.CacheTTL)
	assert.Equal(t, 64, config.CacheMaxEntries)
	assert.Equal(t, 70*time.Second, config.SourceTimeout)
	assert.Equal(t, 60*time.Second, config.NavigationTimeout)
	assert.Equal(t, 2*time.Second, config.SettleDelay)
	assert.Equal(t, RendererBrowser, config.Renderer)
	assert.Empty(t, config.RedisAddr)
	assert.Empty(t, config.MemcacheAddr)
	assert.Contains(t, config.UserAgent, "Chrome/119")
	require.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("DEFAULT_SOURCES", "beedeals")
	t.Setenv("CACHE_TTL_SECONDS", "5")
	t.Setenv("SETTLE_DELAY_MS", "250")
	t.Setenv("RENDERER", "HTTP")
	t.Setenv("BROWSER_STEALTH", "true")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("DEALS_ENVIRONMENT", "production")

	config = LoadConfig()
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, config.CORSOrigins)
	assert.Equal(t, []string{"beedeals"}, config.DefaultSources)
	assert.Equal(t, 5*time.Second, config.CacheTTL)
	assert.Equal(t, 250*time.Millisecond, config.SettleDelay)
	assert.Equal(t, RendererHTTP, config.Renderer)
	assert.True(t, config.Stealth)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.True(t, config.IsProduction())
	assert.Equal(t, "0.0.0.0:8080", config.Addr())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero ttl", func(c *Config) { c.CacheTTL = 0 }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
		{"unknown renderer", func(c *Config) { c.Renderer = "lynx" }},
		{"negative settle", func(c *Config) { c.SettleDelay = -time.Second }},
		{"zero burst", func(c *Config) { c.RateLimitBurst = 0 }},
		{"schemeless origin", func(c *Config) { c.CORSOrigins = []string{"example.com"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := LoadConfig()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,, b,"))
	assert.Nil(t, SplitList("  "))
}

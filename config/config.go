package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// RendererBrowser drives a headless Chromium through rod
	RendererBrowser = "browser"
	// RendererHTTP issues plain HTTP requests without running scripts
	RendererHTTP = "http"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"
)

// Config represents the application configuration
type Config struct {
	// HTTP server
	Host        string
	Port        int
	GinMode     string
	CORSOrigins []string

	// Sources scraped when a request names none
	DefaultSources []string

	// Result cache
	CacheTTL        time.Duration
	CacheMaxEntries int
	MemcacheAddr    string

	// Per-source time budget and renderer waits
	SourceTimeout     time.Duration
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
	NetworkIdleWait   time.Duration
	SettleDelay       time.Duration

	// Renderer
	Renderer       string
	BrowserBin     string
	Headless       bool
	NoSandbox      bool
	Stealth        bool
	UserAgent      string
	AcceptLanguage string

	// Redis deal feed, disabled when RedisAddr is empty
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int64

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	return Config{
		Host:                 getEnv("HOST", "0.0.0.0"),
		Port:                 getEnvInt("PORT", 3001),
		GinMode:              getEnv("GIN_MODE", "release"),
		CORSOrigins:          getEnvList("CORS_ORIGINS", []string{"*"}),
		DefaultSources:       getEnvList("DEFAULT_SOURCES", []string{"deal4real", "zuzu", "buywithus"}),
		CacheTTL:             time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second,
		CacheMaxEntries:      getEnvInt("CACHE_MAX_ENTRIES", 64),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		SourceTimeout:        time.Duration(getEnvInt("SOURCE_TIMEOUT_SECONDS", 70)) * time.Second,
		NavigationTimeout:    time.Duration(getEnvInt("NAVIGATION_TIMEOUT_SECONDS", 60)) * time.Second,
		SelectorTimeout:      time.Duration(getEnvInt("SELECTOR_TIMEOUT_SECONDS", 5)) * time.Second,
		NetworkIdleWait:      time.Duration(getEnvInt("NETWORK_IDLE_WAIT_SECONDS", 10)) * time.Second,
		SettleDelay:          time.Duration(getEnvInt("SETTLE_DELAY_MS", 2000)) * time.Millisecond,
		Renderer:             strings.ToLower(getEnv("RENDERER", RendererBrowser)),
		BrowserBin:           getEnv("BROWSER_BIN", ""),
		Headless:             getEnvBool("BROWSER_HEADLESS", true),
		NoSandbox:            getEnvBool("BROWSER_NO_SANDBOX", true),
		Stealth:              getEnvBool("BROWSER_STEALTH", false),
		UserAgent:            getEnv("USER_AGENT", defaultUserAgent),
		AcceptLanguage:       getEnv("ACCEPT_LANGUAGE", "he-IL,he;q=0.9,en-US;q=0.8,en;q=0.7"),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "deals"),
		RedisStreamMaxLength: int64(getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000)),
		RateLimitRPS:         getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:       getEnvInt("RATE_LIMIT_BURST", 10),
		Environment:          getEnv("DEALS_ENVIRONMENT", "development"),
	}
}

// Validate rejects values the services cannot run with
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	}
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be positive")
	}
	if c.SourceTimeout <= 0 || c.NavigationTimeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT_SECONDS and NAVIGATION_TIMEOUT_SECONDS must be positive")
	}
	if c.SelectorTimeout < 0 || c.NetworkIdleWait < 0 || c.SettleDelay < 0 {
		return fmt.Errorf("renderer waits must not be negative")
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown GIN_MODE %q", c.GinMode)
	}
	switch c.Renderer {
	case RendererBrowser, RendererHTTP:
	default:
		return fmt.Errorf("unknown RENDERER %q", c.Renderer)
	}
	for _, origin := range c.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ORIGINS entry %q needs an http:// or https:// scheme", origin)
		}
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr returns the listen address of the HTTP server
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvList splits a comma separated variable, dropping blank entries
func getEnvList(key string, defaultValue []string) []string {
	parts := SplitList(getEnv(key, ""))
	if len(parts) == 0 {
		return defaultValue
	}
	return parts
}

// SplitList splits a comma separated list, trimming and dropping blanks
func SplitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

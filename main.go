package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"sjsage522/dealaggregator/api"
	"sjsage522/dealaggregator/api/middleware"
	"sjsage522/dealaggregator/config"
	"sjsage522/dealaggregator/helpers"
	"sjsage522/dealaggregator/internal/renderer"
	"sjsage522/dealaggregator/internal/source"
	"sjsage522/dealaggregator/logger"
	"sjsage522/dealaggregator/services/aggregator"
	"sjsage522/dealaggregator/services/cache"
	"sjsage522/dealaggregator/services/publisher"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	gin.SetMode(cfg.GinMode)

	log.Info().
		Str("environment", cfg.Environment).
		Str("renderer", cfg.Renderer).
		Strs("default_sources", cfg.DefaultSources).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Starting application")

	registry, err := source.NewRegistry(source.Defaults(source.Waits{
		Navigation:  cfg.NavigationTimeout,
		Selector:    cfg.SelectorTimeout,
		NetworkIdle: cfg.NetworkIdleWait,
		Settle:      cfg.SettleDelay,
	}))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid source registry")
	}

	// Initialize services
	services, err := initializeServices(&cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	opts := []aggregator.Option{aggregator.WithProductionLogging(cfg.IsProduction())}
	if services.Publisher != nil {
		opts = append(opts, aggregator.WithPublisher(services.Publisher))
	}
	agg := aggregator.New(registry, services.Renderer, services.Cache, cfg.SourceTimeout, opts...)
	services.Aggregator = agg

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	stopSweep := make(chan struct{})
	defer close(stopSweep)
	go limiter.Run(stopSweep)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(agg, limiter, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Strs("sources", registry.IDs()).Msg("HTTP server listening")
		serverDone <- srv.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server forced shutdown")
	}
}

// closer is implemented by renderers that own a process
type closer interface {
	Close() error
}

// Services holds all the initialized services
type Services struct {
	Renderer   renderer.PageRenderer
	Cache      *cache.ResultCache
	Publisher  publisher.Publisher
	Aggregator *aggregator.Aggregator
}

// Cleanup cleans up all services. Pending publishes finish before the
// publisher closes.
func (s *Services) Cleanup() {
	if s.Aggregator != nil {
		s.Aggregator.Wait()
	}
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			logger.ForPublisher().Warn().Err(err).Msg("Failed to close publisher")
		}
	}
	if c, ok := s.Renderer.(closer); ok {
		if err := c.Close(); err != nil {
			logger.ForRenderer().Warn().Err(err).Msg("Failed to stop renderer")
		}
	}
	logger.Info("Services stopped")
}

// initializeServices initializes all required services
func initializeServices(cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize renderer
	switch cfg.Renderer {
	case config.RendererHTTP:
		services.Renderer = renderer.NewHTTPRenderer(helpers.DefaultClient, cfg.UserAgent, cfg.AcceptLanguage)
		logger.Info("Using plain HTTP renderer")
	default:
		rod := renderer.NewRodRenderer(renderer.BrowserConfig{
			Bin:            cfg.BrowserBin,
			Headless:       cfg.Headless,
			NoSandbox:      cfg.NoSandbox,
			Stealth:        cfg.Stealth,
			UserAgent:      cfg.UserAgent,
			AcceptLanguage: cfg.AcceptLanguage,
		})
		if err := rod.Start(); err != nil {
			return nil, err
		}
		services.Renderer = rod
		logger.Info("Headless browser started")
	}

	// Initialize cache store
	var store cache.CacheService
	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Msg("Memcache unreachable, falling back to memory")
			store = cache.NewMemoryStore(cfg.CacheMaxEntries, time.Now)
		} else {
			store = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	} else {
		store = cache.NewMemoryStore(cfg.CacheMaxEntries, time.Now)
	}
	services.Cache = cache.NewResultCache(store, cfg.CacheTTL)

	// Initialize publisher
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisPublisher.Ping(ctx)
		cancel()
		if err != nil {
			logger.ForPublisher().Warn().Err(err).Msg("Redis unreachable, publishing disabled")
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services, nil
}

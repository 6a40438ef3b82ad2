package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"sjsage522/dealaggregator/api/handler"
	"sjsage522/dealaggregator/api/middleware"
	"sjsage522/dealaggregator/config"
	"sjsage522/dealaggregator/logger"
)

// NewRouter creates the gin engine.
//
//	Global:  Recovery → AccessLog → CORS
//	/scrape, /clear-cache: RateLimit
//
// The liveness probe is never rate limited.
func NewRouter(agg handler.Aggregator, limiter *middleware.RateLimiter, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.AccessLog(logger.ForServer(), cfg.IsProduction()))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.GET("/", handler.Health())

	limited := r.Group("")
	limited.Use(limiter.Handler())
	limited.GET("/scrape", handler.Scrape(agg, cfg.DefaultSources))
	limited.POST("/clear-cache", handler.ClearCache(agg))

	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	}

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	for _, origin := range origins {
		if origin == "*" {
			// credentials cannot be combined with a literal "*" origin
			c.AllowOriginFunc = func(string) bool { return true }
			return c
		}
	}
	c.AllowOrigins = origins
	return c
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sjsage522/dealaggregator/config"
)

// Scrape returns a handler for GET /scrape?sources=a,b.
//
// A missing sources parameter falls back to defaults. Ids the registry does
// not know are left out of the response; when none is known the request is
// rejected with 400.
func Scrape(agg Aggregator, defaults []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := defaults
		if raw, ok := c.GetQuery("sources"); ok {
			ids = config.SplitList(raw)
		}

		results, err := agg.Scrape(c.Request.Context(), ids)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, results)
	}
}

// ClearCache returns a handler for POST /clear-cache.
func ClearCache(agg Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := agg.ClearCache(); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, okResponse{OK: true})
	}
}

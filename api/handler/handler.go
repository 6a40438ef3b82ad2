package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"sjsage522/dealaggregator/internal/crawler"
	"sjsage522/dealaggregator/logger"
	"sjsage522/dealaggregator/pkg/errors"
)

// Aggregator is the part of the orchestrator the handlers need
type Aggregator interface {
	Scrape(ctx context.Context, ids []string) (map[string][]crawler.DealItem, error)
	ClearCache() error
}

// ErrorDetail is the body of every error response
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail under "error"
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// respondError maps err onto a status code. Only request errors carry their
// message back to the client.
func respondError(c *gin.Context, err error) {
	errType := errors.TypeOf(err)

	status := http.StatusInternalServerError
	message := "internal error"
	switch errType {
	case errors.ErrorTypeValidation:
		status = http.StatusBadRequest
		message = err.Error()
	case "":
		errType = "internal"
	}

	if status >= http.StatusInternalServerError {
		logger.ForServer().Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{Type: string(errType), Message: message},
	})
}

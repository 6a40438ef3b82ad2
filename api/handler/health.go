package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health returns a handler for GET /.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, okResponse{OK: true})
	}
}

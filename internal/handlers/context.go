package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
)

// requestContext extracts the context from an incoming request. Handlers built
// directly in tests may carry a nil gin context or a nil request, in which
// case a background context is returned.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}

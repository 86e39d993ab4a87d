package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/odyssey/backend/internal/interfaces/http/middleware"
)

// bindOptionalJSON decodes the body into req. An empty body leaves req zero
// valued so presence checks further down report the missing fields. It writes
// the 400 itself and reports false when the body is malformed.
func bindOptionalJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeRequest struct {
	Email string `json:"email" binding:"max=5"`
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.POST("/probe", func(c *gin.Context) {
		var req probeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/probe", strings.NewReader(body)))
		return rec
	}

	t.Run("validator errors use json names", func(t *testing.T) {
		rec := post(`{"email":"too-long-value"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		errInfo := decodeError(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", errInfo.Code)
		assert.Equal(t, MsgRequestValidationFailed, errInfo.Message)
		require.Len(t, errInfo.Details, 1)
		assert.Equal(t, "email", errInfo.Details[0].Field)
		assert.Equal(t, "Must be at most 5 characters", errInfo.Details[0].Message)
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := post(`{"email":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, rec).Code)
	})
}

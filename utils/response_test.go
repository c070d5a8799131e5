package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHTTPError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		errorType ErrorType
		message   string
		code      int
		want      string
	}{
		{"bad request", ErrorTypeBadRequest, "Query is required", http.StatusBadRequest, "Query is required"},
		{"too many requests default message", ErrorTypeTooManyRequests, "", http.StatusTooManyRequests, "Too many requests"},
		{"internal", ErrorTypeInternalServer, "", http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			HandleHTTPError(c, tt.errorType, tt.message)

			assert.Equal(t, tt.code, w.Code)
			assert.True(t, c.IsAborted())
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, ErrorResponse{Time: -1, Status: false, Error: tt.want}, body)
		})
	}
}

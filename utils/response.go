package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorType represents different types of errors
type ErrorType int

const (
	ErrorTypeInternalServer ErrorType = iota
	ErrorTypeBadRequest
	ErrorTypeTooManyRequests
)

// LookupCacheControl lets a CDN hold successful lookups for an hour.
const LookupCacheControl = "s-maxage=3600, stale-while-revalidate=86400"

// ErrorResponse is the body written for failures outside a lookup.
type ErrorResponse struct {
	Time   float64 `json:"time"`
	Status bool    `json:"status"`
	Error  string  `json:"error"`
}

// HandleHTTPError aborts the request with an error body.
func HandleHTTPError(c *gin.Context, errorType ErrorType, message string) {
	code := http.StatusInternalServerError
	switch errorType {
	case ErrorTypeBadRequest:
		code = http.StatusBadRequest
		if message == "" {
			message = "Bad request"
		}
	case ErrorTypeTooManyRequests:
		code = http.StatusTooManyRequests
		if message == "" {
			message = "Too many requests"
		}
	default:
		if message == "" {
			message = "Internal server error"
		}
	}
	c.AbortWithStatusJSON(code, ErrorResponse{Time: -1, Status: false, Error: message})
}

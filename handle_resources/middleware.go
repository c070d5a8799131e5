package handle_resources

import (
	"time"

	"github.com/KincaidYang/next-whois/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConcurrencyLimit lets at most cap(limiter) requests through at once. The rest wait for
// a slot until their client gives up. A nil limiter lets everything through.
func ConcurrencyLimit(limiter chan struct{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if len(limiter) == cap(limiter) {
			zap.L().Info("rate limit reached, waiting for a slot", zap.String("path", c.Request.URL.Path))
		}
		select {
		case limiter <- struct{}{}:
		case <-c.Request.Context().Done():
			utils.HandleHTTPError(c, utils.ErrorTypeTooManyRequests, "")
			return
		}
		defer func() { <-limiter }()
		c.Next()
	}
}

// RequestLogger logs one line per request through zap.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zap.L().Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Query("query")),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("client", c.ClientIP()))
	}
}

package handle_resources

import (
	"net/http"

	"github.com/KincaidYang/next-whois/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the lookup API, the operational endpoints and, when mcpHandler is
// not nil, the MCP endpoint.
func NewRouter(resolver Resolver, mcpHandler http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	router.GET("/health", HandleHealth)
	router.GET("/ready", HandleReady)
	router.GET("/info", HandleInfo)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/api/lookup", ConcurrencyLimit(config.ConcurrencyLimiter), NewLookupHandler(resolver).HandleLookup)

	// MCP sessions hold a stream open and must not occupy a lookup slot.
	if mcpHandler != nil {
		router.Any("/mcp", gin.WrapH(mcpHandler))
	}
	return router
}

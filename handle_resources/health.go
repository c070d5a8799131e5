package handle_resources

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/KincaidYang/next-whois/config"
	"github.com/KincaidYang/next-whois/utils"
	"github.com/gin-gonic/gin"
)

// startTime records the server start time for uptime calculation
var startTime = time.Now()

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Uptime    string           `json:"uptime,omitempty"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents a single health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// isRedisHealthy checks if the primary cache (Redis) is healthy
func isRedisHealthy() bool {
	if config.CacheManager == nil {
		return false
	}
	if fc, ok := config.CacheManager.(*utils.FallbackCache); ok {
		return fc.IsPrimaryHealthy()
	}
	return config.CacheManager.IsHealthy()
}

func getCacheCheck() (Check, bool) {
	if config.CacheManager == nil {
		return Check{Status: "fail", Message: "not initialized"}, false
	}
	if isRedisHealthy() {
		return Check{Status: "ok", Message: "redis"}, true
	}
	return Check{Status: "ok", Message: "memory"}, true
}

// getCapacityCheck reports how many lookup slots are taken
func getCapacityCheck() Check {
	currentLoad := len(config.ConcurrencyLimiter)
	if config.RateLimit > 0 && currentLoad >= config.RateLimit {
		return Check{Status: "warning", Message: fmt.Sprintf("at limit (%d/%d)", currentLoad, config.RateLimit)}
	}
	return Check{Status: "ok", Message: fmt.Sprintf("%d/%d", currentLoad, config.RateLimit)}
}

// HandleHealth handles the /health endpoint.
// It always returns 200 while the process is serving.
func HandleHealth(c *gin.Context) {
	cacheCheck, _ := getCacheCheck()

	c.JSON(http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Checks: map[string]Check{
			"cache": cacheCheck,
		},
	})
}

// HandleReady handles the /ready endpoint.
// Returns 503 when the cache is missing, or when Redis is required but down.
func HandleReady(c *gin.Context) {
	httpStatus := http.StatusOK
	overallStatus := "ok"

	cacheCheck, cacheOk := getCacheCheck()

	if config.RequireRedis && !isRedisHealthy() {
		overallStatus = "unavailable"
		cacheCheck = Check{Status: "fail", Message: "redis required but unavailable"}
		httpStatus = http.StatusServiceUnavailable
	} else if !cacheOk {
		overallStatus = "unavailable"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Checks: map[string]Check{
			"cache":    cacheCheck,
			"capacity": getCapacityCheck(),
		},
	})
}

// RuntimeInfo represents runtime information
type RuntimeInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"buildTime,omitempty"`
	GitCommit    string `json:"gitCommit,omitempty"`
	GoVersion    string `json:"goVersion"`
	Uptime       string `json:"uptime"`
	NumGoroutine int    `json:"numGoroutine"`
	NumCPU       int    `json:"numCPU"`
}

// HandleInfo handles the /info endpoint
func HandleInfo(c *gin.Context) {
	info := RuntimeInfo{
		Version:      config.Version,
		GoVersion:    runtime.Version(),
		Uptime:       time.Since(startTime).Round(time.Second).String(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
	}

	// Only include build info if available
	if config.BuildTime != "unknown" {
		info.BuildTime = config.BuildTime
	}
	if config.GitCommit != "unknown" {
		info.GitCommit = config.GitCommit
	}

	c.JSON(http.StatusOK, info)
}

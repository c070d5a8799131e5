package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/KincaidYang/next-whois/utils"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// discardLogger is a logger that discards all log messages
type discardLogger struct{}

func (l *discardLogger) Printf(ctx context.Context, format string, v ...interface{}) {}

const (
	defaultPort                = 8043
	defaultRateLimit           = 50
	defaultMaxWhoisFollow      = 1
	defaultTimeoutSeconds      = 15
	defaultMemoryMaxSize       = 10000
	defaultMemoryCleanInterval = 300
	defaultUserAgent           = "next-whois"
)

var (
	// Version information - read from build info
	Version   string
	BuildTime string
	GitCommit string

	// RedisClient is the Redis client
	RedisClient *redis.Client
	// CacheManager is the unified cache interface with fallback support
	CacheManager utils.Cache
	// CacheExpiration is the cache duration
	CacheExpiration time.Duration
	// HttpClient is shared by RDAP bootstrap and queries
	HttpClient = &http.Client{
		Timeout: 15 * time.Second,
	}
	// Port is used to set the port the server listens on
	Port int
	// RateLimit is used to set the number of concurrent requests
	RateLimit          int
	ConcurrencyLimiter chan struct{}
	// ProxyServer is the proxy server
	ProxyServer string
	// ProxyUsername is the username for the proxy server
	ProxyUsername string
	// ProxyPassword is the password for the proxy server
	ProxyPassword string
	// ProxySuffixes is the list of TLDs that use a proxy server
	ProxySuffixes []string
	// Cache configuration
	RequireRedis        bool
	MemoryMaxSize       int
	MemoryCleanInterval time.Duration
	// Lookup configuration
	MaxWhoisFollow int
	LookupTimeout  time.Duration
	IANAServer     string
	WhoisServers   map[string]string
	UserAgent      string

	memoryCache *utils.MemoryCache
	redisCache  *utils.RedisCache
)

func init() {
	initVersionInfo()
}

// Load reads path, or config.yaml / config.json from the working directory when path
// is empty, then applies .env and WHOIS_* overrides and fills defaults. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	var config Config

	if err := loadConfigFromFile(&config, path); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	overrideConfigWithEnv(&config)

	applyDefaults(&config)
	return &config, nil
}

// Setup installs cfg into the package globals and builds the cache manager.
func Setup(cfg *Config) error {
	options := &redis.Options{
		Addr:            cfg.Redis.Addr,
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		PoolSize:        10,
		MinIdleConns:    0,
		MaxRetries:      1,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     2 * time.Second,
		ReadTimeout:     2 * time.Second,
		WriteTimeout:    2 * time.Second,
		PoolTimeout:     2 * time.Second,
	}
	RedisClient = redis.NewClient(options)

	// The client still works, it just stops printing every failed dial.
	redis.SetLogger(&discardLogger{})

	CacheExpiration = time.Duration(cfg.CacheExpiration) * time.Second

	RequireRedis = cfg.Cache.RequireRedis
	MemoryMaxSize = cfg.Cache.MemoryMaxSize
	MemoryCleanInterval = time.Duration(cfg.Cache.MemoryCleanInterval) * time.Second

	Port = cfg.Port

	RateLimit = cfg.RateLimit
	ConcurrencyLimiter = make(chan struct{}, RateLimit)

	ProxyServer = cfg.ProxyServer
	ProxyUsername = cfg.ProxyUsername
	ProxyPassword = cfg.ProxyPassword
	ProxySuffixes = cfg.ProxySuffixes

	MaxWhoisFollow = *cfg.Lookup.MaxWhoisFollow
	LookupTimeout = time.Duration(cfg.Lookup.TimeoutSeconds) * time.Second
	IANAServer = cfg.Lookup.IANAServer
	WhoisServers = cfg.Lookup.WhoisServers
	UserAgent = cfg.Lookup.UserAgent

	return initializeCacheManager()
}

// Close releases the cache backends.
func Close() {
	if redisCache != nil {
		redisCache.Close()
	}
	if memoryCache != nil {
		memoryCache.Close()
	}
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			zap.L().Warn("closing redis client", zap.Error(err))
		}
	}
}

// NewLogger builds a JSON production logger, or a console logger in development mode.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// applyDefaults sets default values for anything the file and environment left unset.
func applyDefaults(config *Config) {
	if config.Port == 0 {
		config.Port = defaultPort
	}
	if config.RateLimit <= 0 {
		config.RateLimit = defaultRateLimit
	}
	// RequireRedis defaults to false (allow fallback to memory)
	if config.Cache.MemoryMaxSize == 0 {
		config.Cache.MemoryMaxSize = defaultMemoryMaxSize
	}
	if config.Cache.MemoryCleanInterval == 0 {
		config.Cache.MemoryCleanInterval = defaultMemoryCleanInterval
	}
	if config.Lookup.MaxWhoisFollow == nil || *config.Lookup.MaxWhoisFollow < 0 {
		follow := defaultMaxWhoisFollow
		config.Lookup.MaxWhoisFollow = &follow
	}
	if config.Lookup.TimeoutSeconds <= 0 {
		config.Lookup.TimeoutSeconds = defaultTimeoutSeconds
	}
	if config.Lookup.IANAServer == "" {
		config.Lookup.IANAServer = "whois.iana.org"
	}
	if config.Lookup.UserAgent == "" {
		config.Lookup.UserAgent = defaultUserAgent + "/" + Version
	}
}

// initializeCacheManager sets up the cache with Redis primary and memory fallback
func initializeCacheManager() error {
	redisCache = utils.NewRedisCache(RedisClient)
	memoryCache = utils.NewMemoryCache(MemoryMaxSize, MemoryCleanInterval)
	CacheManager = utils.NewFallbackCache(redisCache, memoryCache)

	if redisCache.IsHealthy() {
		zap.L().Info("redis cache initialized", zap.String("addr", RedisClient.Options().Addr))
	} else {
		zap.L().Warn("redis unavailable, using memory cache as fallback")
		if RequireRedis {
			return errors.New("redis is required but unavailable; set cache.requireRedis to false to allow fallback")
		}
	}

	zap.L().Info("cache configured",
		zap.Int("memoryMaxSize", MemoryMaxSize),
		zap.Duration("memoryCleanInterval", MemoryCleanInterval),
		zap.Duration("expiration", CacheExpiration))
	return nil
}

func loadConfigFromFile(config *Config, path string) error {
	candidates := []string{"config.yaml", "config.yml", "config.json"}
	if path != "" {
		candidates = []string{path}
	}

	var configFile *os.File
	for _, name := range candidates {
		f, err := os.Open(name)
		if err == nil {
			configFile = f
			break
		}
		if path != "" || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to open configuration file: %w", err)
		}
	}
	if configFile == nil {
		zap.L().Info("no configuration file found, using defaults")
		return nil
	}
	defer configFile.Close()

	fileExt := strings.ToLower(filepath.Ext(configFile.Name()))
	switch fileExt {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(configFile).Decode(config); err != nil {
			return fmt.Errorf("failed to decode YAML from configuration file: %w", err)
		}
	case ".json":
		if err := json.NewDecoder(configFile).Decode(config); err != nil {
			return fmt.Errorf("failed to decode JSON from configuration file: %w", err)
		}
	default:
		return fmt.Errorf("unsupported configuration file format: %s", fileExt)
	}
	return nil
}

func overrideConfigWithEnv(config *Config) {
	// Override Redis configuration
	if redisAddr := os.Getenv("WHOIS_REDIS_ADDR"); redisAddr != "" {
		config.Redis.Addr = redisAddr
	}
	if redisPassword := os.Getenv("WHOIS_REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if redisDB := os.Getenv("WHOIS_REDIS_DB"); redisDB != "" {
		if dbInt, err := strconv.Atoi(redisDB); err == nil {
			config.Redis.DB = dbInt
		}
	}

	if cacheExpiration := os.Getenv("WHOIS_CACHE_EXPIRATION"); cacheExpiration != "" {
		if cacheInt, err := strconv.Atoi(cacheExpiration); err == nil {
			config.CacheExpiration = cacheInt
		}
	}

	// Override cache configuration
	if requireRedis := os.Getenv("WHOIS_REQUIRE_REDIS"); requireRedis != "" {
		config.Cache.RequireRedis = requireRedis == "true" || requireRedis == "1"
	}
	if memoryMaxSize := os.Getenv("WHOIS_MEMORY_MAX_SIZE"); memoryMaxSize != "" {
		if maxSize, err := strconv.Atoi(memoryMaxSize); err == nil {
			config.Cache.MemoryMaxSize = maxSize
		}
	}
	if memoryCleanInterval := os.Getenv("WHOIS_MEMORY_CLEAN_INTERVAL"); memoryCleanInterval != "" {
		if interval, err := strconv.Atoi(memoryCleanInterval); err == nil {
			config.Cache.MemoryCleanInterval = interval
		}
	}

	if port := os.Getenv("WHOIS_PORT"); port != "" {
		if portInt, err := strconv.Atoi(port); err == nil {
			config.Port = portInt
		}
	}
	if rateLimit := os.Getenv("WHOIS_RATE_LIMIT"); rateLimit != "" {
		if rateInt, err := strconv.Atoi(rateLimit); err == nil {
			config.RateLimit = rateInt
		}
	}
	if proxyServer := os.Getenv("WHOIS_PROXY_SERVER"); proxyServer != "" {
		config.ProxyServer = proxyServer
	}
	if proxyUsername := os.Getenv("WHOIS_PROXY_USERNAME"); proxyUsername != "" {
		config.ProxyUsername = proxyUsername
	}
	if proxyPassword := os.Getenv("WHOIS_PROXY_PASSWORD"); proxyPassword != "" {
		config.ProxyPassword = proxyPassword
	}
	if proxySuffixes := os.Getenv("WHOIS_PROXY_SUFFIXES"); proxySuffixes != "" {
		config.ProxySuffixes = strings.Split(proxySuffixes, ",")
	}

	// Override lookup configuration
	if maxFollow := os.Getenv("WHOIS_MAX_FOLLOW"); maxFollow != "" {
		if n, err := strconv.Atoi(maxFollow); err == nil {
			config.Lookup.MaxWhoisFollow = &n
		}
	}
	if timeout := os.Getenv("WHOIS_LOOKUP_TIMEOUT"); timeout != "" {
		if n, err := strconv.Atoi(timeout); err == nil {
			config.Lookup.TimeoutSeconds = n
		}
	}
	if iana := os.Getenv("WHOIS_IANA_SERVER"); iana != "" {
		config.Lookup.IANAServer = iana
	}
	if level := os.Getenv("WHOIS_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}

// initVersionInfo reads version information from Go build info
func initVersionInfo() {
	Version = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if len(setting.Value) >= 7 {
				GitCommit = setting.Value[:7] // short commit hash
			} else {
				GitCommit = setting.Value
			}
		case "vcs.time":
			BuildTime = setting.Value
		case "vcs.modified":
			if setting.Value == "true" {
				GitCommit += "-dirty"
			}
		}
	}
}

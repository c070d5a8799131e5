package config

// Config represents the configuration for the application.
type Config struct {
	// Redis holds the address, password and database number of the result cache.
	Redis struct {
		Addr     string `json:"addr" yaml:"addr"`
		Password string `json:"password" yaml:"password"`
		DB       int    `json:"db" yaml:"db"`
	} `json:"redis" yaml:"redis"`
	// CacheExpiration is the expiration time for cached lookups, in seconds. Zero leaves
	// eviction to the backend.
	CacheExpiration int `json:"cacheExpiration" yaml:"cacheExpiration"`
	// Cache controls the fallback behaviour of the result cache.
	Cache CacheConfig `json:"cache" yaml:"cache"`
	// Port is the port number for the server.
	Port int `json:"port" yaml:"port"`
	// RateLimit is the number of lookups served concurrently; further requests wait.
	RateLimit int `json:"rateLimit" yaml:"rateLimit"`

	ProxyServer   string   `json:"proxyServer" yaml:"proxyServer"`
	ProxyUsername string   `json:"proxyUsername" yaml:"proxyUsername"`
	ProxyPassword string   `json:"proxyPassword" yaml:"proxyPassword"`
	ProxySuffixes []string `json:"proxySuffixes" yaml:"proxySuffixes"` // ProxySuffixes lists TLDs whose WHOIS traffic goes through the proxy.

	Lookup LookupConfig `json:"lookup" yaml:"lookup"`
	Log    LogConfig    `json:"log" yaml:"log"`
}

// CacheConfig holds cache-specific configuration.
type CacheConfig struct {
	RequireRedis        bool `json:"requireRedis" yaml:"requireRedis"`               // RequireRedis refuses to start without Redis.
	MemoryMaxSize       int  `json:"memoryMaxSize" yaml:"memoryMaxSize"`             // MemoryMaxSize caps the in-memory fallback.
	MemoryCleanInterval int  `json:"memoryCleanInterval" yaml:"memoryCleanInterval"` // MemoryCleanInterval is in seconds.
}

// LookupConfig tunes the RDAP/WHOIS lookup.
type LookupConfig struct {
	// MaxWhoisFollow is how many WHOIS referrals a domain lookup may follow.
	MaxWhoisFollow *int `json:"maxWhoisFollow" yaml:"maxWhoisFollow"`
	// TimeoutSeconds bounds each protocol branch.
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	IANAServer     string `json:"ianaServer" yaml:"ianaServer"`
	// WhoisServers maps a TLD or public suffix to the WHOIS server asked before IANA.
	WhoisServers map[string]string `json:"whoisServers" yaml:"whoisServers"`
	UserAgent    string            `json:"userAgent" yaml:"userAgent"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

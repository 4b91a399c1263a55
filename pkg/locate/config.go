package locate

import (
	"os"
	"strconv"
	"time"
)

// Config controls signed-URL minting and the repair search.
type Config struct {
	URLTTL    time.Duration // Signed URL lifetime. Default 10m.
	ListLimit int           // Page size for repair directory listings. Default 100.
	CacheSize int           // Max memoized signed URLs per locator. Default 256.
	CacheTTL  time.Duration // Memo TTL; must stay below URLTTL. Default 5m.
}

// DefaultConfig returns the default locator configuration.
func DefaultConfig() *Config {
	return &Config{
		URLTTL:    10 * time.Minute,
		ListLimit: 100,
		CacheSize: 256,
		CacheTTL:  5 * time.Minute,
	}
}

// ConfigFromEnv loads config from environment variables.
// OASIS_LOCATE_URL_TTL_MINUTES, OASIS_LOCATE_LIST_LIMIT,
// OASIS_LOCATE_CACHE_SIZE, OASIS_LOCATE_CACHE_TTL_MINUTES
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("OASIS_LOCATE_URL_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.URLTTL = time.Duration(n) * time.Minute
		}
	}

	if v := os.Getenv("OASIS_LOCATE_LIST_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ListLimit = n
		}
	}

	if v := os.Getenv("OASIS_LOCATE_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheSize = n
		}
	}

	if v := os.Getenv("OASIS_LOCATE_CACHE_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTL = time.Duration(n) * time.Minute
		}
	}

	if cfg.CacheTTL >= cfg.URLTTL {
		cfg.CacheTTL = cfg.URLTTL / 2
	}

	return cfg
}

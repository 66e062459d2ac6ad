package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// StorefrontConfig holds configuration of the public storefront process
type StorefrontConfig struct {
	HTTPAddr       string
	APIBaseURL     string
	RequestTimeout time.Duration
	CacheTTL       time.Duration // 0 keeps configurations for the process lifetime
	AdminToken     string        // required by the cache invalidation endpoint
	Log            LogConfig
}

// LoadStorefront loads storefront configuration from environment variables
func LoadStorefront() (*StorefrontConfig, error) {
	_ = godotenv.Load()

	cfg := &StorefrontConfig{
		HTTPAddr:       getEnv("STOREFRONT_HTTP_ADDR", ":8081"),
		APIBaseURL:     getEnv("STOREFRONT_API_BASE_URL", "http://localhost:8080"),
		RequestTimeout: time.Duration(getEnvInt("STOREFRONT_REQUEST_TIMEOUT_SEC", 10)) * time.Second,
		CacheTTL:       time.Duration(getEnvInt("STOREFRONT_CACHE_TTL_SEC", 0)) * time.Second,
		AdminToken:     getEnv("STOREFRONT_ADMIN_TOKEN", ""),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("STOREFRONT_API_BASE_URL is required")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("STOREFRONT_REQUEST_TIMEOUT_SEC must be positive")
	}

	return cfg, nil
}

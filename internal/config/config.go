package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration of the API server
type Config struct {
	MySQL        MySQLConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Log          LogConfig
	Migrate      bool
	HTTPAddr     string
	Session      SessionConfig
	RateLimit    RateLimitConfig
	Tenant       TenantConfig
	Publish      PublishConfig
	DomainWorker DomainWorkerConfig
	ACME         ACMEConfig
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string // text or json
}

// SessionConfig holds session and login-attempt store configuration
type SessionConfig struct {
	Backend          string // memory or redis
	MaxLoginAttempts int
	LockoutMinutes   int
	SweepIntervalSec int
}

// RateLimitConfig holds per-client rate limit configuration
type RateLimitConfig struct {
	Enabled  bool
	Requests int64
	Period   string // duration string, e.g. "1m"
}

// TenantConfig holds tenant directory configuration
type TenantConfig struct {
	DevHosts      []string // hosts that resolve to the demo company
	DemoCompanyID int
}

// PublishConfig holds layout publish configuration
type PublishConfig struct {
	MaxRetries int
}

// DomainWorkerConfig holds custom domain worker configuration
type DomainWorkerConfig struct {
	Enabled     bool
	IntervalSec int
	BatchSize   int
	CNAMETarget string   // platform host custom domains must point to
	DNSServers  []string // host:port
}

// ACMEConfig holds certificate issuance configuration
type ACMEConfig struct {
	Enabled      bool
	Email        string
	DirectoryURL string
}

var defaultDevHosts = "localhost,127.0.0.1,::1,0.0.0.0"

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getEnv("MYSQL_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			ExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 1440),
			Issuer:        getEnv("JWT_ISSUER", "go_sitebuilder"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Migrate:  getEnv("MIGRATE", "0") == "1",
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Session: SessionConfig{
			Backend:          getEnv("SESSION_BACKEND", "memory"),
			MaxLoginAttempts: getEnvInt("SESSION_MAX_LOGIN_ATTEMPTS", 5),
			LockoutMinutes:   getEnvInt("SESSION_LOCKOUT_MINUTES", 15),
			SweepIntervalSec: getEnvInt("SESSION_SWEEP_INTERVAL_SEC", 60),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnv("RATE_LIMIT_ENABLED", "1") == "1",
			Requests: int64(getEnvInt("RATE_LIMIT_REQUESTS", 300)),
			Period:   getEnv("RATE_LIMIT_PERIOD", "1m"),
		},
		Tenant: TenantConfig{
			DevHosts:      splitList(getEnv("TENANT_DEV_HOSTS", defaultDevHosts)),
			DemoCompanyID: getEnvInt("TENANT_DEMO_COMPANY_ID", 1),
		},
		Publish: PublishConfig{
			MaxRetries: getEnvInt("PUBLISH_MAX_RETRIES", 3),
		},
		DomainWorker: DomainWorkerConfig{
			Enabled:     getEnv("DOMAIN_WORKER_ENABLED", "1") == "1",
			IntervalSec: getEnvInt("DOMAIN_WORKER_INTERVAL_SEC", 60),
			BatchSize:   getEnvInt("DOMAIN_WORKER_BATCH_SIZE", 20),
			CNAMETarget: getEnv("DOMAIN_CNAME_TARGET", "sites.sitebuilder.app"),
			DNSServers:  splitList(getEnv("DOMAIN_DNS_SERVERS", "8.8.8.8:53,1.1.1.1:53")),
		},
		ACME: ACMEConfig{
			Enabled:      getEnv("ACME_ENABLED", "0") == "1",
			Email:        getEnv("ACME_EMAIL", ""),
			DirectoryURL: getEnv("ACME_DIRECTORY_URL", "https://acme-v02.api.letsencrypt.org/directory"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.MySQL.DSN == "" {
		return fmt.Errorf("MYSQL_DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Session.Backend != "memory" && cfg.Session.Backend != "redis" {
		return fmt.Errorf("SESSION_BACKEND must be memory or redis, got %q", cfg.Session.Backend)
	}
	if cfg.ACME.Enabled && cfg.ACME.Email == "" {
		return fmt.Errorf("ACME_EMAIL is required when ACME is enabled")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// splitList splits a comma separated list, dropping empty items
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getValue("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        getValue("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: getValueInt("JWT_EXPIRE_SECONDS", "jwt", "expire_seconds", 86400) / 60,
			Issuer:        getValue("JWT_ISSUER", "jwt", "issuer", "go_sitebuilder"),
		},
		Log: LogConfig{
			Level:  getValue("LOG_LEVEL", "log", "level", "info"),
			Format: getValue("LOG_FORMAT", "log", "format", "text"),
		},
		Migrate:  getValueBool("MIGRATE", "app", "migrate", false),
		HTTPAddr: getValue("HTTP_ADDR", "http", "addr", ":8080"),
		Session: SessionConfig{
			Backend:          getValue("SESSION_BACKEND", "session", "backend", "memory"),
			MaxLoginAttempts: getValueInt("SESSION_MAX_LOGIN_ATTEMPTS", "session", "max_login_attempts", 5),
			LockoutMinutes:   getValueInt("SESSION_LOCKOUT_MINUTES", "session", "lockout_minutes", 15),
			SweepIntervalSec: getValueInt("SESSION_SWEEP_INTERVAL_SEC", "session", "sweep_interval_sec", 60),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getValueBool("RATE_LIMIT_ENABLED", "ratelimit", "enabled", true),
			Requests: int64(getValueInt("RATE_LIMIT_REQUESTS", "ratelimit", "requests", 300)),
			Period:   getValue("RATE_LIMIT_PERIOD", "ratelimit", "period", "1m"),
		},
		Tenant: TenantConfig{
			DevHosts:      splitList(getValue("TENANT_DEV_HOSTS", "tenant", "dev_hosts", defaultDevHosts)),
			DemoCompanyID: getValueInt("TENANT_DEMO_COMPANY_ID", "tenant", "demo_company_id", 1),
		},
		Publish: PublishConfig{
			MaxRetries: getValueInt("PUBLISH_MAX_RETRIES", "publish", "max_retries", 3),
		},
		DomainWorker: DomainWorkerConfig{
			Enabled:     getValueBool("DOMAIN_WORKER_ENABLED", "domain_worker", "enabled", true),
			IntervalSec: getValueInt("DOMAIN_WORKER_INTERVAL_SEC", "domain_worker", "interval_sec", 60),
			BatchSize:   getValueInt("DOMAIN_WORKER_BATCH_SIZE", "domain_worker", "batch_size", 20),
			CNAMETarget: getValue("DOMAIN_CNAME_TARGET", "domain_worker", "cname_target", "sites.sitebuilder.app"),
			DNSServers:  splitList(getValue("DOMAIN_DNS_SERVERS", "domain_worker", "dns_servers", "8.8.8.8:53,1.1.1.1:53")),
		},
		ACME: ACMEConfig{
			Enabled:      getValueBool("ACME_ENABLED", "acme", "enabled", false),
			Email:        getValue("ACME_EMAIL", "acme", "email", ""),
			DirectoryURL: getValue("ACME_DIRECTORY_URL", "acme", "directory_url", "https://acme-v02.api.letsencrypt.org/directory"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

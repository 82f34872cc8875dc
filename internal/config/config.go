package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"leetscore/internal/logger"

	"github.com/joho/godotenv"
)

// DefaultEndpoint is the public LeetCode GraphQL endpoint
const DefaultEndpoint = "https://leetcode.com/graphql"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig
	Batch     BatchConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Audit     AuditConfig
	Probe     ProbeConfig
	Debug     bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int
}

// UpstreamConfig holds the GraphQL client settings
type UpstreamConfig struct {
	Endpoint  string
	Timeout   time.Duration
	UserAgent string
}

// BatchConfig holds the bulk pipeline limits. All values are static for the
// lifetime of the process.
type BatchConfig struct {
	GroupSize    int
	GroupPause   time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	MaxUsernames int
}

// CORSConfig holds the allowed browser origins
type CORSConfig struct {
	Origins []string
}

// RateLimitConfig holds the per-IP request window
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// RedisConfig holds Redis configuration. An empty Host disables Redis.
type RedisConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       int
}

// DatabaseConfig holds database configuration. Neither URL nor Host set
// disables the batch-run audit.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AuditConfig sizes the async audit worker pool
type AuditConfig struct {
	Workers   int
	QueueSize int
}

// ProbeConfig controls the upstream reachability job. Zero disables it.
type ProbeConfig struct {
	Interval time.Duration
}

var defaultOrigins = []string{
	"https://leetcode-dashboard-zeta.vercel.app",
	"http://localhost:5173",
	"https://leetcode-server-seven.vercel.app",
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("PORT", 3001),
		},
		Upstream: UpstreamConfig{
			Endpoint:  getEnv("UPSTREAM_ENDPOINT", DefaultEndpoint),
			Timeout:   getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second),
			UserAgent: getEnv("UPSTREAM_USER_AGENT", "leetscore/1.0"),
		},
		Batch:     DefaultBatch(),
		CORS:      CORSConfig{Origins: getEnvAsSlice("CORS_ORIGINS", defaultOrigins)},
		RateLimit: RateLimitConfig{Max: getEnvAsInt("RATE_LIMIT_MAX", 1000), Window: getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute)},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Username: getEnv("REDIS_USERNAME", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "leetscore"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Audit: AuditConfig{
			Workers:   getEnvAsInt("AUDIT_WORKERS", 4),
			QueueSize: getEnvAsInt("AUDIT_QUEUE", 256),
		},
		Probe: ProbeConfig{Interval: getEnvAsDuration("PROBE_INTERVAL", time.Minute)},
		Debug: getEnvAsBool("LOG_DEBUG", false),
	}

	cfg.Batch.GroupSize = getEnvAsInt("BATCH_GROUP_SIZE", cfg.Batch.GroupSize)
	cfg.Batch.GroupPause = getEnvAsDuration("BATCH_GROUP_PAUSE", cfg.Batch.GroupPause)
	cfg.Batch.MaxRetries = getEnvAsInt("BATCH_MAX_RETRIES", cfg.Batch.MaxRetries)
	cfg.Batch.RetryDelay = getEnvAsDuration("BATCH_RETRY_DELAY", cfg.Batch.RetryDelay)
	cfg.Batch.MaxUsernames = getEnvAsInt("BATCH_MAX_USERNAMES", cfg.Batch.MaxUsernames)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultBatch returns the stock pipeline limits: groups of 10, 50ms between
// groups, two retries 200ms apart.
func DefaultBatch() BatchConfig {
	return BatchConfig{
		GroupSize:    10,
		GroupPause:   50 * time.Millisecond,
		MaxRetries:   2,
		RetryDelay:   200 * time.Millisecond,
		MaxUsernames: 5000,
	}
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Batch.GroupSize < 1 {
		return fmt.Errorf("BATCH_GROUP_SIZE must be >= 1, got %d", c.Batch.GroupSize)
	}
	if c.Batch.MaxRetries < 0 {
		return fmt.Errorf("BATCH_MAX_RETRIES must be >= 0, got %d", c.Batch.MaxRetries)
	}
	if c.Batch.GroupPause < 0 || c.Batch.RetryDelay < 0 {
		return fmt.Errorf("batch delays must not be negative")
	}
	if c.Batch.MaxUsernames < 1 {
		return fmt.Errorf("BATCH_MAX_USERNAMES must be >= 1, got %d", c.Batch.MaxUsernames)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be > 0")
	}
	u, err := url.Parse(c.Upstream.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid UPSTREAM_ENDPOINT %q", c.Upstream.Endpoint)
	}
	return nil
}

// AuditEnabled reports whether a database is configured for batch-run audit
func (c *Config) AuditEnabled() bool {
	return c.Database.URL != "" || c.Database.Host != ""
}

// GetDSN returns the PostgreSQL DSN
func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration syntax ("250ms", "1m")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma separated list, dropping blanks
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

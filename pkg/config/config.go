package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/specbook/pkg/cache"
	"github.com/platinummonkey/specbook/pkg/catalog"
	"github.com/platinummonkey/specbook/pkg/middleware"
	"github.com/platinummonkey/specbook/pkg/observability"
	"github.com/platinummonkey/specbook/pkg/publish"
	"github.com/platinummonkey/specbook/pkg/storage"
	"github.com/platinummonkey/specbook/pkg/swagger"
)

// FileEnv names the optional YAML file read before the environment
const FileEnv = "SPECBOOK_CONFIG_FILE"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Storage configuration
	Storage storage.Config `yaml:"storage"`

	// Document cache configuration
	Cache cache.Config `yaml:"cache"`

	// Object storage publishing
	Publish publish.Config `yaml:"publish"`

	// Export defaults
	Export catalog.Config `yaml:"export"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`

	// Per-client request limits
	RateLimit middleware.RateLimitConfig `yaml:"rate_limit"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"` // Use insecure gRPC connection
}

// OTel converts the settings for observability.InitOTel
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
	}
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    4 << 20,
			HealthPort:      "9090",
			RateLimit:       middleware.DefaultRateLimitConfig(),
		},
		Storage: storage.DefaultConfig(),
		Cache:   cache.DefaultConfig(),
		Publish: publish.DefaultConfig(),
		Export:  catalog.DefaultConfig(),
		Observability: ObservabilityConfig{
			LogLevel:           observability.InfoLevel,
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "specbook",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// LoadConfig loads configuration from the file named by SPECBOOK_CONFIG_FILE,
// if any, and then from environment variables, which take precedence
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := getEnv(FileEnv, ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadServerConfig()
	cfg.loadStorageConfig()
	cfg.loadCacheConfig()
	cfg.loadPublishConfig()
	cfg.loadObservabilityConfig()
	if editions := getEnvList("SPECBOOK_DEFAULT_EDITIONS"); len(editions) > 0 {
		cfg.Export.DefaultEditions = editions
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML file at path. Keys the file omits keep their
// current values.
func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadServerConfig loads server configuration from environment
func (c *Config) loadServerConfig() {
	s := &c.Server
	s.Host = getEnv("SPECBOOK_HOST", s.Host)
	s.Port = getEnv("SPECBOOK_PORT", s.Port)
	s.ReadTimeout = getEnvDuration("SPECBOOK_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("SPECBOOK_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("SPECBOOK_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("SPECBOOK_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.MaxBodyBytes = getEnvInt64("SPECBOOK_MAX_BODY_BYTES", s.MaxBodyBytes)
	s.HealthPort = getEnv("SPECBOOK_HEALTH_PORT", s.HealthPort)

	rl := &s.RateLimit
	rl.Enabled = getEnvBool("SPECBOOK_RATE_LIMIT_ENABLED", rl.Enabled)
	rl.RequestsPerWindow = getEnvInt("SPECBOOK_RATE_LIMIT_REQUESTS", rl.RequestsPerWindow)
	rl.WindowDuration = getEnvDuration("SPECBOOK_RATE_LIMIT_WINDOW", rl.WindowDuration)
	rl.BurstSize = getEnvInt("SPECBOOK_RATE_LIMIT_BURST", rl.BurstSize)
}

// loadStorageConfig loads storage configuration from environment
func (c *Config) loadStorageConfig() {
	s := &c.Storage
	s.Driver = getEnv("SPECBOOK_DB_DRIVER", s.Driver)
	s.DSN = getEnv("SPECBOOK_DB_DSN", s.DSN)
	if replicas := getEnvList("SPECBOOK_DB_REPLICA_DSNS"); len(replicas) > 0 {
		s.ReplicaDSNs = replicas
	}
	if maxConns := getEnvInt("SPECBOOK_DB_MAX_CONNS", 0); maxConns > 0 {
		s.MaxConns = maxConns
	}
	if minConns := getEnvInt("SPECBOOK_DB_MIN_CONNS", 0); minConns > 0 {
		s.MinConns = minConns
	}
	if timeout := getEnvDuration("SPECBOOK_DB_TIMEOUT", 0); timeout > 0 {
		s.Timeout = timeout
	}
	s.Migrate = getEnvBool("SPECBOOK_DB_MIGRATE", s.Migrate)
}

// loadCacheConfig loads document cache configuration from environment
func (c *Config) loadCacheConfig() {
	s := &c.Cache
	s.Enabled = getEnvBool("SPECBOOK_CACHE_ENABLED", s.Enabled)
	if entries := getEnvInt("SPECBOOK_CACHE_ENTRIES", 0); entries > 0 {
		s.MemoryEntries = entries
	}
	if ttl := getEnvDuration("SPECBOOK_CACHE_TTL", 0); ttl > 0 {
		s.TTL = ttl
	}
	s.RedisURL = getEnv("SPECBOOK_REDIS_URL", s.RedisURL)
	s.RedisPassword = getEnv("SPECBOOK_REDIS_PASSWORD", s.RedisPassword)
	if redisDB := getEnvInt("SPECBOOK_REDIS_DB", -1); redisDB >= 0 {
		s.RedisDB = redisDB
	}
	if poolSize := getEnvInt("SPECBOOK_REDIS_POOL_SIZE", 0); poolSize > 0 {
		s.RedisPoolSize = poolSize
	}
	if retries := getEnvInt("SPECBOOK_REDIS_MAX_RETRIES", 0); retries > 0 {
		s.RedisMaxRetries = retries
	}
}

// loadPublishConfig loads S3 publishing configuration from environment
func (c *Config) loadPublishConfig() {
	s := &c.Publish
	s.Endpoint = getEnv("SPECBOOK_S3_ENDPOINT", s.Endpoint)
	s.Region = getEnv("SPECBOOK_S3_REGION", s.Region)
	s.Bucket = getEnv("SPECBOOK_S3_BUCKET", s.Bucket)
	s.Prefix = getEnv("SPECBOOK_S3_PREFIX", s.Prefix)
	s.AccessKey = getEnv("SPECBOOK_S3_ACCESS_KEY", s.AccessKey)
	s.SecretKey = getEnv("SPECBOOK_S3_SECRET_KEY", s.SecretKey)
	s.UsePathStyle = getEnvBool("SPECBOOK_S3_USE_PATH_STYLE", s.UsePathStyle)
	s.CreateBucket = getEnvBool("SPECBOOK_S3_CREATE_BUCKET", s.CreateBucket)
	s.Schedule = getEnv("SPECBOOK_PUBLISH_SCHEDULE", s.Schedule)
	if parallelism := getEnvInt("SPECBOOK_PUBLISH_PARALLELISM", 0); parallelism > 0 {
		s.Parallelism = parallelism
	}
	if editions := getEnvList("SPECBOOK_PUBLISH_EDITIONS"); len(editions) > 0 {
		s.Editions = editions
	}
	if formats := getEnvList("SPECBOOK_PUBLISH_FORMATS"); len(formats) > 0 {
		s.Formats = make([]swagger.Format, len(formats))
		for i, f := range formats {
			s.Formats[i] = swagger.Format(strings.ToLower(f))
		}
	}
}

// loadObservabilityConfig loads observability configuration from environment
func (c *Config) loadObservabilityConfig() {
	o := &c.Observability
	if level := getEnv("SPECBOOK_LOG_LEVEL", ""); level != "" {
		o.LogLevel = observability.ParseLogLevel(level)
	}
	o.MetricsEnabled = getEnvBool("SPECBOOK_METRICS_ENABLED", o.MetricsEnabled)
	o.OTelEnabled = getEnvBool("SPECBOOK_OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("SPECBOOK_OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("SPECBOOK_OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("SPECBOOK_OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelInsecure = getEnvBool("SPECBOOK_OTEL_INSECURE", o.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if rl := c.Server.RateLimit; rl.Enabled && (rl.RequestsPerWindow <= 0 || rl.WindowDuration <= 0) {
		return fmt.Errorf("rate limit requests and window must be positive when rate limiting is enabled")
	}

	// Validate storage config based on driver
	switch c.Storage.Driver {
	case "postgres", "sqlite3":
		if c.Storage.DSN == "" {
			return fmt.Errorf("database DSN is required for %s storage", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be postgres or sqlite3)", c.Storage.Driver)
	}
	if len(c.Storage.ReplicaDSNs) > 0 && c.Storage.Driver != "postgres" {
		return fmt.Errorf("read replicas require postgres storage")
	}

	// Validate cache config
	if c.Cache.Enabled && c.Cache.MemoryEntries <= 0 {
		return fmt.Errorf("cache memory entries must be positive when the cache is enabled")
	}

	// Validate publish config
	for _, f := range c.Publish.Formats {
		if _, err := swagger.ParseFormat(string(f)); err != nil {
			return fmt.Errorf("invalid publish format: %w", err)
		}
	}
	if c.Publish.Parallelism <= 0 {
		return fmt.Errorf("publish parallelism must be positive")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated environment variable, dropping blanks
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

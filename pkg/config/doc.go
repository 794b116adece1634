// Package config provides application configuration management from a YAML
// file and environment variables.
//
// # Overview
//
// This package loads and validates configuration with sensible defaults for
// all settings. Values come from three layers, later layers winning:
// built-in defaults, the YAML file named by SPECBOOK_CONFIG_FILE, and
// SPECBOOK_* environment variables.
//
// # Configuration Structure
//
// Server settings:
//
//	SPECBOOK_HOST="0.0.0.0"
//	SPECBOOK_PORT="8080"
//	SPECBOOK_HEALTH_PORT="9090"
//	SPECBOOK_READ_TIMEOUT="15s"
//	SPECBOOK_WRITE_TIMEOUT="15s"
//	SPECBOOK_MAX_BODY_BYTES="4194304"
//	SPECBOOK_RATE_LIMIT_ENABLED="true"
//	SPECBOOK_RATE_LIMIT_REQUESTS="600"  # per window and client
//	SPECBOOK_RATE_LIMIT_WINDOW="1m"
//	SPECBOOK_RATE_LIMIT_BURST="60"
//
// Storage settings:
//
//	SPECBOOK_DB_DRIVER="postgres"  # postgres, sqlite3
//	SPECBOOK_DB_DSN="postgres://localhost/specbook?sslmode=disable"
//	SPECBOOK_DB_REPLICA_DSNS="postgres://replica1/specbook,postgres://replica2/specbook"
//	SPECBOOK_DB_MAX_CONNS="20"
//	SPECBOOK_DB_MIGRATE="true"
//
// Cache settings:
//
//	SPECBOOK_CACHE_ENABLED="true"
//	SPECBOOK_CACHE_ENTRIES="256"
//	SPECBOOK_CACHE_TTL="15m"
//	SPECBOOK_REDIS_URL="redis://localhost:6379"
//	SPECBOOK_REDIS_POOL_SIZE="10"
//
// Publish settings:
//
//	SPECBOOK_S3_ENDPOINT="http://minio:9000"
//	SPECBOOK_S3_BUCKET="specbook"
//	SPECBOOK_S3_PREFIX="specs"
//	SPECBOOK_PUBLISH_SCHEDULE="@every 1h"
//	SPECBOOK_PUBLISH_FORMATS="json,yaml"
//	SPECBOOK_PUBLISH_EDITIONS="Basic,Advanced"
//
// Export settings:
//
//	SPECBOOK_DEFAULT_EDITIONS="Basic"
//
// Observability settings:
//
//	SPECBOOK_LOG_LEVEL="info"  # debug, info, warn, error
//	SPECBOOK_METRICS_ENABLED="true"
//	SPECBOOK_OTEL_ENABLED="true"
//	SPECBOOK_OTEL_ENDPOINT="otel-collector:4317"
//
// The same settings in YAML:
//
//	server:
//	  port: "8080"
//	storage:
//	  driver: postgres
//	  dsn: postgres://localhost/specbook
//	cache:
//	  redis_url: redis://localhost:6379
//	publish:
//	  bucket: specbook
//	  formats: [json, yaml]
//	export:
//	  default_editions: [Basic]
//	observability:
//	  log_level: debug
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Storage: %s\n", cfg.Storage.Driver)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/cache: Uses cache configuration
//   - pkg/publish: Uses publish configuration
//   - pkg/observability: Uses observability configuration
package config

package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"clover-api"`
	Port                          int      `env:"PORT" env-default:"3000"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,PATCH,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Database driver
	DatabaseDriver string `env:"DB_DRIVER" env-default:"postgres"`
	// Database host
	DatabaseHost string `env:"DB_HOST" env-default:""`
	// Database port
	DatabasePort string `env:"DB_PORT" env-default:"5432"`
	// Database user
	DatabaseUserName string `env:"DB_USER_NAME" env-default:""`
	// Database user password
	DatabasePassword string `env:"DB_PASSWORD" env-default:""`
	// Database name
	DatabaseName string `env:"DB_NAME" env-default:"clover"`
	// Database SQL Mode
	DatabaseSSLMode string `env:"DB_SQL_MODE" env-default:"disable"`
	// Reconnect Retry Count
	DatabaseReconnectRetryCount int `env:"DB_RECONNECT_RETRY_COUNT" env-default:"3"`
	// Max Open Conns
	DatabaseMaxOpenConns int `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	// Max Idle Conns
	DatabaseMaxIdleConns int `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	// Conn Max Lifetime
	DatabaseConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	// Migration Folder Path
	DatabaseMigrationFolderPath string `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	// Database Migration Version
	DatabaseMigrationVersion int `env:"DB_MIGRATION_VERSION" env-default:"0"`
	// Database Migration Force
	DatabaseMigrationForce int `env:"DB_MIGRATION_FORCE" env-default:"0"`
	// Database Migration Auto Rollback
	DatabaseMigrationAutoRollback bool `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Auth Issuer URL
	AuthIssuerURL string `env:"AUTH_ISSUER_URL" env-default:""`
	// Auth Client ID
	AuthClientID string `env:"AUTH_CLIENT_ID" env-default:""`
	// Auth Enabled - when false, allows X-Tenant-ID and X-User-ID headers for testing
	AuthEnabled bool `env:"AUTH_ENABLED" env-default:"false"`

	// Redis host
	RedisHost string `env:"REDIS_HOST" env-default:"localhost"`
	// Redis port
	RedisPort int `env:"REDIS_PORT" env-default:"6379"`
	// Redis password
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	// Redis database number
	RedisDB int `env:"REDIS_DB" env-default:"0"`

	// Kafka brokers (comma-separated)
	KafkaBrokers string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	// Kafka topic for federation events
	KafkaFederationTopic string `env:"KAFKA_FEDERATION_TOPIC" env-default:"federation-events"`
	// Kafka compression codec (gzip, snappy, lz4, zstd, none)
	KafkaCompression string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Federated search settings
	// Maximum concurrent partner fetches per search
	SearchConcurrency int `env:"SEARCH_CONCURRENCY" env-default:"10"`
	// Per-partner fetch timeout
	SearchPartnerTimeout time.Duration `env:"SEARCH_PARTNER_TIMEOUT" env-default:"5s"`
	// Overall search deadline
	SearchGlobalTimeout time.Duration `env:"SEARCH_GLOBAL_TIMEOUT" env-default:"15s"`
	// Default page size
	SearchDefaultLimit int `env:"SEARCH_DEFAULT_LIMIT" env-default:"20"`
	// Maximum page size
	SearchMaxLimit int `env:"SEARCH_MAX_LIMIT" env-default:"100"`
	// Per-partner HTTP request timeout
	TenantClientTimeout time.Duration `env:"TENANT_CLIENT_TIMEOUT" env-default:"10s"`

	// Trust score settings
	// Weight applied to the normalized review average
	TrustReviewAverageWeight float64 `env:"TRUST_REVIEW_AVERAGE_WEIGHT" env-default:"40"`
	// Weight applied per review up to the cap
	TrustReviewCountWeight float64 `env:"TRUST_REVIEW_COUNT_WEIGHT" env-default:"0.4"`
	// Review count cap
	TrustReviewCountCap int `env:"TRUST_REVIEW_COUNT_CAP" env-default:"25"`
	// Weight applied per completed transaction up to the cap
	TrustTransactionCountWeight float64 `env:"TRUST_TRANSACTION_COUNT_WEIGHT" env-default:"0.3"`
	// Transaction count cap
	TrustTransactionCountCap int `env:"TRUST_TRANSACTION_COUNT_CAP" env-default:"50"`
	// Bonus for members with cross-community activity
	TrustCrossTenantBonus float64 `env:"TRUST_CROSS_TENANT_BONUS" env-default:"10"`
	// How long a cached score stays fresh
	TrustStaleness time.Duration `env:"TRUST_STALENESS" env-default:"15m"`
	// Per-member recompute lock TTL
	TrustLockTTL time.Duration `env:"TRUST_LOCK_TTL" env-default:"30s"`

	// Redis Streams settings
	// Job queue stream name
	RedisStreamsJobQueue string `env:"REDIS_STREAMS_JOB_QUEUE" env-default:"clover:jobs"`
	// Consumer group name
	RedisStreamsConsumerGroup string `env:"REDIS_STREAMS_CONSUMER_GROUP" env-default:"clover-workers"`
	// Consumer name (defaults to hostname if empty)
	RedisStreamsConsumerName string `env:"REDIS_STREAMS_CONSUMER_NAME" env-default:""`
	// Number of queue workers
	QueueWorkerCount int `env:"QUEUE_WORKER_COUNT" env-default:"4"`

	// Tracing settings
	// Enable OTLP tracing export (set to true to send traces to collector)
	OTLPEnabled bool `env:"OTLP_ENABLED" env-default:"false"`
	// OTLP collector endpoint
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	// OTLP protocol (grpc or http)
	OTLPProtocol string `env:"OTLP_PROTOCOL" env-default:"grpc"`
	// Disable TLS for OTLP (for local development)
	OTLPInsecure bool `env:"OTLP_INSECURE" env-default:"true"`
}

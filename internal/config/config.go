// Package config loads application settings from environment variables with
// defaults, and validates them on startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Messages MessagesConfig
	Queue    QueueConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-upload requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the connection string (required). For postgres a URL, for
	// mysql a go-sql-driver DSN. DB_URL is accepted as well.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// Driver selects the store: postgres or mysql (default: postgres)
	Driver string `env:"DB_DRIVER" default:"postgres"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"4"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig holds upload processing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel uploads (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// BatchSize is the number of rows sent per flush (default: 100)
	BatchSize int `env:"UPLOAD_BATCH_SIZE" default:"100"`

	// Timeout is the maximum duration of one upload (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`

	// Dir receives uploaded files before processing (default: data/incoming)
	Dir string `env:"UPLOAD_DIR" default:"data/incoming"`

	// ArchiveDir keeps imported files; RejectDir keeps files that failed
	// validation. Empty disables keeping them.
	ArchiveDir string `env:"UPLOAD_ARCHIVE_DIR" default:"data/archive"`
	RejectDir  string `env:"UPLOAD_REJECT_DIR" default:"data/rejected"`

	// LayoutDir holds YAML layouts selectable per upload (default: layouts)
	LayoutDir string `env:"UPLOAD_LAYOUT_DIR" default:"layouts"`

	// AllowedExtensions is a comma-separated list of accepted file extensions
	AllowedExtensions []string `env:"UPLOAD_ALLOWED_EXTENSIONS" default:".txt,.dat,.csv,.xlsx"`
}

// MessagesConfig selects the message IDs reported for failed records.
type MessagesConfig struct {
	OnFormatError     string `env:"MSG_ON_FORMAT_ERROR" default:"VAL101"`
	OnValidationError string `env:"MSG_ON_VALIDATION_ERROR" default:"VAL102"`
	OnEmptyInput      string `env:"MSG_ON_EMPTY_INPUT" default:"FILE005"`

	// CatalogFile is an optional YAML map of message ID to template that
	// overrides the built-in texts.
	CatalogFile string `env:"MSG_CATALOG_FILE"`
}

// QueueConfig holds background job settings.
type QueueConfig struct {
	// Enabled turns on the async upload endpoint (default: false)
	Enabled bool `env:"QUEUE_ENABLED" default:"false"`

	RedisAddr     string `env:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" default:"0"`

	// Concurrency is the number of jobs a worker runs at once (default: 2)
	Concurrency int `env:"QUEUE_CONCURRENCY" default:"2"`

	// MaxRetry is how often a failed import job is retried (default: 3)
	MaxRetry int `env:"QUEUE_MAX_RETRY" default:"3"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

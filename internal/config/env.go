package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ExtractConfig defines text grouping and feature extraction tuning.
type ExtractConfig struct {
	LineYTolerance  float64
	BlockXTolerance float64
	BlockYTolerance float64
	GridRows        int
	GridCols        int
	OverlayDPI      int
	OverlayQuality  int
	WriteOverlays   bool
}

// WorkerConfig defines worker behavior and limits.
type WorkerConfig struct {
	Concurrency        int
	JobTimeout         time.Duration
	JobMaxAttempts     int
	RetryBaseDelay     time.Duration
	RetryJitter        time.Duration
	RetryBackoffFactor float64
}

// QueueConfig defines queue connectivity and names.
type QueueConfig struct {
	RedisURL     string
	Stream       string
	Group        string
	PollInterval time.Duration
}

// StorageConfig defines S3 connectivity and upload encryption.
type StorageConfig struct {
	Bucket           string
	Region           string
	Endpoint         string
	UploadResults    bool
	EncryptionSecret string
}

// ServerConfig defines the HTTP API listener.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	MaxUploadMB     int
}

// ExportConfig defines where result files land.
type ExportConfig struct {
	OutputDir string
	TempDir   string
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Extract ExtractConfig
	Worker  WorkerConfig
	Queue   QueueConfig
	Storage StorageConfig
	Server  ServerConfig
	Export  ExportConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	// Logging defaults
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/textextractor.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom defaults
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_textextractor",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	// Extraction defaults
	cfg.Extract = ExtractConfig{
		LineYTolerance:  parseFloat(getEnv("LINE_Y_TOLERANCE", "3"), 3),
		BlockXTolerance: parseFloat(getEnv("BLOCK_X_TOLERANCE", "50"), 50),
		BlockYTolerance: parseFloat(getEnv("BLOCK_Y_TOLERANCE", "20"), 20),
		GridRows:        parseInt(getEnv("GRID_ROWS", "10"), 10),
		GridCols:        parseInt(getEnv("GRID_COLS", "10"), 10),
		OverlayDPI:      parseInt(getEnv("OVERLAY_DPI", "150"), 150),
		OverlayQuality:  parseInt(getEnv("OVERLAY_QUALITY", "85"), 85),
		WriteOverlays:   parseBool(getEnv("WRITE_OVERLAYS", "true")),
	}

	// Worker defaults
	cfg.Worker = WorkerConfig{
		Concurrency:        parseInt(getEnv("WORKER_CONCURRENCY", "4"), 4),
		JobTimeout:         parseDuration(getEnv("JOB_TIMEOUT", "5m"), 5*time.Minute),
		JobMaxAttempts:     parseInt(getEnv("JOB_MAX_ATTEMPTS", "3"), 3),
		RetryBaseDelay:     parseDuration(getEnv("RETRY_BASE_DELAY", "2s"), 2*time.Second),
		RetryJitter:        parseDuration(getEnv("RETRY_JITTER", "200ms"), 200*time.Millisecond),
		RetryBackoffFactor: parseFloat(getEnv("RETRY_BACKOFF_FACTOR", "2.0"), 2.0),
	}

	// Queue defaults
	cfg.Queue = QueueConfig{
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		Stream:       getEnv("QUEUE_STREAM", "jobs:extract:docs"),
		Group:        getEnv("QUEUE_GROUP", "workers:extract"),
		PollInterval: parseDuration(getEnv("QUEUE_POLL_INTERVAL", "100ms"), 100*time.Millisecond),
	}

	// Storage defaults
	cfg.Storage = StorageConfig{
		Bucket:           getEnv("S3_BUCKET", ""),
		Region:           getEnv("AWS_REGION", "us-east-1"),
		Endpoint:         getEnv("S3_ENDPOINT", ""),
		UploadResults:    parseBool(getEnv("UPLOAD_RESULTS_TO_S3", "0")),
		EncryptionSecret: getEnv("S3_ENCRYPTION_SECRET", ""),
	}

	// Server defaults
	cfg.Server = ServerConfig{
		Addr:            getEnv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: parseDuration(getEnv("HTTP_SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		MaxUploadMB:     parseInt(getEnv("MAX_UPLOAD_MB", "100"), 100),
	}

	// Export defaults
	cfg.Export = ExportConfig{
		OutputDir: getEnv("OUTPUT_DIR", "output_data"),
		TempDir:   getEnv("TEMP_DIR", os.TempDir()),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}

package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
)

// Module exposes configuration loader for fx graphs.
var Module = fx.Provide(Load)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	JWTSecret       string
	TokenTTL        time.Duration
	BcryptCost      int
	ShutdownTimeout time.Duration
	LogLevel        string

	RedisAddress      string
	SettlementLockTTL time.Duration

	RabbitMQURL string

	ReceiptBucket string
	S3Endpoint    string
	S3Region      string
	S3AccessKey   string
	S3SecretKey   string
	S3PathStyle   bool
	ChromeURL     string
	ReceiptURLTTL time.Duration

	LoyaltyRate float64

	NotifyPollInterval time.Duration
	NotifyWorkers      int
	NotifyBatchSize    int
	NotifyMaxAttempts  int
}

const (
	defaultRunAddress         = ":8080"
	defaultJWTSecret          = "change-me-in-production"
	defaultTokenTTL           = 24 * time.Hour
	defaultShutdownTimeout    = 10 * time.Second
	defaultLogLevel           = "info"
	defaultSettlementLockTTL  = 30 * time.Second
	defaultS3Region           = "us-east-1"
	defaultReceiptURLTTL      = 7 * 24 * time.Hour
	defaultLoyaltyRate        = 0.05
	defaultNotifyPollInterval = 5 * time.Second
	defaultNotifyWorkers      = 4
	defaultNotifyBatchSize    = 32
	defaultNotifyMaxAttempts  = 5
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:         getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:        getString(lookup, "DATABASE_URI", ""),
		JWTSecret:          getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:           getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		BcryptCost:         getInt(lookup, "BCRYPT_COST", 0),
		ShutdownTimeout:    getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:           getString(lookup, "LOG_LEVEL", defaultLogLevel),
		RedisAddress:       getString(lookup, "REDIS_ADDRESS", ""),
		SettlementLockTTL:  getDuration(lookup, "SETTLEMENT_LOCK_TTL", defaultSettlementLockTTL),
		RabbitMQURL:        getString(lookup, "RABBITMQ_URL", ""),
		ReceiptBucket:      getString(lookup, "RECEIPT_BUCKET", ""),
		S3Endpoint:         getString(lookup, "S3_ENDPOINT", ""),
		S3Region:           getString(lookup, "S3_REGION", defaultS3Region),
		S3AccessKey:        getString(lookup, "S3_ACCESS_KEY", ""),
		S3SecretKey:        getString(lookup, "S3_SECRET_KEY", ""),
		S3PathStyle:        getBool(lookup, "S3_PATH_STYLE", false),
		ChromeURL:          getString(lookup, "CHROME_URL", ""),
		ReceiptURLTTL:      getDuration(lookup, "RECEIPT_URL_TTL", defaultReceiptURLTTL),
		LoyaltyRate:        getFloat(lookup, "LOYALTY_RATE", defaultLoyaltyRate),
		NotifyPollInterval: getDuration(lookup, "NOTIFY_POLL_INTERVAL", defaultNotifyPollInterval),
		NotifyWorkers:      getInt(lookup, "NOTIFY_WORKERS", defaultNotifyWorkers),
		NotifyBatchSize:    getInt(lookup, "NOTIFY_BATCH_SIZE", defaultNotifyBatchSize),
		NotifyMaxAttempts:  getInt(lookup, "NOTIFY_MAX_ATTEMPTS", defaultNotifyMaxAttempts),
	}

	fs := flag.NewFlagSet("marketplace", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.NotifyPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for settlement guard")
	fs.StringVar(&cfg.RabbitMQURL, "amqp", cfg.RabbitMQURL, "RabbitMQ URL for receipt notifications")
	fs.StringVar(&cfg.ReceiptBucket, "bucket", cfg.ReceiptBucket, "S3 bucket for receipt documents")
	fs.StringVar(&cfg.ChromeURL, "chrome", cfg.ChromeURL, "Remote Chrome DevTools URL")
	fs.Float64Var(&cfg.LoyaltyRate, "loyalty-rate", cfg.LoyaltyRate, "Loyalty points per currency unit")
	fs.IntVar(&cfg.NotifyWorkers, "notify-workers", cfg.NotifyWorkers, "Number of concurrent receipt notification workers")
	fs.IntVar(&cfg.NotifyBatchSize, "notify-batch", cfg.NotifyBatchSize, "Maximum notifications per dispatch batch")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between outbox polls")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.NotifyPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if cfg.NotifyWorkers <= 0 {
		cfg.NotifyWorkers = defaultNotifyWorkers
	}

	if cfg.NotifyBatchSize <= 0 {
		cfg.NotifyBatchSize = defaultNotifyBatchSize
	}

	if cfg.NotifyMaxAttempts <= 0 {
		cfg.NotifyMaxAttempts = defaultNotifyMaxAttempts
	}

	if cfg.NotifyPollInterval <= 0 {
		cfg.NotifyPollInterval = defaultNotifyPollInterval
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.SettlementLockTTL <= 0 {
		cfg.SettlementLockTTL = defaultSettlementLockTTL
	}

	if cfg.ReceiptURLTTL <= 0 {
		cfg.ReceiptURLTTL = defaultReceiptURLTTL
	}

	if cfg.LoyaltyRate < 0 {
		return nil, fmt.Errorf("loyalty rate must not be negative")
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("rabbitmq URL must be provided")
	}

	if cfg.ReceiptBucket == "" {
		return nil, fmt.Errorf("receipt bucket must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

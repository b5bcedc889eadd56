package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	HTTPAddr string

	MongoURI string
	MongoDB  string

	KafkaBrokers     []string
	KafkaTopicPrefix string

	WebhookSecret       string
	WebhookReplayWindow time.Duration

	PlatformFeeRate    float64
	PaymentMaxAttempts int
	PendingExpiry      time.Duration
	ExpirySweepEvery   time.Duration

	ProviderBaseURL string
	ProviderAPIKey  string
	ProviderTimeout time.Duration

	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "gearshare"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		ProviderBaseURL:  getEnv("PROVIDER_BASE_URL", "https://api.payments.example.com"),
		ProviderAPIKey:   os.Getenv("PROVIDER_API_KEY"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	replay, err := parseDurationEnv("WEBHOOK_REPLAY_WINDOW", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.WebhookReplayWindow = replay

	feeRate, err := parseFloatEnv("PLATFORM_FEE_RATE", 0.10)
	if err != nil {
		return Config{}, err
	}
	if feeRate < 0 || feeRate > 1 {
		return Config{}, fmt.Errorf("PLATFORM_FEE_RATE must be within [0,1], got %v", feeRate)
	}
	cfg.PlatformFeeRate = feeRate

	maxAttempts, err := parseIntEnv("PAYMENT_MAX_ATTEMPTS", 3)
	if err != nil {
		return Config{}, err
	}
	if maxAttempts < 1 {
		return Config{}, fmt.Errorf("PAYMENT_MAX_ATTEMPTS must be at least 1")
	}
	cfg.PaymentMaxAttempts = maxAttempts

	pendingExpiry, err := parseDurationEnv("PENDING_EXPIRY", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.PendingExpiry = pendingExpiry

	sweep, err := parseDurationEnv("EXPIRY_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.ExpirySweepEvery = sweep

	providerTimeout, err := parseDurationEnv("PROVIDER_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.ProviderTimeout = providerTimeout

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return Config{}, fmt.Errorf("KAFKA_BROKERS is required")
	}
	if cfg.WebhookSecret == "" {
		return Config{}, fmt.Errorf("WEBHOOK_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}

func parseFloatEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s float: %w", key, err)
	}
	return v, nil
}

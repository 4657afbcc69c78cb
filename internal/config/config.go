package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Policy   PolicyConfig
	Sync     SyncConfig
	Notify   NotifyConfig
	Geocode  GeocodeConfig
}

type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	Timezone string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds verification settings for tokens issued by the identity provider.
type JWTConfig struct {
	Secret string
}

// PolicyConfig resolves the business-rule variants in one place.
type PolicyConfig struct {
	// LateCutoff is the local time-of-day ("HH:MM") after which a check-in is late.
	LateCutoff string
	// RequireLocation makes a missing GPS fix a hard submission failure.
	RequireLocation bool
	// EnforceSequence rejects two consecutive events of the same kind per vendor.
	EnforceSequence bool
	// NotifyOnReconcile dispatches notifications when a queued event commits.
	NotifyOnReconcile bool
}

type SyncConfig struct {
	// Interval between periodic reconciliation passes.
	Interval time.Duration
	// ProbeInterval between connectivity checks against the remote store.
	ProbeInterval time.Duration
	// QueuePath is the pending-event queue file.
	QueuePath string
	// DeadLetterPath receives events that exhausted MaxAttempts.
	DeadLetterPath string
	// MaxAttempts per pending event; 0 retries forever.
	MaxAttempts int
}

type NotifyConfig struct {
	ConfirmationURL string
	LateArrivalURL  string
	Timeout         time.Duration
}

type GeocodeConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("APP_TIMEZONE", "America/Mazatlan"),
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "terrapesca-checkin"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	config.Policy = PolicyConfig{
		LateCutoff:        getEnv("POLICY_LATE_CUTOFF", "09:05"),
		RequireLocation:   getEnvBool("POLICY_REQUIRE_LOCATION", false),
		EnforceSequence:   getEnvBool("POLICY_ENFORCE_SEQUENCE", true),
		NotifyOnReconcile: getEnvBool("POLICY_NOTIFY_ON_RECONCILE", true),
	}

	syncInterval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}

	probeInterval, err := time.ParseDuration(getEnv("SYNC_PROBE_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_PROBE_INTERVAL: %w", err)
	}

	maxAttempts, err := strconv.Atoi(getEnv("SYNC_MAX_ATTEMPTS", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_MAX_ATTEMPTS: %w", err)
	}

	config.Sync = SyncConfig{
		Interval:       syncInterval,
		ProbeInterval:  probeInterval,
		QueuePath:      getEnv("SYNC_QUEUE_PATH", "pending-events.json"),
		DeadLetterPath: getEnv("SYNC_DEAD_LETTER_PATH", "dead-letter-events.json"),
		MaxAttempts:    maxAttempts,
	}

	notifyTimeout, err := time.ParseDuration(getEnv("NOTIFY_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_TIMEOUT: %w", err)
	}

	config.Notify = NotifyConfig{
		ConfirmationURL: getEnv("NOTIFY_CONFIRMATION_URL", ""),
		LateArrivalURL:  getEnv("NOTIFY_LATE_ARRIVAL_URL", ""),
		Timeout:         notifyTimeout,
	}

	geocodeTimeout, err := time.ParseDuration(getEnv("GEOCODE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GEOCODE_TIMEOUT: %w", err)
	}

	config.Geocode = GeocodeConfig{
		BaseURL:   getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		UserAgent: getEnv("GEOCODE_USER_AGENT", "TerrapescaCheckIn/1.0"),
		Timeout:   geocodeTimeout,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.Parse("15:04", c.Policy.LateCutoff); err != nil {
		return fmt.Errorf("POLICY_LATE_CUTOFF must be HH:MM: %w", err)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Sync.QueuePath == "" {
		return fmt.Errorf("SYNC_QUEUE_PATH is required")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres  = "postgres"
	BackendPostgREST = "postgrest"
	BackendMemory    = "memory"
)

type Config struct {
	ServerPort  string
	GinMode     string
	LogLevel    string
	MetricsPath string

	StoreBackend string
	DBDriver     string
	DBHost       string
	DBPort       int
	DBUser       string
	DBPassword   string
	DBName       string
	DBSslMode    string

	SupabaseURL      string
	SupabaseKey      string
	StoreHTTPTimeout time.Duration

	AWSRegion        string
	SQSEventQueueURL string
	IoTMQTTEndpoint  string
	IoTTopicPrefix   string
	LPREnabled       bool
	LPRPlatePattern  string

	RMQURL       string
	RMQQueueName string

	// Keys that were not set and fell back to their default value.
	Defaulted []string
	// Non-fatal problems found while loading (bad .env file, unparsable numbers).
	Warnings []string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("could not load .env file: %v", err))
	}

	cfg.ServerPort = cfg.getEnv("SERVER_PORT", "8080")
	cfg.GinMode = cfg.getEnv("GIN_MODE", "release")
	cfg.LogLevel = cfg.getEnv("LOG_LEVEL", "info")
	cfg.MetricsPath = cfg.getEnv("METRICS_PATH", "/metrics")

	cfg.StoreBackend = strings.ToLower(cfg.getEnv("STORE_BACKEND", BackendPostgres))
	cfg.DBDriver = cfg.getEnv("DB_DRIVER", "pgx")
	cfg.DBHost = cfg.getEnv("DB_HOST", "localhost")
	cfg.DBPort = cfg.getEnvInt("DB_PORT", 5432)
	cfg.DBUser = cfg.getEnv("DB_USER", "postgres")
	cfg.DBPassword = cfg.getEnv("DB_PASSWORD", "postgres")
	cfg.DBName = cfg.getEnv("DB_NAME", "parking_lot")
	cfg.DBSslMode = cfg.getEnv("DB_SSLMODE", "disable")

	cfg.SupabaseURL = cfg.getEnv("SUPABASE_URL", "")
	cfg.SupabaseKey = cfg.getEnv("SUPABASE_KEY", "")
	cfg.StoreHTTPTimeout = time.Duration(cfg.getEnvInt("STORE_HTTP_TIMEOUT_S", 10)) * time.Second

	cfg.AWSRegion = cfg.getEnv("AWS_REGION", "ap-southeast-1")
	cfg.SQSEventQueueURL = cfg.getEnv("SQS_EVENT_QUEUE_URL", "")
	cfg.IoTMQTTEndpoint = cfg.getEnv("IOT_MQTT_ENDPOINT", "")
	cfg.IoTTopicPrefix = cfg.getEnv("IOT_TOPIC_PREFIX", "parking")
	cfg.LPREnabled = cfg.getEnvBool("LPR_ENABLED", false)
	cfg.LPRPlatePattern = cfg.getEnv("LPR_PLATE_PATTERN", `^[0-9]?[\x{0E01}-\x{0E2E}]{1,3}[0-9]{1,4}$`)

	cfg.RMQURL = cfg.getEnv("RMQ_URL", "")
	cfg.RMQQueueName = cfg.getEnv("RMQ_QUEUE_NAME", "lot_events")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DBDriver != "pgx" && c.DBDriver != "postgres" {
			return fmt.Errorf("config: unsupported DB_DRIVER %q (want pgx or postgres)", c.DBDriver)
		}
	case BackendPostgREST:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return errors.New("config: SUPABASE_URL and SUPABASE_KEY are required for the postgrest backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	if c.StoreHTTPTimeout <= 0 {
		return errors.New("config: STORE_HTTP_TIMEOUT_S must be positive")
	}
	return nil
}

// PostgresDSN builds a postgres:// URL accepted by both pgx and lib/pq.
// Credentials and the database name are escaped, so they may hold spaces,
// quotes or '@'.
func (c *Config) PostgresDSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSslMode}}.Encode(),
	}
	return dsn.String()
}

// AWSEnabled reports whether any AWS-backed feature is configured.
func (c *Config) AWSEnabled() bool {
	return c.SQSEventQueueURL != "" || c.IoTMQTTEndpoint != "" || c.LPREnabled
}

func (c *Config) getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	c.Defaulted = append(c.Defaulted, key)
	return fallback
}

func (c *Config) getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		c.Defaulted = append(c.Defaulted, key)
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not an integer, using %d", key, value, fallback))
		return fallback
	}
	return n
}

func (c *Config) getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		c.Defaulted = append(c.Defaulted, key)
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not a boolean, using %t", key, value, fallback))
		return fallback
	}
	return b
}

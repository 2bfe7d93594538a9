package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"pixeldesk/database"
)

// Config holds all application configuration
type Config struct {
	// HTTP configuration
	HTTPAddr   string `yaml:"http_addr"`
	JWTSecret  string `yaml:"jwt_secret"`
	CronSecret string `yaml:"cron_secret"` // Bearer secret accepted by the manual sweep endpoint

	// Database configuration
	DatabaseURL  string `yaml:"database_url"`
	DatabaseName string `yaml:"database_name"`

	// Sweep configuration
	SweepCron         string        `yaml:"sweep_cron"`
	SweepLazyInterval time.Duration `yaml:"sweep_lazy_interval"` // Minimum gap between request-triggered sweeps

	// Email configuration
	ResendAPIKey string `yaml:"resend_api_key"`
	EmailFrom    string `yaml:"email_from"`

	// Ops webhook, posts sweep summaries when set
	DiscordWebhookURL string `yaml:"discord_webhook_url"`

	// NATS configuration, events are only mirrored when servers are set
	NATSServers string `yaml:"nats_servers"`

	// Metrics configuration
	MetricsExporter string `yaml:"metrics_exporter"` // "console", "otlp" or "none"
	OTLPEndpoint    string `yaml:"otlp_endpoint"`
	ServiceName     string `yaml:"service_name"`

	// AI chat configuration
	AIDailyLimit int `yaml:"ai_daily_limit"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "text" or "json"

	// Environment
	Environment string `yaml:"environment"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func defaults() *Config {
	return &Config{
		HTTPAddr:          ":8080",
		SweepCron:         "@every 1h",
		SweepLazyInterval: time.Hour,
		EmailFrom:         "PixelDesk <noreply@pixeldesk.app>",
		MetricsExporter:   "none",
		OTLPEndpoint:      "otel-collector:4317",
		ServiceName:       "pixeldesk",
		AIDailyLimit:      20,
		LogLevel:          "info",
		LogFormat:         "text",
		Environment:       "development",
	}
}

// load builds the configuration from defaults, an optional YAML file and the environment.
// Environment variables take precedence over the file.
func load() (*Config, error) {
	config := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	applyEnv(config)

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(config *Config) {
	config.HTTPAddr = getEnvWithDefault("HTTP_ADDR", config.HTTPAddr)
	config.JWTSecret = getEnvWithDefault("JWT_SECRET", config.JWTSecret)
	config.CronSecret = getEnvWithDefault("CRON_SECRET", config.CronSecret)

	config.DatabaseURL = getEnvWithDefault("DATABASE_URL", config.DatabaseURL)
	config.DatabaseName = getEnvWithDefault("DATABASE_NAME", config.DatabaseName)

	config.SweepCron = getEnvWithDefault("SWEEP_CRON", config.SweepCron)
	if interval := os.Getenv("SWEEP_LAZY_INTERVAL"); interval != "" {
		if parsed, err := time.ParseDuration(interval); err == nil {
			config.SweepLazyInterval = parsed
		}
	}

	config.ResendAPIKey = getEnvWithDefault("RESEND_API_KEY", config.ResendAPIKey)
	config.EmailFrom = getEnvWithDefault("EMAIL_FROM", config.EmailFrom)
	config.DiscordWebhookURL = getEnvWithDefault("DISCORD_WEBHOOK_URL", config.DiscordWebhookURL)
	config.NATSServers = getEnvWithDefault("NATS_SERVERS", config.NATSServers)

	config.MetricsExporter = getEnvWithDefault("METRICS_EXPORTER", config.MetricsExporter)
	config.OTLPEndpoint = getEnvWithDefault("OTLP_ENDPOINT", config.OTLPEndpoint)
	config.ServiceName = getEnvWithDefault("SERVICE_NAME", config.ServiceName)

	if limit := os.Getenv("AI_DAILY_LIMIT"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil && parsed > 0 {
			config.AIDailyLimit = parsed
		}
	}

	config.LogLevel = getEnvWithDefault("LOG_LEVEL", config.LogLevel)
	config.LogFormat = getEnvWithDefault("LOG_FORMAT", config.LogFormat)
	config.Environment = getEnvWithDefault("ENVIRONMENT", config.Environment)
}

func (c *Config) validate() error {
	if c.Environment == "test" {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	switch c.MetricsExporter {
	case "console", "otlp", "none":
	default:
		return fmt.Errorf("unsupported METRICS_EXPORTER %q", c.MetricsExporter)
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	config := defaults()
	config.Environment = "test"
	config.JWTSecret = "test-secret"
	config.CronSecret = "test-cron-secret"
	return config
}

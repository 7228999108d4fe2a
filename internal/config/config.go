package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Server      struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	NATS struct {
		URL           string        `mapstructure:"url"`
		Stream        string        `mapstructure:"stream"`        // Inbound message stream name
		Consumer      string        `mapstructure:"consumer"`      // Durable consumer name
		Subject       string        `mapstructure:"subject"`       // Subject filter for inbound customer messages
		AckWait       time.Duration `mapstructure:"ackWait"`       // Ack wait timeout for the consumer
		MaxAckPending int           `mapstructure:"maxAckPending"` // Max pending ACKs
		MaxAgeDays    int           `mapstructure:"maxAgeDays"`    // Stream retention in days
	} `mapstructure:"nats"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	Escalation struct {
		TTL           time.Duration `mapstructure:"ttl"`           // Time until an unhandled request auto-expires
		SweepInterval time.Duration `mapstructure:"sweepInterval"` // How often the expiry sweep runs
		SummaryDepth  int           `mapstructure:"summaryDepth"`  // Number of recent messages to summarize
	} `mapstructure:"escalation"`
	Notifications struct {
		OwnerPhone     string        `mapstructure:"ownerPhone"`     // Business owner SMS recipient
		TwilioFrom     string        `mapstructure:"twilioFrom"`     // Twilio sender number
		PushGatewayURL string        `mapstructure:"pushGatewayURL"` // Internal push gateway endpoint
		PushTimeout    time.Duration `mapstructure:"pushTimeout"`
		SMSTimeout     time.Duration `mapstructure:"smsTimeout"`
	} `mapstructure:"notifications"`
	AI struct {
		Model     string        `mapstructure:"model"`
		Timeout   time.Duration `mapstructure:"timeout"`
		MaxChars  int           `mapstructure:"maxChars"`
		MaxTokens int           `mapstructure:"maxTokens"`
	} `mapstructure:"ai"`
	Reminders struct {
		TickInterval     time.Duration `mapstructure:"tickInterval"`     // Rule evaluation cadence
		DispatchInterval time.Duration `mapstructure:"dispatchInterval"` // Pending job delivery cadence
		BookingURL       string        `mapstructure:"bookingURL"`       // Static booking link for fallback templates
		ActionBaseURL    string        `mapstructure:"actionBaseURL"`    // Base URL for job-scoped action links
	} `mapstructure:"reminders"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	WorkerPools struct {
		Reminder ReminderWorkerPoolConfig `mapstructure:"reminder"`
	} `mapstructure:"workerPools"`
}

// ReminderWorkerPoolConfig holds configuration for the reminder candidate worker pool
type ReminderWorkerPoolConfig struct {
	PoolSize   int           `mapstructure:"poolSize"`   // Number of workers
	QueueSize  int           `mapstructure:"queueSize"`  // Task queue buffer size
	MaxBlock   time.Duration `mapstructure:"maxBlock"`   // Max time to block when submitting if queue full
	ExpiryTime time.Duration `mapstructure:"expiryTime"` // Idle worker expiry time
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	// Create new viper instance
	v := viper.New()

	// Set defaults
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 2112)

	v.SetDefault("nats.stream", "engage_inbound")
	v.SetDefault("nats.consumer", "engage_core")
	v.SetDefault("nats.subject", "v1.engage.inbound.>")
	v.SetDefault("nats.ackWait", 30*time.Second)
	v.SetDefault("nats.maxAckPending", 1000)
	v.SetDefault("nats.maxAgeDays", 7)

	v.SetDefault("escalation.ttl", 24*time.Hour)
	v.SetDefault("escalation.sweepInterval", time.Hour)
	v.SetDefault("escalation.summaryDepth", 5)

	v.SetDefault("notifications.pushTimeout", 10*time.Second)
	v.SetDefault("notifications.smsTimeout", 10*time.Second)

	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout", 15*time.Second)
	v.SetDefault("ai.maxChars", 160)
	v.SetDefault("ai.maxTokens", 120)

	v.SetDefault("reminders.tickInterval", 6*time.Hour)
	v.SetDefault("reminders.dispatchInterval", 5*time.Minute)
	v.SetDefault("reminders.bookingURL", "https://book.detailops.com")
	v.SetDefault("reminders.actionBaseURL", "https://app.detailops.com/r")

	// WorkerPools Defaults
	v.SetDefault("workerPools.reminder.poolSize", 8)
	v.SetDefault("workerPools.reminder.queueSize", 1024)
	v.SetDefault("workerPools.reminder.maxBlock", time.Second)
	v.SetDefault("workerPools.reminder.expiryTime", time.Minute)

	// Config file settings
	v.SetConfigName("default") // name of config file (without extension)
	v.SetConfigType("yaml")

	// Add lookup paths
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("$HOME/.engagement-core")
	v.AddConfigPath("/etc/engagement-core")

	// Try to read from config file
	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map environment variables to config fields
	bindEnvs(v, Config{})

	// Read directly from ENV for critical values
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		v.Set("database.postgresDSN", dsn)
	}
	if lgLevel := os.Getenv("LOG_LEVEL"); lgLevel != "" {
		v.Set("logLevel", lgLevel)
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		v.Set("nats.url", url)
	}
	if phone := os.Getenv("BUSINESS_OWNER_PHONE"); phone != "" {
		v.Set("notifications.ownerPhone", phone)
	}
	if from := os.Getenv("TWILIO_FROM_NUMBER"); from != "" {
		v.Set("notifications.twilioFrom", from)
	}
	if gw := os.Getenv("PUSH_GATEWAY_URL"); gw != "" {
		v.Set("notifications.pushGatewayURL", gw)
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		// Get the field tag value (mapstructure)
		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		// Build the env var path
		path := append(parts, tag)
		key := strings.Join(path, ".")

		// If it's a struct, recursively bind its fields
		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		// Bind the env var
		_ = v.BindEnv(key)
	}
}

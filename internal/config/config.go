// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultPassExpiryCron        = "*/30 * * * *"
	defaultBookingCompletionCron = "5 * * * *"
	defaultReminderCron          = "*/15 * * * *"
	defaultReminderHoursBefore   = 24
	defaultCheckinCooldown       = 10 * time.Minute
	defaultCacheTTL              = 60 * time.Second
	defaultShutdownTimeout       = 30
	defaultPhoneRegion           = "US"
	defaultEventsExchange        = "trainyard.events"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type EmailConfig struct {
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

// Enabled reports whether enough SES settings are present to send mail.
func (c EmailConfig) Enabled() bool {
	return c.Region != "" && c.Sender != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type EventsConfig struct {
	Exchange string `yaml:"exchange"`
	URL      string `yaml:"-"` // Loaded from environment
}

type CacheConfig struct {
	Addr     string        `yaml:"addr"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	Password string        `yaml:"-"` // Loaded from environment
}

type SchedulerConfig struct {
	PassExpiryCron        string `yaml:"pass_expiry_cron"`
	BookingCompletionCron string `yaml:"booking_completion_cron"`
	ReminderCron          string `yaml:"reminder_cron"`
	ReminderHoursBefore   int64  `yaml:"reminder_hours_before"`
}

type CheckinConfig struct {
	Cooldown   time.Duration `yaml:"cooldown"`
	TrustProxy bool          `yaml:"trust_proxy"`
}

type Config struct {
	App struct {
		Name                   string `yaml:"name"`
		Environment            string `yaml:"environment"`
		Port                   int    `yaml:"port"`
		BaseURL                string `yaml:"base_url"`
		ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	} `yaml:"app"`

	Database  DatabaseConfig  `yaml:"database"`
	Email     EmailConfig     `yaml:"email"`
	Events    EventsConfig    `yaml:"events"`
	Cache     CacheConfig     `yaml:"cache"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Checkin   CheckinConfig   `yaml:"checkin"`

	Members struct {
		DefaultPhoneRegion string `yaml:"default_phone_region"`
	} `yaml:"members"`

	Features struct {
		EnableScheduler bool `yaml:"enable_scheduler"`
		EnableDebug     bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment
	cfg.Email.AccessKeyID = os.Getenv("AWS_SES_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("AWS_SES_SECRET_ACCESS_KEY")
	cfg.Events.URL = os.Getenv("AMQP_URL")
	cfg.Cache.Password = os.Getenv("REDIS_PASSWORD")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration and fills defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.ShutdownTimeoutSeconds <= 0 {
		c.App.ShutdownTimeoutSeconds = defaultShutdownTimeout
	}
	if strings.TrimSpace(c.Scheduler.PassExpiryCron) == "" {
		c.Scheduler.PassExpiryCron = defaultPassExpiryCron
	}
	if strings.TrimSpace(c.Scheduler.BookingCompletionCron) == "" {
		c.Scheduler.BookingCompletionCron = defaultBookingCompletionCron
	}
	if strings.TrimSpace(c.Scheduler.ReminderCron) == "" {
		c.Scheduler.ReminderCron = defaultReminderCron
	}
	if c.Scheduler.ReminderHoursBefore <= 0 {
		c.Scheduler.ReminderHoursBefore = defaultReminderHoursBefore
	}
	if c.Checkin.Cooldown <= 0 {
		c.Checkin.Cooldown = defaultCheckinCooldown
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = defaultCacheTTL
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "trainyard"
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = defaultEventsExchange
	}
	if c.Members.DefaultPhoneRegion == "" {
		c.Members.DefaultPhoneRegion = defaultPhoneRegion
	}
}

// ShutdownTimeout returns the graceful shutdown window.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.App.ShutdownTimeoutSeconds) * time.Second
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	crons := map[string]string{
		"scheduler.pass_expiry_cron":        c.Scheduler.PassExpiryCron,
		"scheduler.booking_completion_cron": c.Scheduler.BookingCompletionCron,
		"scheduler.reminder_cron":           c.Scheduler.ReminderCron,
	}
	for field, expr := range crons {
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("%s is not a valid cron expression: %w", field, err)
		}
	}

	if c.Email.Region != "" && c.Email.Sender == "" {
		return fmt.Errorf("email sender is required when email region is set")
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	MongoDB    MongoDBConfig
	Automation AutomationConfig
	Redis      RedisConfig
	Mail       MailConfig
	Phone      PhoneConfig
	WhatsApp   WhatsAppConfig
	Sheets     SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port         string        `envconfig:"APP_PORT" default:"5000"`
	Env          string        `envconfig:"APP_ENV" default:"development"`
	CORSOrigins  []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	ReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `envconfig:"APP_IDLE_TIMEOUT" default:"60s"`
}

// IsDevelopment reports whether raw error messages may be echoed to clients.
func (s ServerConfig) IsDevelopment() bool {
	return strings.EqualFold(s.Env, EnvDevelopment)
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI             string        `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	DBName          string        `envconfig:"MONGODB_DB_NAME" default:"farmdesk"`
	UseTransactions bool          `envconfig:"MONGODB_TRANSACTIONS" default:"true"`
	RetryDelay      time.Duration `envconfig:"MONGODB_RETRY_DELAY" default:"5s"`
	// ConnectAttempts bounds startup connection attempts; 0 retries forever.
	ConnectAttempts int `envconfig:"MONGODB_CONNECT_ATTEMPTS" default:"0"`
}

// AutomationConfig holds scheduler-related settings.
type AutomationConfig struct {
	Enabled             bool          `envconfig:"AUTOMATION_ENABLED" default:"true"`
	Timezone            string        `envconfig:"TIMEZONE" default:"Africa/Conakry"`
	DailySchedule       string        `envconfig:"AUTOMATION_DAILY_CRON" default:"0 6 * * *"`
	WeeklySchedule      string        `envconfig:"AUTOMATION_WEEKLY_CRON" default:"0 7 * * 1"`
	MonthlySchedule     string        `envconfig:"AUTOMATION_MONTHLY_CRON" default:"0 1 1 * *"`
	ExpiryWarningDays   int           `envconfig:"AUTOMATION_EXPIRY_WARNING_DAYS" default:"30"`
	ExpiryCriticalDays  int           `envconfig:"AUTOMATION_EXPIRY_CRITICAL_DAYS" default:"7"`
	StockoutHorizonDays int           `envconfig:"AUTOMATION_STOCKOUT_HORIZON_DAYS" default:"14"`
	JobTimeout          time.Duration `envconfig:"AUTOMATION_JOB_TIMEOUT" default:"2m"`
	LockTTL             time.Duration `envconfig:"AUTOMATION_LOCK_TTL" default:"10m"`
}

// RedisConfig enables cross-replica job locking when URL is set.
type RedisConfig struct {
	URL string `envconfig:"REDIS_URL"`
}

// MailConfig configures the SendGrid relay used by the contact form.
type MailConfig struct {
	APIKey         string `envconfig:"SENDGRID_API_KEY"`
	BaseURL        string `envconfig:"SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
	From           string `envconfig:"MAIL_FROM" default:"no-reply@farmdesk.local"`
	AdminRecipient string `envconfig:"MAIL_ADMIN_TO"`
}

type PhoneConfig struct {
	DefaultRegion string `envconfig:"PHONE_DEFAULT_REGION" default:"GN"`
}

// WhatsAppConfig contains credentials for the optional WhatsApp alert channel.
type WhatsAppConfig struct {
	AccessToken    string `envconfig:"WHATSAPP_TOKEN"`
	PhoneNumberID  string `envconfig:"WHATSAPP_PHONE_NUMBER_ID"`
	BaseURL        string `envconfig:"WHATSAPP_BASE_URL" default:"https://graph.facebook.com"`
	APIVersion     string `envconfig:"WHATSAPP_API_VERSION" default:"v20.0"`
	AlertRecipient string `envconfig:"WHATSAPP_ALERT_RECIPIENT"`
}

// Enabled reports whether alerts should also go out over WhatsApp.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != "" && w.PhoneNumberID != "" && w.AlertRecipient != ""
}

// SheetsConfig contains configuration for the optional Google Sheets export.
type SheetsConfig struct {
	CredentialsPath string `envconfig:"GOOGLE_SHEETS_CREDENTIALS_PATH"`
	SpreadsheetID   string `envconfig:"GOOGLE_SHEET_DATABASE_ID"`
	ReportRange     string `envconfig:"GOOGLE_SHEET_REPORT_RANGE" default:"WeeklyFeed!A:F"`
}

func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// missing .env files are fine when configuration comes from the environment
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	case c.MongoDB.RetryDelay <= 0:
		return errors.New("MONGODB_RETRY_DELAY must be positive")
	case c.MongoDB.ConnectAttempts < 0:
		return errors.New("MONGODB_CONNECT_ATTEMPTS must not be negative")
	}

	if _, err := time.LoadLocation(c.Automation.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	schedules := map[string]string{
		"AUTOMATION_DAILY_CRON":   c.Automation.DailySchedule,
		"AUTOMATION_WEEKLY_CRON":  c.Automation.WeeklySchedule,
		"AUTOMATION_MONTHLY_CRON": c.Automation.MonthlySchedule,
	}
	for key, expr := range schedules {
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("%s is invalid: %w", key, err)
		}
	}

	if c.Automation.ExpiryCriticalDays <= 0 || c.Automation.ExpiryWarningDays < c.Automation.ExpiryCriticalDays {
		return errors.New("AUTOMATION_EXPIRY_WARNING_DAYS must be >= AUTOMATION_EXPIRY_CRITICAL_DAYS > 0")
	}
	if c.Automation.StockoutHorizonDays <= 0 {
		return errors.New("AUTOMATION_STOCKOUT_HORIZON_DAYS must be positive")
	}
	if c.Automation.JobTimeout <= 0 || c.Automation.LockTTL <= 0 {
		return errors.New("AUTOMATION_JOB_TIMEOUT and AUTOMATION_LOCK_TTL must be positive")
	}
	// a lock that expires mid-run lets a second run of the same job start
	if c.Automation.LockTTL <= c.Automation.JobTimeout {
		return errors.New("AUTOMATION_LOCK_TTL must be greater than AUTOMATION_JOB_TIMEOUT")
	}

	if c.Mail.APIKey != "" && c.Mail.AdminRecipient == "" {
		return errors.New("MAIL_ADMIN_TO must be provided when SENDGRID_API_KEY is set")
	}

	if c.WhatsApp.AccessToken != "" && !c.WhatsApp.Enabled() {
		return errors.New("WHATSAPP_PHONE_NUMBER_ID and WHATSAPP_ALERT_RECIPIENT must be provided with WHATSAPP_TOKEN")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	return nil
}

// Location returns the automation time zone. Validate guarantees it loads.
func (a AutomationConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"investment_tracker/internal/logger"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds every setting the service reads from the environment
type Config struct {
	AppEnv     string `env:"APP_ENV,default=dev"`
	LogEnv     string `env:"LOG_ENV,default=development"`
	ServerPort string `env:"SERVER_PORT,default=8080"`

	JWTSecretKey       string `env:"JWT_SECRET_KEY,required=true"`
	JWTExpirationHours int64  `env:"JWT_EXPIRATION_HOURS,default=24"`

	AdminUsername      string `env:"ADMIN_USERNAME,default=admin"`
	AdminPasswordHash  string `env:"ADMIN_PASSWORD_HASH"`
	ViewerUsername     string `env:"VIEWER_USERNAME,default=viewer"`
	ViewerPasswordHash string `env:"VIEWER_PASSWORD_HASH"`

	StorageDriver string `env:"STORAGE_DRIVER,default=postgres"`
	DBHost        string `env:"DB_HOST"`
	DBPort        string `env:"DB_PORT,default=5432"`
	DBUser        string `env:"DB_USER"`
	DBPassword    string `env:"DB_PASSWORD"`
	DBName        string `env:"DB_NAME"`

	TwilioAccountSID string        `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string        `env:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string        `env:"TWILIO_FROM_NUMBER"`
	TwilioBaseURL    string        `env:"TWILIO_BASE_URL,default=https://api.twilio.com"`
	SMSTimeout       time.Duration `env:"SMS_TIMEOUT,default=10s"`

	CurrencySymbol string `env:"CURRENCY_SYMBOL,default=₹"`

	ScheduleDayOfMonth    int           `env:"SCHEDULE_DAY_OF_MONTH,default=1"`
	ScheduleAt            string        `env:"SCHEDULE_AT,default=10:00"`
	ScheduleTimezone      string        `env:"SCHEDULE_TIMEZONE,default=UTC"`
	ScheduleCheckInterval time.Duration `env:"SCHEDULE_CHECK_INTERVAL,default=1h"`

	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB,default=0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX,default=investment_tracker:"`
}

// Load reads an optional .env file at path and maps the environment onto a Config
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			logger.Info("No .env file found or error loading, relying on environment variables", "path", path)
		}
	}

	cfg := &Config{}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, fmt.Errorf("failed to map environment to config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DBHost == "" || c.DBPort == "" || c.DBUser == "" || c.DBName == "" {
			return fmt.Errorf("database environment variables not set (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.ScheduleDayOfMonth < 1 || c.ScheduleDayOfMonth > 28 {
		return fmt.Errorf("SCHEDULE_DAY_OF_MONTH must be between 1 and 28, got %d", c.ScheduleDayOfMonth)
	}
	if _, _, err := c.ScheduleClock(); err != nil {
		return err
	}
	if _, err := c.ScheduleLocation(); err != nil {
		return err
	}
	if c.ScheduleCheckInterval <= 0 {
		return fmt.Errorf("SCHEDULE_CHECK_INTERVAL must be positive")
	}
	if c.JWTExpirationHours <= 0 {
		logger.Warn("Invalid JWT_EXPIRATION_HOURS, defaulting to 24", "value", c.JWTExpirationHours)
		c.JWTExpirationHours = 24
	}
	return nil
}

// DSN builds the Postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// ScheduleClock parses SCHEDULE_AT ("HH:MM")
func (c *Config) ScheduleClock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(c.ScheduleAt))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid SCHEDULE_AT %q, use HH:MM: %w", c.ScheduleAt, err)
	}
	return t.Hour(), t.Minute(), nil
}

// ScheduleLocation resolves SCHEDULE_TIMEZONE
func (c *Config) ScheduleLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ScheduleTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_TIMEZONE %q: %w", c.ScheduleTimezone, err)
	}
	return loc, nil
}

// SMSEnabled reports whether Twilio credentials are present
func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

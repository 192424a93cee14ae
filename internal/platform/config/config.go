package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"crewdesk/internal/domain/pricing"
)

type Config struct {
	Addr               string         `yaml:"addr"`
	DatabaseURL        string         `yaml:"database_url"`
	JWTSecret          string         `yaml:"jwt_secret"`
	TokenTTL           time.Duration  `yaml:"token_ttl"`
	DataEncryptionKey  string         `yaml:"data_encryption_key"`
	Environment        string         `yaml:"environment"`
	Timezone           string         `yaml:"timezone"`
	LogLevel           string         `yaml:"log_level"`
	SeedAdminEmail     string         `yaml:"seed_admin_email"`
	SeedAdminPassword  string         `yaml:"seed_admin_password"`
	RunMigrations      bool           `yaml:"run_migrations"`
	RunSeed            bool           `yaml:"run_seed"`
	MaxBodyBytes       int64          `yaml:"max_body_bytes"`
	MaxUploadBytes     int64          `yaml:"max_upload_bytes"`
	RateLimitPerMinute int            `yaml:"rate_limit_per_minute"`
	RemotePriceTimeout time.Duration  `yaml:"remote_price_timeout"`
	BackupCron         string         `yaml:"backup_cron"`
	BackupDir          string         `yaml:"backup_dir"`
	SlipDir            string         `yaml:"slip_dir"`
	MetricsEnabled     bool           `yaml:"metrics_enabled"`
	CORSOrigins        []string       `yaml:"cors_origins"`
	FrontendDir        string         `yaml:"frontend_dir"`
	EmailEnabled       bool           `yaml:"email_enabled"`
	EmailFrom          string         `yaml:"email_from"`
	SMTPHost           string         `yaml:"smtp_host"`
	SMTPPort           int            `yaml:"smtp_port"`
	SMTPUser           string         `yaml:"smtp_user"`
	SMTPPassword       string         `yaml:"smtp_password"`
	SMTPUseTLS         bool           `yaml:"smtp_use_tls"`
	SalaryDefaults     SalaryDefaults `yaml:"salary_defaults"`
}

// SalaryDefaults seeds the first salary settings record. Unset fields keep
// the built-in defaults.
type SalaryDefaults struct {
	DefaultHourlyRate  *float64 `yaml:"default_hourly_rate"`
	OvertimeMultiplier *float64 `yaml:"overtime_multiplier"`
	WeekendMultiplier  *float64 `yaml:"weekend_multiplier"`
	HolidayMultiplier  *float64 `yaml:"holiday_multiplier"`
	TaxRate            *float64 `yaml:"tax_rate"`
	InsuranceRate      *float64 `yaml:"insurance_rate"`
	Currency           string   `yaml:"currency"`
}

func defaults() Config {
	return Config{
		Addr:               ":8080",
		TokenTTL:           8 * time.Hour,
		Environment:        "development",
		Timezone:           "Europe/Paris",
		LogLevel:           "info",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		MaxUploadBytes:     5 << 20,
		RateLimitPerMinute: 60,
		RemotePriceTimeout: 3 * time.Second,
		BackupDir:          "backups",
		MetricsEnabled:     true,
		EmailFrom:          "no-reply@example.com",
		SMTPPort:           587,
		SMTPUseTLS:         true,
	}
}

// Load layers the environment over the optional CONFIG_FILE over defaults.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("APP_ADDR", c.Addr)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.TokenTTL = getEnvDuration("TOKEN_TTL", c.TokenTTL)
	c.DataEncryptionKey = getEnv("DATA_ENCRYPTION_KEY", c.DataEncryptionKey)
	c.Environment = getEnv("APP_ENV", c.Environment)
	c.Timezone = getEnv("APP_TIMEZONE", c.Timezone)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.SeedAdminEmail = getEnv("SEED_ADMIN_EMAIL", c.SeedAdminEmail)
	c.SeedAdminPassword = getEnv("SEED_ADMIN_PASSWORD", c.SeedAdminPassword)
	c.RunMigrations = getEnvBool("RUN_MIGRATIONS", c.RunMigrations)
	c.RunSeed = getEnvBool("RUN_SEED", c.RunSeed)
	c.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(c.MaxBodyBytes)))
	c.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.RemotePriceTimeout = getEnvDuration("REMOTE_PRICE_TIMEOUT", c.RemotePriceTimeout)
	c.BackupCron = getEnv("BACKUP_CRON", c.BackupCron)
	c.BackupDir = getEnv("BACKUP_DIR", c.BackupDir)
	c.SlipDir = getEnv("SLIP_DIR", c.SlipDir)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	c.FrontendDir = getEnv("FRONTEND_DIR", c.FrontendDir)
	c.EmailEnabled = getEnvBool("EMAIL_ENABLED", c.EmailEnabled)
	c.EmailFrom = getEnv("EMAIL_FROM", c.EmailFrom)
	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = getEnvInt("SMTP_PORT", c.SMTPPort)
	c.SMTPUser = getEnv("SMTP_USER", c.SMTPUser)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.SMTPUseTLS = getEnvBool("SMTP_USE_TLS", c.SMTPUseTLS)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
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

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxUploadBytes < c.MaxBodyBytes {
		return fmt.Errorf("MAX_UPLOAD_BYTES must not be smaller than MAX_BODY_BYTES")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.RemotePriceTimeout <= 0 {
		return fmt.Errorf("REMOTE_PRICE_TIMEOUT must be positive")
	}
	if c.EmailEnabled && strings.TrimSpace(c.SMTPHost) == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	for name, v := range c.SalaryDefaults.values() {
		if v != nil && *v < 0 {
			return fmt.Errorf("salary_defaults.%s must not be negative", name)
		}
	}
	return nil
}

// Location resolves the organisation timezone used by every date computation.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (d SalaryDefaults) values() map[string]*float64 {
	return map[string]*float64{
		"default_hourly_rate": d.DefaultHourlyRate,
		"overtime_multiplier": d.OvertimeMultiplier,
		"weekend_multiplier":  d.WeekendMultiplier,
		"holiday_multiplier":  d.HolidayMultiplier,
		"tax_rate":            d.TaxRate,
		"insurance_rate":      d.InsuranceRate,
	}
}

// Settings merges the configured values into the built-in defaults.
func (d SalaryDefaults) Settings() pricing.Settings {
	out := pricing.DefaultSettings()
	set := func(dst *decimal.Decimal, v *float64) {
		if v != nil {
			*dst = decimal.NewFromFloat(*v)
		}
	}
	set(&out.DefaultHourlyRate, d.DefaultHourlyRate)
	set(&out.OvertimeMultiplier, d.OvertimeMultiplier)
	set(&out.WeekendMultiplier, d.WeekendMultiplier)
	set(&out.HolidayMultiplier, d.HolidayMultiplier)
	set(&out.TaxRate, d.TaxRate)
	set(&out.InsuranceRate, d.InsuranceRate)
	if d.Currency != "" {
		out.Currency = d.Currency
	}
	return out
}

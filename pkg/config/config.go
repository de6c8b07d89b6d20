package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	PublicURL string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Validation ValidationConfig
	Sweeps     SweepsConfig
	Reminders  RemindersConfig
	Exports    ExportsConfig
	Mailer     MailerConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ValidationConfig governs the public validation-code and cookie contract.
type ValidationConfig struct {
	CookieName   string
	CookieSecret string
	CookieTTL    time.Duration
	CodeTTL      time.Duration
}

// SweepsConfig schedules the periodic expiry sweeps.
type SweepsConfig struct {
	Interval       time.Duration
	CodeTTL        time.Duration
	UnvalidatedTTL time.Duration
	EntityCacheTTL time.Duration
	Background     bool
}

// RemindersConfig controls the reminder dispatch loop.
type RemindersConfig struct {
	Enabled           bool
	Interval          time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// ExportsConfig toggles roster export endpoints.
type ExportsConfig struct {
	Enabled bool
}

// MailerConfig carries outbound email settings.
type MailerConfig struct {
	Enabled   bool
	APIKey    string
	FromName  string
	FromEmail string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.PublicURL = v.GetString("PUBLIC_URL")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Validation = ValidationConfig{
		CookieName:   v.GetString("VALIDATION_COOKIE_NAME"),
		CookieSecret: v.GetString("VALIDATION_COOKIE_SECRET"),
		CookieTTL:    parseDuration(v.GetString("VALIDATION_COOKIE_TTL"), 24*time.Hour),
		CodeTTL:      parseDuration(v.GetString("VALIDATION_CODE_TTL"), 24*time.Hour),
	}

	cfg.Sweeps = SweepsConfig{
		Interval:       parseDuration(v.GetString("SWEEP_INTERVAL"), time.Hour),
		CodeTTL:        parseDuration(v.GetString("SWEEP_CODE_TTL"), 24*time.Hour),
		UnvalidatedTTL: parseDuration(v.GetString("SWEEP_UNVALIDATED_TTL"), time.Hour),
		EntityCacheTTL: parseDuration(v.GetString("ENTITY_CACHE_TTL"), 5*time.Minute),
		Background:     v.GetBool("SWEEP_BACKGROUND"),
	}

	cfg.Reminders = RemindersConfig{
		Enabled:           v.GetBool("ENABLE_REMINDERS"),
		Interval:          parseDuration(v.GetString("REMINDER_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REMINDER_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REMINDER_WORKER_RETRIES"),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
	}

	cfg.Mailer = MailerConfig{
		Enabled:   v.GetBool("MAILER_ENABLED"),
		APIKey:    v.GetString("RESEND_API_KEY"),
		FromName:  v.GetString("MAIL_FROM_NAME"),
		FromEmail: v.GetString("MAIL_FROM_EMAIL"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "signup_sheets")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("VALIDATION_COOKIE_NAME", "signup_validated")
	v.SetDefault("VALIDATION_COOKIE_SECRET", "dev_cookie_secret")
	v.SetDefault("VALIDATION_COOKIE_TTL", "24h")
	v.SetDefault("VALIDATION_CODE_TTL", "24h")

	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("SWEEP_CODE_TTL", "24h")
	v.SetDefault("SWEEP_UNVALIDATED_TTL", "1h")
	v.SetDefault("ENTITY_CACHE_TTL", "5m")
	v.SetDefault("SWEEP_BACKGROUND", true)

	v.SetDefault("ENABLE_REMINDERS", false)
	v.SetDefault("REMINDER_INTERVAL", "1h")
	v.SetDefault("REMINDER_WORKER_CONCURRENCY", 1)
	v.SetDefault("REMINDER_WORKER_RETRIES", 3)

	v.SetDefault("ENABLE_EXPORTS", true)

	v.SetDefault("MAILER_ENABLED", false)
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "Sign-Up Sheets")
	v.SetDefault("MAIL_FROM_EMAIL", "noreply@localhost")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

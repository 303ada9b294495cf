package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Turnstile     TurnstileConfig
	Email         EmailConfig
	Csrf          CsrfConfig
	RateLimit     RateLimitConfig
	Contact       ContactConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type TurnstileConfig struct {
	SecretKey string
	SiteKey   string
	// ScoreThreshold of 0 disables verification (test/bypass mode)
	ScoreThreshold float64
}

type EmailConfig struct {
	Enabled      bool
	ResendAPIKey string
	From         string
	To           string
}

type CsrfConfig struct {
	TokenTTL time.Duration
}

// RateLimitTier is one fixed-window quota: Requests per Window.
type RateLimitTier struct {
	Requests int64
	Window   time.Duration
}

type RateLimitConfig struct {
	IP     RateLimitTier
	Global RateLimitTier
	// FailOpen allows submissions through when the counter store is
	// unreachable; the default is fail-closed.
	FailOpen bool
}

type ContactConfig struct {
	MessageMinLength int
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	CollectorEndpoint string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8081")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "https://webfolio.dev,https://www.webfolio.dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("EMAIL_ENABLED", true)
	v.SetDefault("TURNSTILE_SCORE_THRESHOLD", 0.5)
	v.SetDefault("CSRF_TOKEN_TTL_MINUTES", 60)
	v.SetDefault("RATE_LIMIT_IP_REQUESTS", 5)
	v.SetDefault("RATE_LIMIT_IP_WINDOW_MINUTES", 10)
	v.SetDefault("RATE_LIMIT_GLOBAL_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_GLOBAL_WINDOW_MINUTES", 60)
	v.SetDefault("RATE_LIMIT_FAIL_OPEN", false)
	v.SetDefault("MESSAGE_MIN_LENGTH", 50)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("O11Y_SERVICE_NAME", "webfolio-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "webfolio")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "webfolio-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines,mutex,block")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	// Parse allowed CORS origins (comma-separated)
	allowedOrigins := []string{}
	originsStr := v.GetString("ALLOWED_CORS_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins = append(allowedOrigins, origin)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: allowedOrigins,
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
			MinConns: v.GetInt32("DB_MIN_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Turnstile: TurnstileConfig{
			SecretKey:      v.GetString("TURNSTILE_SECRET_KEY"),
			SiteKey:        v.GetString("TURNSTILE_SITE_KEY"),
			ScoreThreshold: v.GetFloat64("TURNSTILE_SCORE_THRESHOLD"),
		},
		Email: EmailConfig{
			Enabled:      v.GetBool("EMAIL_ENABLED"),
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			From:         v.GetString("MAIL_FROM"),
			To:           v.GetString("MAIL_TO"),
		},
		Csrf: CsrfConfig{
			TokenTTL: time.Duration(v.GetInt("CSRF_TOKEN_TTL_MINUTES")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			IP: RateLimitTier{
				Requests: v.GetInt64("RATE_LIMIT_IP_REQUESTS"),
				Window:   time.Duration(v.GetInt("RATE_LIMIT_IP_WINDOW_MINUTES")) * time.Minute,
			},
			Global: RateLimitTier{
				Requests: v.GetInt64("RATE_LIMIT_GLOBAL_REQUESTS"),
				Window:   time.Duration(v.GetInt("RATE_LIMIT_GLOBAL_WINDOW_MINUTES")) * time.Minute,
			},
			FailOpen: v.GetBool("RATE_LIMIT_FAIL_OPEN"),
		},
		Contact: ContactConfig{
			MessageMinLength: v.GetInt("MESSAGE_MIN_LENGTH"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			CollectorEndpoint: v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	// Turnstile secret is required unless verification is explicitly bypassed
	if c.Turnstile.ScoreThreshold > 0 && c.Turnstile.SecretKey == "" {
		return fmt.Errorf("TURNSTILE_SECRET_KEY is required when verification is enabled")
	}

	// Email delivery needs credentials and addresses when enabled
	if c.Email.Enabled {
		if c.Email.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required when email is enabled")
		}
		if c.Email.From == "" || c.Email.To == "" {
			return fmt.Errorf("MAIL_FROM and MAIL_TO are required when email is enabled")
		}
	}

	if c.RateLimit.IP.Requests <= 0 || c.RateLimit.Global.Requests <= 0 {
		return fmt.Errorf("rate limit request counts must be positive")
	}
	if c.RateLimit.IP.Window <= 0 || c.RateLimit.Global.Window <= 0 {
		return fmt.Errorf("rate limit windows must be positive")
	}

	if c.Csrf.TokenTTL <= 0 {
		return fmt.Errorf("CSRF_TOKEN_TTL_MINUTES must be positive")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// Configured reports whether the secrets the contact pipeline depends on are
// present. Used by the config-check endpoint; never reveals values.
func (c *Config) Configured() bool {
	emailReady := !c.Email.Enabled || (c.Email.ResendAPIKey != "" && c.Email.From != "" && c.Email.To != "")
	botReady := c.Turnstile.ScoreThreshold == 0 || c.Turnstile.SecretKey != ""
	return emailReady && botReady
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

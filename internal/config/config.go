package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Session   SessionConfig
	Cache     CacheConfig
	AI        AIConfig
	OAuth     OAuthConfig
	Log       LogConfig
	Tracing   TracingConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
	// Public base URL of the portal, used for OAuth callbacks.
	BaseURL string
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host               string
	Port               int
	Name               string
	User               string
	Password           string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	// Failed sign-ins allowed before the account is locked.
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	ChallengeTTL      time.Duration
	// Wrong codes accepted before a pending sign-up is discarded.
	ChallengeMaxAttempts int
}

type CacheConfig struct {
	RoleTTL time.Duration
}

type AIConfig struct {
	Enabled bool
	APIKey  string
	Model   string
	Timeout time.Duration
	// Circuit breaker: consecutive failures before the breaker opens.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
}

func (o OAuthConfig) GoogleEnabled() bool {
	return o.GoogleClientID != "" && o.GoogleClientSecret != ""
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	SampleRate  float64
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

type RateLimitConfig struct {
	// Global Rate limit per IP
	RequestsPerSecond float64
	BurstSize         int
	// Auth endpoints have stricter limits
	AuthRequestsPerMinute int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "healthbuddy-api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_VERSION", "0.0.0")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60*time.Second) // AI calls are slow
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "healthbuddy")
	v.SetDefault("DB_USER", "healthbuddy")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	v.SetDefault("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", 15*time.Minute)
	v.SetDefault("JWT_REFRESH_TTL", 7*24*time.Hour)
	v.SetDefault("JWT_ISSUER", "healthbuddy-api")

	v.SetDefault("SESSION_COOKIE_NAME", "__Host-session")
	v.SetDefault("SESSION_COOKIE_SECURE", true)
	v.SetDefault("SESSION_MAX_FAILED_ATTEMPTS", 5)
	v.SetDefault("SESSION_LOCKOUT_DURATION", 15*time.Minute)
	v.SetDefault("SESSION_CHALLENGE_TTL", 15*time.Minute)
	v.SetDefault("SESSION_CHALLENGE_MAX_ATTEMPTS", 5)

	v.SetDefault("CACHE_ROLE_TTL", 5*time.Minute)

	v.SetDefault("AI_ENABLED", true)
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_MODEL", "gemini-2.5-flash")
	v.SetDefault("AI_TIMEOUT", 30*time.Second)
	v.SetDefault("AI_BREAKER_FAILURES", 5)
	v.SetDefault("AI_BREAKER_TIMEOUT", 30*time.Second)

	v.SetDefault("OAUTH_GOOGLE_CLIENT_ID", "")
	v.SetDefault("OAUTH_GOOGLE_CLIENT_SECRET", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "healthbuddy-api")
	v.SetDefault("TRACING_ENDPOINT", "otel-collector:4318")
	v.SetDefault("TRACING_SAMPLE_RATE", 0.1)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-ID")
	v.SetDefault("CORS_MAX_AGE", 12*time.Hour)

	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("RATE_LIMIT_AUTH_RPM", 10)
}

// Load reads configuration from the environment, with an optional .env file
// in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := fromViper(v)
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: v.GetString("APP_ENV"),
			Version:     v.GetString("APP_VERSION"),
			BaseURL:     strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		},
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("DB_HOST"),
			Port:               v.GetInt("DB_PORT"),
			Name:               v.GetString("DB_NAME"),
			User:               v.GetString("DB_USER"),
			Password:           v.GetString("DB_PASSWORD"),
			SSLMode:            v.GetString("DB_SSLMODE"),
			MaxOpenConns:       v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:       v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime:    v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime:    v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			SlowQueryThreshold: v.GetDuration("DB_SLOW_QUERY_THRESHOLD"),
		},
		Redis: RedisConfig{
			Addr:         v.GetString("REDIS_ADDR"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			AccessTokenTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTokenTTL: v.GetDuration("JWT_REFRESH_TTL"),
			Issuer:          v.GetString("JWT_ISSUER"),
		},
		Session: SessionConfig{
			CookieName:           v.GetString("SESSION_COOKIE_NAME"),
			CookieSecure:         v.GetBool("SESSION_COOKIE_SECURE"),
			MaxFailedAttempts:    v.GetInt("SESSION_MAX_FAILED_ATTEMPTS"),
			LockoutDuration:      v.GetDuration("SESSION_LOCKOUT_DURATION"),
			ChallengeTTL:         v.GetDuration("SESSION_CHALLENGE_TTL"),
			ChallengeMaxAttempts: v.GetInt("SESSION_CHALLENGE_MAX_ATTEMPTS"),
		},
		Cache: CacheConfig{
			RoleTTL: v.GetDuration("CACHE_ROLE_TTL"),
		},
		AI: AIConfig{
			Enabled:         v.GetBool("AI_ENABLED"),
			APIKey:          v.GetString("AI_API_KEY"),
			Model:           v.GetString("AI_MODEL"),
			Timeout:         v.GetDuration("AI_TIMEOUT"),
			BreakerFailures: v.GetUint32("AI_BREAKER_FAILURES"),
			BreakerTimeout:  v.GetDuration("AI_BREAKER_TIMEOUT"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     v.GetString("OAUTH_GOOGLE_CLIENT_ID"),
			GoogleClientSecret: v.GetString("OAUTH_GOOGLE_CLIENT_SECRET"),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			OutputPath: v.GetString("LOG_OUTPUT"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("TRACING_ENABLED"),
			ServiceName: v.GetString("TRACING_SERVICE_NAME"),
			Endpoint:    v.GetString("TRACING_ENDPOINT"),
			SampleRate:  v.GetFloat64("TRACING_SAMPLE_RATE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(v.GetString("CORS_ALLOWED_HEADERS")),
			MaxAge:         v.GetDuration("CORS_MAX_AGE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond:     v.GetFloat64("RATE_LIMIT_RPS"),
			BurstSize:             v.GetInt("RATE_LIMIT_BURST"),
			AuthRequestsPerMinute: v.GetInt("RATE_LIMIT_AUTH_RPM"),
		},
	}
}

// validate enforces production security requirements.
func validate(cfg *Config) error {
	var errs []string

	if cfg.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWT.Secret) < 32 && cfg.App.IsProduction() {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}

	if cfg.Database.Password == "" && cfg.App.Environment != "development" {
		errs = append(errs, "DB_PASSWORD is required in non-development environments")
	}

	if cfg.Database.SSLMode == "disable" && cfg.App.IsProduction() {
		errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
	}

	if cfg.AI.Enabled && cfg.AI.APIKey == "" && cfg.App.Environment != "development" {
		errs = append(errs, "AI_API_KEY is required when AI_ENABLED is true")
	}

	if (cfg.OAuth.GoogleClientID == "") != (cfg.OAuth.GoogleClientSecret == "") {
		errs = append(errs, "OAUTH_GOOGLE_CLIENT_ID and OAUTH_GOOGLE_CLIENT_SECRET must be set together")
	}

	if cfg.RateLimit.RequestsPerSecond <= 0 || cfg.RateLimit.BurstSize <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if !cfg.Session.CookieSecure && cfg.App.IsProduction() {
		errs = append(errs, "SESSION_COOKIE_SECURE=false is not allowed in production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			result = append(result, t)
		}
	}
	return result
}

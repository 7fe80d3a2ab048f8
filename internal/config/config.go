package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	Port            string
	Origin          string
	Environment     string
	JWTSecret       string
	ShutdownTimeout time.Duration
	Database        DatabaseConfig
	Scheduling      SchedulingConfig
	Redis           RedisConfig
	RabbitMQ        RabbitMQConfig
	Events          EventsConfig
	Log             LogConfig
	Tracing         TracingConfig
	RateLimit       RateLimitConfig
	DirectoryCache  DirectoryCacheConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	Username        string
	Password        string
	Name            string
	SSLMode         string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SchedulingConfig controls the booking engine.
type SchedulingConfig struct {
	// Timezone used to turn scheduledDate + scheduledTime into instants.
	// "Local" keeps the server's zone.
	Timezone               string
	LockBackend            string
	LockTimeout            time.Duration
	LockTTL                time.Duration
	DefaultDurationMinutes int
	MaxDurationMinutes     int
	DefaultStatus          string
}

// Location resolves the configured timezone.
func (s SchedulingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULING_TIMEZONE %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// RedisConfig holds the connection used by the distributed slot lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RabbitMQConfig holds the broker used for notification events.
type RabbitMQConfig struct {
	URL               string
	NotificationQueue string
}

// EventsConfig sizes the async event dispatcher.
type EventsConfig struct {
	BufferSize int
	Workers    int
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

// DirectoryCacheConfig sizes the user lookup cache. Size 0 disables it.
type DirectoryCacheConfig struct {
	Size int
	TTL  time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Driver:          strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		Host:            getEnv("DB_HOST", "localhost"),
		Username:        getEnv("DB_USERNAME", "root"),
		Password:        getEnv("DB_PASSWORD", ""),
		Name:            getEnv("DB_NAME", "medi"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}

	// Build DSN (Data Source Name) for the selected driver
	switch dbConfig.Driver {
	case "mysql":
		dbConfig.Port = getEnv("DB_PORT", "3306")
		dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)
	case "postgres":
		dbConfig.Port = getEnv("DB_PORT", "5432")
		dbConfig.DSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			dbConfig.Host, dbConfig.Username, dbConfig.Password, dbConfig.Name, dbConfig.Port, dbConfig.SSLMode)
	case "memory":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be mysql, postgres or memory", dbConfig.Driver)
	}

	defaultDuration, err := strconv.Atoi(getEnv("SCHEDULING_DEFAULT_DURATION_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULING_DEFAULT_DURATION_MINUTES: %w", err)
	}

	maxDuration, err := strconv.Atoi(getEnv("SCHEDULING_MAX_DURATION_MINUTES", "480"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULING_MAX_DURATION_MINUTES: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "3001"),
		Origin:          getEnv("ORIGIN", "http://localhost:4200"),
		Environment:     getEnv("APP_ENV", "development"),
		JWTSecret:       getEnv("JWT_SECRET", "default_jwt_secret"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		Database:        dbConfig,
		Scheduling: SchedulingConfig{
			Timezone:               getEnv("SCHEDULING_TIMEZONE", "Local"),
			LockBackend:            strings.ToLower(getEnv("SCHEDULING_LOCK_BACKEND", "local")),
			LockTimeout:            getEnvDuration("SCHEDULING_LOCK_TIMEOUT", 5*time.Second),
			LockTTL:                getEnvDuration("SCHEDULING_LOCK_TTL", 10*time.Second),
			DefaultDurationMinutes: defaultDuration,
			MaxDurationMinutes:     maxDuration,
			DefaultStatus:          getEnv("SCHEDULING_DEFAULT_STATUS", "scheduled"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		RabbitMQ: RabbitMQConfig{
			URL:               getEnv("RABBITMQ_URL", ""),
			NotificationQueue: getEnv("RABBITMQ_NOTIFICATION_QUEUE", "appointment_notifications"),
		},
		Events: EventsConfig{
			BufferSize: getEnvInt("EVENTS_BUFFER_SIZE", 1000),
			Workers:    getEnvInt("EVENTS_WORKERS", 2),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", false),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "scheduling-server"),
			Endpoint:    getEnv("OTLP_ENDPOINT", "localhost:4318"),
			SampleRate:  getEnvFloat("TRACING_SAMPLE_RATE", 0.1),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 50),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 100),
		},
		DirectoryCache: DirectoryCacheConfig{
			Size: getEnvInt("DIRECTORY_CACHE_SIZE", 1024),
			TTL:  getEnvDuration("DIRECTORY_CACHE_TTL", time.Minute),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	s := cfg.Scheduling
	if s.LockBackend != "local" && s.LockBackend != "redis" {
		errs = append(errs, "SCHEDULING_LOCK_BACKEND must be local or redis")
	}
	if s.LockTimeout <= 0 {
		errs = append(errs, "SCHEDULING_LOCK_TIMEOUT must be positive")
	}
	if s.DefaultDurationMinutes <= 0 {
		errs = append(errs, "SCHEDULING_DEFAULT_DURATION_MINUTES must be positive")
	}
	if s.MaxDurationMinutes < s.DefaultDurationMinutes {
		errs = append(errs, "SCHEDULING_MAX_DURATION_MINUTES must not be below the default duration")
	}
	if s.DefaultStatus != "pending" && s.DefaultStatus != "scheduled" {
		errs = append(errs, "SCHEDULING_DEFAULT_STATUS must be pending or scheduled")
	}
	if _, err := s.Location(); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.Environment == "production" && cfg.JWTSecret == "default_jwt_secret" {
		errs = append(errs, "JWT_SECRET must be set in production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

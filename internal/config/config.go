package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is the development fallback for JWT_SECRET. Anyone knowing it can forge tokens.
const DefaultJWTSecret = "your-secret-key"

// DefaultEventTypes are the event types every new calendar gets a preference grid for.
var DefaultEventTypes = []string{"work", "meeting", "sport", "social", "personal", "other"}

type Config struct {
	ServiceName string
	Server      struct {
		Host            string
		Port            string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		IdleTimeout     time.Duration
		ShutdownTimeout time.Duration
	}
	Database struct {
		Path string
	}
	Redis struct {
		URL     string
		Channel string
	}
	JWT struct {
		Secret string
	}
	CORS struct {
		AllowedOrigins []string
	}
	Calendar struct {
		EventTypes []string
	}
	Sweeper struct {
		Schedule string
		Timeout  time.Duration
	}
	Log struct {
		Level string
		Dir   string
	}
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// A missing .env is the normal case in containers.
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.ServiceName = getEnv("SERVICE_NAME", "calendar-service")

	// Server configuration
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.Server.Port = getEnv("SERVER_PORT", "8000")
	cfg.Server.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", "10s")
	cfg.Server.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", "10s")
	cfg.Server.IdleTimeout = getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s")
	cfg.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", "30s")

	// Database configuration
	cfg.Database.Path = getEnv("DB_PATH", "./data/calendar.db")

	// Redis configuration, an empty URL disables publishing
	cfg.Redis.URL = getEnv("REDIS_URL", "")
	cfg.Redis.Channel = getEnv("REDIS_CHANNEL", "calendars")

	cfg.JWT.Secret = getEnv("JWT_SECRET", DefaultJWTSecret)
	cfg.CORS.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"})
	cfg.Calendar.EventTypes = getEnvAsList("EVENT_TYPES", DefaultEventTypes)
	cfg.Sweeper.Schedule = getEnv("SWEEP_SCHEDULE", "@every 1h")
	cfg.Sweeper.Timeout = getEnvAsDuration("SWEEP_TIMEOUT", "1m")

	// Logging
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Dir = getEnv("LOG_DIR", "")

	return cfg
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// InsecureJWTSecret reports whether tokens are verified with the
// development fallback or an empty secret.
func (c *Config) InsecureJWTSecret() bool {
	return c.JWT.Secret == "" || c.JWT.Secret == DefaultJWTSecret
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	val := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(val)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}

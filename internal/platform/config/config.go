package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string
	JWTIssuer     string

	// Finalization scheduler tuning
	SchedulerMinDelay  time.Duration
	SchedulerJitterMax time.Duration
	DrainWorkers       int
	DrainPacing        time.Duration

	// Stream cadences
	HeartbeatInterval time.Duration
	CountdownInterval time.Duration

	// Requests per RateLimitPeriod per client IP
	RateLimit       int64
	RateLimitPeriod time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "wesplit-app")
	viper.SetDefault("SCHEDULER_MIN_DELAY", "1s")
	viper.SetDefault("SCHEDULER_JITTER_MAX", "1s")
	viper.SetDefault("DRAIN_WORKERS", 4)
	viper.SetDefault("DRAIN_PACING", "100ms")
	viper.SetDefault("HEARTBEAT_INTERVAL", "25s")
	viper.SetDefault("COUNTDOWN_INTERVAL", "1s")
	viper.SetDefault("RATE_LIMIT", 120)
	viper.SetDefault("RATE_LIMIT_PERIOD", "1m")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.SchedulerMinDelay = durationOrDefault("SCHEDULER_MIN_DELAY", time.Second)
	cfg.SchedulerJitterMax = durationOrDefault("SCHEDULER_JITTER_MAX", time.Second)
	cfg.DrainPacing = durationOrDefault("DRAIN_PACING", 100*time.Millisecond)
	cfg.HeartbeatInterval = durationOrDefault("HEARTBEAT_INTERVAL", 25*time.Second)
	cfg.CountdownInterval = durationOrDefault("COUNTDOWN_INTERVAL", time.Second)
	cfg.RateLimitPeriod = durationOrDefault("RATE_LIMIT_PERIOD", time.Minute)

	cfg.DrainWorkers = viper.GetInt("DRAIN_WORKERS")
	if cfg.DrainWorkers <= 0 {
		log.Printf("Warning: Invalid value for DRAIN_WORKERS (%d). Defaulting to 4.\n", cfg.DrainWorkers)
		cfg.DrainWorkers = 4
	}

	cfg.RateLimit = viper.GetInt64("RATE_LIMIT")
	if cfg.RateLimit <= 0 {
		log.Printf("Warning: Invalid value for RATE_LIMIT (%d). Defaulting to 120.\n", cfg.RateLimit)
		cfg.RateLimit = 120
	}

	return cfg, nil
}

// durationOrDefault parses a duration key, falling back (with a warning) on
// invalid values.
func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		return fallback
	}
	return d
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the engine.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Engine   EngineConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// EngineConfig holds routing and SLA tunables.
type EngineConfig struct {
	PerformanceWindowDays    int
	ProfileCacheTTLSeconds   int
	RebalanceIntervalSeconds int
	RebalanceMovesPerAgent   int
	SLASweepIntervalSeconds  int
	SLAWarningThreshold      float64
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	warnThreshold, err := strconv.ParseFloat(getEnv("SLA_WARNING_THRESHOLD", "0.75"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SLA_WARNING_THRESHOLD: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-routing-engine"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Engine: EngineConfig{
			PerformanceWindowDays:    getEnvAsInt("ENGINE_PERFORMANCE_WINDOW_DAYS", 30),
			ProfileCacheTTLSeconds:   getEnvAsInt("ENGINE_PROFILE_CACHE_TTL_SECONDS", 300),
			RebalanceIntervalSeconds: getEnvAsInt("ENGINE_REBALANCE_INTERVAL_SECONDS", 900),
			RebalanceMovesPerAgent:   getEnvAsInt("ENGINE_REBALANCE_MOVES_PER_AGENT", 2),
			SLASweepIntervalSeconds:  getEnvAsInt("ENGINE_SLA_SWEEP_INTERVAL_SECONDS", 300),
			SLAWarningThreshold:      warnThreshold,
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ProfileCacheTTL returns the customer profile cache TTL duration.
func (e EngineConfig) ProfileCacheTTL() time.Duration {
	return time.Duration(e.ProfileCacheTTLSeconds) * time.Second
}

// RebalanceInterval returns the rebalancer tick interval.
func (e EngineConfig) RebalanceInterval() time.Duration {
	return time.Duration(e.RebalanceIntervalSeconds) * time.Second
}

// SLASweepInterval returns the SLA sweep tick interval.
func (e EngineConfig) SLASweepInterval() time.Duration {
	return time.Duration(e.SLASweepIntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

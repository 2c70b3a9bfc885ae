// Package config loads CHRONOS's process configuration from environment
// variables (optionally via a .env file), the same fail-fast,
// struct-of-structs shape the original trading-system config used.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for a chronosd process.
type Config struct {
	Engine   EngineConfig
	Scanner  ScannerConfig
	Snapshot SnapshotConfig
	Logger   LoggerConfig
}

// EngineConfig sizes the MatchingEngine's instrument array and each book's
// capacities.
type EngineConfig struct {
	InstrumentCount int
	MaxLevels       int
	MaxOrders       int
}

// ScannerConfig controls PriceScanner variant selection (spec.md §6
// `disable_simd`).
type ScannerConfig struct {
	DisableSIMD bool
}

// SnapshotConfig selects and configures the snapshot.Store backend(s)
// cmd/chronosd wires up, plus the periodic snapshot interval.
type SnapshotConfig struct {
	Backend  string // "memory", "file", "postgres", "redis", "composite"
	Interval time.Duration

	FileDir string

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDatabase string
	PostgresSSLMode  string

	RedisHost      string
	RedisPort      int
	RedisPassword  string
	RedisDB        int
	RedisTLS       bool
	RedisRetention int
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level string // DEBUG, INFO, WARN, ERROR
}

var instance *Config

// Load loads configuration from a .env file (if present) and environment
// variables, validates it, and caches it as the process-wide singleton.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Engine: EngineConfig{
			InstrumentCount: getEnvInt("CHRONOS_INSTRUMENT_COUNT", 16),
			MaxLevels:       getEnvInt("CHRONOS_MAX_LEVELS", 1024),
			MaxOrders:       getEnvInt("CHRONOS_MAX_ORDERS", 1_048_576),
		},
		Scanner: ScannerConfig{
			DisableSIMD: getEnvBool("CHRONOS_DISABLE_SIMD", false),
		},
		Snapshot: SnapshotConfig{
			Backend:  getEnv("CHRONOS_SNAPSHOT_BACKEND", "memory"),
			Interval: getEnvDuration("CHRONOS_SNAPSHOT_INTERVAL", 30*time.Second),
			FileDir:  getEnv("CHRONOS_SNAPSHOT_DIR", "./snapshots"),

			PostgresHost:     getEnv("CHRONOS_POSTGRES_HOST", "localhost"),
			PostgresPort:     getEnvInt("CHRONOS_POSTGRES_PORT", 5432),
			PostgresUser:     getEnv("CHRONOS_POSTGRES_USER", "postgres"),
			PostgresPassword: getEnv("CHRONOS_POSTGRES_PASSWORD", ""),
			PostgresDatabase: getEnv("CHRONOS_POSTGRES_DATABASE", "chronos"),
			PostgresSSLMode:  getEnv("CHRONOS_POSTGRES_SSLMODE", "disable"),

			RedisHost:      getEnv("CHRONOS_REDIS_HOST", "localhost"),
			RedisPort:      getEnvInt("CHRONOS_REDIS_PORT", 6379),
			RedisPassword:  getEnv("CHRONOS_REDIS_PASSWORD", ""),
			RedisDB:        getEnvInt("CHRONOS_REDIS_DB", 0),
			RedisTLS:       getEnvBool("CHRONOS_REDIS_TLS", false),
			RedisRetention: getEnvInt("CHRONOS_REDIS_RETENTION", 10),
		},
		Logger: LoggerConfig{
			Level: getEnv("CHRONOS_LOG_LEVEL", "INFO"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	instance = cfg
	return cfg, nil
}

// Get returns the process-wide singleton config loaded by Load.
func Get() *Config {
	if instance == nil {
		panic("config not loaded - call config.Load() first")
	}
	return instance
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Engine.InstrumentCount < 1 {
		return fmt.Errorf("CHRONOS_INSTRUMENT_COUNT must be > 0")
	}
	if c.Engine.MaxLevels < 1 {
		return fmt.Errorf("CHRONOS_MAX_LEVELS must be > 0")
	}
	if c.Engine.MaxOrders < 1 {
		return fmt.Errorf("CHRONOS_MAX_ORDERS must be > 0")
	}

	validBackends := map[string]bool{"memory": true, "file": true, "postgres": true, "redis": true, "composite": true}
	if !validBackends[c.Snapshot.Backend] {
		return fmt.Errorf("CHRONOS_SNAPSHOT_BACKEND must be one of: memory, file, postgres, redis, composite")
	}
	if c.Snapshot.Interval < 0 {
		return fmt.Errorf("CHRONOS_SNAPSHOT_INTERVAL must be >= 0")
	}

	validLevels := map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("CHRONOS_LOG_LEVEL must be one of: DEBUG, INFO, WARN, ERROR")
	}

	return nil
}

// Helper functions to read environment variables with defaults.

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

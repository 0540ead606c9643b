// Package config loads process configuration from environment
// variables, following the same getEnv-with-fallback pattern used by
// internal/db in this codebase.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every setting the api and importer binaries need.
type Config struct {
	APIPort string

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
	DBMinConns int32
	DBMaxConns int32

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
	RedisTLS      bool
	LockTTL       time.Duration

	SigmoidK        float64
	DefaultProfile  string
	MaxSearchRounds int
}

// Load reads configuration from the environment, falling back to
// development-friendly defaults for anything unset.
func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	dbMinConns, _ := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	dbMaxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "20"))
	redisPort, _ := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	lockTTL, err := time.ParseDuration(getEnv("FACILITY_LOCK_TTL", "5s"))
	if err != nil {
		lockTTL = 5 * time.Second
	}
	sigmoidK, err := strconv.ParseFloat(getEnv("CONVENIENCE_SIGMOID_K", "3.0"), 64)
	if err != nil {
		sigmoidK = 3.0
	}
	maxRounds, err := strconv.Atoi(getEnv("MAX_SEARCH_ROUNDS", "5"))
	if err != nil {
		maxRounds = 5
	}

	return &Config{
		APIPort: getEnv("API_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBName:     getEnv("DB_NAME", "subway_access"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBMinConns: int32(dbMinConns),
		DBMaxConns: int32(dbMaxConns),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     redisPort,
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		RedisTLS:      getEnv("REDIS_TLS_ENABLED", "false") == "true",
		LockTTL:       lockTTL,

		SigmoidK:        sigmoidK,
		DefaultProfile:  getEnv("DEFAULT_PROFILE", "PHY"),
		MaxSearchRounds: maxRounds,
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

package config

import (
	"os"
	"strconv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	LogLevel    string
	OTelEnabled bool
	ServiceName string

	PlannerURL    string
	PlannerDBPath string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "3000"),
		Environment:   getEnv("ENV", "development"),
		ReadTimeout:   getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout:  getEnvAsInt("WRITE_TIMEOUT", 10),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		OTelEnabled:   getEnvAsBool("OTEL_ENABLED", false),
		ServiceName:   getEnv("OTEL_SERVICE_NAME", "room-planner"),
		PlannerURL:    getEnv("PLANNER_URL", "http://localhost:3001"),
		PlannerDBPath: getEnv("PLANNER_DB_PATH", "data/db/planner.db"),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

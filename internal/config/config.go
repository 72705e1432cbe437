package config

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Server configuration
	ServerPort  string
	Environment string
	LogLevel    string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis configuration
	RedisAddress string

	// JWT configuration
	JWTSecret string

	// Collaboration relay
	RelayTransport       string // memory or redis
	RelayMaxMessageBytes int64
	RelayQueueSize       int
	RelayIdleTimeout     time.Duration

	WorkerPoolSize int

	FrontendAddress string
}

// Global application configuration
var AppConfig Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Warn().Err(err).Msg("error loading .env file")
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = rand.Text() // tokens will not survive a restart
		log.Warn().Msg("JWT_SECRET not set, generated a random secret")
	}

	AppConfig = Config{
		ServerPort:           getEnv("PORT", "8080"),
		Environment:          getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", ""),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "postgres"),
		DBPassword:           getEnv("DB_PASSWORD", "postgres"),
		DBName:               getEnv("DB_NAME", "scibind"),
		RedisAddress:         getEnv("REDIS_ADDRESS", "localhost:6379"),
		JWTSecret:            jwtSecret,
		RelayTransport:       getEnv("RELAY_TRANSPORT", "memory"),
		RelayMaxMessageBytes: int64(getEnvInt("RELAY_MAX_MESSAGE_BYTES", 1<<20)),
		RelayQueueSize:       getEnvInt("RELAY_QUEUE_SIZE", 256),
		RelayIdleTimeout:     getEnvDuration("RELAY_IDLE_TIMEOUT", 60*time.Second),
		WorkerPoolSize:       getEnvInt("WORKER_POOL_SIZE", 4),
		FrontendAddress:      getEnv("FRONTEND_ADDRESS", "http://localhost:3000"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SecretKey     string
	TokenMaxAge   time.Duration
	SessionTTL    time.Duration
	AdminUsername string
	AdminPassword string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env file: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenMaxAge, _ := strconv.Atoi(getEnv("TOKEN_MAX_AGE_SECONDS", "86400"))
	sessionTTLHours, _ := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "24"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parking"),
		DBPassword: getEnv("DB_PASSWORD", "parking"),
		DBName:     getEnv("DB_NAME", "parking_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		SecretKey:     getEnv("SECRET_KEY", "change-me-in-production"),
		TokenMaxAge:   time.Duration(tokenMaxAge) * time.Second,
		SessionTTL:    time.Duration(sessionTTLHours) * time.Hour,
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

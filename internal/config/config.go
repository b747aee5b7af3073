package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	Server   ServerConfig
	CORS     CORSConfig
	Report   ReportConfig
	Kafka    KafkaConfig
}

type DatabaseConfig struct {
	Driver   string // mysql, postgres or sqlite
	DSN      string // overrides the host/port fields when set
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type JWTConfig struct {
	AccessSecret       string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	CleanupInterval    time.Duration // how often stale refresh tokens are deleted
}

type ServerConfig struct {
	Port            string
	GinMode         string
	RateLimitPerSec float64
	RateLimitBurst  int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// ReportConfig controls the in-memory cache in front of the occupancy report.
type ReportConfig struct {
	CacheTTL time.Duration
}

// KafkaConfig enables the allocation event publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers         []string
	AllocationTopic string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "campus_hostel"),
		},
		JWT: JWTConfig{
			AccessSecret:       getEnv("JWT_ACCESS_SECRET", "your-access-secret-key"),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", "your-refresh-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
			CleanupInterval:    parseDuration(getEnv("SESSION_CLEANUP_INTERVAL", "1h"), time.Hour),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			RateLimitPerSec: parseFloat(getEnv("RATE_LIMIT_PER_SEC", "20"), 20),
			RateLimitBurst:  parseInt(getEnv("RATE_LIMIT_BURST", "40"), 40),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Report: ReportConfig{
			CacheTTL: parseDuration(getEnv("REPORT_CACHE_TTL", "30s"), 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:         parseList(getEnv("KAFKA_BROKERS", "")),
			AllocationTopic: getEnv("KAFKA_ALLOCATION_TOPIC", "hostel.allocations"),
		},
	}

	return config
}

// ConnectionString builds the driver-specific connection string unless DB_DSN overrides it.
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			d.Host, d.Port, d.User, d.Password, d.Database)
	case "sqlite":
		return d.Database + ".db"
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port, d.Database)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		fmt.Printf("Warning: Invalid duration format '%s', using default\n", s)
		return fallback
	}
	return duration
}

func parseFloat(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		fmt.Printf("Warning: Invalid number '%s', using default\n", s)
		return fallback
	}
	return v
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		fmt.Printf("Warning: Invalid integer '%s', using default\n", s)
		return fallback
	}
	return v
}

func parseList(s string) []string {
	items := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

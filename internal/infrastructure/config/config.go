package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Storage and key/value backends
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerPort int
	LogLevel   string

	// Storage selection
	StorageBackend string
	KVBackend      string

	// Database configuration
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Redis configuration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// Grant configuration
	AuthCodeTTL         time.Duration
	AuthCodeLength      int
	TransactionTTL      time.Duration
	TransactionIDLength int
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	IssueRefreshTokens  bool
	SaltSecret          string

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Bootstrap administrator, seeded at startup when AdminUsername is set
	AdminUsername          string
	AdminDomain            string
	AdminPasswordHash      string
	AdminPasswordSalt      string
	AdminClientID          string
	AdminClientSecret      string
	AdminClientRedirectURI string
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		ServerPort: 8080,
		LogLevel:   "info",

		StorageBackend: BackendPostgres,
		KVBackend:      BackendMemory,

		DBHost:     "localhost",
		DBPort:     5432,
		DBUser:     "owner",
		DBPassword: "ownerTest",
		DBName:     "identity",

		RedisAddr:      "localhost:6379",
		RedisKeyPrefix: "identity:",

		AuthCodeTTL:         10 * time.Minute,
		AuthCodeLength:      16,
		TransactionTTL:      10 * time.Minute,
		TransactionIDLength: 16,
		IssueRefreshTokens:  true,

		RateLimitRPS:   100,
		RateLimitBurst: 200,

		AdminDomain:            "localhost",
		AdminClientRedirectURI: "http://localhost/",
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig(logger *zap.Logger) (*Config, error) {
	// Load .env from project root
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	cfg := NewConfig()
	var err error

	if cfg.ServerPort, err = getEnvInt("PORT", cfg.ServerPort); err != nil {
		return nil, err
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.StorageBackend = getEnv("STORAGE_BACKEND", cfg.StorageBackend)
	if cfg.StorageBackend != BackendPostgres && cfg.StorageBackend != BackendMemory {
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	cfg.KVBackend = getEnv("KV_BACKEND", cfg.KVBackend)
	if cfg.KVBackend != BackendMemory && cfg.KVBackend != BackendRedis {
		return nil, fmt.Errorf("invalid KV_BACKEND %q", cfg.KVBackend)
	}

	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	if cfg.DBPort, err = getEnvInt("DB_PORT", cfg.DBPort); err != nil {
		return nil, err
	}
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)

	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", cfg.RedisDB); err != nil {
		return nil, err
	}
	cfg.RedisKeyPrefix = getEnv("REDIS_KEY_PREFIX", cfg.RedisKeyPrefix)

	if cfg.AuthCodeTTL, err = getEnvDuration("AUTH_CODE_TTL", cfg.AuthCodeTTL); err != nil {
		return nil, err
	}
	if cfg.AuthCodeLength, err = getEnvInt("AUTH_CODE_LENGTH", cfg.AuthCodeLength); err != nil {
		return nil, err
	}
	if cfg.AuthCodeLength < 16 {
		return nil, fmt.Errorf("AUTH_CODE_LENGTH must be at least 16, got %d", cfg.AuthCodeLength)
	}
	if cfg.TransactionTTL, err = getEnvDuration("TRANSACTION_TTL", cfg.TransactionTTL); err != nil {
		return nil, err
	}
	if cfg.TransactionIDLength, err = getEnvInt("TRANSACTION_ID_LENGTH", cfg.TransactionIDLength); err != nil {
		return nil, err
	}
	if cfg.AccessTokenTTL, err = getEnvDuration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getEnvDuration("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL); err != nil {
		return nil, err
	}
	if cfg.IssueRefreshTokens, err = getEnvBool("ISSUE_REFRESH_TOKENS", cfg.IssueRefreshTokens); err != nil {
		return nil, err
	}
	cfg.SaltSecret = getEnv("SALT_SECRET", cfg.SaltSecret)
	if cfg.SaltSecret == "" {
		logger.Warn("SALT_SECRET is not set, fake salts for unknown usernames are predictable")
	}

	if cfg.RateLimitRPS, err = getEnvFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return nil, err
	}

	if err := loadAdmin(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadAdmin(cfg *Config) error {
	cfg.AdminUsername = getEnv("ADMIN_USERNAME", cfg.AdminUsername)
	cfg.AdminDomain = getEnv("ADMIN_DOMAIN", cfg.AdminDomain)
	cfg.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", cfg.AdminPasswordHash)
	cfg.AdminPasswordSalt = getEnv("ADMIN_PASSWORD_SALT", cfg.AdminPasswordSalt)
	cfg.AdminClientID = getEnv("ADMIN_CLIENT_ID", cfg.AdminClientID)
	cfg.AdminClientSecret = getEnv("ADMIN_CLIENT_SECRET", cfg.AdminClientSecret)
	cfg.AdminClientRedirectURI = getEnv("ADMIN_CLIENT_REDIRECT_URI", cfg.AdminClientRedirectURI)

	if cfg.AdminUsername == "" {
		return nil
	}
	if cfg.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH is required when ADMIN_USERNAME is set")
	}
	if cfg.AdminClientID != "" && cfg.AdminClientSecret == "" {
		return fmt.Errorf("ADMIN_CLIENT_SECRET is required when ADMIN_CLIENT_ID is set")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return intValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return floatValue, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return boolValue, nil
}

// getEnvDuration gets an environment variable as a duration. A bare "0"
// is accepted and means no expiry.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return duration, nil
}

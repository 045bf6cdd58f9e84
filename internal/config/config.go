package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	Port                 string
	Origin               string
	Environment          string
	JWTSecret            string
	JWTExpirationMinutes int
	Database             DatabaseConfig
	Log                  LogConfig
	Risk                 RiskConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// LogConfig controls the zap logger built at startup.
type LogConfig struct {
	Level  string
	Format string
}

// RiskConfig tunes the reconciliation and visit bookkeeping around the scorer.
// Scoring weights themselves live in the organization settings record.
type RiskConfig struct {
	ReconcileTimeout   time.Duration
	SymptomWindowDays  int
	AttentionQueueSize int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "pulse"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	jwtExpMinutes, err := getEnvInt("JWT_EXPIRATION_MINUTES", 60)
	if err != nil {
		return nil, err
	}

	reconcileSeconds, err := getEnvInt("RECONCILE_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	if reconcileSeconds <= 0 {
		return nil, fmt.Errorf("invalid RECONCILE_TIMEOUT_SECONDS: must be positive, got %d", reconcileSeconds)
	}

	symptomWindow, err := getEnvInt("RECENT_SYMPTOM_WINDOW_DAYS", 30)
	if err != nil {
		return nil, err
	}
	if symptomWindow < 0 {
		return nil, fmt.Errorf("invalid RECENT_SYMPTOM_WINDOW_DAYS: must not be negative, got %d", symptomWindow)
	}

	queueSize, err := getEnvInt("ATTENTION_QUEUE_SIZE", 3)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                 getEnv("PORT", "3001"),
		Origin:               getEnv("ORIGIN", "http://localhost:5173"),
		Environment:          getEnv("APP_ENV", "development"),
		JWTSecret:            getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTExpirationMinutes: jwtExpMinutes,
		Database:             dbConfig,
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Risk: RiskConfig{
			ReconcileTimeout:   time.Duration(reconcileSeconds) * time.Second,
			SymptomWindowDays:  symptomWindow,
			AttentionQueueSize: queueSize,
		},
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, strconv.Itoa(defaultValue))
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

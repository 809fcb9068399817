package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted by STOCK_DATA_PROVIDER
const (
	ProviderTWSE    = "twse"
	ProviderFinMind = "finmind"
)

// Config holds all configuration for the scanner
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Price data provider selection (twse | finmind)
	Provider string

	// Redis
	Redis RedisConfig

	// External APIs
	TWSE    TWSEConfig
	TPEx    TPExConfig
	FinMind FinMindConfig
	TAIFEX  TAIFEXConfig

	// Scan
	Scan ScanConfig

	// Schedule (cron, with seconds)
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// TWSEConfig holds Taiwan Stock Exchange endpoints
type TWSEConfig struct {
	BaseURL    string // www.twse.com.tw (STOCK_DAY, announcements, day trading)
	OpenAPIURL string // openapi.twse.com.tw (company listing)
	// Requests per second against www.twse.com.tw; the exchange bans bursty clients
	RequestsPerSecond float64
}

// TPExConfig holds Taipei Exchange (上櫃) open API configuration
type TPExConfig struct {
	OpenAPIURL string
}

// FinMindConfig holds FinMind API configuration
type FinMindConfig struct {
	BaseURL string
	Token   string // optional; raises the hourly quota
}

// TAIFEXConfig holds the market-cap rank source configuration
type TAIFEXConfig struct {
	BaseURL string
}

// ScanConfig holds scan-run tuning
type ScanConfig struct {
	Workers       int
	TaskDelay     time.Duration
	TaskTimeout   time.Duration
	HistoryDays   int // calendar days of price history requested per ticker
	UniverseLimit int // max tickers scanned without a provider credential
	OutputDir     string
	CriteriaPath  string
}

// ScheduleConfig holds cron expressions for scheduled jobs
type ScheduleConfig struct {
	Scan   string
	Alerts string
}

// HasProviderCredential reports whether the selected provider runs with a credential
func (c *Config) HasProviderCredential() bool {
	return c.Provider == ProviderFinMind && c.FinMind.Token != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Provider: strings.ToLower(getEnv("STOCK_DATA_PROVIDER", ProviderTWSE)),

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		TWSE: TWSEConfig{
			BaseURL:           getEnv("TWSE_BASE_URL", "https://www.twse.com.tw"),
			OpenAPIURL:        getEnv("TWSE_OPENAPI_URL", "https://openapi.twse.com.tw/v1"),
			RequestsPerSecond: getEnvAsFloat("TWSE_RPS", 2),
		},
		TPEx: TPExConfig{
			OpenAPIURL: getEnv("TPEX_OPENAPI_URL", "https://www.tpex.org.tw/openapi/v1"),
		},
		FinMind: FinMindConfig{
			BaseURL: getEnv("FINMIND_BASE_URL", "https://api.finmindtrade.com/api/v4/data"),
			Token:   getEnv("FINMIND_API_TOKEN", ""),
		},
		TAIFEX: TAIFEXConfig{
			BaseURL: getEnv("TAIFEX_BASE_URL", "https://www.taifex.com.tw"),
		},

		Scan: ScanConfig{
			Workers:       getEnvAsInt("SCAN_WORKERS", 5),
			TaskDelay:     getEnvAsDuration("SCAN_TASK_DELAY", "200ms"),
			TaskTimeout:   getEnvAsDuration("SCAN_TASK_TIMEOUT", "30s"),
			HistoryDays:   getEnvAsInt("SCAN_HISTORY_DAYS", 180),
			UniverseLimit: getEnvAsInt("SCAN_UNIVERSE_LIMIT", 600),
			OutputDir:     getEnv("OUTPUT_DIR", "data"),
			CriteriaPath:  getEnv("SCAN_CRITERIA_PATH", "criteria.yaml"),
		},

		Schedule: ScheduleConfig{
			Scan:   getEnv("SCHEDULE_SCAN", "0 30 14 * * 1-5"),
			Alerts: getEnv("SCHEDULE_ALERTS", "0 0 9-13 * * 1-5"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Provider != ProviderTWSE && c.Provider != ProviderFinMind {
		return fmt.Errorf("STOCK_DATA_PROVIDER must be one of: %s, %s", ProviderTWSE, ProviderFinMind)
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scan.Workers < 1 {
		return fmt.Errorf("SCAN_WORKERS must be positive")
	}

	if c.Scan.HistoryDays < 90 {
		// MA60 needs ~60 sessions, which is roughly 90 calendar days
		return fmt.Errorf("SCAN_HISTORY_DAYS must be at least 90")
	}

	if c.Scan.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

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
	Env      string
	HTTPAddr string

	CORSAllowAll bool
	CORSOrigins  []string

	SpreadsheetID         string
	LeadsSheet            string
	NumbersSheet          string
	GoogleCredentialsFile string
	SheetsBaseURL         string
	ColumnLayoutFile      string

	VapiBaseURL       string
	VapiAPIKey        string
	VapiAssistantID   string
	VapiWebhookSecret string
	VapiTimeout       time.Duration

	DispatchConcurrency int
	DispatchMaxAttempts int
	CallSpacing         time.Duration
	BackoffBase         time.Duration
	BackoffMax          time.Duration
	ClaimTTL            time.Duration

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueue       string
	AsynqConcurrency int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:          getEnv("APP_ENV", "development"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll: corsAllowAll,
		CORSOrigins:  corsOrigins,

		SpreadsheetID:         getEnv("SHEETS_SPREADSHEET_ID", ""),
		LeadsSheet:            getEnv("SHEETS_LEADS_TAB", "Lead list"),
		NumbersSheet:          getEnv("SHEETS_NUMBERS_TAB", "Phone Numbers"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		SheetsBaseURL:         getEnv("SHEETS_BASE_URL", "https://sheets.googleapis.com"),
		ColumnLayoutFile:      getEnv("COLUMN_LAYOUT_FILE", ""),

		VapiBaseURL:       getEnv("VAPI_BASE_URL", "https://api.vapi.ai"),
		VapiAPIKey:        getEnv("VAPI_API_KEY", ""),
		VapiAssistantID:   getEnv("VAPI_ASSISTANT_ID", ""),
		VapiWebhookSecret: getEnv("VAPI_WEBHOOK_SECRET", ""),
		VapiTimeout:       mustDuration(getEnv("VAPI_TIMEOUT", "30s")),

		DispatchConcurrency: mustInt(getEnv("DISPATCH_CONCURRENCY", "10")),
		DispatchMaxAttempts: mustInt(getEnv("DISPATCH_MAX_ATTEMPTS", "3")),
		CallSpacing:         mustDuration(getEnv("DISPATCH_CALL_SPACING", "2s")),
		BackoffBase:         mustDuration(getEnv("DISPATCH_BACKOFF_BASE", "1s")),
		BackoffMax:          mustDuration(getEnv("DISPATCH_BACKOFF_MAX", "30s")),
		ClaimTTL:            mustDuration(getEnv("DISPATCH_CLAIM_TTL", "10m")),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueue:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
	}

	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("SHEETS_SPREADSHEET_ID is required")
	}
	if cfg.VapiAPIKey == "" || cfg.VapiAssistantID == "" {
		return nil, fmt.Errorf("VAPI_API_KEY and VAPI_ASSISTANT_ID are required")
	}
	if cfg.DispatchConcurrency < 1 {
		return nil, fmt.Errorf("DISPATCH_CONCURRENCY must be at least 1")
	}
	if cfg.DispatchMaxAttempts < 1 {
		return nil, fmt.Errorf("DISPATCH_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.CORSAllowAll && len(cfg.CORSOrigins) > 1 {
		cfg.CORSOrigins = nil
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

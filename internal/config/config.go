package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/deusflow/headlines/internal/window"
)

type Config struct {
	// Report settings, from the feeds file unless overridden
	FeedsConfigPath   string
	Label             string
	ReportHours       []int
	TimeZone          string
	MinReportCount    int
	MaxItemsPerSource int
	Feeds             []string

	// Telegram settings
	TelegramToken      string
	TelegramChatID     string
	TelegramTestChatID string
	TelegramBaseURL    string
	TelegramMaxChars   int
	SendInterval       time.Duration
	ButtonText         string
	ButtonURL          string

	// LLM settings
	LLMBackend         string // rest | sdk | openai
	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	GeminiAPIKeyHeader string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	MaxLLMRequests     int // per run, 0 = unlimited
	LLMTimeout         time.Duration

	// Fetch settings
	RequestTimeout   time.Duration
	RetryAttempts    int
	RetryDelay       time.Duration
	FetchConcurrency int
	UserAgent        string
	RunTimeout       time.Duration

	// Journal settings
	ArchiveFile      string
	ArchiveRetention time.Duration
	DatabaseURL      string

	// App settings
	Debug                bool
	LogFile              string
	EnableHTTPMonitoring bool
	MonitoringPort       string
}

const (
	BackendREST   = "rest"
	BackendSDK    = "sdk"
	BackendOpenAI = "openai"
)

// LoadEnvFile seeds the environment from a dotenv file. Variables already set
// win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		FeedsConfigPath:    "configs/feeds.yaml",
		Label:              "Daily News",
		ReportHours:        []int{8, 20},
		TimeZone:           "UTC",
		MinReportCount:     2,
		MaxItemsPerSource:  10,
		TelegramMaxChars:   4096,
		SendInterval:       time.Second,
		LLMBackend:         BackendREST,
		GeminiModel:        "gemini-2.5-flash",
		GeminiBaseURL:      "https://generativelanguage.googleapis.com",
		GeminiAPIKeyHeader: "x-goog-api-key",
		OpenAIModel:        "gpt-4o-mini",
		MaxLLMRequests:     4,
		LLMTimeout:         90 * time.Second,
		RequestTimeout:     30 * time.Second,
		RetryAttempts:      3,
		RetryDelay:         200 * time.Millisecond,
		FetchConcurrency:   8,
		UserAgent:          "headlines-digest/1.0 (+https://github.com/deusflow/headlines)",
		RunTimeout:         10 * time.Minute,
		ArchiveRetention:   30 * 24 * time.Hour,
		MonitoringPort:     "8080",
	}

	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	if err := cfg.applyFeedsFile(); err != nil {
		return nil, err
	}

	if v := os.Getenv("REPORT_LABEL"); v != "" {
		cfg.Label = v
	}
	if v := os.Getenv("REPORT_HOURS"); v != "" {
		hours, err := ParseHours(v)
		if err != nil {
			return nil, fmt.Errorf("REPORT_HOURS: %w", err)
		}
		cfg.ReportHours = hours
	}
	cfg.TimeZone = getEnvOrDefault("TIME_ZONE", cfg.TimeZone)
	cfg.MinReportCount = getEnvIntOrDefault("MINIMUM_REPORT_COUNT", cfg.MinReportCount)
	cfg.MaxItemsPerSource = getEnvIntOrDefault("MAX_ITEMS_PER_SOURCE", cfg.MaxItemsPerSource)

	// Telegram
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.TelegramTestChatID = os.Getenv("TELEGRAM_TEST_CHAT_ID")
	cfg.TelegramBaseURL = os.Getenv("TELEGRAM_BASE_URL")
	cfg.TelegramMaxChars = getEnvIntOrDefault("TELEGRAM_MAX_CHARS", cfg.TelegramMaxChars)
	cfg.SendInterval = getEnvDurationOrDefault("TELEGRAM_SEND_INTERVAL", cfg.SendInterval)
	cfg.ButtonText = os.Getenv("TELEGRAM_BUTTON_TEXT")
	cfg.ButtonURL = os.Getenv("TELEGRAM_BUTTON_URL")

	// LLM
	cfg.LLMBackend = strings.ToLower(getEnvOrDefault("LLM_BACKEND", cfg.LLMBackend))
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiBaseURL = getEnvOrDefault("GEMINI_BASE_URL", cfg.GeminiBaseURL)
	cfg.GeminiAPIKeyHeader = getEnvOrDefault("GEMINI_API_KEY_HEADER", cfg.GeminiAPIKeyHeader)
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.MaxLLMRequests = getEnvIntOrDefault("MAX_LLM_REQUESTS", cfg.MaxLLMRequests)
	cfg.LLMTimeout = getEnvDurationOrDefault("LLM_TIMEOUT", cfg.LLMTimeout)

	// Fetch
	cfg.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.RetryDelay = getEnvDurationOrDefault("RETRY_DELAY", cfg.RetryDelay)
	cfg.FetchConcurrency = getEnvIntOrDefault("FETCH_CONCURRENCY", cfg.FetchConcurrency)
	cfg.UserAgent = getEnvOrDefault("USER_AGENT", cfg.UserAgent)
	cfg.RunTimeout = getEnvDurationOrDefault("RUN_TIMEOUT", cfg.RunTimeout)

	// Journal
	cfg.ArchiveFile = os.Getenv("ARCHIVE_FILE")
	cfg.ArchiveRetention = getEnvDurationOrDefault("ARCHIVE_RETENTION", cfg.ArchiveRetention)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}
	cfg.LogFile = os.Getenv("LOG_FILE")
	cfg.EnableHTTPMonitoring = os.Getenv("ENABLE_HTTP_MONITORING") == "true"
	cfg.MonitoringPort = getEnvOrDefault("MONITORING_PORT", cfg.MonitoringPort)

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// ParseHours reads a comma separated list such as "8,20". An hour may
// appear only once.
func ParseHours(s string) ([]int, error) {
	var hours []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid hour %q", part)
		}
		if seen[h] {
			return nil, fmt.Errorf("duplicate hour %d", h)
		}
		seen[h] = true
		hours = append(hours, h)
	}
	return hours, nil
}

// ChatID picks the destination: the test chat when requested and set.
func (c *Config) ChatID(test bool) string {
	if test && c.TelegramTestChatID != "" {
		return c.TelegramTestChatID
	}
	return c.TelegramChatID
}

func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}

	switch c.LLMBackend {
	case BackendREST, BackendSDK:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for LLM_BACKEND=%s", c.LLMBackend)
		}
	case BackendOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for LLM_BACKEND=openai")
		}
	default:
		return fmt.Errorf("LLM_BACKEND must be one of rest, sdk, openai; got %q", c.LLMBackend)
	}

	distinct := make(map[int]bool, len(c.ReportHours))
	for _, h := range c.ReportHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("report hour %d out of range 0-23", h)
		}
		if distinct[h] {
			return fmt.Errorf("duplicate report hour %d in %v", h, c.ReportHours)
		}
		distinct[h] = true
	}
	if len(distinct) < 2 {
		return fmt.Errorf("at least 2 distinct report hours are required, got %v", c.ReportHours)
	}
	if _, err := window.LoadLocation(c.TimeZone); err != nil {
		return err
	}

	if c.MinReportCount < 1 {
		return fmt.Errorf("minimum report count must be at least 1")
	}
	if c.MaxItemsPerSource < 1 {
		return fmt.Errorf("max items per source must be at least 1")
	}
	if c.TelegramMaxChars < 1 {
		return fmt.Errorf("TELEGRAM_MAX_CHARS must be at least 1")
	}
	if len(c.Feeds) == 0 {
		return fmt.Errorf("no feeds configured in %s", c.FeedsConfigPath)
	}
	return nil
}

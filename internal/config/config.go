package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration. It is built once by Load and
// passed by value into the components, which never modify it.
type Config struct {
	ISS       ISSConfig
	Detection DetectionConfig
	Storage   StorageConfig
	Notify    NotifyConfig
	Metrics   MetricsConfig
	Schedule  ScheduleConfig
	LogLevel  string `defaults:"info" validate:"oneof=trace debug info warn error"`
}

// ISSConfig configures the upstream history endpoint.
type ISSConfig struct {
	BaseURL        string        `defaults:"https://iss.moex.com/iss" validate:"required,url"`
	PageSize       int           `defaults:"100" validate:"gt=0"`
	PageDelay      time.Duration `defaults:"500ms" validate:"gte=0s"`
	RequestTimeout time.Duration `defaults:"30s" validate:"gt=0s"`
	RequestsPerSec int           `defaults:"5" validate:"gt=0"`
	MaxRetries     int           `defaults:"5" validate:"gt=0"`
	RetryDelay     time.Duration `defaults:"60s" validate:"gte=0s"`
}

// DetectionConfig holds the statistical thresholds and exclusion lists.
type DetectionConfig struct {
	ThresholdSigma      float64  `defaults:"3" validate:"gte=0"`
	MinDeviationPercent float64  `defaults:"300"`
	MinAvgValue         float64  `defaults:"10000000" validate:"gte=0"`
	BaselineDays        int      `defaults:"5" validate:"gt=0"`
	ExcludedPrefixes    []string `defaults:"[\"RU000\"]"`
	ExcludedKeywords    []string `defaults:"[\"ETF\"]"`
}

// StorageConfig locates the snapshot cache and the report directory.
type StorageConfig struct {
	DataDir      string `defaults:"data" validate:"required"`
	ReportsDir   string `defaults:"reports" validate:"required"`
	CacheBackend string `defaults:"file" validate:"oneof=file badger"`
	BadgerDir    string `defaults:"data/badger" validate:"required_if=CacheBackend badger"`
}

type NotifyConfig struct {
	TelegramToken  string
	TelegramChatID int64
	Always         bool
	TopN           int `defaults:"10" validate:"gt=0"`
}

type MetricsConfig struct {
	PushgatewayURL string `validate:"omitempty,url"`
	Job            string `defaults:"volume_anomaly_detector" validate:"required"`
}

// ScheduleConfig drives the periodic run mode. Cron uses the standard
// five-field syntax.
type ScheduleConfig struct {
	Cron     string `defaults:"0 10 * * 1-5" validate:"required"`
	Timezone string `defaults:"Europe/Moscow"`
}

var validate = validator.New()

// Default returns the configuration used when no environment overrides are set.
func Default() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		// tags are static, this only fails on a programming error
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load initializes configuration from environment variables
func Load() (Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := Default()

	cfg.ISS.BaseURL = getEnvWithDefault("ISS_BASE_URL", cfg.ISS.BaseURL)
	cfg.ISS.PageSize = getEnvIntWithDefault("ISS_PAGE_SIZE", cfg.ISS.PageSize)
	cfg.ISS.PageDelay = time.Duration(getEnvIntWithDefault("ISS_PAGE_DELAY_MS", int(cfg.ISS.PageDelay/time.Millisecond))) * time.Millisecond
	cfg.ISS.RequestTimeout = time.Duration(getEnvIntWithDefault("REQUEST_TIMEOUT", int(cfg.ISS.RequestTimeout/time.Second))) * time.Second
	cfg.ISS.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", cfg.ISS.RequestsPerSec)
	cfg.ISS.MaxRetries = getEnvIntWithDefault("MAX_RETRIES", cfg.ISS.MaxRetries)
	cfg.ISS.RetryDelay = time.Duration(getEnvIntWithDefault("RETRY_DELAY", int(cfg.ISS.RetryDelay/time.Second))) * time.Second

	cfg.Detection.ThresholdSigma = getEnvFloatWithDefault("ANOMALY_THRESHOLD_SIGMA", cfg.Detection.ThresholdSigma)
	cfg.Detection.MinDeviationPercent = getEnvFloatWithDefault("MIN_DEVIATION_PERCENT", cfg.Detection.MinDeviationPercent)
	cfg.Detection.MinAvgValue = getEnvFloatWithDefault("MIN_AVG_VALUE", cfg.Detection.MinAvgValue)
	cfg.Detection.BaselineDays = getEnvIntWithDefault("BASELINE_DAYS", cfg.Detection.BaselineDays)
	cfg.Detection.ExcludedPrefixes = getEnvListWithDefault("EXCLUDED_TICKER_PREFIXES", cfg.Detection.ExcludedPrefixes)
	cfg.Detection.ExcludedKeywords = getEnvListWithDefault("EXCLUDED_SHORTNAME_KEYWORDS", cfg.Detection.ExcludedKeywords)

	cfg.Storage.DataDir = getEnvWithDefault("DATA_DIR", cfg.Storage.DataDir)
	cfg.Storage.ReportsDir = getEnvWithDefault("REPORTS_DIR", cfg.Storage.ReportsDir)
	cfg.Storage.CacheBackend = getEnvWithDefault("CACHE_BACKEND", cfg.Storage.CacheBackend)
	cfg.Storage.BadgerDir = getEnvWithDefault("BADGER_DIR", cfg.Storage.BadgerDir)

	cfg.Notify.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Notify.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)
	cfg.Notify.Always = getEnvBoolWithDefault("NOTIFY_ALWAYS", false)
	cfg.Notify.TopN = getEnvIntWithDefault("NOTIFY_TOP_N", cfg.Notify.TopN)

	cfg.Metrics.PushgatewayURL = os.Getenv("PUSHGATEWAY_URL")
	cfg.Metrics.Job = getEnvWithDefault("METRICS_JOB", cfg.Metrics.Job)

	cfg.Schedule.Cron = getEnvWithDefault("SCHEDULE_CRON", cfg.Schedule.Cron)
	cfg.Schedule.Timezone = getEnvWithDefault("SCHEDULE_TZ", cfg.Schedule.Timezone)

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the struct tags and reports the first offending field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		if fe.Param() != "" {
			return fmt.Errorf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("%s failed %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return err
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid number, using default")
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getEnvListWithDefault splits a comma-separated value, dropping empty items.
func getEnvListWithDefault(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

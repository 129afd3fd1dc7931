// internal/config/config.go
package config

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the document-processing core.
// It uses `mapstructure` tags for automatic unmarshaling from Viper,
// populated from environment variables and/or a ".env" file.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"` // "development", "staging", "production"
	LogLevel    string `mapstructure:"LOG_LEVEL"`    // debug, info, warn, error
	LogFormat   string `mapstructure:"LOG_FORMAT"`   // "console" or "json"

	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            int           `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSslMode         string        `mapstructure:"DB_SSL_MODE"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	DBConnMaxIdleTime time.Duration `mapstructure:"DB_CONN_MAX_IDLE_TIME"`

	// OCRProviderKeys holds one API key per OCR adapter id; an absent key
	// disables that adapter rather than producing an error (spec.md §4.1).
	OCRProviderKeys map[string]string `mapstructure:"-"`
	GoogleVisionKey string            `mapstructure:"OCR_PROVIDER_KEY_GOOGLE_VISION"`

	LLMProviderKey string `mapstructure:"LLM_PROVIDER_KEY"`
	GeminiModel    string `mapstructure:"GEMINI_MODEL"`

	MaxDailyCostUSD   float64 `mapstructure:"MAX_DAILY_COST_USD"`
	MaxMonthlyCostUSD float64 `mapstructure:"MAX_MONTHLY_COST_USD"`

	WorkerCount     int `mapstructure:"WORKER_COUNT"`
	JobRetentionHrs int `mapstructure:"JOB_RETENTION_HOURS"`
	JobRetention    time.Duration

	RegistryBaseURL       string `mapstructure:"REGISTRY_BASE_URL"`
	RegistryCacheTTLSecs  int    `mapstructure:"REGISTRY_CACHE_TTL_SECONDS"`
	RegistryCacheMaxSize  int    `mapstructure:"REGISTRY_CACHE_MAX_ENTRIES"`
	DefaultProcessingMode string `mapstructure:"DEFAULT_PROCESSING_MODE"` // accuracy_first | cost_effective | speed_first
	RegistryCacheTTL      time.Duration
	RegistryNegativeTTL   time.Duration

	FileEncryptionKey string `mapstructure:"FILE_ENCRYPTION_KEY"` // 32-byte AES-256 key for staged artifacts
	StagingDir        string `mapstructure:"STAGING_DIR"`
	MaxFileSize       int64  `mapstructure:"MAX_FILE_SIZE"`

	PromptTemplatePath string `mapstructure:"PROMPT_TEMPLATE_PATH"`
}

const DevelopmentEnvironment = "development"

// LoadConfig reads configuration from environment variables and/or a .env
// file using Viper, validates required fields, and applies documented
// defaults (spec.md §6 "Environment configuration").
func LoadConfig(ctx context.Context, path string) (cfg Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.AllowEmptyEnv(true)

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No .env file found, relying on environment variables.")
		} else {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// AutomaticEnv only answers explicit Get calls; Unmarshal sees an
	// environment variable only once its key is bound.
	t := reflect.TypeOf(cfg)
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("mapstructure"); tag != "" && tag != "-" {
			_ = viper.BindEnv(tag)
		}
	}

	if err = viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DBHost == "" {
		return Config{}, fmt.Errorf("environment variable DB_HOST is required")
	}
	if cfg.DBPort == 0 {
		return Config{}, fmt.Errorf("environment variable DB_PORT is required")
	}
	if cfg.DBUser == "" {
		return Config{}, fmt.Errorf("environment variable DB_USER is required")
	}
	if cfg.DBName == "" {
		return Config{}, fmt.Errorf("environment variable DB_NAME is required")
	}
	if cfg.DBSslMode == "" {
		cfg.DBSslMode = "disable"
	}

	if cfg.FileEncryptionKey == "" && strings.ToLower(cfg.Environment) != DevelopmentEnvironment {
		return Config{}, fmt.Errorf("environment variable FILE_ENCRYPTION_KEY is required in non-development environments")
	}

	cfg.OCRProviderKeys = map[string]string{}
	if cfg.GoogleVisionKey != "" {
		cfg.OCRProviderKeys["google_vision"] = cfg.GoogleVisionKey
	}

	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 5
		log.Println("WORKER_COUNT not set, defaulting to 5")
	}
	if cfg.JobRetentionHrs == 0 {
		cfg.JobRetentionHrs = 24
		log.Println("JOB_RETENTION_HOURS not set, defaulting to 24")
	}
	cfg.JobRetention = time.Duration(cfg.JobRetentionHrs) * time.Hour

	if cfg.RegistryCacheTTLSecs == 0 {
		cfg.RegistryCacheTTLSecs = 24 * 60 * 60
		log.Println("REGISTRY_CACHE_TTL_SECONDS not set, defaulting to 24h")
	}
	cfg.RegistryCacheTTL = time.Duration(cfg.RegistryCacheTTLSecs) * time.Second
	cfg.RegistryNegativeTTL = 10 * time.Minute
	if cfg.RegistryCacheMaxSize == 0 {
		cfg.RegistryCacheMaxSize = 1000
		log.Println("REGISTRY_CACHE_MAX_ENTRIES not set, defaulting to 1000")
	}
	if cfg.RegistryBaseURL == "" {
		cfg.RegistryBaseURL = "https://ares.gov.cz/ekonomicke-subjekty-v-be/rest/ekonomicke-subjekty"
	}

	if cfg.DefaultProcessingMode == "" {
		cfg.DefaultProcessingMode = "cost_effective"
		log.Println("DEFAULT_PROCESSING_MODE not set, defaulting to 'cost_effective'")
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		log.Println("LOG_LEVEL not set, defaulting to 'info'")
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
		log.Println("LOG_FORMAT not set, defaulting to 'console'")
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = 50 * 1024 * 1024
		log.Println("MAX_FILE_SIZE not set, defaulting to 50MB")
	}
	if cfg.StagingDir == "" {
		cfg.StagingDir = "/tmp/askelio-staging"
	}
	if cfg.PromptTemplatePath == "" {
		cfg.PromptTemplatePath = "./internal/adapters/llmapi/prompts"
	}
	if cfg.MaxDailyCostUSD == 0 {
		cfg.MaxDailyCostUSD = 5.0
	}
	if cfg.MaxMonthlyCostUSD == 0 {
		cfg.MaxMonthlyCostUSD = 100.0
	}

	select {
	case <-ctx.Done():
		return Config{}, ctx.Err()
	default:
	}

	return cfg, nil
}

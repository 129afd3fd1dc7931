// internal/utils/logger.go
package utils

import (
	"context"
	"fmt"
	"strings"

	"github.com/askelio/docpipeline/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

// JobIDKey tags a job id onto a context so every log line in a pipeline
// run can be correlated, mirroring the request-id propagation the
// teacher project uses per HTTP request.
const JobIDKey contextKey = "jobID"

// Logger is the process-wide structured logger. It defaults to a no-op
// logger so packages that log before InitLogger runs (e.g. in tests)
// don't panic; main() replaces it via InitLogger before anything else.
var Logger = zap.NewNop()

// InitLogger builds the process-wide Zap logger from cfg and installs it
// as the package-level Logger. Call once from main after LoadConfig.
func InitLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	Logger = logger
	return logger, nil
}

// NewLogger creates a new Zap logger based on the provided configuration.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var loggerConfig zap.Config

	if strings.ToLower(cfg.Environment) == "production" {
		loggerConfig = zap.NewProductionConfig()
		loggerConfig.Sampling = nil // capture all logs in production
	} else {
		loggerConfig = zap.NewDevelopmentConfig()
		loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logLevel, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	loggerConfig.Level = zap.NewAtomicLevelAt(logLevel)

	loggerConfig.EncoderConfig.TimeKey = "timestamp"
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.LogFormat == "json" {
		loggerConfig.Encoding = "json"
	} else {
		loggerConfig.Encoding = "console"
	}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// WithJobID returns a context tagged with jobID for log correlation.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

// GetJobID retrieves the job id tagged onto ctx by WithJobID, or "" if
// none was set.
func GetJobID(ctx context.Context) string {
	v, _ := ctx.Value(JobIDKey).(string)
	return v
}

// internal/security/validation.go
package security

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/askelio/docpipeline/internal/apperrors"
	"github.com/askelio/docpipeline/internal/config"
	"github.com/askelio/docpipeline/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate *validator.Validate
var cfg *config.Config
var logger *zap.Logger

func init() {
	logger = zap.L().Named("validation")
	validate = validator.New()

	tempCfg, err := config.LoadConfig(context.Background(), ".")
	cfg = &tempCfg
	if err != nil {
		logger.Warn("failed to load config for validation, using defaults", zap.Error(err))
	}
}

// NewValidator returns a fresh go-playground/validator instance for
// callers that need struct tags beyond ValidateStruct's package-level one.
func NewValidator() *validator.Validate {
	return validator.New()
}

// ValidateStruct validates s against its `validate` struct tags.
func ValidateStruct(s interface{}) error {
	const operation = "security.ValidateStruct"
	logger.Debug("validating struct", zap.String("operation", operation))

	err := validate.Struct(s)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			processedErrors := utils.HandleValidationError(validationErrors)
			logger.Warn("struct validation failed", zap.String("operation", operation), zap.Error(processedErrors))
			return processedErrors
		}
		validationErr := fmt.Errorf("struct validation failed: %w", err)
		logger.Error("unexpected validation error", zap.String("operation", operation), zap.Error(validationErr))
		return validationErr
	}
	return nil
}

// ValidateUUID validates that id parses as a UUID.
func ValidateUUID(id string) error {
	const operation = "security.ValidateUUID"
	if _, err := uuid.Parse(id); err != nil {
		validationErr := apperrors.InvalidInput(fmt.Sprintf("invalid UUID %q", id))
		validationErr.SetLogger(logger)
		logger.Warn("invalid UUID format", zap.String("operation", operation), zap.String("uuid_value", id))
		return validationErr
	}
	return nil
}

// allowedContentTypes lists the media types the pipeline accepts as
// submitted-document bytes (spec.md §4 ingestion, §7 unsupported_media).
var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/tiff":      true,
}

// ValidateFileType checks the uploaded file's content type against
// allowedContentTypes, returning apperrors.UnsupportedMedia otherwise.
func ValidateFileType(file *multipart.FileHeader) error {
	const operation = "security.ValidateFileType"
	if file == nil {
		return errors.New("file is nil")
	}

	contentType := file.Header.Get("Content-Type")
	if !allowedContentTypes[contentType] {
		unsupportedErr := apperrors.UnsupportedMedia(contentType)
		unsupportedErr.SetLogger(logger)
		logger.Warn("unsupported file type", zap.String("operation", operation), zap.String("filename", file.Filename), zap.String("content_type", contentType))
		return unsupportedErr
	}
	return nil
}

// ValidateFileSize checks file.Size against the configured MaxFileSize.
func ValidateFileSize(file *multipart.FileHeader) error {
	const operation = "security.ValidateFileSize"
	if cfg == nil || cfg.MaxFileSize == 0 {
		return apperrors.Internal("validation configuration not loaded", nil)
	}

	if file.Size > cfg.MaxFileSize {
		sizeErr := apperrors.InvalidInput(fmt.Sprintf("file %q (%d bytes) exceeds the %d byte limit", file.Filename, file.Size, cfg.MaxFileSize))
		sizeErr.SetLogger(logger)
		logger.Warn("file size exceeded", zap.String("operation", operation), zap.String("filename", file.Filename), zap.Int64("file_size_bytes", file.Size), zap.Int64("max_file_size_limit", cfg.MaxFileSize))
		return sizeErr
	}
	return nil
}

// SanitizeFilename strips path-traversal and filesystem-hostile
// characters from a user-supplied filename.
func SanitizeFilename(filename string) string {
	re := regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	sanitized := re.ReplaceAllString(filename, "_")

	sanitized = filepath.Clean(sanitized)
	if strings.Contains(sanitized, "..") {
		sanitized = strings.ReplaceAll(sanitized, "..", "__")
	}

	if len(sanitized) > 255 {
		sanitized = sanitized[:255]
	}
	return sanitized
}

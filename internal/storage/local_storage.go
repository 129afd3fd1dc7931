// internal/storage/local_storage.go
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/askelio/docpipeline/internal/config"
	"github.com/askelio/docpipeline/internal/security"
	"github.com/askelio/docpipeline/internal/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalStorage implements FileStorage on the local filesystem, rooted at
// cfg.StagingDir. It is the staging area a submitted document's bytes sit
// in between ingestion and the OCR Orchestrator picking them up (spec.md
// §4 "artifact staging"); it is not the system of record for the
// structured result, which lives in the Persistence Gateway.
type LocalStorage struct {
	root   string
	key    []byte
	logger *zap.Logger
}

// NewLocalStorage creates a LocalStorage rooted at cfg.StagingDir,
// creating the directory if it does not exist.
func NewLocalStorage(cfg *config.Config, logger *zap.Logger) (*LocalStorage, error) {
	const operation = "NewLocalStorage"
	storageLogger := logger.Named("storage")

	if err := os.MkdirAll(cfg.StagingDir, 0o700); err != nil {
		storageLogger.Error("failed to create staging directory", zap.String("operation", operation), zap.Error(err))
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}

	return &LocalStorage{
		root:   cfg.StagingDir,
		key:    []byte(cfg.FileEncryptionKey),
		logger: storageLogger,
	}, nil
}

// Save implements FileStorage.
func (s *LocalStorage) Save(ctx context.Context, filename string, contentType string, file io.Reader) (string, error) {
	const operation = "LocalStorage.Save"
	jobID := utils.GetJobID(ctx)
	logger := s.logger.With(zap.String("operation", operation), zap.String("job_id", jobID))

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	sanitized := security.SanitizeFilename(filename)
	relPath := filepath.Join(jobOrRandomDir(jobID), fmt.Sprintf("%s-%s", uuid.NewString(), sanitized))
	fullPath := filepath.Join(s.root, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o700); err != nil {
		logger.Error("failed to create artifact directory", zap.Error(err))
		return "", fmt.Errorf("creating artifact dir: %w", err)
	}

	out, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		logger.Error("failed to open artifact for writing", zap.Error(err))
		return "", fmt.Errorf("opening artifact: %w", err)
	}
	defer out.Close()

	encryptedReader, err := utils.EncryptReader(s.key, file)
	if err != nil {
		logger.Error("encryption failed before staging", zap.Error(err))
		return "", fmt.Errorf("encrypting artifact: %w", err)
	}

	if _, err := io.Copy(out, encryptedReader); err != nil {
		logger.Error("failed to write staged artifact", zap.Error(err))
		return "", fmt.Errorf("writing artifact: %w", err)
	}

	logger.Info("artifact staged", zap.String("content_type", contentType), zap.String("path", relPath))
	return relPath, nil
}

// Get implements FileStorage.
func (s *LocalStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	const operation = "LocalStorage.Get"
	logger := s.logger.With(zap.String("operation", operation), zap.String("job_id", utils.GetJobID(ctx)))

	fullPath, err := s.resolve(path)
	if err != nil {
		logger.Error("invalid artifact path", zap.Error(err))
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		logger.Error("failed to open staged artifact", zap.Error(err))
		return nil, fmt.Errorf("opening artifact: %w", err)
	}

	decrypted, err := utils.DecryptReader(s.key, f)
	if err != nil {
		logger.Error("decryption failed for staged artifact", zap.Error(err))
		f.Close()
		return nil, fmt.Errorf("decrypting artifact: %w", err)
	}
	return decrypted, nil
}

// Delete implements FileStorage, securely overwriting the artifact
// before unlinking it (internal/security.SecureDeleteFile).
func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	const operation = "LocalStorage.Delete"
	logger := s.logger.With(zap.String("operation", operation), zap.String("job_id", utils.GetJobID(ctx)))

	relPath, err := s.relativize(path)
	if err != nil {
		logger.Error("invalid artifact path", zap.Error(err))
		return err
	}

	if err := security.SecureDeleteFile(filepath.Join(s.root, relPath)); err != nil {
		logger.Error("failed to securely delete staged artifact", zap.Error(err))
		return fmt.Errorf("deleting artifact: %w", err)
	}
	logger.Debug("staged artifact deleted")
	return nil
}

func (s *LocalStorage) resolve(path string) (string, error) {
	relPath, err := s.relativize(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, relPath), nil
}

// relativize rejects absolute paths and traversal outside root; callers
// join the result onto root before opening or securely deleting it.
func (s *LocalStorage) relativize(path string) (string, error) {
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid artifact path: must be relative")
	}
	full := filepath.Join(s.root, cleaned)
	if rel, err := filepath.Rel(s.root, full); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid artifact path: escapes staging root")
	}
	return cleaned, nil
}

func jobOrRandomDir(jobID string) string {
	if jobID == "" {
		return uuid.NewString()
	}
	return jobID
}

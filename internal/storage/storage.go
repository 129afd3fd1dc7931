// internal/storage/storage.go
package storage

import (
	"context"
	"io"
)

// FileStorage abstracts the staging area document bytes pass through
// between ingestion and the OCR Orchestrator. Implementations must
// encrypt content at rest and respect context cancellation.
type FileStorage interface {
	// Save encrypts and writes file to the backend, returning the path
	// used to retrieve it later via Get.
	Save(ctx context.Context, filename string, contentType string, file io.Reader) (string, error)

	// Get returns a decrypted stream for the artifact at filepath. The
	// caller must close the returned ReadCloser.
	Get(ctx context.Context, filepath string) (io.ReadCloser, error)

	// Delete securely removes the artifact at filepath.
	Delete(ctx context.Context, filepath string) error
}

// internal/data/repositories/interfaces/document_repository.go
package interfaces

import (
	"context"

	"github.com/askelio/docpipeline/internal/data/models"
	"github.com/askelio/docpipeline/internal/dedup"
)

// DocumentRepository implements the Persistence Gateway's
// document-scoped operations (spec.md §4.10). Every method is scoped
// by ownerID; a missing backing table is treated as an empty result,
// not an error, to allow gradual schema rollout.
type DocumentRepository interface {
	Repository

	CreateDocument(ctx context.Context, doc *models.Document) error
	UpdateDocument(ctx context.Context, ownerID, id string, patch models.DocumentPatch) error
	DeleteDocument(ctx context.Context, ownerID, id string) error
	GetDocument(ctx context.Context, ownerID, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, ownerID string, limit, offset int) ([]*models.Document, error)

	// FindByHash implements spec.md §4.10's find_by_hash for
	// byte-identical dedup.
	FindByHash(ctx context.Context, ownerID, fileHash string) (*models.Document, error)

	// CreateFields/GetFields implement spec.md §4.10's flat
	// ExtractedField operations.
	CreateFields(ctx context.Context, ownerID, documentID string, fields []models.ExtractedField) error
	GetFields(ctx context.Context, ownerID, documentID string) ([]models.ExtractedField, error)

	// FindDocumentIDsByFingerprint and FindCandidatesByInvoiceNumber
	// back the Duplicate Detector (internal/dedup.FingerprintRepository).
	FindDocumentIDsByFingerprint(ctx context.Context, ownerID, fingerprint string) ([]string, error)
	FindCandidatesByInvoiceNumber(ctx context.Context, ownerID, invoiceNumber string) ([]dedup.DocumentSummary, error)
	CountDocuments(ctx context.Context, ownerID string) (int, error)
	CountFingerprintGroups(ctx context.Context, ownerID string) (int, error)
}

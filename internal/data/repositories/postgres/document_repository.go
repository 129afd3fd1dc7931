// internal/data/repositories/postgres/document_repository.go
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askelio/docpipeline/internal/apperrors"
	"github.com/askelio/docpipeline/internal/data/models"
	"github.com/askelio/docpipeline/internal/data/repositories/interfaces"
	"github.com/askelio/docpipeline/internal/dedup"
)

// Ensure DocumentRepository implements the interface.
var _ interfaces.DocumentRepository = (*DocumentRepository)(nil)

// DocumentRepository provides PostgreSQL-backed access to documents and
// their extracted fields (spec.md §4.10). The pack carries no sqlc
// query generator or checked-in .sql files for this schema, so queries
// are issued directly through pgx rather than fabricated generated
// code; this is the one place in the Persistence Gateway that departs
// from the teacher's sqlc-backed pattern.
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new DocumentRepository instance.
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) BeginTx(ctx context.Context, opts ...pgx.TxOptions) (pgx.Tx, error) {
	if len(opts) > 0 {
		return r.db.BeginTx(ctx, opts[0])
	}
	return r.db.Begin(ctx)
}

func (r *DocumentRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

func (r *DocumentRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}

const createDocumentSQL = `
INSERT INTO documents
	(id, owner_id, filename, content_type, byte_size, content_hash, status, mode,
	 dedup_fingerprint, retry_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`

func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	_, err := r.db.Exec(ctx, createDocumentSQL,
		doc.ID, doc.OwnerID, doc.Filename, doc.ContentType, doc.ByteSize, doc.ContentHash,
		doc.Status, doc.Mode, doc.DedupFingerprint, doc.RetryCount)
	if err != nil {
		return apperrors.PersistenceError("create_document", err)
	}
	return nil
}

const updateDocumentSQL = `
UPDATE documents SET
	status              = COALESCE($3, status),
	error_kind          = COALESCE($4, error_kind),
	error_message       = COALESCE($5, error_message),
	started_at          = COALESCE($6, started_at),
	completed_at        = COALESCE($7, completed_at),
	dedup_fingerprint   = COALESCE($8, dedup_fingerprint),
	retry_count         = retry_count + $9,
	updated_at          = now()
WHERE owner_id = $1 AND id = $2`

func (r *DocumentRepository) UpdateDocument(ctx context.Context, ownerID, id string, patch models.DocumentPatch) error {
	retryIncrement := 0
	if patch.RetryIncrement {
		retryIncrement = 1
	}
	tag, err := r.db.Exec(ctx, updateDocumentSQL,
		ownerID, id, patch.Status, patch.ErrorKind, patch.ErrorMessage,
		patch.StartedAt, patch.CompletedAt, patch.DedupFingerprint, retryIncrement)
	if err != nil {
		if isMissingTable(err) {
			return nil
		}
		return apperrors.PersistenceError("update_document", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("document", id)
	}
	return nil
}

const deleteDocumentSQL = `DELETE FROM documents WHERE owner_id = $1 AND id = $2`

func (r *DocumentRepository) DeleteDocument(ctx context.Context, ownerID, id string) error {
	_, err := r.db.Exec(ctx, deleteDocumentSQL, ownerID, id)
	if err != nil {
		if isMissingTable(err) {
			return nil
		}
		return apperrors.PersistenceError("delete_document", err)
	}
	return nil
}

const getDocumentSQL = `
SELECT id, owner_id, filename, content_type, byte_size, content_hash, status, mode,
       started_at, completed_at, error_kind, error_message, dedup_fingerprint,
       retry_count, created_at, updated_at
FROM documents WHERE owner_id = $1 AND id = $2`

func (r *DocumentRepository) GetDocument(ctx context.Context, ownerID, id string) (*models.Document, error) {
	row := r.db.QueryRow(ctx, getDocumentSQL, ownerID, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("document", id)
		}
		if isMissingTable(err) {
			return nil, apperrors.NewNotFoundError("document", id)
		}
		return nil, apperrors.PersistenceError("get_document", err)
	}
	return doc, nil
}

const listDocumentsSQL = `
SELECT id, owner_id, filename, content_type, byte_size, content_hash, status, mode,
       started_at, completed_at, error_kind, error_message, dedup_fingerprint,
       retry_count, created_at, updated_at
FROM documents WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

func (r *DocumentRepository) ListDocuments(ctx context.Context, ownerID string, limit, offset int) ([]*models.Document, error) {
	rows, err := r.db.Query(ctx, listDocumentsSQL, ownerID, limit, offset)
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, apperrors.PersistenceError("list_documents", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, apperrors.PersistenceError("list_documents", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

const findByHashSQL = `
SELECT id, owner_id, filename, content_type, byte_size, content_hash, status, mode,
       started_at, completed_at, error_kind, error_message, dedup_fingerprint,
       retry_count, created_at, updated_at
FROM documents WHERE owner_id = $1 AND content_hash = $2 ORDER BY created_at ASC LIMIT 1`

func (r *DocumentRepository) FindByHash(ctx context.Context, ownerID, fileHash string) (*models.Document, error) {
	row := r.db.QueryRow(ctx, findByHashSQL, ownerID, fileHash)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMissingTable(err) {
			return nil, apperrors.NewNotFoundError("document", fileHash)
		}
		return nil, apperrors.PersistenceError("find_by_hash", err)
	}
	return doc, nil
}

const createFieldSQL = `
INSERT INTO extracted_fields (document_id, field_name, field_value, confidence, data_type, created_at)
SELECT id, $3, $4, $5, $6, now() FROM documents WHERE owner_id = $1 AND id = $2`

func (r *DocumentRepository) CreateFields(ctx context.Context, ownerID, documentID string, fields []models.ExtractedField) error {
	if len(fields) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, f := range fields {
		batch.Queue(createFieldSQL, ownerID, documentID, f.FieldName, f.FieldValue, f.Confidence, f.DataType)
	}
	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for range fields {
		tag, err := br.Exec()
		if err != nil {
			if isMissingTable(err) {
				return nil
			}
			return apperrors.PersistenceError("create_fields", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewNotFoundError("document", documentID)
		}
	}
	return nil
}

const getFieldsSQL = `
SELECT f.id, f.document_id, f.field_name, f.field_value, f.confidence, f.data_type, f.created_at
FROM extracted_fields f JOIN documents d ON d.id = f.document_id
WHERE d.owner_id = $1 AND f.document_id = $2 ORDER BY f.id ASC`

func (r *DocumentRepository) GetFields(ctx context.Context, ownerID, documentID string) ([]models.ExtractedField, error) {
	rows, err := r.db.Query(ctx, getFieldsSQL, ownerID, documentID)
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, apperrors.PersistenceError("get_fields", err)
	}
	defer rows.Close()

	var out []models.ExtractedField
	for rows.Next() {
		var f models.ExtractedField
		if err := rows.Scan(&f.ID, &f.DocumentID, &f.FieldName, &f.FieldValue, &f.Confidence, &f.DataType, &f.CreatedAt); err != nil {
			return nil, apperrors.PersistenceError("get_fields", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

const findIDsByFingerprintSQL = `
SELECT id FROM documents WHERE owner_id = $1 AND dedup_fingerprint = $2 ORDER BY created_at DESC`

func (r *DocumentRepository) FindDocumentIDsByFingerprint(ctx context.Context, ownerID, fingerprint string) ([]string, error) {
	rows, err := r.db.Query(ctx, findIDsByFingerprintSQL, ownerID, fingerprint)
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, apperrors.PersistenceError("find_document_ids_by_fingerprint", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.PersistenceError("find_document_ids_by_fingerprint", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const findCandidatesByInvoiceNumberSQL = `
SELECT d.id,
       COALESCE(MAX(CASE WHEN ef.field_name = 'vendor.name' THEN ef.field_value END), '') AS vendor_name,
       COALESCE(MAX(CASE WHEN ef.field_name = 'total_amount.value' THEN ef.field_value END), '') AS total_amount,
       COALESCE(MAX(CASE WHEN ef.field_name = 'date_issued' THEN ef.field_value END), '') AS date_issued
FROM documents d
JOIN extracted_fields ef ON ef.document_id = d.id
WHERE d.owner_id = $1
  AND d.id IN (
      SELECT document_id FROM extracted_fields
      WHERE field_name = 'invoice_number' AND field_value = $2
  )
GROUP BY d.id`

func (r *DocumentRepository) FindCandidatesByInvoiceNumber(ctx context.Context, ownerID, invoiceNumber string) ([]dedup.DocumentSummary, error) {
	rows, err := r.db.Query(ctx, findCandidatesByInvoiceNumberSQL, ownerID, invoiceNumber)
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, apperrors.PersistenceError("find_candidates_by_invoice_number", err)
	}
	defer rows.Close()

	var out []dedup.DocumentSummary
	for rows.Next() {
		var s dedup.DocumentSummary
		if err := rows.Scan(&s.DocumentID, &s.VendorName, &s.TotalAmount, &s.DateIssued); err != nil {
			return nil, apperrors.PersistenceError("find_candidates_by_invoice_number", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const countDocumentsSQL = `SELECT count(*) FROM documents WHERE owner_id = $1`

func (r *DocumentRepository) CountDocuments(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countDocumentsSQL, ownerID).Scan(&n); err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, apperrors.PersistenceError("count_documents", err)
	}
	return n, nil
}

const countFingerprintGroupsSQL = `
SELECT count(*) FROM (
	SELECT dedup_fingerprint FROM documents
	WHERE owner_id = $1 AND dedup_fingerprint != ''
	GROUP BY dedup_fingerprint HAVING count(*) > 1
) grouped`

func (r *DocumentRepository) CountFingerprintGroups(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countFingerprintGroupsSQL, ownerID).Scan(&n); err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, apperrors.PersistenceError("count_fingerprint_groups", err)
	}
	return n, nil
}

// rowScanner abstracts pgx.Row/pgx.Rows for scanDocument.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID, &doc.OwnerID, &doc.Filename, &doc.ContentType, &doc.ByteSize, &doc.ContentHash,
		&doc.Status, &doc.Mode, &doc.StartedAt, &doc.CompletedAt, &doc.ErrorKind, &doc.ErrorMessage,
		&doc.DedupFingerprint, &doc.RetryCount, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// isMissingTable treats an undefined_table error (SQLSTATE 42P01) as an
// empty result rather than a failure, per spec.md §4.10 ("a missing
// backing table is treated as an empty result, not an error, to allow
// gradual schema rollout").
func isMissingTable(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "42P01"
	}
	return false
}

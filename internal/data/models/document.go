// internal/data/models/document.go
package models

import "time"

// Document is the persisted row backing entities.Document, scoped by
// OwnerID per spec.md §4.10.
type Document struct {
	ID               string
	OwnerID          string
	Filename         string
	ContentType      string
	ByteSize         int64
	ContentHash      string
	Status           string
	Mode             string
	StartedAt        *time.Time
	CompletedAt      *time.Time
	ErrorKind        string
	ErrorMessage     string
	DedupFingerprint string
	RetryCount       int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ExtractedField is the persisted row backing
// entities.ExtractedField.
type ExtractedField struct {
	ID         int64
	DocumentID string
	FieldName  string
	FieldValue string
	Confidence float64
	DataType   string
	CreatedAt  time.Time
}

// DocumentPatch carries the partial update update_document applies;
// nil pointer fields are left untouched (spec.md §4.10
// "update_document(owner, id, patch)").
type DocumentPatch struct {
	Status           *string
	ErrorKind        *string
	ErrorMessage     *string
	StartedAt        *time.Time
	CompletedAt      *time.Time
	DedupFingerprint *string
	RetryIncrement   bool
}

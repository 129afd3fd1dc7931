// Package entities holds the pipeline's persistent and in-memory data
// model (spec.md §3): Document, RawOCRResult, StructuredRecord,
// ExtractedField, DedupFingerprint, Job, RegistryRecord.
package entities

import "time"

// BaseEntity carries the fields common to every owned, persisted
// entity: a stable id and creation/update timestamps.
type BaseEntity struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch stamps UpdatedAt with now, mirroring the Persistence Gateway's
// "every write includes updated_at = now" rule (spec.md §4.10).
func (b *BaseEntity) Touch(now time.Time) {
	b.UpdatedAt = now
}

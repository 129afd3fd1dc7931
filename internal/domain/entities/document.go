package entities

import "time"

// DocumentStatus is the Document state-machine value (spec.md §4.8):
// queued -> processing -> (completed | failed | cancelled).
type DocumentStatus string

const (
	DocumentQueued     DocumentStatus = "queued"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
	DocumentCancelled  DocumentStatus = "cancelled"
)

// ProcessingMode selects the cost/accuracy/speed trade-off used by the
// OCR and LLM Orchestrators (spec.md §4.4, §4.5).
type ProcessingMode string

const (
	ModeAccuracyFirst ProcessingMode = "accuracy_first"
	ModeCostEffective ProcessingMode = "cost_effective"
	ModeSpeedFirst    ProcessingMode = "speed_first"
)

// Document is the top-level record for one submitted artifact.
type Document struct {
	BaseEntity

	OwnerID      string
	Filename     string
	ContentType  string
	ByteSize     int64
	ContentHash  string // sha-256 of the raw bytes, used for byte-identical dedup
	Status       DocumentStatus
	Mode         ProcessingMode
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorKind    string
	ErrorMessage string

	// DedupFingerprint is set once a StructuredRecord has been produced;
	// empty until then.
	DedupFingerprint string
}

// CanTransitionTo reports whether the state machine in spec.md §4.8
// permits moving from d.Status to next.
func (d *Document) CanTransitionTo(next DocumentStatus) bool {
	if next == DocumentCancelled {
		return d.Status == DocumentQueued || d.Status == DocumentProcessing
	}
	switch d.Status {
	case DocumentQueued:
		return next == DocumentProcessing
	case DocumentProcessing:
		return next == DocumentCompleted || next == DocumentFailed
	default:
		return false
	}
}

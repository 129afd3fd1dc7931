package entities

import "time"

// SubmitOptions carries the caller-chosen knobs for one submission
// (spec.md §6 inbound contract "submit(... options)").
type SubmitOptions struct {
	Mode           ProcessingMode `json:"mode,omitempty" validate:"omitempty,oneof=accuracy_first cost_effective speed_first"`
	LanguageHint   string         `json:"language_hint,omitempty"`
	CostCeilingUSD float64        `json:"cost_ceiling_usd,omitempty"`
}

// Job is the Async Job Manager's unit of work (spec.md §3, §4.9).
type Job struct {
	BaseEntity

	DocumentID  string
	OwnerID     string
	Options     SubmitOptions
	Status      DocumentStatus
	Progress    int // 0-100, monotonic per spec.md §4.8
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int

	// cancelRequested is observed cooperatively by the worker at each
	// stage boundary (spec.md §5 cancellation semantics).
	cancelRequested bool
}

// RequestCancel marks the job for cooperative cancellation. It is a
// no-op, returning false, once the job has reached a terminal status
// (spec.md §5 "Cancellation of a completed or failed job is a no-op").
func (j *Job) RequestCancel() bool {
	if j.Status == DocumentCompleted || j.Status == DocumentFailed || j.Status == DocumentCancelled {
		return false
	}
	j.cancelRequested = true
	return true
}

// CancelRequested reports whether RequestCancel has been called.
func (j *Job) CancelRequested() bool {
	return j.cancelRequested
}

// Progress milestones, strictly monotonic within a single Document
// (spec.md §4.8). spec.md's prose lists Classifier ahead of the OCR
// Orchestrator, but §4.3 classifies over raw_text, which only exists
// once OCR has produced it; the Coordinator therefore runs OCR before
// classification, and the milestone values below follow that actual
// completion order rather than the prose listing order.
const (
	ProgressStart          = 10
	ProgressOCRComplete    = 20
	ProgressClassified     = 50
	ProgressLLMComplete    = 80
	ProgressEnrichComplete = 95
	ProgressDone           = 100
)

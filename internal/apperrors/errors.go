// Package apperrors defines the stable error-kind taxonomy shared by every
// stage of the document pipeline (spec.md §7). Each Kind maps to exactly
// one PipelineError constructor so callers can branch on Kind() without
// string-matching messages, and the status endpoint collaborator (out of
// scope here) can surface Kind()+Message() without leaking internals.
package apperrors

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Kind is a stable error-kind identifier (spec.md §7).
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindUnsupportedMedia  Kind = "unsupported_media"
	KindOCRAllFailed      Kind = "ocr_all_failed"
	KindLLMParseFailed    Kind = "llm_parse_failed"
	KindLLMCostCeiling    Kind = "llm_cost_ceiling"
	KindRegistryUnavail   Kind = "registry_unavailable"
	KindRegistryNotFound  Kind = "registry_not_found"
	KindTimeout           Kind = "timeout"
	KindCancelled         Kind = "cancelled"
	KindTransientNetwork  Kind = "transient_network"
	KindProviderAuth      Kind = "provider_auth"
	KindPersistenceError  Kind = "persistence_error"
	KindInternal          Kind = "internal"
	KindRateLimit         Kind = "rate_limit"  // OCR/LLM adapter-specific
	KindProviderError     Kind = "provider_error"
)

// PipelineError is the single error type used across the pipeline. Its
// Kind is the stable identifier from spec.md §7; Unwrap exposes the
// underlying cause for errors.Is/As chains.
type PipelineError struct {
	kind    Kind
	message string
	cause   error
	logger  *zap.Logger
}

// New creates a PipelineError of the given kind with a human-readable
// message and an optional wrapped cause.
func New(kind Kind, message string, cause error) *PipelineError {
	return &PipelineError{kind: kind, message: message, cause: cause}
}

func (e *PipelineError) Error() string {
	if e.logger != nil {
		e.logger.Debug("pipeline error", zap.String("kind", string(e.kind)), zap.String("message", e.message))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *PipelineError) Unwrap() error { return e.cause }

// Kind returns the stable error-kind identifier.
func (e *PipelineError) Kind() Kind { return e.kind }

// Message returns the short human-readable message, safe to surface to
// a status endpoint collaborator; internal stack details never appear
// here (spec.md §7 "internal stack details are never exposed").
func (e *PipelineError) Message() string { return e.message }

// SetLogger attaches a logger for deferred debug logging on Error().
func (e *PipelineError) SetLogger(logger *zap.Logger) { e.logger = logger }

// Is supports errors.Is comparisons against a sentinel PipelineError
// carrying only a Kind (see the Kind-only sentinels below).
func (e *PipelineError) Is(target error) bool {
	var other *PipelineError
	if errors.As(target, &other) {
		return other.kind == e.kind
	}
	return false
}

// KindOf extracts the stable Kind from err if it is (or wraps) a
// PipelineError, defaulting to KindInternal otherwise.
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.kind
	}
	return KindInternal
}

// IsKind reports whether err is (or wraps) a PipelineError of kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// Convenience constructors, one per stable kind, mirroring the spec's
// enumeration in §7.

func InvalidInput(message string) *PipelineError {
	return New(KindInvalidInput, message, nil)
}

func UnsupportedMedia(mediaType string) *PipelineError {
	return New(KindUnsupportedMedia, fmt.Sprintf("unsupported media type %q", mediaType), nil)
}

func OCRAllFailed(cause error) *PipelineError {
	return New(KindOCRAllFailed, "all OCR adapters failed to produce a usable result", cause)
}

func LLMParseFailed(cause error) *PipelineError {
	return New(KindLLMParseFailed, "LLM response could not be parsed as the target schema", cause)
}

func LLMCostCeiling(ownerID string) *PipelineError {
	return New(KindLLMCostCeiling, fmt.Sprintf("cost ceiling reached for owner %s", ownerID), nil)
}

func RegistryUnavailable(cause error) *PipelineError {
	return New(KindRegistryUnavail, "registry endpoint unavailable after retries", cause)
}

func RegistryNotFound(registrationID string) *PipelineError {
	return New(KindRegistryNotFound, fmt.Sprintf("no registry record for %s", registrationID), nil)
}

func Timeout(stage string) *PipelineError {
	return New(KindTimeout, fmt.Sprintf("%s exceeded its deadline", stage), nil)
}

func Cancelled(jobID string) *PipelineError {
	return New(KindCancelled, fmt.Sprintf("job %s was cancelled", jobID), nil)
}

func TransientNetwork(cause error) *PipelineError {
	return New(KindTransientNetwork, "transient network error", cause)
}

func ProviderAuth(providerID string) *PipelineError {
	return New(KindProviderAuth, fmt.Sprintf("authentication failed for provider %s", providerID), nil)
}

func PersistenceError(operation string, cause error) *PipelineError {
	return New(KindPersistenceError, fmt.Sprintf("persistence operation %q failed", operation), cause)
}

func Internal(message string, cause error) *PipelineError {
	return New(KindInternal, message, cause)
}

func RateLimited(providerID string) *PipelineError {
	return New(KindRateLimit, fmt.Sprintf("rate limited by provider %s", providerID), nil)
}

func ProviderError(providerID string, cause error) *PipelineError {
	return New(KindProviderError, fmt.Sprintf("provider %s returned an error", providerID), cause)
}

// NotFoundError is a lighter-weight sentinel for repository lookups that
// are not pipeline-stage failures (e.g. "no document with that id"),
// kept distinct from PipelineError so repositories don't have to pick a
// pipeline Kind for a plain "row absent" result.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_PipelineError(t *testing.T) {
	err := OCRAllFailed(errors.New("tesseract exited 1"))
	require.Equal(t, KindOCRAllFailed, KindOf(err))
}

func TestKindOf_WrappedPipelineError(t *testing.T) {
	err := fmt.Errorf("stage failed: %w", LLMParseFailed(nil))
	require.Equal(t, KindLLMParseFailed, KindOf(err))
}

func TestKindOf_NonPipelineErrorDefaultsInternal(t *testing.T) {
	require.Equal(t, KindInternal, KindOf(errors.New("plain error")))
}

func TestIsKind(t *testing.T) {
	err := Cancelled("job-1")
	assert.True(t, IsKind(err, KindCancelled))
	assert.False(t, IsKind(err, KindTimeout))
}

func TestPipelineError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := TransientNetwork(cause)
	require.ErrorIs(t, err, err)
	require.Equal(t, cause, errors.Unwrap(err))
}

func TestPipelineError_Error_WithAndWithoutCause(t *testing.T) {
	withCause := RegistryUnavailable(errors.New("timeout"))
	assert.Contains(t, withCause.Error(), "registry_unavailable")
	assert.Contains(t, withCause.Error(), "timeout")

	withoutCause := InvalidInput("missing filename")
	assert.Contains(t, withoutCause.Error(), "invalid_input")
	assert.Contains(t, withoutCause.Error(), "missing filename")
}

func TestPipelineError_Is_MatchesSameKindOnly(t *testing.T) {
	a := ProviderAuth("google_vision")
	b := ProviderAuth("gemini")
	c := Timeout("ocr")

	assert.True(t, errors.Is(a, b), "Is compares Kind, not message/provider")
	assert.False(t, errors.Is(a, c))
}

func TestMessage_NeverLeaksCause(t *testing.T) {
	err := PersistenceError("update_document", errors.New("pq: column \"secret_internal_token\" does not exist"))
	assert.Equal(t, `persistence operation "update_document" failed`, err.Message())
	assert.NotContains(t, err.Message(), "secret_internal_token")
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("document", "doc-123")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "document doc-123 not found", err.Error())
}

func TestIsNotFound_FalseForOtherErrors(t *testing.T) {
	assert.False(t, IsNotFound(errors.New("something else")))
	assert.False(t, IsNotFound(OCRAllFailed(nil)))
}

func TestIsNotFound_WrappedStillDetected(t *testing.T) {
	wrapped := fmt.Errorf("lookup failed: %w", NewNotFoundError("job", "job-1"))
	assert.True(t, IsNotFound(wrapped))
}

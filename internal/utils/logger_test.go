package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithJobID_GetJobID_RoundTrip(t *testing.T) {
	ctx := WithJobID(context.Background(), "job-123")
	assert.Equal(t, "job-123", GetJobID(ctx))
}

func TestGetJobID_UntaggedContextReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", GetJobID(context.Background()))
}

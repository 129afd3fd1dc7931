package rasterize

import (
	"testing"

	"github.com/askelio/docpipeline/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRasterize_MalformedBytesReturnsUnsupportedMedia(t *testing.T) {
	_, err := Rasterize([]byte("not a pdf at all"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnsupportedMedia))
}

func TestRasterize_EmptyInputReturnsUnsupportedMedia(t *testing.T) {
	_, err := Rasterize(nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnsupportedMedia))
}

// Package mediakind classifies an uploaded document's content type
// before it reaches the OCR Orchestrator, rejecting media this domain
// never processes. Adapted from the teacher's DICOM-vs-image dispatch
// branch in its document-processing service, narrowed to a single
// guard function now that DICOM parsing itself is out of scope.
package mediakind

import (
	"strings"

	"github.com/askelio/docpipeline/internal/apperrors"
)

// supportedMediaTypes mirrors security.ValidateFileType's allowlist;
// duplicated here rather than imported to keep mediakind a standalone,
// dependency-free guard the OCR Orchestrator can call without pulling
// in the full validation package.
var supportedMediaTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":       true,
	"image/png":        true,
	"image/tiff":       true,
}

// Guard returns nil if contentType is a media kind this pipeline
// processes, or apperrors.UnsupportedMedia otherwise. DICOM
// (application/dicom) is explicitly called out rather than falling
// through the generic branch, matching the teacher's own explicit
// DICOM check.
func Guard(contentType string) error {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if normalized == "application/dicom" {
		return apperrors.UnsupportedMedia("application/dicom (medical imaging is out of scope)")
	}
	if !supportedMediaTypes[normalized] {
		return apperrors.UnsupportedMedia(contentType)
	}
	return nil
}

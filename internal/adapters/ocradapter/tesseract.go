// internal/adapters/ocradapter/tesseract.go
package ocradapter

import (
	"context"
	"time"

	"github.com/askelio/docpipeline/internal/domain/entities"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// TesseractAdapter implements Adapter against a local Tesseract OCR
// install via gosseract bindings. It is the cheap/offline counterpart
// to GoogleVisionAdapter in the capability table (cost_effective mode
// prefers it when its language coverage matches).
type TesseractAdapter struct {
	logger    *zap.Logger
	languages string // gosseract language codes, e.g. "eng+ces"
}

const TesseractAdapterID = "tesseract"

// NewTesseractAdapter creates a TesseractAdapter. languages follows
// Tesseract's "+"-joined language-code convention.
func NewTesseractAdapter(languages string, logger *zap.Logger) *TesseractAdapter {
	if languages == "" {
		languages = "eng"
	}
	return &TesseractAdapter{logger: logger.Named("ocr.tesseract"), languages: languages}
}

func (a *TesseractAdapter) ID() string { return TesseractAdapterID }

func (a *TesseractAdapter) SupportsMedia(mediaType string) bool {
	switch mediaType {
	case "image/jpeg", "image/png", "image/tiff":
		return true
	default:
		return false
	}
}

func (a *TesseractAdapter) SupportsLanguage(languageHint string) bool {
	switch languageHint {
	case "", "en", "local":
		return true
	default:
		return false
	}
}

// Extract implements Adapter. gosseract's Client is not safe for
// concurrent Recognize calls on the same instance, so a fresh client
// is created per call; this trades a small per-call setup cost for
// safety under the OCR Orchestrator's parallel accuracy_first fan-out.
func (a *TesseractAdapter) Extract(ctx context.Context, contentBytes []byte, mediaType string, hints Hints) entities.RawOCRResult {
	start := time.Now()
	result := entities.RawOCRResult{ProviderID: a.ID()}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(a.languageFor(hints)); err != nil {
		result.Success = false
		result.ErrorKind = "internal"
		result.ErrorMessage = err.Error()
		return result
	}
	if err := client.SetImageFromBytes(contentBytes); err != nil {
		result.Success = false
		result.ErrorKind = "unsupported_media"
		result.ErrorMessage = err.Error()
		return result
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := client.Text()
		done <- outcome{text, err}
	}()

	select {
	case <-ctx.Done():
		result.ProcessingTime = time.Since(start)
		result.Success = false
		result.ErrorKind = "timeout"
		result.ErrorMessage = ctx.Err().Error()
		return result
	case o := <-done:
		result.ProcessingTime = time.Since(start)
		if o.err != nil {
			result.Success = false
			result.ErrorKind = "provider_error"
			result.ErrorMessage = o.err.Error()
			return result
		}
		result.Text = o.text
		result.Success = o.text != ""
		// gosseract does not surface a per-call confidence without the
		// heavier bounding-box API; a fixed conservative baseline keeps
		// it comparable under the OCR Orchestrator's combination rule.
		result.Confidence = 0.75
		if !result.Success {
			result.ErrorKind = "provider_error"
			result.ErrorMessage = "empty text extracted"
		}
		return result
	}
}

func (a *TesseractAdapter) languageFor(hints Hints) string {
	switch hints.LanguageHint {
	case "local":
		return "ces"
	case "en":
		return "eng"
	default:
		return a.languages
	}
}

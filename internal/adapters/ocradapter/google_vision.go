// internal/adapters/ocradapter/google_vision.go
package ocradapter

import (
	"context"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	"github.com/askelio/docpipeline/internal/domain/entities"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	visionpb "google.golang.org/genproto/googleapis/cloud/vision/v1"
)

// GoogleVisionAdapter implements Adapter using the Google Cloud Vision
// API's document-text-detection feature. Adapted from the teacher's
// single-engine OCR service (request construction, symbol-confidence
// averaging) but returns entities.RawOCRResult per the adapter contract.
type GoogleVisionAdapter struct {
	logger *zap.Logger
	client *vision.ImageAnnotatorClient
}

const GoogleVisionAdapterID = "google_vision"

// NewGoogleVisionAdapter creates a GoogleVisionAdapter authenticated
// with apiKey. Returns an error only on client construction failure;
// callers should treat a missing apiKey as "do not construct this
// adapter" per spec.md §4.1 ("an uninitialized adapter is absent").
func NewGoogleVisionAdapter(ctx context.Context, apiKey string, logger *zap.Logger) (*GoogleVisionAdapter, error) {
	client, err := vision.NewImageAnnotatorClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GoogleVisionAdapter{
		logger: logger.Named("ocr.google_vision"),
		client: client,
	}, nil
}

func (a *GoogleVisionAdapter) ID() string { return GoogleVisionAdapterID }

func (a *GoogleVisionAdapter) SupportsMedia(mediaType string) bool {
	switch mediaType {
	case "image/jpeg", "image/png", "image/tiff":
		return true
	default:
		return false
	}
}

func (a *GoogleVisionAdapter) SupportsLanguage(languageHint string) bool {
	return true // Vision's document-text-detection auto-detects script/language
}

// Extract implements Adapter.
func (a *GoogleVisionAdapter) Extract(ctx context.Context, contentBytes []byte, mediaType string, hints Hints) entities.RawOCRResult {
	start := time.Now()
	result := entities.RawOCRResult{ProviderID: a.ID()}

	image := &visionpb.Image{Content: contentBytes}
	request := &visionpb.AnnotateImageRequest{
		Image: image,
		Features: []*visionpb.Feature{{
			Type:       visionpb.Feature_DOCUMENT_TEXT_DETECTION,
			MaxResults: 1,
		}},
	}
	batchRequest := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{request},
	}

	resp, err := a.client.BatchAnnotateImages(ctx, batchRequest)
	result.ProcessingTime = time.Since(start)
	if err != nil {
		a.logger.Warn("vision API call failed", zap.Error(err))
		result.Success = false
		result.ErrorKind = classifyVisionError(err)
		result.ErrorMessage = err.Error()
		return result
	}
	if len(resp.Responses) == 0 {
		result.Success = false
		result.ErrorKind = "provider_error"
		result.ErrorMessage = "empty response from vision API"
		return result
	}
	if apiErr := resp.Responses[0].Error; apiErr != nil {
		result.Success = false
		result.ErrorKind = "provider_error"
		result.ErrorMessage = apiErr.GetMessage()
		return result
	}

	annotation := resp.Responses[0].FullTextAnnotation
	if annotation == nil {
		result.Success = false
		result.ErrorKind = "provider_error"
		result.ErrorMessage = "no text detected"
		return result
	}

	result.Text = annotation.GetText()
	result.Confidence = averageSymbolConfidence(annotation)
	result.Success = result.Text != ""
	if !result.Success {
		result.ErrorKind = "provider_error"
		result.ErrorMessage = "empty text extracted"
	}
	return result
}

func averageSymbolConfidence(annotation *visionpb.TextAnnotation) float64 {
	total := 0.0
	count := 0
	for _, page := range annotation.Pages {
		for _, block := range page.Blocks {
			for _, paragraph := range block.Paragraphs {
				for _, word := range paragraph.Words {
					for _, symbol := range word.Symbols {
						total += float64(symbol.GetConfidence())
						count++
					}
				}
			}
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func classifyVisionError(err error) string {
	// grpc status codes surface embedded in the error string here; a
	// coarse substring classification is enough to satisfy the adapter
	// error taxonomy without importing grpc/status just for this.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "context deadline exceeded"), strings.Contains(msg, "DeadlineExceeded"):
		return "timeout"
	case strings.Contains(msg, "Unauthenticated"), strings.Contains(msg, "PermissionDenied"):
		return "auth"
	case strings.Contains(msg, "ResourceExhausted"):
		return "rate_limit"
	default:
		return "transient_network"
	}
}

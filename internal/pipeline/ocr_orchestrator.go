// internal/pipeline/ocr_orchestrator.go
package pipeline

import (
	"context"
	"sync"

	"github.com/askelio/docpipeline/internal/adapters/ocradapter"
	"github.com/askelio/docpipeline/internal/apperrors"
	"github.com/askelio/docpipeline/internal/domain/entities"
	"github.com/askelio/docpipeline/internal/rasterize"
	"go.uber.org/zap"
)

// highConfidenceThreshold is the result quality above which
// accuracy_first mode cancels its remaining in-flight adapter calls
// (spec.md §4.4).
const highConfidenceThreshold = 0.90

// maxAccuracyFanOut bounds how many adapters accuracy_first dispatches
// to in parallel (spec.md §4.4 "up to N=3 adapters").
const maxAccuracyFanOut = 3

// OCROrchestrator implements the OCR Orchestrator (spec.md §4.4):
// rasterize PDFs ahead of image-only adapters, select adapters per
// mode, combine results, and emit the full per-provider diagnostics
// list alongside the winning result.
type OCROrchestrator struct {
	registry *ocradapter.Registry
	logger   *zap.Logger
}

func NewOCROrchestrator(registry *ocradapter.Registry, logger *zap.Logger) *OCROrchestrator {
	return &OCROrchestrator{registry: registry, logger: logger.Named("pipeline.ocr_orchestrator")}
}

// Outcome is the orchestrator's result: the winning extraction plus
// every provider attempt, for the diagnostics artifact attached to the
// job (spec.md §4.4 step 4).
type Outcome struct {
	Winner      entities.RawOCRResult
	AllResults  []entities.RawOCRResult
	Success     bool
}

// Run executes the full algorithm for one input document.
func (o *OCROrchestrator) Run(ctx context.Context, contentBytes []byte, mediaType string, mode entities.ProcessingMode, hints ocradapter.Hints) (Outcome, error) {
	inputs, err := o.prepareInputs(contentBytes, mediaType)
	if err != nil {
		return Outcome{}, err
	}

	var all []entities.RawOCRResult
	for _, in := range inputs {
		results, err := o.runMode(ctx, in.bytes, in.mediaType, mode, hints)
		if err != nil {
			return Outcome{}, err
		}
		all = append(all, results...)
	}

	winner, ok := combine(all)
	if !ok {
		return Outcome{AllResults: all, Success: false}, apperrors.OCRAllFailed(nil)
	}
	return Outcome{Winner: winner, AllResults: all, Success: true}, nil
}

type preparedInput struct {
	bytes     []byte
	mediaType string
}

// prepareInputs applies spec.md §4.4 step 1: PDF bytes are rasterized
// before image-only adapters see them; PDF-native adapters (none in
// the current registry) would receive the original bytes unchanged.
func (o *OCROrchestrator) prepareInputs(contentBytes []byte, mediaType string) ([]preparedInput, error) {
	if mediaType != "application/pdf" {
		return []preparedInput{{bytes: contentBytes, mediaType: mediaType}}, nil
	}

	result, err := rasterize.Rasterize(contentBytes)
	if err != nil {
		return nil, err
	}
	if result.HasTextLayer {
		// A recovered text layer needs no OCR adapter at all; synthesize
		// a single "input" whose bytes already are the extracted text so
		// the rest of the pipeline treats it uniformly. The OCR
		// Orchestrator's caller checks mediaType == "text/plain" to skip
		// adapter dispatch entirely (see runMode below).
		return []preparedInput{{bytes: []byte(result.Text), mediaType: "text/plain"}}, nil
	}

	inputs := make([]preparedInput, 0, len(result.Pages))
	for _, page := range result.Pages {
		inputs = append(inputs, preparedInput{bytes: page.Bytes, mediaType: page.MediaType})
	}
	return inputs, nil
}

func (o *OCROrchestrator) runMode(ctx context.Context, contentBytes []byte, mediaType string, mode entities.ProcessingMode, hints ocradapter.Hints) ([]entities.RawOCRResult, error) {
	if mediaType == "text/plain" {
		return []entities.RawOCRResult{{
			ProviderID: "pdf_text_layer",
			Text:       string(contentBytes),
			Confidence: 1.0,
			Success:    true,
		}}, nil
	}

	switch mode {
	case entities.ModeCostEffective:
		adapter, ok := o.registry.Cheapest(hints.LanguageHint)
		if !ok {
			return nil, apperrors.OCRAllFailed(nil)
		}
		return []entities.RawOCRResult{adapter.Extract(ctx, contentBytes, mediaType, hints)}, nil

	case entities.ModeSpeedFirst:
		adapter, ok := o.registry.Fastest()
		if !ok {
			return nil, apperrors.OCRAllFailed(nil)
		}
		return []entities.RawOCRResult{adapter.Extract(ctx, contentBytes, mediaType, hints)}, nil

	case entities.ModeAccuracyFirst:
		return o.runAccuracyFirst(ctx, contentBytes, mediaType, hints), nil

	default:
		return nil, apperrors.InvalidInput("unknown processing mode")
	}
}

// runAccuracyFirst fans out to up to maxAccuracyFanOut adapters in
// parallel, sharing one cancellation token, and cancels the stragglers
// as soon as a high-confidence result arrives (spec.md §4.4, §5).
func (o *OCROrchestrator) runAccuracyFirst(ctx context.Context, contentBytes []byte, mediaType string, hints ocradapter.Hints) []entities.RawOCRResult {
	adapters := o.registry.TopN(maxAccuracyFanOut)
	if len(adapters) == 0 {
		return nil
	}

	fanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]entities.RawOCRResult, len(adapters))
	var wg sync.WaitGroup
	var mu sync.Mutex
	highConfidenceSeen := false

	for i, adapter := range adapters {
		wg.Add(1)
		go func(i int, adapter ocradapter.Adapter) {
			defer wg.Done()
			r := adapter.Extract(fanCtx, contentBytes, mediaType, hints)
			mu.Lock()
			results[i] = r
			if r.Success && r.Confidence >= highConfidenceThreshold && !highConfidenceSeen {
				highConfidenceSeen = true
				cancel()
			}
			mu.Unlock()
		}(i, adapter)
	}
	wg.Wait()
	return results
}

// combine implements spec.md §4.4 step 3. Ties broken by ascending
// adapter id (ProviderID), compared in betterScore.
func combine(all []entities.RawOCRResult) (entities.RawOCRResult, bool) {
	var best entities.RawOCRResult
	found := false
	bestHighConf := false

	for _, r := range all {
		if !r.Success {
			continue
		}
		isHighConf := r.Confidence >= highConfidenceThreshold
		if !found {
			best, found, bestHighConf = r, true, isHighConf
			continue
		}
		switch {
		case isHighConf && !bestHighConf:
			best, bestHighConf = r, true
		case isHighConf == bestHighConf:
			if betterScore(r, best, isHighConf) {
				best = r
			}
		}
	}
	return best, found
}

func betterScore(a, b entities.RawOCRResult, highConf bool) bool {
	if highConf {
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.ProviderID < b.ProviderID
	}
	as, bs := a.CombinationScore(), b.CombinationScore()
	if as != bs {
		return as > bs
	}
	return a.ProviderID < b.ProviderID
}

// internal/pipeline/coordinator.go
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/askelio/docpipeline/internal/adapters/ocradapter"
	"github.com/askelio/docpipeline/internal/apperrors"
	"github.com/askelio/docpipeline/internal/classify"
	"github.com/askelio/docpipeline/internal/data/models"
	"github.com/askelio/docpipeline/internal/data/repositories/interfaces"
	"github.com/askelio/docpipeline/internal/dedup"
	"github.com/askelio/docpipeline/internal/domain/entities"
	"github.com/askelio/docpipeline/internal/mediakind"
	"github.com/askelio/docpipeline/internal/security"
	"github.com/askelio/docpipeline/internal/storage"
	"github.com/askelio/docpipeline/internal/utils"
)

// ProgressFunc is the Coordinator's hook into the Async Job Manager's
// progress-callback registration (spec.md §4.8, §4.9). Called at each
// monotonic milestone in entities.Progress*.
type ProgressFunc func(documentID string, percent int)

// Coordinator implements the Pipeline Coordinator (spec.md §4.8): the
// queued -> processing -> (completed | failed | cancelled) state
// machine that drives one document through OCR, classification, LLM
// structuring, enrichment, and duplicate detection, persisting the
// result atomically.
type Coordinator struct {
	fileStorage storage.FileStorage
	ocr         *OCROrchestrator
	llm         *LLMOrchestrator
	enrichment  *EnrichmentStage
	detector    *dedup.Detector
	documents   interfaces.DocumentRepository
	logger      *zap.Logger
}

func NewCoordinator(
	fileStorage storage.FileStorage,
	ocr *OCROrchestrator,
	llm *LLMOrchestrator,
	enrichment *EnrichmentStage,
	detector *dedup.Detector,
	documents interfaces.DocumentRepository,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		fileStorage: fileStorage,
		ocr:         ocr,
		llm:         llm,
		enrichment:  enrichment,
		detector:    detector,
		documents:   documents,
		logger:      logger.Named("pipeline.coordinator"),
	}
}

// CancelChecker is polled at every stage boundary; the Job entity
// satisfies it via CancelRequested (spec.md §5 cooperative
// cancellation).
type CancelChecker interface {
	CancelRequested() bool
}

// Run drives one document through the full pipeline for job. filePath
// is the staged artifact's storage.FileStorage key; options carries
// the caller's mode/language/cost-ceiling choices.
func (c *Coordinator) Run(ctx context.Context, doc *models.Document, filePath string, options entities.SubmitOptions, job CancelChecker, onProgress ProgressFunc) error {
	const operation = "Run"
	logger := c.logger.With(zap.String("operation", operation), zap.String("document_id", doc.ID), zap.String("job_id", utils.GetJobID(ctx)))

	if !transitionStatus(c.documents, ctx, doc, string(entities.DocumentProcessing), logger) {
		return apperrors.Internal("document not in a startable state", nil)
	}
	onProgress(doc.ID, entities.ProgressStart)

	if job.CancelRequested() {
		return c.cancel(ctx, doc, logger)
	}

	contentBytes, mediaType, err := c.readArtifact(ctx, filePath, doc.ContentType)
	if err != nil {
		return c.fail(ctx, doc, apperrors.Internal("reading staged artifact", err), logger)
	}
	// The on-disk copy of the staged artifact is securely wiped when Run
	// returns, whatever the outcome (spec.md §4 "artifact staging",
	// adapted from the teacher's deferred temp-storage cleanup).
	defer func() {
		if delErr := c.fileStorage.Delete(context.WithoutCancel(ctx), filePath); delErr != nil {
			logger.Warn("failed to clean up staged artifact", zap.Error(delErr))
		}
	}()
	if err := mediakind.Guard(mediaType); err != nil {
		return c.fail(ctx, doc, err, logger)
	}

	// OCR stage first so the classifier has raw text to vote over
	// (spec.md §4.3 runs on OCR output, not raw bytes).
	mode := options.Mode
	if mode == "" {
		mode = entities.ModeCostEffective
	}
	hints := ocradapter.Hints{LanguageHint: options.LanguageHint}

	outcome, err := c.ocr.Run(ctx, contentBytes, mediaType, mode, hints)
	if err != nil || !outcome.Success {
		return c.fail(ctx, doc, apperrors.OCRAllFailed(err), logger)
	}
	onProgress(doc.ID, entities.ProgressOCRComplete)

	if job.CancelRequested() {
		return c.cancel(ctx, doc, logger)
	}

	classification := classify.Classify(outcome.Winner.Text, doc.Filename)
	onProgress(doc.ID, entities.ProgressClassified)

	if job.CancelRequested() {
		return c.cancel(ctx, doc, logger)
	}

	record, err := c.llm.Structure(ctx, doc.OwnerID, outcome.Winner.Text, classification, options.CostCeilingUSD)
	if err != nil {
		return c.fail(ctx, doc, err, logger)
	}
	record.DocumentType = classification.DocumentType
	onProgress(doc.ID, entities.ProgressLLMComplete)

	if job.CancelRequested() {
		return c.cancel(ctx, doc, logger)
	}

	// Enrichment failures are non-fatal (spec.md §4.6): the stage
	// records its own notes and never returns an error.
	c.enrichment.Enrich(ctx, &record)
	onProgress(doc.ID, entities.ProgressEnrichComplete)

	fingerprint := dedup.Fingerprint(record)
	dupResult, err := c.detector.Check(ctx, doc.OwnerID, record, doc.ID)
	if err != nil {
		logger.Warn("duplicate check failed, proceeding without it", zap.Error(err))
	} else if dupResult.IsDuplicate {
		for _, m := range dupResult.Matches {
			record.Notes = append(record.Notes, fmt.Sprintf("duplicate candidate: document %s (%s)", m.DocumentID, m.Type))
		}
	}

	if err := c.persistCompletion(ctx, doc, record, fingerprint); err != nil {
		return c.fail(ctx, doc, apperrors.PersistenceError("persist_completion", err), logger)
	}
	onProgress(doc.ID, entities.ProgressDone)

	logger.Info("document processed", zap.Float64("extraction_confidence", record.ExtractionConfidence), zap.Bool("duplicate", dupResult.IsDuplicate))
	return nil
}

// readArtifact loads filePath from storage and sniffs its media type,
// falling back to the caller-declared contentType when sniffing is
// inconclusive.
func (c *Coordinator) readArtifact(ctx context.Context, filePath, contentType string) ([]byte, string, error) {
	rc, err := c.fileStorage.Get(ctx, filePath)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = sniffMediaType(data)
	}
	return data, contentType, nil
}

func sniffMediaType(data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return "application/pdf"
	}
	if bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}) {
		return "image/jpeg"
	}
	if bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}) {
		return "image/png"
	}
	return "application/octet-stream"
}

// persistCompletion writes the Document's completed transition,
// StructuredRecord fields, and dedup fingerprint together so a reader
// never observes a completed document without its extracted fields
// (spec.md §4.10 "atomic status + StructuredRecord + fields write").
func (c *Coordinator) persistCompletion(ctx context.Context, doc *models.Document, record entities.StructuredRecord, fingerprint string) error {
	tx, err := c.documents.BeginTx(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = c.documents.RollbackTx(ctx, tx)
		}
	}()

	now := time.Now()
	status := string(entities.DocumentCompleted)
	patch := models.DocumentPatch{
		Status:           &status,
		CompletedAt:      &now,
		DedupFingerprint: &fingerprint,
	}
	if err := c.documents.UpdateDocument(ctx, doc.OwnerID, doc.ID, patch); err != nil {
		return err
	}

	fields := record.Flatten(doc.ID)
	modelFields := make([]models.ExtractedField, 0, len(fields))
	for _, f := range fields {
		modelFields = append(modelFields, models.ExtractedField{
			DocumentID: f.DocumentID,
			FieldName:  f.FieldName,
			FieldValue: f.FieldValue,
			Confidence: f.Confidence,
			DataType:   f.DataType,
		})
	}
	if err := c.documents.CreateFields(ctx, doc.OwnerID, doc.ID, modelFields); err != nil {
		return err
	}

	if err := c.documents.CommitTx(ctx, tx); err != nil {
		return err
	}
	committed = true
	doc.Status = string(entities.DocumentCompleted)
	doc.CompletedAt = &now
	doc.DedupFingerprint = fingerprint
	return nil
}

// fail records the failure on the document (retry-counter increment
// included, spec.md §4.9's "resume from last successful stage" is the
// Job Manager's concern on resubmission, not the Coordinator's) and
// returns the original error to the caller.
func (c *Coordinator) fail(ctx context.Context, doc *models.Document, cause error, logger *zap.Logger) error {
	logger.Error("document processing failed", zap.Error(cause))
	now := time.Now()
	status := string(entities.DocumentFailed)
	kind, message := describeError(cause)
	patch := models.DocumentPatch{
		Status:         &status,
		ErrorKind:      &kind,
		ErrorMessage:   &message,
		CompletedAt:    &now,
		RetryIncrement: true,
	}
	if err := c.documents.UpdateDocument(ctx, doc.OwnerID, doc.ID, patch); err != nil {
		logger.Error("failed to persist failure state", zap.Error(err))
	}
	doc.Status = string(entities.DocumentFailed)
	return cause
}

// cancel records the cancellation and returns apperrors.Cancelled so
// the Job Manager can short-circuit any further stage transitions.
func (c *Coordinator) cancel(ctx context.Context, doc *models.Document, logger *zap.Logger) error {
	logger.Info("document processing cancelled")
	now := time.Now()
	status := string(entities.DocumentCancelled)
	patch := models.DocumentPatch{Status: &status, CompletedAt: &now}
	if err := c.documents.UpdateDocument(ctx, doc.OwnerID, doc.ID, patch); err != nil {
		logger.Error("failed to persist cancellation state", zap.Error(err))
	}
	doc.Status = string(entities.DocumentCancelled)
	return apperrors.Cancelled(doc.ID)
}

// describeError extracts the persisted error kind/message, scrubbing the
// message for the PII patterns that can leak through an OCR/LLM error
// wrapping raw document text (spec.md §4.7's dedup data and §4.5's LLM
// responses both quote source text on failure).
func describeError(err error) (kind string, message string) {
	return string(apperrors.KindOf(err)), security.ScrubPII(err.Error())
}

// transitionStatus moves doc to next if the state machine allows it,
// persisting the transition; returns false (without persisting) on an
// illegal transition.
func transitionStatus(repo interfaces.DocumentRepository, ctx context.Context, doc *models.Document, next string, logger *zap.Logger) bool {
	current := &entities.Document{Status: entities.DocumentStatus(doc.Status)}
	if !current.CanTransitionTo(entities.DocumentStatus(next)) {
		logger.Warn("illegal status transition", zap.String("from", doc.Status), zap.String("to", next))
		return false
	}
	now := time.Now()
	patch := models.DocumentPatch{Status: &next, StartedAt: &now}
	if err := repo.UpdateDocument(ctx, doc.OwnerID, doc.ID, patch); err != nil {
		logger.Error("failed to persist status transition", zap.Error(err))
		return false
	}
	doc.Status = next
	doc.StartedAt = &now
	return true
}

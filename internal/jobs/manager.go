// internal/jobs/manager.go
package jobs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/askelio/docpipeline/internal/apperrors"
	"github.com/askelio/docpipeline/internal/data/models"
	"github.com/askelio/docpipeline/internal/data/repositories/interfaces"
	"github.com/askelio/docpipeline/internal/domain/entities"
	"github.com/askelio/docpipeline/internal/pipeline"
	"github.com/askelio/docpipeline/internal/security"
	"github.com/askelio/docpipeline/internal/utils"
)

// DefaultWorkerCount is the bounded worker-pool size the spec defaults
// to (spec.md §4.9).
const DefaultWorkerCount = 5

// DefaultRetention is how long a terminal job's in-memory record is
// kept before eviction (spec.md §4.9 "retention eviction, default
// 24h, memory only — the Document row itself is unaffected").
const DefaultRetention = 24 * time.Hour

const evictionSweepInterval = 10 * time.Minute

// ProgressCallback is invoked on every progress milestone a job
// reaches. A panicking callback is recovered and logged; it never
// brings down the worker (spec.md §4.9 "callback exceptions are
// logged and swallowed").
type ProgressCallback func(jobID string, percent int)

// submission is one unit of work queued for a worker.
type submission struct {
	job      *entities.Job
	doc      *models.Document
	filePath string
}

// Manager is the Async Job Manager (spec.md §4.9): a bounded worker
// pool draining a FIFO queue, cooperative per-job cancellation,
// progress-callback fan-out, and retention-based eviction of
// in-memory job records.
type Manager struct {
	workerCount int
	retention   time.Duration

	queue chan submission

	coordinator *pipeline.Coordinator
	documents   interfaces.DocumentRepository
	logger      *zap.Logger

	mu        sync.RWMutex
	jobs      map[string]*entities.Job
	callbacks map[string][]ProgressCallback

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewManager creates a Manager. workerCount <= 0 defaults to
// DefaultWorkerCount; retention <= 0 defaults to DefaultRetention.
func NewManager(coordinator *pipeline.Coordinator, documents interfaces.DocumentRepository, workerCount int, retention time.Duration, logger *zap.Logger) *Manager {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Manager{
		workerCount: workerCount,
		retention:   retention,
		queue:       make(chan submission, workerCount*4),
		coordinator: coordinator,
		documents:   documents,
		logger:      logger.Named("jobs.manager"),
		jobs:        make(map[string]*entities.Job),
		callbacks:   make(map[string][]ProgressCallback),
	}
}

// Start launches the worker pool and the retention sweeper. ctx
// governs the whole pool's lifetime; cancelling it stops every
// in-flight job cooperatively.
func (m *Manager) Start(ctx context.Context) {
	poolCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		go m.worker(poolCtx, i)
	}
	m.wg.Add(1)
	go m.evictionLoop(poolCtx)
}

// Stop cancels the pool context (in-flight jobs stop at their next
// stage boundary), closes the queue, and blocks until every worker has
// exited.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	close(m.queue)
	m.wg.Wait()
}

// DeriveJobID computes a deterministic job id from the document's
// content hash and the submission day, so a retried submission for
// byte-identical content on the same day always maps to the same job
// id instead of enqueuing a duplicate (spec.md §4.9 "idempotent
// submission retries").
func DeriveJobID(contentHash string, submittedAt time.Time) string {
	h := sha256.New()
	h.Write([]byte(contentHash))
	h.Write([]byte(submittedAt.UTC().Format("2006-01-02")))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Submit enqueues doc for processing under options, returning the Job
// record tracking it. If a job with the same derived id is already
// tracked and not yet terminal, Submit returns the existing job
// instead of creating a second one.
func (m *Manager) Submit(ctx context.Context, doc *models.Document, filePath string, options entities.SubmitOptions) (*entities.Job, error) {
	if err := security.ValidateStruct(options); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	now := time.Now()
	jobID := DeriveJobID(doc.ContentHash, now)

	m.mu.Lock()
	if existing, ok := m.jobs[jobID]; ok && !isTerminal(existing.Status) {
		m.mu.Unlock()
		return existing, nil
	}
	job := &entities.Job{
		BaseEntity: entities.BaseEntity{ID: jobID, CreatedAt: now, UpdatedAt: now},
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
		Options:    options,
		Status:     entities.DocumentQueued,
	}
	m.jobs[jobID] = job
	m.mu.Unlock()

	select {
	case m.queue <- submission{job: job, doc: doc, filePath: filePath}:
		return job, nil
	case <-ctx.Done():
		return nil, apperrors.Cancelled(jobID)
	}
}

// Get returns the tracked job, if still in memory (spec.md §4.9:
// evicted jobs are gone from this lookup, not from the underlying
// Document row).
func (m *Manager) Get(jobID string) (*entities.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[jobID]
	return j, ok
}

// RequestCancel marks jobID for cooperative cancellation, returning
// false if the job is unknown or already terminal.
func (m *Manager) RequestCancel(jobID string) bool {
	m.mu.RLock()
	job, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return job.RequestCancel()
}

// OnProgress registers fn to be called at every progress milestone
// jobID reaches.
func (m *Manager) OnProgress(jobID string, fn ProgressCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[jobID] = append(m.callbacks[jobID], fn)
}

func (m *Manager) worker(ctx context.Context, id int) {
	defer m.wg.Done()
	logger := m.logger.With(zap.Int("worker_id", id))

	for {
		select {
		case s, ok := <-m.queue:
			if !ok {
				return
			}
			m.process(ctx, s, logger)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) process(ctx context.Context, s submission, logger *zap.Logger) {
	jobCtx := utils.WithJobID(ctx, s.job.ID)
	now := time.Now()
	s.job.StartedAt = &now
	s.job.Status = entities.DocumentProcessing

	err := m.coordinator.Run(jobCtx, s.doc, s.filePath, s.job.Options, s.job, func(documentID string, percent int) {
		s.job.Progress = percent
		m.dispatchProgress(s.job.ID, percent, logger)
	})

	completed := time.Now()
	s.job.CompletedAt = &completed
	switch {
	case err == nil:
		s.job.Status = entities.DocumentCompleted
		s.job.Progress = entities.ProgressDone
	case apperrors.IsKind(err, apperrors.KindCancelled):
		s.job.Status = entities.DocumentCancelled
	default:
		s.job.Status = entities.DocumentFailed
		s.job.RetryCount++
		logger.Warn("job failed", zap.String("job_id", s.job.ID), zap.Error(err))
	}
}

func (m *Manager) dispatchProgress(jobID string, percent int, logger *zap.Logger) {
	m.mu.RLock()
	callbacks := append([]ProgressCallback(nil), m.callbacks[jobID]...)
	m.mu.RUnlock()

	for _, cb := range callbacks {
		m.safeInvoke(cb, jobID, percent, logger)
	}
}

func (m *Manager) safeInvoke(cb ProgressCallback, jobID string, percent int, logger *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("progress callback panicked", zap.String("job_id", jobID), zap.Any("recovered", r))
		}
	}()
	cb(jobID, percent)
}

func (m *Manager) evictionLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(evictionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.evictExpired()
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) evictExpired() {
	cutoff := time.Now().Add(-m.retention)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, job := range m.jobs {
		if isTerminal(job.Status) && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			delete(m.callbacks, id)
		}
	}
}

func isTerminal(status entities.DocumentStatus) bool {
	return status == entities.DocumentCompleted || status == entities.DocumentFailed || status == entities.DocumentCancelled
}

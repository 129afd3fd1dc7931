package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/askelio/docpipeline/internal/data/models"
	"github.com/askelio/docpipeline/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	// The worker pool and eviction loop are never started in these
	// tests: Submit/Get/RequestCancel/evictExpired are exercised
	// directly against the in-memory bookkeeping, without a real
	// Coordinator driving the pipeline.
	return NewManager(nil, nil, 2, time.Hour, zap.NewNop())
}

func TestDeriveJobID_Deterministic(t *testing.T) {
	at := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	id1 := DeriveJobID("abc123", at)
	id2 := DeriveJobID("abc123", at.Add(3*time.Hour))
	assert.Equal(t, id1, id2, "same content hash + same UTC day must derive the same job id")
}

func TestDeriveJobID_DiffersAcrossDays(t *testing.T) {
	day1 := time.Date(2026, 3, 5, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 6, 0, 1, 0, 0, time.UTC)
	assert.NotEqual(t, DeriveJobID("abc123", day1), DeriveJobID("abc123", day2))
}

func TestDeriveJobID_DiffersAcrossContentHash(t *testing.T) {
	at := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	assert.NotEqual(t, DeriveJobID("abc123", at), DeriveJobID("xyz789", at))
}

func TestSubmit_DedupesSameDaySameContent(t *testing.T) {
	m := newTestManager(t)
	doc := &models.Document{ID: "doc-1", OwnerID: "owner-1", ContentHash: "hash-a"}

	job1, err := m.Submit(context.Background(), doc, "staged/a", entities.SubmitOptions{})
	require.NoError(t, err)

	job2, err := m.Submit(context.Background(), doc, "staged/a", entities.SubmitOptions{})
	require.NoError(t, err)

	assert.Equal(t, job1.ID, job2.ID, "resubmitting the same content same day must return the existing job")
}

func TestSubmit_RejectsInvalidProcessingMode(t *testing.T) {
	m := newTestManager(t)
	doc := &models.Document{ID: "doc-1", OwnerID: "owner-1", ContentHash: "hash-a"}

	_, err := m.Submit(context.Background(), doc, "staged/a", entities.SubmitOptions{Mode: "not_a_real_mode"})
	require.Error(t, err)
	_, tracked := m.Get(DeriveJobID("hash-a", time.Now()))
	assert.False(t, tracked, "a job rejected at validation must never be tracked")
}

func TestSubmit_NewJobAfterPriorTerminates(t *testing.T) {
	m := newTestManager(t)
	doc := &models.Document{ID: "doc-1", OwnerID: "owner-1", ContentHash: "hash-a"}

	job1, err := m.Submit(context.Background(), doc, "staged/a", entities.SubmitOptions{})
	require.NoError(t, err)

	m.mu.Lock()
	job1.Status = entities.DocumentCompleted
	m.mu.Unlock()

	job2, err := m.Submit(context.Background(), doc, "staged/a", entities.SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, job1.ID, job2.ID, "derived id is stable; Submit only skips the existing record while non-terminal")
}

func TestGet_UnknownJobNotFound(t *testing.T) {
	m := newTestManager(t)
	_, ok := m.Get("does-not-exist")
	assert.False(t, ok)
}

func TestRequestCancel_UnknownJobReturnsFalse(t *testing.T) {
	m := newTestManager(t)
	assert.False(t, m.RequestCancel("does-not-exist"))
}

func TestRequestCancel_KnownJob(t *testing.T) {
	m := newTestManager(t)
	doc := &models.Document{ID: "doc-1", OwnerID: "owner-1", ContentHash: "hash-a"}
	job, err := m.Submit(context.Background(), doc, "staged/a", entities.SubmitOptions{})
	require.NoError(t, err)

	assert.True(t, m.RequestCancel(job.ID))
	assert.True(t, job.CancelRequested())
}

func TestOnProgress_DispatchInvokesAllCallbacks(t *testing.T) {
	m := newTestManager(t)
	var mu sync.Mutex
	var got []int

	m.OnProgress("job-1", func(jobID string, percent int) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, percent)
	})
	m.OnProgress("job-1", func(jobID string, percent int) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, percent*10)
	})

	m.dispatchProgress("job-1", 50, zap.NewNop())

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []int{50, 500}, got)
}

func TestSafeInvoke_RecoversPanickingCallback(t *testing.T) {
	m := newTestManager(t)
	called := false
	panicky := func(jobID string, percent int) {
		called = true
		panic("callback exploded")
	}

	assert.NotPanics(t, func() {
		m.safeInvoke(panicky, "job-1", 10, zap.NewNop())
	})
	assert.True(t, called)
}

func TestEvictExpired_RemovesOnlyTerminalPastRetention(t *testing.T) {
	m := newTestManager(t)
	m.retention = time.Minute

	past := time.Now().Add(-time.Hour)
	recent := time.Now()

	m.mu.Lock()
	m.jobs["expired"] = &entities.Job{
		BaseEntity: entities.BaseEntity{ID: "expired"},
		Status:     entities.DocumentCompleted,
		CompletedAt: &past,
	}
	m.jobs["fresh"] = &entities.Job{
		BaseEntity: entities.BaseEntity{ID: "fresh"},
		Status:     entities.DocumentCompleted,
		CompletedAt: &recent,
	}
	m.jobs["in-flight"] = &entities.Job{
		BaseEntity: entities.BaseEntity{ID: "in-flight"},
		Status:     entities.DocumentProcessing,
	}
	m.callbacks["expired"] = []ProgressCallback{func(string, int) {}}
	m.mu.Unlock()

	m.evictExpired()

	_, expiredStillThere := m.Get("expired")
	_, freshStillThere := m.Get("fresh")
	_, inFlightStillThere := m.Get("in-flight")

	assert.False(t, expiredStillThere, "terminal job past retention must be evicted")
	assert.True(t, freshStillThere, "terminal job within retention must survive")
	assert.True(t, inFlightStillThere, "non-terminal job must never be evicted regardless of age")

	m.mu.RLock()
	_, hasCallbacks := m.callbacks["expired"]
	m.mu.RUnlock()
	assert.False(t, hasCallbacks, "callbacks for an evicted job must be cleaned up too")
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, isTerminal(entities.DocumentCompleted))
	assert.True(t, isTerminal(entities.DocumentFailed))
	assert.True(t, isTerminal(entities.DocumentCancelled))
	assert.False(t, isTerminal(entities.DocumentProcessing))
	assert.False(t, isTerminal(entities.DocumentQueued))
}

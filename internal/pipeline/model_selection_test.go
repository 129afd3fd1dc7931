package pipeline

import (
	"context"
	"testing"

	"github.com/askelio/docpipeline/internal/adapters/llmadapter"
	"github.com/askelio/docpipeline/internal/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter is a minimal llmadapter.Adapter; no third-party mocking
// library is used anywhere in the pack.
type stubAdapter struct{ id string }

func (s stubAdapter) ID() string { return s.id }
func (s stubAdapter) Structure(ctx context.Context, model, prompt string, maxTokens int, costCeiling float64) llmadapter.Result {
	return llmadapter.Result{Success: true, Text: "{}"}
}

func newTestRegistry(models ...llmadapter.ModelProfile) *llmadapter.Registry {
	seen := map[string]bool{}
	var adapters []llmadapter.Adapter
	for _, m := range models {
		if !seen[m.AdapterID] {
			adapters = append(adapters, stubAdapter{id: m.AdapterID})
			seen[m.AdapterID] = true
		}
	}
	return llmadapter.NewRegistry(adapters, models)
}

func TestSelectModel_EmptyRegistry(t *testing.T) {
	registry := llmadapter.NewRegistry(nil, nil)
	_, ok := SelectModel(registry, classify.Classification{}, 0)
	assert.False(t, ok)
}

func TestSelectModel_PrefersHigherAccuracyWithinCeiling(t *testing.T) {
	cheap := llmadapter.ModelProfile{AdapterID: "cheap", ModelID: "cheap-model", Accuracy: 0.5, CostPer1KTokensIn: 0.0001, CostPer1KOut: 0.0001, AverageLatencyMS: 500}
	accurate := llmadapter.ModelProfile{AdapterID: "accurate", ModelID: "accurate-model", Accuracy: 0.95, CostPer1KTokensIn: 0.0002, CostPer1KOut: 0.0002, AverageLatencyMS: 800}
	registry := newTestRegistry(cheap, accurate)

	selection, ok := SelectModel(registry, classify.Classification{Complexity: classify.ComplexitySimple}, 0)
	require.True(t, ok)
	assert.Equal(t, "accurate-model", selection.Model.ModelID)
}

func TestSelectModel_CostCeilingExcludesExpensiveModels(t *testing.T) {
	cheap := llmadapter.ModelProfile{AdapterID: "cheap", ModelID: "cheap-model", Accuracy: 0.5, CostPer1KTokensIn: 0.0001, CostPer1KOut: 0.0001, AverageLatencyMS: 500}
	expensive := llmadapter.ModelProfile{AdapterID: "expensive", ModelID: "expensive-model", Accuracy: 0.99, CostPer1KTokensIn: 0.05, CostPer1KOut: 0.05, AverageLatencyMS: 800}
	registry := newTestRegistry(cheap, expensive)

	selection, ok := SelectModel(registry, classify.Classification{}, 0.001)
	require.True(t, ok)
	assert.Equal(t, "cheap-model", selection.Model.ModelID, "the expensive model's estimated cost exceeds the ceiling")
}

func TestSelectModel_FallsBackToCheapestWhenCeilingExcludesEverything(t *testing.T) {
	a := llmadapter.ModelProfile{AdapterID: "a", ModelID: "model-a", Accuracy: 0.9, CostPer1KTokensIn: 0.01, CostPer1KOut: 0.01, AverageLatencyMS: 500}
	b := llmadapter.ModelProfile{AdapterID: "b", ModelID: "model-b", Accuracy: 0.9, CostPer1KTokensIn: 0.02, CostPer1KOut: 0.02, AverageLatencyMS: 500}
	registry := newTestRegistry(a, b)

	selection, ok := SelectModel(registry, classify.Classification{}, 0.0000001)
	require.True(t, ok)
	assert.Equal(t, "model-a", selection.Model.ModelID)
	assert.Contains(t, selection.Reason, "cost ceiling removed all candidates")
}

func TestSelectModel_ComplexDocumentBoostsPreferredTier(t *testing.T) {
	preferred := llmadapter.ModelProfile{AdapterID: "preferred", ModelID: "preferred-model", Accuracy: 0.9, CostPer1KTokensIn: 0.001, CostPer1KOut: 0.001, AverageLatencyMS: 1000}
	// A model scoring marginally higher on simple docs but below the
	// preferred-tier accuracy threshold (0.85) must lose once the 1.2x
	// complex-document multiplier applies to the preferred model.
	nonPreferred := llmadapter.ModelProfile{AdapterID: "nonpreferred", ModelID: "nonpreferred-model", Accuracy: 0.84, CostPer1KTokensIn: 0.001, CostPer1KOut: 0.001, AverageLatencyMS: 900, Reasoning: 0.3}
	registry := newTestRegistry(preferred, nonPreferred)

	simple, ok := SelectModel(registry, classify.Classification{Complexity: classify.ComplexitySimple}, 0)
	require.True(t, ok)
	assert.Equal(t, "nonpreferred-model", simple.Model.ModelID)

	complex, ok := SelectModel(registry, classify.Classification{Complexity: classify.ComplexityComplex}, 0)
	require.True(t, ok)
	assert.Equal(t, "preferred-model", complex.Model.ModelID)
}

func TestModelProfile_EstimatedCost(t *testing.T) {
	m := llmadapter.ModelProfile{CostPer1KTokensIn: 0.001, CostPer1KOut: 0.002}
	cost := m.EstimatedCost(1000, 500)
	assert.InDelta(t, 0.001+0.001, cost, 1e-9)
}

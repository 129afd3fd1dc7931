// internal/pipeline/model_selection.go
package pipeline

import (
	"github.com/askelio/docpipeline/internal/adapters/llmadapter"
	"github.com/askelio/docpipeline/internal/classify"
)

// Scoring weights (spec.md §4.5 "Scoring: weighted sum of accuracy
// (0.4), cost efficiency (0.25), speed (0.15), language support
// (0.10), reasoning (0.10)").
const (
	weightAccuracy = 0.4
	weightCost     = 0.25
	weightSpeed    = 0.15
	weightLanguage = 0.10
	weightReason   = 0.10

	// complexDocumentMultiplier applies to the score of models whose
	// tier is already accuracy-preferred (Accuracy ≥ 0.85) for complex
	// documents, per spec.md §4.5 "complex documents multiply preferred
	// tiers by 1.2".
	complexDocumentMultiplier = 1.2
	preferredTierAccuracy     = 0.85

	estimatedTokensIn  = 1500
	estimatedTokensOut = 800
)

// ModelSelection is the recorded outcome of model selection (spec.md
// §4.5 "Selection is recorded with model_id, reason, final scores").
type ModelSelection struct {
	Model  llmadapter.ModelProfile
	Reason string
	Score  float64
}

// SelectModel scores every model in registry against classification
// and picks the best one under costCeiling, falling back to the
// cheapest model if the ceiling filter removes everything.
func SelectModel(registry *llmadapter.Registry, classification classify.Classification, costCeiling float64) (ModelSelection, bool) {
	if len(registry.Models) == 0 {
		return ModelSelection{}, false
	}

	languageKey := string(classification.Language)

	type scored struct {
		model llmadapter.ModelProfile
		score float64
	}
	var candidates []scored
	for _, m := range registry.Models {
		cost := m.EstimatedCost(estimatedTokensIn, estimatedTokensOut)
		if costCeiling > 0 && cost > costCeiling {
			continue
		}
		candidates = append(candidates, scored{model: m, score: scoreModel(m, classification, languageKey)})
	}

	if len(candidates) == 0 {
		return selectCheapest(registry, "cost ceiling removed all candidates, falling back to cheapest")
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}
	return ModelSelection{Model: best.model, Score: best.score, Reason: "highest weighted score under cost ceiling"}, true
}

func scoreModel(m llmadapter.ModelProfile, classification classify.Classification, languageKey string) float64 {
	languageScore := 0.0
	if m.LanguageSupported[languageKey] {
		languageScore = 1.0
	}
	// cost efficiency: lower cost per 1K tokens scores higher;
	// normalized against a $0.05/1K ceiling (beyond which efficiency is
	// treated as zero) rather than against the other candidates, so the
	// score of one model never depends on which others are present.
	costEfficiency := 1.0 - (m.CostPer1KTokensIn+m.CostPer1KOut)/0.05
	if costEfficiency < 0 {
		costEfficiency = 0
	}
	// speed: normalized against a 10s ceiling, same rationale as cost.
	speedScore := 1.0 - float64(m.AverageLatencyMS)/10000.0
	if speedScore < 0 {
		speedScore = 0
	}

	score := m.Accuracy*weightAccuracy +
		costEfficiency*weightCost +
		speedScore*weightSpeed +
		languageScore*weightLanguage +
		m.Reasoning*weightReason

	if classification.Complexity == classify.ComplexityComplex && m.Accuracy >= preferredTierAccuracy {
		score *= complexDocumentMultiplier
	}
	return score
}

func selectCheapest(registry *llmadapter.Registry, reason string) (ModelSelection, bool) {
	if len(registry.Models) == 0 {
		return ModelSelection{}, false
	}
	cheapest := registry.Models[0]
	for _, m := range registry.Models[1:] {
		if m.EstimatedCost(estimatedTokensIn, estimatedTokensOut) < cheapest.EstimatedCost(estimatedTokensIn, estimatedTokensOut) {
			cheapest = m
		}
	}
	return ModelSelection{Model: cheapest, Reason: reason}, true
}

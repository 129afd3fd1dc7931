// Package llmadapter defines the uniform LLM provider contract
// (spec.md §4.1) and the static capability table the LLM Orchestrator
// scores against during model selection (spec.md §4.5).
package llmadapter

import (
	"context"
	"time"
)

// Result is the uniform LLM adapter response (spec.md §4.1).
type Result struct {
	Text           string
	TokensIn       int
	TokensOut      int
	CostUSD        float64
	Latency        time.Duration
	ConfidenceHint float64
	Success        bool
	ErrorKind      string
	ErrorMessage   string
}

// Adapter is the uniform contract over LLM providers (spec.md §4.1).
type Adapter interface {
	// ID is the adapter's stable identifier.
	ID() string

	// Structure asks the underlying model to turn prompt into the
	// schema-shaped JSON text described in the prompt itself
	// (spec.md §4.5 "prompt/response contract"). costCeiling is the
	// maximum this single call may cost; the adapter must not exceed
	// it (computed from its own price table, never estimated post-hoc).
	Structure(ctx context.Context, model string, prompt string, maxTokens int, costCeiling float64) Result
}

// ModelProfile is one selectable model tier's static capability row
// (spec.md §4.5 "Scoring: weighted sum of accuracy, cost efficiency,
// speed, language support, reasoning").
type ModelProfile struct {
	AdapterID         string
	ModelID           string
	Accuracy          float64 // 0-1
	CostPer1KTokensIn float64
	CostPer1KOut      float64
	AverageLatencyMS  int
	LanguageSupported map[string]bool
	Reasoning         float64 // 0-1, qualitative reasoning-depth score
}

// EstimatedCost projects the USD cost of a call with the given token
// counts, used for the cost-ceiling filter in model selection
// (spec.md §4.5 "any model whose expected cost > ceiling is removed").
func (m ModelProfile) EstimatedCost(estTokensIn, estTokensOut int) float64 {
	return (float64(estTokensIn)/1000)*m.CostPer1KTokensIn + (float64(estTokensOut)/1000)*m.CostPer1KOut
}

// Registry is the static, start-up-initialized set of LLM adapters and
// their model profiles.
type Registry struct {
	Adapters map[string]Adapter
	Models   []ModelProfile
}

func NewRegistry(adapters []Adapter, models []ModelProfile) *Registry {
	r := &Registry{Adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Adapters[a.ID()] = a
	}
	for _, m := range models {
		if _, ok := r.Adapters[m.AdapterID]; ok {
			r.Models = append(r.Models, m)
		}
	}
	return r
}

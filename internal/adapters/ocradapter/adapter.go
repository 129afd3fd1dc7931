// Package ocradapter defines the uniform OCR provider contract
// (spec.md §4.1) and the static start-up registry of adapter
// instances plus their capability table.
package ocradapter

import (
	"context"

	"github.com/askelio/docpipeline/internal/domain/entities"
)

// Hints carries optional guidance the OCR Orchestrator passes to an
// adapter (language hint from the Document Classifier, etc).
type Hints struct {
	LanguageHint string
}

// Adapter is the uniform contract over OCR providers (spec.md §4.1).
// Implementations must not panic for documented failure modes; unknown
// exceptions are wrapped as apperrors.KindProviderError by the adapter
// itself before returning.
type Adapter interface {
	// ID is the adapter's stable identifier, used for deterministic
	// tie-breaks in the OCR Orchestrator (spec.md §4.4 "ascending
	// adapter id").
	ID() string

	// Extract performs OCR on contentBytes, tagged by mediaType.
	Extract(ctx context.Context, contentBytes []byte, mediaType string, hints Hints) entities.RawOCRResult

	// SupportsMedia reports whether the adapter accepts mediaType
	// natively (true for PDF-native adapters) or requires rasterized
	// image input (false).
	SupportsMedia(mediaType string) bool

	// SupportsLanguage reports whether the adapter's language coverage
	// includes the given hint ("" matches any adapter).
	SupportsLanguage(languageHint string) bool
}

// Capability is the static per-adapter row the OCR Orchestrator
// consults for cost_effective/speed_first selection (spec.md §4.1
// "capability table").
type Capability struct {
	AdapterID         string
	ConfidenceBase    float64 // baseline confidence used only for provider selection, never for result comparison (spec.md §9 open question a)
	CostPerPageUSD    float64
	AverageLatencyMS  int
	LanguageSupported map[string]bool
}

// Registry is the static, start-up-initialized set of OCR adapters.
// An adapter absent from Adapters (e.g. because its API key was not
// configured) is simply unavailable, not an error (spec.md §4.1).
type Registry struct {
	Adapters     map[string]Adapter
	Capabilities map[string]Capability
}

// NewRegistry builds a Registry from the given adapters and
// capabilities, keeping only capability rows for adapters that are
// actually present.
func NewRegistry(adapters []Adapter, capabilities []Capability) *Registry {
	r := &Registry{
		Adapters:     make(map[string]Adapter, len(adapters)),
		Capabilities: make(map[string]Capability, len(capabilities)),
	}
	for _, a := range adapters {
		r.Adapters[a.ID()] = a
	}
	for _, c := range capabilities {
		if _, ok := r.Adapters[c.AdapterID]; ok {
			r.Capabilities[c.AdapterID] = c
		}
	}
	return r
}

// Cheapest returns the lowest CostPerPageUSD adapter supporting
// languageHint, for cost_effective mode. Ties broken by ascending
// adapter id.
func (r *Registry) Cheapest(languageHint string) (Adapter, bool) {
	var best Adapter
	bestCost := -1.0
	var bestID string
	for id, cap := range r.Capabilities {
		if !cap.LanguageSupported[languageHint] && languageHint != "" {
			continue
		}
		adapter, ok := r.Adapters[id]
		if !ok {
			continue
		}
		if bestCost < 0 || cap.CostPerPageUSD < bestCost || (cap.CostPerPageUSD == bestCost && id < bestID) {
			best = adapter
			bestCost = cap.CostPerPageUSD
			bestID = id
		}
	}
	return best, best != nil
}

// Fastest returns the lowest AverageLatencyMS adapter, for
// speed_first mode. Ties broken by ascending adapter id.
func (r *Registry) Fastest() (Adapter, bool) {
	var best Adapter
	bestLatency := -1
	var bestID string
	for id, cap := range r.Capabilities {
		adapter, ok := r.Adapters[id]
		if !ok {
			continue
		}
		if bestLatency < 0 || cap.AverageLatencyMS < bestLatency || (cap.AverageLatencyMS == bestLatency && id < bestID) {
			best = adapter
			bestLatency = cap.AverageLatencyMS
			bestID = id
		}
	}
	return best, best != nil
}

// TopN returns up to n adapters ordered by descending ConfidenceBase
// (ties by ascending adapter id), for accuracy_first fan-out.
func (r *Registry) TopN(n int) []Adapter {
	type scored struct {
		adapter Adapter
		id      string
		conf    float64
	}
	var all []scored
	for id, adapter := range r.Adapters {
		conf := 0.0
		if cap, ok := r.Capabilities[id]; ok {
			conf = cap.ConfidenceBase
		}
		all = append(all, scored{adapter, id, conf})
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].conf > all[i].conf || (all[j].conf == all[i].conf && all[j].id < all[i].id) {
				all[i], all[j] = all[j], all[i]
			}
		}
	}
	if n > len(all) {
		n = len(all)
	}
	result := make([]Adapter, n)
	for i := 0; i < n; i++ {
		result[i] = all[i].adapter
	}
	return result
}

package ocradapter

import (
	"context"
	"testing"

	"github.com/askelio/docpipeline/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter is a minimal Adapter for Registry selection tests; no
// mocking library is used anywhere in the pack.
type stubAdapter struct{ id string }

func (s stubAdapter) ID() string { return s.id }
func (s stubAdapter) Extract(ctx context.Context, contentBytes []byte, mediaType string, hints Hints) entities.RawOCRResult {
	return entities.RawOCRResult{ProviderID: s.id, Success: true}
}
func (s stubAdapter) SupportsMedia(mediaType string) bool      { return true }
func (s stubAdapter) SupportsLanguage(languageHint string) bool { return true }

func TestNewRegistry_DropsCapabilitiesForAbsentAdapters(t *testing.T) {
	r := NewRegistry(
		[]Adapter{stubAdapter{id: "present"}},
		[]Capability{
			{AdapterID: "present", CostPerPageUSD: 0.01},
			{AdapterID: "absent", CostPerPageUSD: 0.0},
		},
	)
	assert.Len(t, r.Adapters, 1)
	assert.Len(t, r.Capabilities, 1)
	_, ok := r.Capabilities["absent"]
	assert.False(t, ok)
}

func TestRegistry_Cheapest_PicksLowestCost(t *testing.T) {
	r := NewRegistry(
		[]Adapter{stubAdapter{id: "pricey"}, stubAdapter{id: "cheap"}},
		[]Capability{
			{AdapterID: "pricey", CostPerPageUSD: 0.05, LanguageSupported: map[string]bool{"": true}},
			{AdapterID: "cheap", CostPerPageUSD: 0.0, LanguageSupported: map[string]bool{"": true}},
		},
	)
	adapter, ok := r.Cheapest("")
	require.True(t, ok)
	assert.Equal(t, "cheap", adapter.ID())
}

func TestRegistry_Cheapest_TieBrokenByAscendingAdapterID(t *testing.T) {
	r := NewRegistry(
		[]Adapter{stubAdapter{id: "zeta"}, stubAdapter{id: "alpha"}},
		[]Capability{
			{AdapterID: "zeta", CostPerPageUSD: 0.01, LanguageSupported: map[string]bool{"": true}},
			{AdapterID: "alpha", CostPerPageUSD: 0.01, LanguageSupported: map[string]bool{"": true}},
		},
	)
	adapter, ok := r.Cheapest("")
	require.True(t, ok)
	assert.Equal(t, "alpha", adapter.ID())
}

func TestRegistry_Cheapest_FiltersByLanguageSupport(t *testing.T) {
	r := NewRegistry(
		[]Adapter{stubAdapter{id: "en-only"}, stubAdapter{id: "cs-only"}},
		[]Capability{
			{AdapterID: "en-only", CostPerPageUSD: 0.0, LanguageSupported: map[string]bool{"en": true}},
			{AdapterID: "cs-only", CostPerPageUSD: 0.01, LanguageSupported: map[string]bool{"cs": true}},
		},
	)
	adapter, ok := r.Cheapest("cs")
	require.True(t, ok)
	assert.Equal(t, "cs-only", adapter.ID())
}

func TestRegistry_Cheapest_NoSupportingAdapterReturnsFalse(t *testing.T) {
	r := NewRegistry(
		[]Adapter{stubAdapter{id: "en-only"}},
		[]Capability{{AdapterID: "en-only", LanguageSupported: map[string]bool{"en": true}}},
	)
	_, ok := r.Cheapest("de")
	assert.False(t, ok)
}

func TestRegistry_Fastest_PicksLowestLatency(t *testing.T) {
	r := NewRegistry(
		[]Adapter{stubAdapter{id: "slow"}, stubAdapter{id: "quick"}},
		[]Capability{
			{AdapterID: "slow", AverageLatencyMS: 5000},
			{AdapterID: "quick", AverageLatencyMS: 300},
		},
	)
	adapter, ok := r.Fastest()
	require.True(t, ok)
	assert.Equal(t, "quick", adapter.ID())
}

func TestRegistry_TopN_OrdersByDescendingConfidenceThenAscendingID(t *testing.T) {
	r := NewRegistry(
		[]Adapter{stubAdapter{id: "b"}, stubAdapter{id: "a"}, stubAdapter{id: "c"}},
		[]Capability{
			{AdapterID: "b", ConfidenceBase: 0.8},
			{AdapterID: "a", ConfidenceBase: 0.8},
			{AdapterID: "c", ConfidenceBase: 0.95},
		},
	)
	top := r.TopN(3)
	require.Len(t, top, 3)
	assert.Equal(t, "c", top[0].ID())
	assert.Equal(t, "a", top[1].ID())
	assert.Equal(t, "b", top[2].ID())
}

func TestRegistry_TopN_CapsAtAvailableAdapterCount(t *testing.T) {
	r := NewRegistry([]Adapter{stubAdapter{id: "only"}}, []Capability{{AdapterID: "only"}})
	assert.Len(t, r.TopN(3), 1)
}

func TestRegistry_EmptyRegistryReturnsNoSelection(t *testing.T) {
	r := NewRegistry(nil, nil)
	_, ok := r.Cheapest("")
	assert.False(t, ok)
	_, ok = r.Fastest()
	assert.False(t, ok)
	assert.Empty(t, r.TopN(3))
}

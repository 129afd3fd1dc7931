// internal/pipeline/enrichment.go
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/askelio/docpipeline/internal/domain/entities"
	"github.com/askelio/docpipeline/internal/registry"
)

// EnrichmentStage implements spec.md §4.6: fills missing vendor and
// customer attributes from the Registry Client, never overwriting
// caller-supplied fields, and records what happened in
// _enrichment_meta.
type EnrichmentStage struct {
	client *registry.Client
}

func NewEnrichmentStage(client *registry.Client) *EnrichmentStage {
	return &EnrichmentStage{client: client}
}

// Enrich mutates record's vendor/customer in place and sets
// EnrichmentMeta. Never fails the pipeline: registry errors are
// recorded as notes, not returned as an error (spec.md §4.6, §7
// "registry_unavailable and registry_not_found are non-fatal").
func (s *EnrichmentStage) Enrich(ctx context.Context, record *entities.StructuredRecord) {
	var notes []string
	anyEnriched := false
	anyAttempted := false

	if record.Vendor.RegistrationNumber != "" {
		anyAttempted = true
		before := record.Vendor
		enriched, failNote := registry.Enrich(ctx, s.client, record.Vendor)
		record.Vendor = enriched
		if failNote != "" {
			notes = append(notes, fmt.Sprintf("vendor: registry record for %s not found or unavailable (%s)", before.RegistrationNumber, failNote))
		} else {
			anyEnriched = true
			notes = append(notes, fmt.Sprintf("vendor: filled attributes from registry for %s", before.RegistrationNumber))
		}
	}

	if record.Customer.RegistrationNumber != "" {
		anyAttempted = true
		before := record.Customer
		enriched, failNote := registry.Enrich(ctx, s.client, record.Customer)
		record.Customer = enriched
		if failNote != "" {
			notes = append(notes, fmt.Sprintf("customer: registry record for %s not found or unavailable (%s)", before.RegistrationNumber, failNote))
		} else {
			anyEnriched = true
			notes = append(notes, fmt.Sprintf("customer: filled attributes from registry for %s", before.RegistrationNumber))
		}
	}

	// success = at least one subject enriched, or both already complete
	// (nothing had a registration id to look up at all).
	success := anyEnriched || !anyAttempted
	record.EnrichmentMeta = &entities.EnrichmentMeta{
		EnrichedAt: time.Now(),
		Success:    success,
		Notes:      notes,
	}
	record.Notes = append(record.Notes, notes...)
}

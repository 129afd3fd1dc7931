// internal/registry/enrich.go
package registry

import (
	"context"

	"github.com/askelio/docpipeline/internal/apperrors"
	"github.com/askelio/docpipeline/internal/domain/entities"
)

// Enrich fills missing attributes on party from the registry, without
// ever overwriting a caller-supplied value, and tags the party with
// the `_enriched`/`_active`/`_tax_registered` metadata regardless of
// whether new data was added (spec.md §4.2 "enrich(subject)"). Returns
// party unchanged, with a note, if no registration number is present
// or the lookup fails; the caller (Enrichment Stage) decides whether
// that note is fatal.
func Enrich(ctx context.Context, client *Client, party entities.Party) (entities.Party, string) {
	if party.RegistrationNumber == "" {
		return party, ""
	}

	record, err := client.Lookup(ctx, party.RegistrationNumber)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return party, "registry_not_found"
		}
		return party, "registry_unavailable"
	}

	if party.Name == "" {
		party.Name = record.Name
	}
	if party.TaxNumber == "" {
		party.TaxNumber = record.TaxID
	}
	if party.Address == "" {
		party.Address = record.Address
	}
	party.Enriched = true
	party.Active = record.Active
	party.TaxRegistered = record.TaxRegistered
	return party, ""
}

package entities

import "time"

// RegistryRecord is a cached legal-entity lookup result (spec.md §3,
// §4.2). Entries are process-wide and TTL-bounded, not owner-scoped.
type RegistryRecord struct {
	RegistrationID string
	Name           string
	TaxID          string
	Address        string
	Active         bool
	TaxRegistered  bool
	FetchedAt      time.Time
}

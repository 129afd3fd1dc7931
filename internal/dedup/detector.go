// internal/dedup/detector.go
package dedup

import (
	"context"
	"strings"

	"github.com/askelio/docpipeline/internal/domain/entities"
)

// FingerprintRepository is the persistence-facing dependency Detector
// needs: lookup by fingerprint, a number+vendor candidate scan, and a
// per-owner fingerprint→count aggregate. Implemented by
// internal/data/repositories/postgres.
type FingerprintRepository interface {
	// FindDocumentIDsByFingerprint returns the ids of existing,
	// non-deleted documents sharing fingerprint for ownerID, most
	// recent first.
	FindDocumentIDsByFingerprint(ctx context.Context, ownerID string, fingerprint string) ([]string, error)

	// FindCandidatesByInvoiceNumber returns the summary of every
	// existing document for ownerID sharing invoiceNumber, for the
	// near-duplicate (number_vendor) check.
	FindCandidatesByInvoiceNumber(ctx context.Context, ownerID string, invoiceNumber string) ([]DocumentSummary, error)

	// CountDocuments returns the total number of documents for ownerID.
	CountDocuments(ctx context.Context, ownerID string) (int, error)

	// CountFingerprintGroups returns the number of distinct fingerprints
	// for ownerID that are shared by more than one document.
	CountFingerprintGroups(ctx context.Context, ownerID string) (int, error)
}

// DocumentSummary is the minimal projection the near-duplicate check
// needs from an existing document's StructuredRecord.
type DocumentSummary struct {
	DocumentID    string
	VendorName    string
	TotalAmount   string
	DateIssued    string
}

// MatchType distinguishes the two duplicate-match kinds spec.md §4.7
// defines.
type MatchType string

const (
	MatchExact        MatchType = "exact"
	MatchNumberVendor MatchType = "number_vendor"
)

// Match is one duplicate candidate found by Check.
type Match struct {
	DocumentID string
	Type       MatchType
}

// CheckResult is Check's full output.
type CheckResult struct {
	IsDuplicate bool
	Matches     []Match
}

// Stats is the duplicate-statistics summary (spec.md §6's "Statistics:
// grouped counts by fingerprint per owner", promoted to a first-class
// operation per SPEC_FULL.md §6).
type Stats struct {
	TotalDocuments  int     `json:"total_documents"`
	DuplicateGroups int     `json:"duplicate_groups"`
	DuplicateRate   float64 `json:"duplicate_rate"`
}

// Detector wraps FingerprintRepository with the duplicate-detection
// operations the Pipeline Coordinator and its statistics endpoint-
// equivalent need.
type Detector struct {
	repo FingerprintRepository
}

func NewDetector(repo FingerprintRepository) *Detector {
	return &Detector{repo: repo}
}

// Check implements spec.md §4.7's check(owner_id, record,
// exclude_document_id?): exact fingerprint matches, plus near matches
// on (invoice_number, vendor.name case-insensitive) with a different
// amount or date. The detector never blocks the pipeline: a
// repository failure surfaces as an error from Check, but the caller
// (Pipeline Coordinator) treats duplicate detection as advisory.
func (d *Detector) Check(ctx context.Context, ownerID string, record entities.StructuredRecord, excludeDocumentID string) (CheckResult, error) {
	fingerprint := Fingerprint(record)
	exactIDs, err := d.repo.FindDocumentIDsByFingerprint(ctx, ownerID, fingerprint)
	if err != nil {
		return CheckResult{}, err
	}

	var matches []Match
	seen := map[string]bool{}
	for _, id := range exactIDs {
		if id == excludeDocumentID {
			continue
		}
		matches = append(matches, Match{DocumentID: id, Type: MatchExact})
		seen[id] = true
	}

	if record.InvoiceNumber != "" {
		candidates, err := d.repo.FindCandidatesByInvoiceNumber(ctx, ownerID, record.InvoiceNumber)
		if err != nil {
			return CheckResult{}, err
		}
		vendorLower := strings.ToLower(strings.TrimSpace(record.Vendor.Name))
		for _, c := range candidates {
			if c.DocumentID == excludeDocumentID || seen[c.DocumentID] {
				continue
			}
			if strings.ToLower(strings.TrimSpace(c.VendorName)) != vendorLower || vendorLower == "" {
				continue
			}
			sameAmount := c.TotalAmount == record.TotalAmount.Value
			sameDate := c.DateIssued == record.DateIssued
			if sameAmount && sameDate {
				continue // identical amount and date is the exact-match case, already covered above
			}
			matches = append(matches, Match{DocumentID: c.DocumentID, Type: MatchNumberVendor})
			seen[c.DocumentID] = true
		}
	}

	return CheckResult{IsDuplicate: len(matches) > 0, Matches: matches}, nil
}

// Stats computes the owner's duplicate-rate summary, grounded on the
// Python reference's get_duplicate_statistics.
func (d *Detector) Stats(ctx context.Context, ownerID string) (Stats, error) {
	total, err := d.repo.CountDocuments(ctx, ownerID)
	if err != nil {
		return Stats{}, err
	}
	groups, err := d.repo.CountFingerprintGroups(ctx, ownerID)
	if err != nil {
		return Stats{}, err
	}
	rate := 0.0
	if total > 0 {
		rate = float64(groups) / float64(total)
	}
	return Stats{TotalDocuments: total, DuplicateGroups: groups, DuplicateRate: rate}, nil
}

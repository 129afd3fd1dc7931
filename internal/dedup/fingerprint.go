// Package dedup computes the deterministic invoice fingerprint used to
// flag duplicate submissions (spec.md §3, §4.7), grounded on the
// duplicate_detection_service's generate_invoice_hash.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/askelio/docpipeline/internal/domain/entities"
)

// Fingerprint computes the SHA-256 fingerprint over the normalized
// identifying fields of record (spec.md §3: invoice_number,
// vendor.name lowercased/trimmed, total_amount.value rounded to 2dp,
// date_issued, total_amount.currency uppercased). Fields that are
// empty are omitted from the hashed payload rather than hashed as
// empty strings, so a missing field and an explicitly blank one give
// the same fingerprint.
func Fingerprint(record entities.StructuredRecord) string {
	fields := map[string]string{}

	if v := strings.TrimSpace(record.InvoiceNumber); v != "" {
		fields["invoice_number"] = strings.ToLower(v)
	}
	if v := strings.TrimSpace(record.Vendor.Name); v != "" {
		fields["vendor_name"] = strings.ToLower(v)
	}
	if record.TotalAmount.Value != "" {
		if amount, err := strconv.ParseFloat(record.TotalAmount.Value, 64); err == nil {
			fields["total_amount"] = fmt.Sprintf("%.2f", amount)
		}
	}
	if v := strings.TrimSpace(record.DateIssued); v != "" {
		fields["date_issued"] = v
	}
	if v := strings.TrimSpace(record.TotalAmount.Currency); v != "" {
		fields["currency"] = strings.ToUpper(v)
	}

	// encoding/json.Marshal on a map sorts keys lexicographically,
	// giving the same deterministic byte sequence the Python reference
	// gets from json.dumps(..., sort_keys=True).
	payload, _ := json.Marshal(fields)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

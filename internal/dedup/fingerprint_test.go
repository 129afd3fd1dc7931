package dedup

import (
	"testing"

	"github.com/askelio/docpipeline/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(invoiceNumber, vendor, amount, currency, dateIssued string) entities.StructuredRecord {
	return entities.StructuredRecord{
		InvoiceNumber: invoiceNumber,
		Vendor:        entities.Party{Name: vendor},
		TotalAmount:   entities.Money{Value: amount, Currency: currency},
		DateIssued:    dateIssued,
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	r := record("INV-100", "Acme s.r.o.", "199.99", "czk", "2026-01-15")
	require.Equal(t, Fingerprint(r), Fingerprint(r))
}

func TestFingerprint_CaseAndWhitespaceInsensitive(t *testing.T) {
	a := record("INV-100", "Acme s.r.o.", "199.99", "czk", "2026-01-15")
	b := record("inv-100", "  ACME S.R.O.  ", "199.99", "CZK", "2026-01-15")
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_AmountRoundedToTwoDecimals(t *testing.T) {
	a := record("INV-100", "Acme", "199.990", "czk", "2026-01-15")
	b := record("INV-100", "Acme", "199.99", "czk", "2026-01-15")
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_DifferentInvoiceNumberDiffers(t *testing.T) {
	a := record("INV-100", "Acme", "199.99", "czk", "2026-01-15")
	b := record("INV-101", "Acme", "199.99", "czk", "2026-01-15")
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_PresentFieldDiffersFromBlank(t *testing.T) {
	withDate := record("INV-100", "Acme", "199.99", "czk", "2026-01-15")
	withoutDate := record("INV-100", "Acme", "199.99", "czk", "")
	assert.NotEqual(t, Fingerprint(withDate), Fingerprint(withoutDate))
}

func TestFingerprint_UnparsableAmountOmitted(t *testing.T) {
	a := record("INV-100", "Acme", "not-a-number", "czk", "2026-01-15")
	b := record("INV-100", "Acme", "", "czk", "2026-01-15")
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

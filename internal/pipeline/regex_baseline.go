// internal/pipeline/regex_baseline.go
package pipeline

import (
	"regexp"
	"strings"

	"github.com/askelio/docpipeline/internal/domain/entities"
)

// Regex baseline extractor (spec.md §4.5.1), grounded on the Python
// OCR processor's fixed bilingual invoice patterns. Runs only as the
// LLM Orchestrator's fallback: when no model is available, when the
// cost ceiling would be breached, when the adapter or prompt template
// is unavailable, and after two failed LLM attempts. It is not run
// ahead of the LLM step in any processing mode, and its output is not
// passed to the LLM.
var (
	reInvoiceNumber    = regexp.MustCompile(`(?i:faktura|invoice|č\.|number)[\s:]*([A-Z0-9\-/]+)`)
	reDate             = regexp.MustCompile(`(\d{1,2}[.\-/]\d{1,2}[.\-/]\d{2,4})`)
	reTotal            = regexp.MustCompile(`(?i)(?:celkem|total|suma)[\s:]*(\d[\d\s.,]*\d|\d)`)
	reRegistrationID   = regexp.MustCompile(`(?i)I[ČC]O?[\s:]*(\d{8})`)
	reTwoCharTaxPrefix = regexp.MustCompile(`(?i)DI[ČC][\s:]*([A-Z]{2}\d+)`)
)

// RegexBaseline fills the subset of StructuredRecord fields the fixed
// patterns above can recover from rawText. Unmatched fields are left
// zero-valued; this never errors.
func RegexBaseline(rawText string) entities.StructuredRecord {
	record := entities.StructuredRecord{}

	if m := reInvoiceNumber.FindStringSubmatch(rawText); m != nil {
		record.InvoiceNumber = strings.TrimSpace(m[1])
	}
	if m := reDate.FindStringSubmatch(rawText); m != nil {
		record.DateIssued = normalizeDateGuess(m[1])
	}
	if m := reTotal.FindStringSubmatch(rawText); m != nil {
		record.TotalAmount.Value = normalizeAmountGuess(m[1])
	}
	if m := reRegistrationID.FindStringSubmatch(rawText); m != nil {
		record.Vendor.RegistrationNumber = m[1]
	}
	if m := reTwoCharTaxPrefix.FindStringSubmatch(rawText); m != nil {
		record.Vendor.TaxNumber = m[1]
	}
	return record
}

// normalizeDateGuess applies the same date-normalization rule the LLM
// Orchestrator uses (see normalize.go), so regex-baseline and
// LLM-sourced dates are directly comparable downstream.
func normalizeDateGuess(raw string) string {
	if iso, ok := normalizeDate(raw); ok {
		return iso
	}
	return raw
}

func normalizeAmountGuess(raw string) string {
	return normalizeAmount(raw)
}

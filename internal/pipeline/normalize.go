// internal/pipeline/normalize.go
package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// candidateDateLayouts are the input shapes the reference invoices use
// (Czech dd.mm.yyyy, slash and dash variants, already-ISO), tried in
// order until one parses.
var candidateDateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"02-01-2006",
	"2006-01-02",
	"02/01/2006",
}

// normalizeDate converts raw into an ISO-8601 date (spec.md §4.5 step
// 2 "normalizes dates to ISO-8601"). ok is false if no known layout
// matched, in which case the caller must leave the field as-is per
// spec.md's "never silently corrected".
func normalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range candidateDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

var nonDigitSeparator = regexp.MustCompile(`[^\d.,]`)

// normalizeAmount converts raw to a decimal string with exactly two
// fractional digits (spec.md §4.5 step 2). European-style thousand
// separators ("." or " ") and decimal commas are reconciled by
// treating the last "," or "." as the decimal point and stripping the
// rest, which matches how the reference invoices format totals
// ("24 200,00" → "24200.00").
func normalizeAmount(raw string) string {
	cleaned := nonDigitSeparator.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return ""
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	decimalAt := lastComma
	if lastDot > decimalAt {
		decimalAt = lastDot
	}

	var intPart, fracPart string
	if decimalAt == -1 {
		intPart = cleaned
	} else {
		intPart = cleaned[:decimalAt]
		fracPart = cleaned[decimalAt+1:]
	}
	intPart = strings.NewReplacer(",", "", ".", "").Replace(intPart)
	fracPart = strings.NewReplacer(",", "", ".", "").Replace(fracPart)

	if intPart == "" {
		intPart = "0"
	}
	switch len(fracPart) {
	case 0:
		fracPart = "00"
	case 1:
		fracPart += "0"
	default:
		fracPart = fracPart[:2]
	}

	value, err := strconv.ParseFloat(intPart+"."+fracPart, 64)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%.2f", value)
}

// normalizeCurrency maps a free-text currency token to its ISO-4217
// code (spec.md §4.5 step 2 "currency to ISO-4217"). Unrecognized
// input is upper-cased and returned unchanged so an unfamiliar but
// already-valid code passes through.
func normalizeCurrency(raw string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	switch trimmed {
	case "KČ", "KC", "CZK":
		return "CZK"
	case "€", "EUR":
		return "EUR"
	case "$", "USD":
		return "USD"
	default:
		return trimmed
	}
}

// internal/security/anonymization.go
package security

import "regexp"

var (
	reEmail    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	rePhone    = regexp.MustCompile(`\+?\d(?:[ ()\-]?\d){8,}`)
	reBankIBAN = regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{10,30}\b`)
)

// ScrubPII masks obviously sensitive substrings (emails, phone numbers,
// bank account identifiers) that can appear in raw OCR text before that
// text is written to logs or surfaced in an error message. It is
// defense-in-depth, not a substitute for access controls on the
// underlying staged artifacts.
func ScrubPII(text string) string {
	text = reEmail.ReplaceAllString(text, "[redacted-email]")
	text = reBankIBAN.ReplaceAllString(text, "[redacted-iban]")
	text = rePhone.ReplaceAllString(text, "[redacted-phone]")
	return text
}

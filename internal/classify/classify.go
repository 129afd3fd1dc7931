// Package classify implements the Document Classifier (spec.md §4.3):
// a pure function over (raw_text, filename) producing a doc-type,
// complexity tier, and language hint the OCR/LLM Orchestrators use for
// adapter and model selection.
package classify

import (
	"strings"

	"github.com/askelio/docpipeline/internal/domain/entities"
)

// Complexity is the document-complexity tier (spec.md §4.3).
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Language is the detected document language hint, matching the
// "local" vs. "en" vocabulary the OCR Orchestrator's Hints.LanguageHint
// uses.
type Language string

const (
	LanguageLocal   Language = "local"
	LanguageEnglish Language = "en"
)

// Classification is the Document Classifier's output.
type Classification struct {
	DocumentType entities.DocumentType
	Complexity   Complexity
	Language     Language
	Confidence   float64
}

var invoiceKeywords = []string{"faktura", "invoice", "účet"}
var receiptKeywords = []string{"účtenka", "receipt", "pokladní"}
var contractKeywords = []string{"smlouva", "contract", "dohoda"}
var taxKeywords = []string{"dph", "vat", "tax", "sleva", "discount"}
var lineItemKeywords = []string{"položka", "item", "služba", "service"}

const diacriticChars = "čřžýáíéúůňťďĺ"

// Classify implements the Document Classifier (spec.md §4.3). filename
// is accepted for symmetry with the reference heuristic but currently
// unused by any of the voting rules below.
func Classify(rawText string, filename string) Classification {
	textLower := strings.ToLower(rawText)

	return Classification{
		DocumentType: classifyDocType(textLower),
		Complexity:   classifyComplexity(rawText, textLower),
		Language:     classifyLanguage(textLower),
		Confidence:   0.8, // fixed heuristic confidence, per spec.md §4.3's keyword-vote approach
	}
}

func classifyDocType(textLower string) entities.DocumentType {
	switch {
	case containsAny(textLower, invoiceKeywords):
		return entities.DocTypeInvoice
	case containsAny(textLower, receiptKeywords):
		return entities.DocTypeReceipt
	case containsAny(textLower, contractKeywords):
		return entities.DocTypeContract
	default:
		return entities.DocTypeOther
	}
}

func classifyComplexity(rawText string, textLower string) Complexity {
	indicators := 0
	total := 4.0

	if len(rawText) > 2000 {
		indicators++
	}
	if strings.Count(rawText, "\n") > 50 {
		indicators++
	}
	if containsAny(textLower, taxKeywords) {
		indicators++
	}
	if containsAny(textLower, lineItemKeywords) {
		indicators++
	}

	score := float64(indicators) / total
	switch {
	case score > 0.6:
		return ComplexityComplex
	case score > 0.3:
		return ComplexityMedium
	default:
		return ComplexitySimple
	}
}

// classifyLanguage scores the ratio of diacritic characters present
// against text length (spec.md §4.3 "ratio of diacritic characters
// against text length; threshold determines local vs. English").
func classifyLanguage(textLower string) Language {
	if len(textLower) == 0 {
		return LanguageEnglish
	}
	diacriticCount := 0
	for _, r := range textLower {
		if strings.ContainsRune(diacriticChars, r) {
			diacriticCount++
		}
	}
	ratio := float64(diacriticCount) / float64(len([]rune(textLower))) * 100
	if ratio > 0.5 {
		return LanguageLocal
	}
	return LanguageEnglish
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

package entities

import "time"

// RawOCRResult is the immutable output of one OCR adapter call
// (spec.md §3, §4.1).
type RawOCRResult struct {
	ProviderID     string
	Text           string
	Confidence     float64 // [0,1]
	ProcessingTime time.Duration
	Success        bool
	ErrorKind      string
	ErrorMessage   string
}

// CombinationScore implements the non-threshold combination rule from
// spec.md §4.4 step 3: 0.7*confidence + 0.3*min(len(text)/1000, 1).
func (r RawOCRResult) CombinationScore() float64 {
	if !r.Success {
		return 0
	}
	lengthTerm := float64(len(r.Text)) / 1000
	if lengthTerm > 1 {
		lengthTerm = 1
	}
	return 0.7*r.Confidence + 0.3*lengthTerm
}

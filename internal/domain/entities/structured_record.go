package entities

import (
	"fmt"
	"strconv"
	"time"
)

// DocumentType classifies the business-document kind (spec.md §3).
type DocumentType string

const (
	DocTypeInvoice  DocumentType = "invoice"
	DocTypeReceipt  DocumentType = "receipt"
	DocTypeContract DocumentType = "contract"
	DocTypeOther    DocumentType = "other"
)

// Money is a decimal amount with an ISO-4217 currency code. Value is
// kept as a string with exactly two fractional digits per spec.md §3
// rather than a float, to avoid binary-rounding drift across the
// normalize/validate/persist round trip.
type Money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Float64 parses Value, returning 0 if it is empty or malformed.
func (m Money) Float64() float64 {
	if m.Value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m.Value, 64)
	if err != nil {
		return 0
	}
	return f
}

// Party is a vendor or customer, optionally enriched from the Registry
// Client (spec.md §4.6).
type Party struct {
	Name               string `json:"name,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	TaxNumber          string `json:"tax_number,omitempty"`
	Address            string `json:"address,omitempty"`
	Enriched           bool   `json:"_enriched"`
	Active             bool   `json:"_active"`
	TaxRegistered      bool   `json:"_tax_registered"`
}

// LineItem is one row of an invoice/receipt line-item table.
type LineItem struct {
	Description string `json:"description,omitempty"`
	Quantity    string `json:"quantity,omitempty"`
	UnitPrice   string `json:"unit_price,omitempty"`
	TotalPrice  string `json:"total_price,omitempty"`
}

// TaxInfo is the tax breakdown; Base + Amount must equal
// TotalAmount.Value within ±0.02 when present (spec.md §3).
type TaxInfo struct {
	Rate   string `json:"rate,omitempty"`
	Amount string `json:"amount,omitempty"`
	Base   string `json:"base,omitempty"`
}

// EnrichmentMeta records what the Enrichment Stage did to a record
// (spec.md §4.6).
type EnrichmentMeta struct {
	EnrichedAt time.Time `json:"enriched_at"`
	Success    bool      `json:"success"`
	Notes      []string  `json:"notes"`
}

// StructuredRecord is the canonical schema produced by the LLM
// Orchestrator (spec.md §3). All fields are optional unless noted.
type StructuredRecord struct {
	DocumentType         DocumentType    `json:"document_type,omitempty"`
	InvoiceNumber        string          `json:"invoice_number,omitempty"`
	DateIssued           string          `json:"date_issued,omitempty"` // ISO-8601 date
	DueDate              string          `json:"due_date,omitempty"`
	TotalAmount          Money           `json:"total_amount,omitempty"`
	Vendor               Party           `json:"vendor,omitempty"`
	Customer             Party           `json:"customer,omitempty"`
	LineItems            []LineItem      `json:"line_items,omitempty"`
	TaxInfo              *TaxInfo        `json:"tax_info,omitempty"`
	ExtractionConfidence float64         `json:"extraction_confidence"`
	EnrichmentMeta       *EnrichmentMeta `json:"_enrichment_meta,omitempty"`
	Notes                []string        `json:"_notes,omitempty"`
}

// ExtractedField is the flat projection of a StructuredRecord used for
// querying (spec.md §3).
type ExtractedField struct {
	DocumentID string
	FieldName  string
	FieldValue string
	Confidence float64
	DataType   string
}

// Flatten projects r into the ExtractedField rows the Persistence
// Gateway writes atomically with the Document's completed transition
// (spec.md §4.10's create_fields).
func (r StructuredRecord) Flatten(documentID string) []ExtractedField {
	var fields []ExtractedField
	add := func(name, value, dataType string) {
		if value == "" {
			return
		}
		fields = append(fields, ExtractedField{
			DocumentID: documentID,
			FieldName:  name,
			FieldValue: value,
			Confidence: r.ExtractionConfidence,
			DataType:   dataType,
		})
	}

	add("document_type", string(r.DocumentType), "string")
	add("invoice_number", r.InvoiceNumber, "string")
	add("date_issued", r.DateIssued, "date")
	add("due_date", r.DueDate, "date")
	add("total_amount.value", r.TotalAmount.Value, "decimal")
	add("total_amount.currency", r.TotalAmount.Currency, "string")
	add("vendor.name", r.Vendor.Name, "string")
	add("vendor.registration_number", r.Vendor.RegistrationNumber, "string")
	add("vendor.tax_number", r.Vendor.TaxNumber, "string")
	add("vendor.address", r.Vendor.Address, "string")
	add("customer.name", r.Customer.Name, "string")
	add("customer.registration_number", r.Customer.RegistrationNumber, "string")
	add("customer.tax_number", r.Customer.TaxNumber, "string")
	add("customer.address", r.Customer.Address, "string")
	if r.TaxInfo != nil {
		add("tax_info.rate", r.TaxInfo.Rate, "decimal")
		add("tax_info.amount", r.TaxInfo.Amount, "decimal")
		add("tax_info.base", r.TaxInfo.Base, "decimal")
	}
	for i, item := range r.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		add(prefix+".description", item.Description, "string")
		add(prefix+".quantity", item.Quantity, "decimal")
		add(prefix+".unit_price", item.UnitPrice, "decimal")
		add(prefix+".total_price", item.TotalPrice, "decimal")
	}
	return fields
}

// FieldCoverage returns the fraction of schema fields (the same set
// Flatten inspects) that are populated, used by ExtractionConfidence's
// clamp(0.5*adapter_confidence + 0.5*field_coverage) formula (spec.md §4.5).
func (r StructuredRecord) FieldCoverage() float64 {
	total := 10.0 // document_type, invoice_number, date_issued, due_date, total_amount, vendor, customer, line_items, tax_info, tax_number — weighted equally
	populated := 0.0
	if r.DocumentType != "" {
		populated++
	}
	if r.InvoiceNumber != "" {
		populated++
	}
	if r.DateIssued != "" {
		populated++
	}
	if r.DueDate != "" {
		populated++
	}
	if r.TotalAmount.Value != "" {
		populated++
	}
	if r.Vendor.Name != "" || r.Vendor.RegistrationNumber != "" {
		populated++
	}
	if r.Customer.Name != "" || r.Customer.RegistrationNumber != "" {
		populated++
	}
	if len(r.LineItems) > 0 {
		populated++
	}
	if r.TaxInfo != nil {
		populated++
	}
	if r.Vendor.TaxNumber != "" || r.Customer.TaxNumber != "" {
		populated++
	}
	return populated / total
}

package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Float64_ParsesValue(t *testing.T) {
	assert.Equal(t, 100.5, Money{Value: "100.50"}.Float64())
}

func TestMoney_Float64_EmptyOrMalformedReturnsZero(t *testing.T) {
	assert.Equal(t, 0.0, Money{}.Float64())
	assert.Equal(t, 0.0, Money{Value: "not-a-number"}.Float64())
}

func TestStructuredRecord_FieldCoverage_FullyPopulatedRecordIsOne(t *testing.T) {
	r := StructuredRecord{
		DocumentType: DocTypeInvoice,
		InvoiceNumber: "INV-1",
		DateIssued:    "2026-01-01",
		DueDate:       "2026-02-01",
		TotalAmount:   Money{Value: "100.00"},
		Vendor:        Party{Name: "Acme", TaxNumber: "CZ12345678"},
		Customer:      Party{Name: "Customer"},
		LineItems:     []LineItem{{Description: "widget"}},
		TaxInfo:       &TaxInfo{Base: "100.00", Amount: "20.00"},
	}
	assert.Equal(t, 1.0, r.FieldCoverage())
}

func TestStructuredRecord_FieldCoverage_EmptyRecordIsZero(t *testing.T) {
	assert.Equal(t, 0.0, StructuredRecord{}.FieldCoverage())
}

func TestStructuredRecord_FieldCoverage_PartiallyPopulated(t *testing.T) {
	r := StructuredRecord{InvoiceNumber: "INV-1", DateIssued: "2026-01-01"}
	coverage := r.FieldCoverage()
	assert.Greater(t, coverage, 0.0)
	assert.Less(t, coverage, 1.0)
}

func TestStructuredRecord_Flatten_OmitsEmptyFieldsAndProjectsConfidence(t *testing.T) {
	r := StructuredRecord{
		InvoiceNumber:        "INV-1",
		TotalAmount:          Money{Value: "100.00", Currency: "CZK"},
		ExtractionConfidence: 0.9,
	}
	fields := r.Flatten("doc-1")

	var names []string
	for _, f := range fields {
		names = append(names, f.FieldName)
		assert.Equal(t, "doc-1", f.DocumentID)
		assert.Equal(t, 0.9, f.Confidence)
	}
	assert.Contains(t, names, "invoice_number")
	assert.Contains(t, names, "total_amount.value")
	assert.NotContains(t, names, "due_date", "an empty field must not be flattened")
	assert.NotContains(t, names, "vendor.name")
}

func TestStructuredRecord_Flatten_IndexesLineItems(t *testing.T) {
	r := StructuredRecord{
		LineItems: []LineItem{
			{Description: "first", Quantity: "1", UnitPrice: "10.00", TotalPrice: "10.00"},
			{Description: "second", Quantity: "2", UnitPrice: "5.00", TotalPrice: "10.00"},
		},
	}
	fields := r.Flatten("doc-1")
	require.NotEmpty(t, fields)

	var sawFirst, sawSecond bool
	for _, f := range fields {
		if f.FieldName == "line_items[0].description" {
			sawFirst = true
			assert.Equal(t, "first", f.FieldValue)
		}
		if f.FieldName == "line_items[1].description" {
			sawSecond = true
			assert.Equal(t, "second", f.FieldValue)
		}
	}
	assert.True(t, sawFirst)
	assert.True(t, sawSecond)
}

func TestStructuredRecord_Flatten_OmitsTaxInfoWhenNil(t *testing.T) {
	fields := StructuredRecord{InvoiceNumber: "INV-1"}.Flatten("doc-1")
	for _, f := range fields {
		assert.NotContains(t, f.FieldName, "tax_info")
	}
}

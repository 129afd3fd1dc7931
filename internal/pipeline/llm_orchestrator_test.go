package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/askelio/docpipeline/internal/adapters/llmadapter"
	"github.com/askelio/docpipeline/internal/classify"
	"github.com/askelio/docpipeline/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePromptManager implements llmadapter.PromptManager with a single
// canned template, avoiding any filesystem dependency in these tests.
type fakePromptManager struct{ prompt string }

func (f fakePromptManager) GetPrompt(ctx context.Context, promptID string) (string, error) {
	return f.prompt, nil
}

// jsonAdapter implements llmadapter.Adapter, returning a fixed
// StructuredRecord JSON payload (or failing, if configured to).
type jsonAdapter struct {
	id      string
	record  entities.StructuredRecord
	cost    float64
	fail    bool
	badJSON bool
}

func (a jsonAdapter) ID() string { return a.id }
func (a jsonAdapter) Structure(ctx context.Context, model, prompt string, maxTokens int, costCeiling float64) llmadapter.Result {
	if a.fail {
		return llmadapter.Result{Success: false, ErrorKind: "provider_error"}
	}
	if a.badJSON {
		return llmadapter.Result{Success: true, Text: "not json", CostUSD: a.cost}
	}
	b, _ := json.Marshal(a.record)
	return llmadapter.Result{Success: true, Text: string(b), CostUSD: a.cost, ConfidenceHint: 0.8}
}

func newOrchestrator(adapter llmadapter.Adapter, model llmadapter.ModelProfile) *LLMOrchestrator {
	registry := llmadapter.NewRegistry([]llmadapter.Adapter{adapter}, []llmadapter.ModelProfile{model})
	pm := fakePromptManager{prompt: "{{.DocumentTypeHint}} {{.RawText}}"}
	return NewLLMOrchestrator(registry, pm, NewCostLedger(), 0, 0, 2000, zap.NewNop())
}

func TestLLMOrchestrator_Structure_HappyPath(t *testing.T) {
	want := entities.StructuredRecord{
		DocumentType:  entities.DocTypeInvoice,
		InvoiceNumber: "INV-1",
		DateIssued:    "15.01.2026",
		TotalAmount:   entities.Money{Value: "100", Currency: "Kč"},
	}
	adapter := jsonAdapter{id: "a", record: want, cost: 0.001}
	model := llmadapter.ModelProfile{AdapterID: "a", ModelID: "model-a", Accuracy: 0.9, CostPer1KTokensIn: 0.001, CostPer1KOut: 0.001}
	o := newOrchestrator(adapter, model)

	record, err := o.Structure(context.Background(), "owner-1", "raw text", classify.Classification{DocumentType: entities.DocTypeInvoice}, 0)
	require.NoError(t, err)
	assert.Equal(t, "INV-1", record.InvoiceNumber)
	assert.Equal(t, "2026-01-15", record.DateIssued, "normalize must convert to ISO-8601")
	assert.Equal(t, "100.00", record.TotalAmount.Value)
	assert.Equal(t, "CZK", record.TotalAmount.Currency)
	assert.Greater(t, record.ExtractionConfidence, 0.0)
}

func TestLLMOrchestrator_Structure_NoModelFallsBackToRegex(t *testing.T) {
	registry := llmadapter.NewRegistry(nil, nil)
	o := NewLLMOrchestrator(registry, fakePromptManager{}, NewCostLedger(), 0, 0, 2000, zap.NewNop())

	record, err := o.Structure(context.Background(), "owner-1", "Invoice: INV-9\nTotal: 50.00", classify.Classification{}, 0)
	require.NoError(t, err)
	assert.Contains(t, record.Notes, "no LLM model available")
	assert.Equal(t, "INV-9", record.InvoiceNumber)
}

func TestLLMOrchestrator_Structure_CostCeilingBreachFallsBackToRegex(t *testing.T) {
	adapter := jsonAdapter{id: "a", record: entities.StructuredRecord{InvoiceNumber: "INV-1"}, cost: 100}
	model := llmadapter.ModelProfile{AdapterID: "a", ModelID: "model-a", Accuracy: 0.9, CostPer1KTokensIn: 1, CostPer1KOut: 1}
	registry := llmadapter.NewRegistry([]llmadapter.Adapter{adapter}, []llmadapter.ModelProfile{model})
	ledger := NewCostLedger()
	ledger.Record("owner-1", 9.999, time.Now())
	o := NewLLMOrchestrator(registry, fakePromptManager{prompt: "x"}, ledger, 10, 0, 2000, zap.NewNop())

	record, err := o.Structure(context.Background(), "owner-1", "Invoice: INV-9\nTotal: 50.00", classify.Classification{}, 0)
	require.NoError(t, err)
	assert.Contains(t, record.Notes, "cost_limit_hit")
}

func TestLLMOrchestrator_Structure_RetriesOnceThenFallsBackOnBadJSON(t *testing.T) {
	adapter := jsonAdapter{id: "a", badJSON: true}
	model := llmadapter.ModelProfile{AdapterID: "a", ModelID: "model-a", Accuracy: 0.9, CostPer1KTokensIn: 0.001, CostPer1KOut: 0.001}
	o := newOrchestrator(adapter, model)

	record, err := o.Structure(context.Background(), "owner-1", "Invoice: INV-9\nTotal: 50.00", classify.Classification{}, 0)
	require.NoError(t, err)
	assert.Contains(t, record.Notes, "llm_parse_failed")
	assert.Equal(t, "INV-9", record.InvoiceNumber, "regex fallback still runs on raw text")
}

func TestLLMOrchestrator_ValidateInvariants_FlagsTaxMismatch(t *testing.T) {
	o := &LLMOrchestrator{logger: zap.NewNop()}
	record := entities.StructuredRecord{
		TotalAmount: entities.Money{Value: "121.00"},
		TaxInfo:     &entities.TaxInfo{Base: "100.00", Amount: "20.00"},
	}
	o.validateInvariants(&record)
	assert.Contains(t, record.Notes[0], "tax_info.base + tax_info.amount does not equal total_amount.value")
}

func TestLLMOrchestrator_ValidateInvariants_FlagsDateOrderMismatch(t *testing.T) {
	o := &LLMOrchestrator{logger: zap.NewNop()}
	record := entities.StructuredRecord{DateIssued: "2026-02-01", DueDate: "2026-01-01"}
	o.validateInvariants(&record)
	assert.Contains(t, record.Notes[0], "date_issued is after due_date")
}

func TestLLMOrchestrator_ValidateInvariants_FlagsLineItemMismatch(t *testing.T) {
	o := &LLMOrchestrator{logger: zap.NewNop()}
	record := entities.StructuredRecord{
		LineItems: []entities.LineItem{{Quantity: "2", UnitPrice: "10.00", TotalPrice: "25.00"}},
	}
	o.validateInvariants(&record)
	require.Len(t, record.Notes, 1)
	assert.Contains(t, record.Notes[0], "quantity * unit_price does not equal total_price")
}

func TestLLMOrchestrator_ValidateInvariants_NoNotesWhenConsistent(t *testing.T) {
	o := &LLMOrchestrator{logger: zap.NewNop()}
	record := entities.StructuredRecord{
		TotalAmount: entities.Money{Value: "120.00"},
		TaxInfo:     &entities.TaxInfo{Base: "100.00", Amount: "20.00"},
		DateIssued:  "2026-01-01",
		DueDate:     "2026-02-01",
		LineItems:   []entities.LineItem{{Quantity: "2", UnitPrice: "10.00", TotalPrice: "20.00"}},
	}
	o.validateInvariants(&record)
	assert.Empty(t, record.Notes)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 1.0, clamp01(1.5))
	assert.Equal(t, 0.5, clamp01(0.5))
}

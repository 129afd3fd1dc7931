// internal/pipeline/llm_orchestrator.go
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/askelio/docpipeline/internal/adapters/llmadapter"
	"github.com/askelio/docpipeline/internal/classify"
	"github.com/askelio/docpipeline/internal/domain/entities"
	"go.uber.org/zap"
)

const invariantTolerance = 0.02

// LLMOrchestrator implements the LLM Orchestrator (spec.md §4.5):
// model selection under a cost ceiling, the prompt/response contract
// with JSON-parse retry and regex-baseline fallback, normalization,
// invariant validation, and extraction_confidence.
type LLMOrchestrator struct {
	registry   *llmadapter.Registry
	promptMgr  llmadapter.PromptManager
	ledger     *CostLedger
	dailyCap   float64
	monthlyCap float64
	maxTokens  int
	logger     *zap.Logger
}

func NewLLMOrchestrator(registry *llmadapter.Registry, promptMgr llmadapter.PromptManager, ledger *CostLedger, dailyCap, monthlyCap float64, maxTokens int, logger *zap.Logger) *LLMOrchestrator {
	return &LLMOrchestrator{
		registry: registry, promptMgr: promptMgr, ledger: ledger,
		dailyCap: dailyCap, monthlyCap: monthlyCap, maxTokens: maxTokens,
		logger: logger.Named("pipeline.llm_orchestrator"),
	}
}

// Structure runs the full LLM Orchestrator algorithm for one job.
func (o *LLMOrchestrator) Structure(ctx context.Context, ownerID string, rawText string, classification classify.Classification, costCeiling float64) (entities.StructuredRecord, error) {
	selection, ok := SelectModel(o.registry, classification, costCeiling)
	if !ok {
		return o.regexFallback(rawText, "no LLM model available"), nil
	}

	now := time.Now()
	estCost := selection.Model.EstimatedCost(estimatedTokensIn, estimatedTokensOut)
	if o.ledger.WouldBreach(ownerID, estCost, o.dailyCap, o.monthlyCap, now) {
		record := o.regexFallback(rawText, "cost_limit_hit")
		return record, nil
	}

	adapter, ok := o.registry.Adapters[selection.Model.AdapterID]
	if !ok {
		return o.regexFallback(rawText, "selected adapter not registered"), nil
	}

	prompt, err := llmadapter.BuildStructurePrompt(ctx, o.promptMgr, rawText, string(classification.DocumentType))
	if err != nil {
		return o.regexFallback(rawText, "prompt template unavailable"), nil
	}

	record, confidenceHint, attempted := o.requestStructured(ctx, adapter, selection.Model.ModelID, prompt, costCeiling, ownerID, now)
	if !attempted {
		return o.regexFallback(rawText, "llm_parse_failed"), nil
	}

	o.normalize(&record)
	o.validateInvariants(&record)
	record.ExtractionConfidence = clamp01(0.5*confidenceHint + 0.5*record.FieldCoverage())
	return record, nil
}

// requestStructured issues up to two LLM calls (the original attempt
// plus one stricter-reminder retry on JSON-parse failure, spec.md
// §4.5 step 1) and reports whether a structured record was obtained
// at all.
func (o *LLMOrchestrator) requestStructured(ctx context.Context, adapter llmadapter.Adapter, modelID string, prompt string, costCeiling float64, ownerID string, now time.Time) (entities.StructuredRecord, float64, bool) {
	for attempt := 0; attempt < 2; attempt++ {
		p := prompt
		if attempt == 1 {
			p = prompt + "\n\nYour previous response was not valid JSON. Respond with ONLY the JSON object, no commentary, no markdown fences."
		}

		result := adapter.Structure(ctx, modelID, p, o.maxTokens, costCeiling)
		if result.CostUSD > 0 {
			o.ledger.Record(ownerID, result.CostUSD, now)
		}
		if !result.Success {
			o.logger.Warn("llm call failed", zap.String("model", modelID), zap.Int("attempt", attempt+1), zap.String("error_kind", result.ErrorKind))
			continue
		}

		var record entities.StructuredRecord
		if err := json.Unmarshal([]byte(result.Text), &record); err != nil {
			o.logger.Warn("llm response failed json parse", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}
		return record, result.ConfidenceHint, true
	}
	return entities.StructuredRecord{}, 0, false
}

// regexFallback runs the deterministic baseline extractor and tags
// the record's notes so downstream consumers know an LLM call never
// produced the result.
func (o *LLMOrchestrator) regexFallback(rawText string, reason string) entities.StructuredRecord {
	record := RegexBaseline(rawText)
	record.Notes = append(record.Notes, reason)
	record.ExtractionConfidence = clamp01(0.5*0.4 + 0.5*record.FieldCoverage()) // 0.4: fixed conservative confidence_hint for a non-LLM source
	return record
}

// normalize applies spec.md §4.5 step 2 to every normalizable field.
func (o *LLMOrchestrator) normalize(record *entities.StructuredRecord) {
	if iso, ok := normalizeDate(record.DateIssued); ok {
		record.DateIssued = iso
	}
	if iso, ok := normalizeDate(record.DueDate); ok {
		record.DueDate = iso
	}
	if record.TotalAmount.Value != "" {
		record.TotalAmount.Value = normalizeAmount(record.TotalAmount.Value)
	}
	record.TotalAmount.Currency = normalizeCurrency(record.TotalAmount.Currency)
	for i := range record.LineItems {
		if record.LineItems[i].UnitPrice != "" {
			record.LineItems[i].UnitPrice = normalizeAmount(record.LineItems[i].UnitPrice)
		}
		if record.LineItems[i].TotalPrice != "" {
			record.LineItems[i].TotalPrice = normalizeAmount(record.LineItems[i].TotalPrice)
		}
	}
	if record.TaxInfo != nil {
		if record.TaxInfo.Amount != "" {
			record.TaxInfo.Amount = normalizeAmount(record.TaxInfo.Amount)
		}
		if record.TaxInfo.Base != "" {
			record.TaxInfo.Base = normalizeAmount(record.TaxInfo.Base)
		}
	}
}

// validateInvariants checks spec.md §3's three cross-field invariants,
// appending a note (never correcting the field) on failure.
func (o *LLMOrchestrator) validateInvariants(record *entities.StructuredRecord) {
	if record.TaxInfo != nil && record.TaxInfo.Base != "" && record.TaxInfo.Amount != "" && record.TotalAmount.Value != "" {
		base := parseFloatOrZero(record.TaxInfo.Base)
		amount := parseFloatOrZero(record.TaxInfo.Amount)
		total := parseFloatOrZero(record.TotalAmount.Value)
		if math.Abs((base+amount)-total) > invariantTolerance {
			record.Notes = append(record.Notes, "tax_info.base + tax_info.amount does not equal total_amount.value")
		}
	}

	if record.DateIssued != "" && record.DueDate != "" && record.DateIssued > record.DueDate {
		record.Notes = append(record.Notes, "date_issued is after due_date")
	}

	for i, item := range record.LineItems {
		if item.Quantity == "" || item.UnitPrice == "" || item.TotalPrice == "" {
			continue
		}
		qty := parseFloatOrZero(item.Quantity)
		unit := parseFloatOrZero(item.UnitPrice)
		total := parseFloatOrZero(item.TotalPrice)
		if math.Abs(qty*unit-total) > invariantTolerance {
			record.Notes = append(record.Notes, fmt.Sprintf("line_items[%d]: quantity * unit_price does not equal total_price", i))
		}
	}
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

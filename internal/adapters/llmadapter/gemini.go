// internal/adapters/llmadapter/gemini.go
package llmadapter

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiAdapter implements Adapter against Google's Gemini models.
// Request/response shape (content parts, ResponseSchema-constrained
// JSON, UsageMetadata-based token accounting) is adapted from the
// account_ocr_gemini reference client.
type GeminiAdapter struct {
	logger *zap.Logger
	apiKey string
	prices map[string]PriceRow // modelID -> price per 1K tokens
}

const GeminiAdapterID = "gemini"

// PriceRow is the per-model price-table entry cost_usd is computed
// from (spec.md §4.1 "never estimated post-hoc").
type PriceRow struct {
	InPer1K  float64
	OutPer1K float64
}

// NewGeminiAdapter creates a GeminiAdapter. prices must carry an entry
// for every model this adapter will be asked to run; a model missing
// from prices is treated as a provider_error rather than silently
// costed at zero.
func NewGeminiAdapter(apiKey string, prices map[string]PriceRow, logger *zap.Logger) *GeminiAdapter {
	return &GeminiAdapter{logger: logger.Named("llm.gemini"), apiKey: apiKey, prices: prices}
}

func (a *GeminiAdapter) ID() string { return GeminiAdapterID }

// Structure implements Adapter. prompt already embeds the target
// schema in natural language (spec.md §4.5); the Gemini-specific
// genai.Schema constraint below is an additional structural guardrail
// on top of that, not a replacement for it.
func (a *GeminiAdapter) Structure(ctx context.Context, model string, prompt string, maxTokens int, costCeiling float64) Result {
	start := time.Now()

	price, ok := a.prices[model]
	if !ok {
		return Result{Success: false, ErrorKind: "provider_error", ErrorMessage: "no price table entry for model " + model}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return Result{Success: false, ErrorKind: classifyGeminiError(err), ErrorMessage: err.Error(), Latency: time.Since(start)}
	}
	defer client.Close()

	gm := client.GenerativeModel(model)
	gm.ResponseMIMEType = "application/json"
	gm.ResponseSchema = structuredRecordSchema()
	gm.MaxOutputTokens = int32Ptr(int32(maxTokens))

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	latency := time.Since(start)
	if err != nil {
		return Result{Success: false, ErrorKind: classifyGeminiError(err), ErrorMessage: err.Error(), Latency: latency}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Result{Success: false, ErrorKind: "provider_error", ErrorMessage: "empty response from gemini", Latency: latency}
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text = string(t)
			break
		}
	}
	if text == "" {
		return Result{Success: false, ErrorKind: "provider_error", ErrorMessage: "no text part in gemini response", Latency: latency}
	}

	var tokensIn, tokensOut int
	if resp.UsageMetadata != nil {
		tokensIn = int(resp.UsageMetadata.PromptTokenCount)
		tokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	costUSD := (float64(tokensIn)/1000)*price.InPer1K + (float64(tokensOut)/1000)*price.OutPer1K
	if costCeiling > 0 && costUSD > costCeiling {
		return Result{
			Success: false, ErrorKind: "llm_cost_ceiling",
			ErrorMessage: "call cost exceeded ceiling", Latency: latency,
			TokensIn: tokensIn, TokensOut: tokensOut, CostUSD: costUSD,
		}
	}

	return Result{
		Text:      text,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		CostUSD:   costUSD,
		Latency:   latency,
		Success:   true,
	}
}

func int32Ptr(v int32) *int32 { return &v }

// classifyGeminiError maps genai/grpc error text to the adapter error
// taxonomy, mirroring the ocradapter Vision classifier's approach.
func classifyGeminiError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "context deadline exceeded"), strings.Contains(msg, "DeadlineExceeded"):
		return "timeout"
	case strings.Contains(msg, "Unauthenticated"), strings.Contains(msg, "API key not valid"):
		return "provider_auth"
	case strings.Contains(msg, "ResourceExhausted"), strings.Contains(msg, "rate limit"):
		return "rate_limit"
	default:
		return "transient_network"
	}
}

// structuredRecordSchema mirrors entities.StructuredRecord's shape
// (spec.md §3) as a genai.Schema, constraining Gemini's JSON output
// at the API level in addition to the prompt's own schema description.
func structuredRecordSchema() *genai.Schema {
	money := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"value":    {Type: genai.TypeString},
			"currency": {Type: genai.TypeString},
		},
	}
	party := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":                {Type: genai.TypeString},
			"registration_number": {Type: genai.TypeString},
			"tax_number":          {Type: genai.TypeString},
			"address":             {Type: genai.TypeString},
		},
	}
	lineItem := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"description": {Type: genai.TypeString},
			"quantity":    {Type: genai.TypeString},
			"unit_price":  {Type: genai.TypeString},
			"total_price": {Type: genai.TypeString},
		},
	}
	taxInfo := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"rate":   {Type: genai.TypeString},
			"amount": {Type: genai.TypeString},
			"base":   {Type: genai.TypeString},
		},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"document_type":  {Type: genai.TypeString, Enum: []string{"invoice", "receipt", "contract", "other"}},
			"invoice_number": {Type: genai.TypeString},
			"date_issued":    {Type: genai.TypeString},
			"due_date":       {Type: genai.TypeString},
			"total_amount":   money,
			"vendor":         party,
			"customer":       party,
			"line_items":     {Type: genai.TypeArray, Items: lineItem},
			"tax_info":       taxInfo,
			"_notes":         {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
	}
}

// internal/adapters/llmadapter/prompts.go
package llmadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/askelio/docpipeline/internal/apperrors"
	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// PromptManager resolves a named prompt template, used by the LLM
// Orchestrator to build the deterministic prompt/response contract
// (spec.md §4.5: raw text + target schema in, schema-shaped JSON out).
type PromptManager interface {
	GetPrompt(ctx context.Context, promptID string) (string, error)
}

// FilePromptManager implements PromptManager, loading prompt templates
// from JSON/YAML/TOML files under templatePath. Templates are cached
// in-memory after first load.
type FilePromptManager struct {
	promptTemplates map[string]string
	templatePath    string
	logger          *zap.Logger
	promptCache     sync.Map
}

// NewFilePromptManager loads every prompt template under templatePath
// and returns a ready-to-use FilePromptManager.
func NewFilePromptManager(templatePath string, logger *zap.Logger) (*FilePromptManager, error) {
	fpm := &FilePromptManager{
		promptTemplates: make(map[string]string),
		templatePath:    templatePath,
		logger:          logger.Named("llm.prompts"),
	}
	if err := fpm.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to initialize FilePromptManager: %w", err)
	}
	fpm.logger.Info("prompt templates loaded",
		zap.String("template_path", templatePath), zap.Int("prompt_count", len(fpm.promptTemplates)))
	return fpm, nil
}

func (fpm *FilePromptManager) loadPromptsFromFiles() error {
	return filepath.Walk(fpm.templatePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		var promptMap map[string]string
		file, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("error reading prompt file %s: %w", path, err)
		}

		switch ext := filepath.Ext(path); ext {
		case ".json":
			if err := json.Unmarshal(file, &promptMap); err != nil {
				return fmt.Errorf("error parsing JSON file %s: %w", path, err)
			}
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(file, &promptMap); err != nil {
				return fmt.Errorf("error parsing YAML file %s: %w", path, err)
			}
		case ".toml":
			if err := toml.Unmarshal(file, &promptMap); err != nil {
				return fmt.Errorf("error parsing TOML file %s: %w", path, err)
			}
		default:
			return nil
		}

		promptID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for _, prompt := range promptMap {
			fpm.promptTemplates[promptID] = prompt
			fpm.promptCache.Store(promptID, prompt)
		}
		return nil
	})
}

// GetPrompt implements PromptManager.
func (fpm *FilePromptManager) GetPrompt(ctx context.Context, promptID string) (string, error) {
	if cached, ok := fpm.promptCache.Load(promptID); ok {
		if prompt, ok := cached.(string); ok {
			return prompt, nil
		}
	}
	prompt, ok := fpm.promptTemplates[promptID]
	if !ok {
		return "", apperrors.NewNotFoundError("prompt_template", promptID)
	}
	fpm.promptCache.Store(promptID, prompt)
	return prompt, nil
}

// StructurePromptID is the template the LLM Orchestrator uses for the
// OCR-text-to-canonical-schema request (spec.md §4.5).
const StructurePromptID = "structure_record"

// BuildStructurePrompt fills the structure_record template with the
// raw OCR text and the document-type hint from the Document
// Classifier. A missing template falls back to an inline default so
// the orchestrator never fails solely for want of a template file.
func BuildStructurePrompt(ctx context.Context, pm PromptManager, rawText string, docTypeHint string) (string, error) {
	tmpl := defaultStructureTemplate
	if pm != nil {
		loaded, err := pm.GetPrompt(ctx, StructurePromptID)
		switch {
		case err == nil:
			tmpl = loaded
		case apperrors.IsNotFound(err):
			// fall through with the built-in default
		default:
			return "", err
		}
	}
	tmpl = strings.ReplaceAll(tmpl, "{{.DocumentTypeHint}}", docTypeHint)
	tmpl = strings.ReplaceAll(tmpl, "{{.RawText}}", rawText)
	return tmpl, nil
}

const defaultStructureTemplate = `You are extracting structured data from a business document.
The document's probable type is: {{.DocumentTypeHint}}.

Return a single JSON object matching this schema exactly:
{
  "document_type": "invoice|receipt|contract|other",
  "invoice_number": "string",
  "date_issued": "ISO-8601 date",
  "due_date": "ISO-8601 date",
  "total_amount": {"value": "decimal string", "currency": "ISO-4217 code"},
  "vendor": {"name": "string", "registration_number": "string", "tax_number": "string", "address": "string"},
  "customer": {"name": "string", "registration_number": "string", "tax_number": "string", "address": "string"},
  "line_items": [{"description": "string", "quantity": "decimal string", "unit_price": "decimal string", "total_price": "decimal string"}],
  "tax_info": {"rate": "decimal string", "amount": "decimal string", "base": "decimal string"},
  "_notes": ["any field you could not extract with confidence, named explicitly"]
}

Use an empty string or omit a field entirely when it cannot be read from the document; never invent a value.
Document text follows, delimited by triple backticks:
` + "```" + `
{{.RawText}}
` + "```" + `
`

package agents

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/workflow"
	"github.com/ChetanaCoder/bom-comparison-clientversion/pkg/claude"
)

const extractSystemPrompt = `Extract consumable materials, jigs, and tools from QA work-instruction text. For each material, assign exactly one classification label:
1 consumable with part number and quantity
2 consumable with part number, specification, and quantity
3 consumable with part number, no quantity
4 consumable without part number
5 no consumable mentioned
6 consumable with mismatched part number
7 consumable with obsolete part number
8 ambiguous consumable name
9 vendor name only
10 multiple consumables without mapping
11 pre-assembled kit
12 work instruction mentions consumable only
13 vendor kit without part number

Respond with a valid JSON object:
{"materials": [{"name": "...", "category": "...", "part_number": "...", "vendor_name": "...", "quantity": 0, "unit_of_measure": "...", "specifications": {}, "context": "...", "classification_label": 1}]}`

const extractMaxChars = 12000

// Extractor pulls classified materials out of translated QA text via the
// model, then normalizes them against the rulebook.
type Extractor struct {
	client   claude.Client
	model    string
	registry *Registry

	mu    sync.Mutex
	stats extractorStats
}

type extractorStats struct {
	DocumentsProcessed int
	MaterialsExtracted int
	Errors             int
}

// NewExtractor creates an Extractor.
func NewExtractor(client claude.Client, modelID string, registry *Registry) *Extractor {
	return &Extractor{client: client, model: modelID, registry: registry}
}

// Process extracts classified materials from translated text. When no focus
// categories are given, the rulebook's defaults apply.
func (e *Extractor) Process(ctx context.Context, text string, focusCategories []string) (*workflow.ExtractionResult, error) {
	if strings.TrimSpace(text) == "" {
		e.bumpErrors()
		return nil, eris.New("agents: no text to extract from")
	}
	if len(focusCategories) == 0 {
		focusCategories = e.registry.FocusCategories()
	}
	text = truncateRunes(text, extractMaxChars)

	prompt := "Focus on these categories: " + strings.Join(focusCategories, ", ") + "\n\nQA document text:\n" + text

	temp := 0.0
	resp, err := e.client.CreateMessage(ctx, claude.MessageRequest{
		Model:       e.model,
		MaxTokens:   4096,
		System:      extractSystemPrompt,
		Temperature: &temp,
		Messages:    []claude.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		e.bumpErrors()
		return nil, eris.Wrap(err, "agents: extract materials")
	}
	resp.Usage.LogCost(resp.Model, "extraction")

	materials, err := e.parseMaterials(resp.Text)
	if err != nil {
		e.bumpErrors()
		return nil, err
	}

	e.mu.Lock()
	e.stats.DocumentsProcessed++
	e.stats.MaterialsExtracted += len(materials)
	e.mu.Unlock()

	zap.L().Info("extract: materials extracted", zap.Int("count", len(materials)))

	return &workflow.ExtractionResult{
		Materials: materials,
		Summary:   workflow.Summarize(materials),
	}, nil
}

func (e *Extractor) parseMaterials(text string) ([]model.ExtractedMaterial, error) {
	var doc struct {
		Materials []model.ExtractedMaterial `json:"materials"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &doc); err != nil {
		return nil, eris.Wrap(err, "agents: parse extraction response")
	}

	for i := range doc.Materials {
		e.registry.Apply(&doc.Materials[i])
	}
	return doc.Materials, nil
}

// Stats returns the extractor's processing counters.
func (e *Extractor) Stats() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return map[string]any{
		"documents_processed": e.stats.DocumentsProcessed,
		"materials_extracted": e.stats.MaterialsExtracted,
		"errors":              e.stats.Errors,
	}
}

func (e *Extractor) bumpErrors() {
	e.mu.Lock()
	e.stats.Errors++
	e.mu.Unlock()
}

// truncateRunes cuts text to at most max bytes without splitting a
// multi-byte character. Translated text carries multi-byte runes, and a
// byte-sliced cut would send invalid UTF-8 to the API.
func truncateRunes(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

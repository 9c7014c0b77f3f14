package agents

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/workflow"
	"github.com/ChetanaCoder/bom-comparison-clientversion/pkg/claude"
)

// Compile-time interface checks.
var (
	_ workflow.Translator = (*StubTranslator)(nil)
	_ workflow.Extractor  = (*StubExtractor)(nil)
	_ workflow.Translator = (*Translator)(nil)
	_ workflow.Extractor  = (*Extractor)(nil)
	_ claude.Client       = (*StubClaudeClient)(nil)
)

// --- Translator Stub ---

// StubTranslator passes document text through unchanged, for runs without an
// API key.
type StubTranslator struct{}

// Process implements workflow.Translator.
func (s *StubTranslator) Process(_ context.Context, documentRef, sourceLang, targetLang string) (*workflow.TranslationResult, error) {
	raw, err := os.ReadFile(documentRef)
	if err != nil {
		return nil, eris.Wrapf(err, "stub translator: read %s", documentRef)
	}
	return &workflow.TranslationResult{
		TranslatedText: string(raw),
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
	}, nil
}

// Stats implements workflow.Translator.
func (s *StubTranslator) Stats() map[string]any {
	return map[string]any{"mode": "stub"}
}

// --- Extractor Stub ---

// categoryKeywords drives the stub's line-based material detection. Order
// matters: the first matching category wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"fasteners", []string{"bolt", "nut", "screw", "washer", "rivet"}},
	{"adhesives", []string{"adhesive", "glue", "epoxy", "sealant", "tape"}},
	{"seals", []string{"gasket", "seal", "o-ring"}},
	{"electrical", []string{"wire", "cable", "connector", "terminal"}},
	{"tools", []string{"jig", "fixture", "tool", "wrench", "driver"}},
}

// StubExtractor extracts materials with simple keyword rules so offline runs
// still exercise the full matching path. A line mentioning a known keyword
// becomes one material; a leading token that looks like a part number (has a
// digit and a dash) is carried over and yields a green label.
type StubExtractor struct{}

// Process implements workflow.Extractor.
func (s *StubExtractor) Process(_ context.Context, text string, focusCategories []string) (*workflow.ExtractionResult, error) {
	focus := make(map[string]bool, len(focusCategories))
	for _, c := range focusCategories {
		focus[strings.ToLower(c)] = true
	}

	var materials []model.ExtractedMaterial
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		for _, entry := range categoryKeywords {
			if len(focus) > 0 && !focus[entry.category] {
				continue
			}
			if !containsAny(lower, entry.keywords) {
				continue
			}

			m := model.ExtractedMaterial{
				Name:     line,
				Category: entry.category,
				Context:  line,
			}
			if pn := leadingPartNumber(line); pn != "" {
				m.PartNumber = pn
				m.Name = strings.TrimSpace(strings.TrimPrefix(line, pn))
				m.Label = model.LabelConsumableNoQty
			} else {
				m.Label = model.LabelConsumableNoPN
			}
			materials = append(materials, m)
			break
		}
	}

	registry, err := LoadRegistry()
	if err != nil {
		return nil, err
	}
	for i := range materials {
		registry.Apply(&materials[i])
	}

	return &workflow.ExtractionResult{
		Materials: materials,
		Summary:   workflow.Summarize(materials),
	}, nil
}

// Stats implements workflow.Extractor.
func (s *StubExtractor) Stats() map[string]any {
	return map[string]any{"mode": "stub"}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// leadingPartNumber returns the first token when it looks like a part number.
func leadingPartNumber(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	token := fields[0]
	hasDigit := strings.IndexFunc(token, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
	if hasDigit && strings.Contains(token, "-") {
		return token
	}
	return ""
}

// --- Claude Stub ---

// StubClaudeClient implements claude.Client with canned responses.
type StubClaudeClient struct{}

// CreateMessage implements claude.Client.
func (s *StubClaudeClient) CreateMessage(_ context.Context, req claude.MessageRequest) (*claude.MessageResponse, error) {
	content := req.System
	for _, m := range req.Messages {
		content += m.Content
	}

	var responseText string
	if strings.Contains(strings.ToLower(content), "classification label") {
		responseText = `{"materials": [{"name": "stub material", "category": "consumables", "classification_label": 4}]}`
	} else {
		responseText = "stub translation"
	}

	return &claude.MessageResponse{
		ID:         "stub-msg-001",
		Model:      req.Model,
		Text:       responseText,
		StopReason: "end_turn",
		Usage: claude.TokenUsage{
			InputTokens:  150,
			OutputTokens: 50,
		},
	}, nil
}

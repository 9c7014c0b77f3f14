package agents

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/workflow"
	"github.com/ChetanaCoder/bom-comparison-clientversion/pkg/claude"
)

const translateSystemPrompt = `Translate technical QA documents between languages. Preserve all technical terms, specifications, part numbers, and measurements exactly. Maintain original structure and formatting. Respond with the translation only.`

const translateChunkSize = 1500

// Translator translates QA documents chunk by chunk through the model.
type Translator struct {
	client claude.Client
	model  string

	mu    sync.Mutex
	stats translatorStats
}

type translatorStats struct {
	DocumentsProcessed   int
	CharactersTranslated int
	ChunksProcessed      int
	Errors               int
}

// NewTranslator creates a Translator.
func NewTranslator(client claude.Client, model string) *Translator {
	return &Translator{client: client, model: model}
}

// Process reads the document and translates it into the target language.
// Chunks are translated sequentially so the output preserves document order.
func (t *Translator) Process(ctx context.Context, documentRef, sourceLang, targetLang string) (*workflow.TranslationResult, error) {
	raw, err := os.ReadFile(documentRef)
	if err != nil {
		t.bumpErrors()
		return nil, eris.Wrapf(err, "agents: read document %s", documentRef)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		t.bumpErrors()
		return nil, eris.Errorf("agents: document %s is empty", documentRef)
	}

	chunks := splitChunks(text, translateChunkSize)
	zap.L().Info("translate: processing document",
		zap.String("document", documentRef),
		zap.Int("chunks", len(chunks)),
	)

	translated := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		out, err := t.translateChunk(ctx, chunk, sourceLang, targetLang)
		if err != nil {
			t.bumpErrors()
			return nil, eris.Wrapf(err, "agents: translate chunk %d/%d", i+1, len(chunks))
		}
		translated = append(translated, out)
	}

	full := strings.Join(translated, "\n\n")

	t.mu.Lock()
	t.stats.DocumentsProcessed++
	t.stats.CharactersTranslated += len(full)
	t.stats.ChunksProcessed += len(chunks)
	t.mu.Unlock()

	return &workflow.TranslationResult{
		TranslatedText: full,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
	}, nil
}

func (t *Translator) translateChunk(ctx context.Context, chunk, sourceLang, targetLang string) (string, error) {
	temp := 0.1
	resp, err := t.client.CreateMessage(ctx, claude.MessageRequest{
		Model:       t.model,
		MaxTokens:   2048,
		System:      translateSystemPrompt,
		Temperature: &temp,
		Messages: []claude.Message{
			{Role: "user", Content: "Translate from " + sourceLang + " to " + targetLang + ":\n\n" + chunk},
		},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(resp.Model, "translation")
	return strings.TrimSpace(resp.Text), nil
}

// Stats returns the translator's processing counters.
func (t *Translator) Stats() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return map[string]any{
		"documents_processed":   t.stats.DocumentsProcessed,
		"characters_translated": t.stats.CharactersTranslated,
		"chunks_processed":      t.stats.ChunksProcessed,
		"errors":                t.stats.Errors,
	}
}

func (t *Translator) bumpErrors() {
	t.mu.Lock()
	t.stats.Errors++
	t.mu.Unlock()
}

// splitChunks splits text on paragraph boundaries into chunks of at most
// maxSize characters. A single paragraph longer than maxSize becomes its own
// chunk rather than being cut mid-sentence.
func splitChunks(text string, maxSize int) []string {
	if len(text) <= maxSize {
		return []string{text}
	}

	var chunks []string
	var current []string
	length := 0

	for _, para := range strings.Split(text, "\n\n") {
		if length+len(para) > maxSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = []string{para}
			length = len(para)
			continue
		}
		current = append(current, para)
		length += len(para)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}
	return chunks
}

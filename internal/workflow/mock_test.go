package workflow

import (
	"context"
	"sync"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/notify"
)

type mockTranslator struct {
	result *TranslationResult
	err    error
}

func (m *mockTranslator) Process(_ context.Context, _, _, _ string) (*TranslationResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockTranslator) Stats() map[string]any { return map[string]any{"documents_processed": 1} }

type mockExtractor struct {
	result *ExtractionResult
	err    error
}

func (m *mockExtractor) Process(_ context.Context, _ string, _ []string) (*ExtractionResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockExtractor) Stats() map[string]any { return map[string]any{} }

type mockIngester struct {
	catalog *model.SupplierCatalog
	err     error
}

func (m *mockIngester) Process(_ context.Context, _ string) (*model.SupplierCatalog, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.catalog, nil
}

func (m *mockIngester) Stats() map[string]any { return map[string]any{} }

// capturingPublisher records every published update.
type capturingPublisher struct {
	mu      sync.Mutex
	updates []notify.Update
}

func (c *capturingPublisher) Publish(u notify.Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
}

func (c *capturingPublisher) all() []notify.Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Update(nil), c.updates...)
}

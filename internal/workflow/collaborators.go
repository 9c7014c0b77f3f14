package workflow

import (
	"context"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/notify"
)

// TranslationResult is the output of the translation collaborator.
type TranslationResult struct {
	TranslatedText string `json:"translated_text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

// Translator translates a QA document into the working language.
type Translator interface {
	Process(ctx context.Context, documentRef, sourceLang, targetLang string) (*TranslationResult, error)
	Stats() map[string]any
}

// ExtractionResult is the output of the extraction collaborator. Materials
// arrive fully classified; the pipeline never recomputes labels.
type ExtractionResult struct {
	Materials []model.ExtractedMaterial     `json:"materials"`
	Summary   model.QAClassificationSummary `json:"qa_classification_summary"`
}

// Extractor pulls classified materials out of translated QA text.
type Extractor interface {
	Process(ctx context.Context, text string, focusCategories []string) (*ExtractionResult, error)
	Stats() map[string]any
}

// SupplierIngester parses a supplier catalog file into sheet-structured rows.
type SupplierIngester interface {
	Process(ctx context.Context, fileRef string) (*model.SupplierCatalog, error)
	Stats() map[string]any
}

// Publisher receives progress updates. Delivery is best-effort and must
// never block the pipeline.
type Publisher interface {
	Publish(u notify.Update)
}

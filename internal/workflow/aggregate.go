package workflow

import (
	"time"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
)

// Summarize counts materials by action path and classification label.
// It runs as a separate reduction pass after matching so no counters are
// shared with the per-material workers.
func Summarize(materials []model.ExtractedMaterial) model.QAClassificationSummary {
	summary := model.QAClassificationSummary{
		Total:     len(materials),
		Breakdown: make(map[string]int),
	}

	for _, m := range materials {
		switch m.ActionPath {
		case model.ActionGreen:
			summary.Green++
		case model.ActionAmber:
			summary.Amber++
		default:
			// Unrecognized action paths are conservatively treated as
			// requiring intervention.
			summary.Red++
		}
		summary.Breakdown[m.Label.String()]++
	}

	return summary
}

// Assemble builds the terminal comparison result.
func Assemble(runID string, materials []model.ExtractedMaterial, matches []model.BOMMatch, totalSupplierItems int, metadata map[string]any) *model.BOMComparisonResult {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["processing_time"] = time.Now().UTC().Format(time.RFC3339)

	return &model.BOMComparisonResult{
		RunID:              runID,
		Matches:            matches,
		TotalQAItems:       len(materials),
		TotalSupplierItems: totalSupplierItems,
		Summary:            Summarize(materials),
		ProcessingMetadata: metadata,
	}
}

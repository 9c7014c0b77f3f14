package model

// MatchType identifies which strategy produced a match.
type MatchType string

const (
	MatchExactPartNumber MatchType = "exact_part_number"
	MatchExact           MatchType = "exact"
	MatchVendorBased     MatchType = "vendor_based"
	MatchFuzzy           MatchType = "fuzzy_match"
	MatchNone            MatchType = "no_match"
)

// BOMMatch pairs one extracted material with its best supplier catalog
// candidate, or records the absence of one. Exactly one BOMMatch exists per
// material. The QA classification fields are copied verbatim from the source
// material for downstream display.
type BOMMatch struct {
	MaterialName        string    `json:"qa_material_name"`
	SupplierPartNumber  string    `json:"supplier_part_number"`
	SupplierDescription string    `json:"supplier_description"`
	ConfidenceScore     float64   `json:"confidence_score"`
	MatchType           MatchType `json:"match_type"`
	QAExcerpt           string    `json:"qa_excerpt,omitempty"`
	Reasoning           string    `json:"reasoning"`
	MaterialCategory    string    `json:"material_category,omitempty"`
	SupplierCategory    string    `json:"supplier_category,omitempty"`

	Label            ClassificationLabel `json:"qa_classification_label"`
	ActionPath       ActionPath          `json:"qa_action_path"`
	ConfidenceLevel  ConfidenceLevel     `json:"qa_confidence_level"`
	PartNumber       string              `json:"part_number,omitempty"`
	PNMismatch       bool                `json:"pn_mismatch,omitempty"`
	NameMismatch     bool                `json:"name_mismatch,omitempty"`
	ObsoletePN       bool                `json:"obsolete_pn,omitempty"`
	Quantity         float64             `json:"quantity,omitempty"`
	UnitOfMeasure    string              `json:"unit_of_measure,omitempty"`
	VendorName       string              `json:"vendor_name,omitempty"`
	KitAvailable     bool                `json:"kit_available,omitempty"`
	ConsumableOrTool bool                `json:"consumable_jigs_tools,omitempty"`
}

// Matched reports whether the match carries a supplier candidate.
func (m BOMMatch) Matched() bool {
	return m.ConfidenceScore > 0
}

// QAClassificationSummary aggregates materials by action path and label.
// Invariant: Green + Amber + Red == Total.
type QAClassificationSummary struct {
	Total     int            `json:"total_materials"`
	Green     int            `json:"green_materials"`
	Amber     int            `json:"amber_materials"`
	Red       int            `json:"red_materials"`
	Breakdown map[string]int `json:"classification_breakdown,omitempty"`
}

// BOMComparisonResult is the terminal output of a workflow run.
type BOMComparisonResult struct {
	RunID              string                  `json:"workflow_id"`
	Matches            []BOMMatch              `json:"matches"`
	TotalQAItems       int                     `json:"total_qa_items"`
	TotalSupplierItems int                     `json:"total_supplier_items"`
	Summary            QAClassificationSummary `json:"qa_classification_summary"`
	ProcessingMetadata map[string]any          `json:"processing_metadata,omitempty"`
}

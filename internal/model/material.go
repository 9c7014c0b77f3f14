package model

// ClassificationLabel is one of the 13 QA material classification codes.
// Labels are assigned upstream by the extraction collaborator and are never
// recomputed inside this module.
type ClassificationLabel int

const (
	LabelConsumableWithPNQty ClassificationLabel = iota + 1
	LabelConsumableWithPNSpecQty
	LabelConsumableNoQty
	LabelConsumableNoPN
	LabelNoConsumableMentioned
	LabelConsumablePNMismatch
	LabelConsumableObsoletePN
	LabelAmbiguousConsumableName
	LabelVendorNameOnly
	LabelMultipleConsumablesNoMapping
	LabelPreAssembledKit
	LabelWIMentionsConsumableOnly
	LabelVendorKitNoPN
)

// Valid reports whether the label is within the closed 1-13 range.
func (l ClassificationLabel) Valid() bool {
	return l >= LabelConsumableWithPNQty && l <= LabelVendorKitNoPN
}

// HasPartNumber reports whether the label indicates the QA document carried a
// usable part number, making exact part-number matching applicable.
func (l ClassificationLabel) HasPartNumber() bool {
	switch l {
	case LabelConsumableWithPNQty, LabelConsumableWithPNSpecQty, LabelConsumableNoQty:
		return true
	}
	return false
}

// VendorOnly reports whether the label indicates the material is identified
// by vendor name alone.
func (l ClassificationLabel) VendorOnly() bool {
	return l == LabelVendorNameOnly || l == LabelVendorKitNoPN
}

// Ambiguous reports whether the label indicates an ambiguous or
// part-number-less material, for which fuzzy matching applies.
func (l ClassificationLabel) Ambiguous() bool {
	switch l {
	case LabelConsumableNoPN, LabelAmbiguousConsumableName, LabelNoConsumableMentioned:
		return true
	}
	return false
}

// RequiresIntervention reports whether the label belongs to the set that
// always requires a conservative match threshold (human review path).
func (l ClassificationLabel) RequiresIntervention() bool {
	switch l {
	case LabelConsumableNoPN, LabelNoConsumableMentioned, LabelConsumablePNMismatch,
		LabelConsumableObsoletePN, LabelAmbiguousConsumableName:
		return true
	}
	return false
}

// ActionPath is the RAG tag indicating how a material should be registered.
type ActionPath string

const (
	ActionGreen ActionPath = "green" // auto-register
	ActionAmber ActionPath = "amber" // auto-register with flag
	ActionRed   ActionPath = "red"   // human intervention required
)

// ConfidenceLevel grades the upstream classifier's certainty.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ExtractedMaterial is one material pulled out of a QA document by the
// extraction collaborator, with its classification attached.
type ExtractedMaterial struct {
	Name           string              `json:"name"`
	Category       string              `json:"category"`
	Specifications map[string]string   `json:"specifications,omitempty"`
	Context        string              `json:"context,omitempty"`
	Label          ClassificationLabel `json:"classification_label"`
	ActionPath     ActionPath          `json:"action_path"`
	Confidence     ConfidenceLevel     `json:"confidence_level"`

	PartNumber    string  `json:"part_number,omitempty"`
	VendorName    string  `json:"vendor_name,omitempty"`
	Quantity      float64 `json:"quantity,omitempty"`
	UnitOfMeasure string  `json:"unit_of_measure,omitempty"`

	PNMismatch       bool `json:"pn_mismatch,omitempty"`
	NameMismatch     bool `json:"name_mismatch,omitempty"`
	ObsoletePN       bool `json:"obsolete_pn,omitempty"`
	KitAvailable     bool `json:"kit_available,omitempty"`
	ConsumableOrTool bool `json:"consumable_jigs_tools,omitempty"`
}

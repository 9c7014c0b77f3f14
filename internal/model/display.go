package model

// Presentation-layer names for the domain enums. The domain types stay pure
// ordinal codes; everything glyph- or label-shaped lives here.

var labelNames = map[ClassificationLabel]string{
	LabelConsumableWithPNQty:          "consumable_with_pn_qty",
	LabelConsumableWithPNSpecQty:      "consumable_with_pn_spec_qty",
	LabelConsumableNoQty:              "consumable_no_qty",
	LabelConsumableNoPN:               "consumable_no_pn",
	LabelNoConsumableMentioned:        "no_consumable_mentioned",
	LabelConsumablePNMismatch:         "consumable_pn_mismatch",
	LabelConsumableObsoletePN:         "consumable_obsolete_pn",
	LabelAmbiguousConsumableName:      "ambiguous_consumable_name",
	LabelVendorNameOnly:               "vendor_name_only",
	LabelMultipleConsumablesNoMapping: "multiple_consumables_no_mapping",
	LabelPreAssembledKit:              "pre_assembled_kit",
	LabelWIMentionsConsumableOnly:     "wi_mentions_consumable_only",
	LabelVendorKitNoPN:                "vendor_kit_no_pn",
}

func (l ClassificationLabel) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return "unknown"
}

var actionGlyphs = map[ActionPath]string{
	ActionGreen: "\U0001F7E2",
	ActionAmber: "\U0001F7E0",
	ActionRed:   "\U0001F534",
}

// Glyph returns the traffic-light symbol used in result tables.
func (a ActionPath) Glyph() string {
	return actionGlyphs[a]
}

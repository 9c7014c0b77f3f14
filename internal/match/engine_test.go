package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
)

func TestMatch_ExactPartNumber(t *testing.T) {
	e := New()
	material := model.ExtractedMaterial{
		Name:       "M6 Bolt",
		Label:      model.LabelConsumableWithPNQty,
		ActionPath: model.ActionGreen,
		PartNumber: "BOLT-M6-20-SS",
	}
	catalog := []model.SupplierItem{
		{PartNumber: "BOLT-M6-20-SS", Description: "M6x20 SS Bolt"},
	}

	m := e.Match(material, catalog, 0.6)
	assert.Equal(t, model.MatchExactPartNumber, m.MatchType)
	assert.Equal(t, 0.98, m.ConfidenceScore)
	assert.Equal(t, "BOLT-M6-20-SS", m.SupplierPartNumber)
}

func TestMatch_ExactPartNumber_CaseAndWhitespaceInsensitive(t *testing.T) {
	e := New()
	material := model.ExtractedMaterial{
		Name:       "M6 Bolt",
		Label:      model.LabelConsumableNoQty,
		ActionPath: model.ActionGreen,
		PartNumber: "  bolt-m6-20-ss ",
	}
	catalog := []model.SupplierItem{
		{PartNumber: "BOLT-M6-20-SS", Description: "M6x20 SS Bolt"},
	}

	m := e.Match(material, catalog, 0.6)
	assert.Equal(t, model.MatchExactPartNumber, m.MatchType)
}

func TestMatch_PartNumberIgnoredForWrongLabel(t *testing.T) {
	e := New()
	// Vendor-only labels never attempt part-number matching even when a
	// part number is present.
	material := model.ExtractedMaterial{
		Name:       "widget",
		Label:      model.LabelVendorNameOnly,
		ActionPath: model.ActionAmber,
		PartNumber: "PN-1",
	}
	catalog := []model.SupplierItem{
		{PartNumber: "PN-1", Description: "unrelated thing"},
	}

	m := e.Match(material, catalog, 0.6)
	assert.Equal(t, model.MatchNone, m.MatchType)
}

func TestMatch_NoMatchOnNonOverlappingCatalog(t *testing.T) {
	e := New()
	material := model.ExtractedMaterial{
		Name:       "Epoxy Adhesive",
		Label:      model.LabelNoConsumableMentioned,
		ActionPath: model.ActionRed,
	}
	catalog := []model.SupplierItem{
		{PartNumber: "X1", Description: "stainless bracket"},
		{PartNumber: "X2", Description: "copper tubing"},
	}

	m := e.Match(material, catalog, 0.6)
	assert.Equal(t, model.MatchNone, m.MatchType)
	assert.Zero(t, m.ConfidenceScore)
	assert.Empty(t, m.SupplierPartNumber)
	assert.Equal(t, "no suitable match found", m.Reasoning)
}

func TestMatch_FuzzyAcceptedAboveInterventionFloor(t *testing.T) {
	e := New()
	material := model.ExtractedMaterial{
		Name:       "rubber gasket seal",
		Label:      model.LabelAmbiguousConsumableName,
		ActionPath: model.ActionAmber,
	}
	catalog := []model.SupplierItem{
		{PartNumber: "RG-9", Description: "rubber seal gasket kit"},
	}

	m := e.Match(material, catalog, 0.6)
	require.Equal(t, model.MatchFuzzy, m.MatchType)
	assert.InDelta(t, 0.75, m.ConfidenceScore, 1e-9)
}

func TestMatch_FuzzyRejectedBelowInterventionFloor(t *testing.T) {
	e := New()
	// Jaccard 2/4 = 0.5 clears the fuzzy gate but not the 0.7 floor that
	// human-intervention labels impose.
	material := model.ExtractedMaterial{
		Name:       "rubber gasket",
		Label:      model.LabelConsumableNoPN,
		ActionPath: model.ActionAmber,
	}
	catalog := []model.SupplierItem{
		{PartNumber: "RG-1", Description: "gasket rubber assembly extra"},
	}

	m := e.Match(material, catalog, 0.6)
	assert.Equal(t, model.MatchNone, m.MatchType)
}

func TestMatch_VendorBased(t *testing.T) {
	e := New()
	material := model.ExtractedMaterial{
		Name:       "connector kit",
		VendorName: "Acme",
		Label:      model.LabelVendorNameOnly,
		ActionPath: model.ActionAmber,
	}
	catalog := []model.SupplierItem{
		{PartNumber: "AC-77", Description: "connector assembly kit", Manufacturer: "Acme Corp"},
	}

	m := e.Match(material, catalog, 0.6)
	require.Equal(t, model.MatchVendorBased, m.MatchType)
	// nameSimilarity = |{connector,kit}| / |{connector,kit,assembly}| = 2/3
	assert.InDelta(t, 0.6+0.3*(2.0/3.0), m.ConfidenceScore, 1e-9)
	assert.Equal(t, "AC-77", m.SupplierPartNumber)
}

func TestMatch_TieBreakPrefersEarlierStrategy(t *testing.T) {
	e := New()
	material := model.ExtractedMaterial{
		Name:       "bolt",
		Label:      model.LabelConsumableWithPNQty,
		ActionPath: model.ActionGreen,
		PartNumber: "PN-A",
	}
	// Two part-number hits with equal confidence: the earlier catalog row
	// must win.
	catalog := []model.SupplierItem{
		{PartNumber: "PN-A", Description: "first bolt"},
		{PartNumber: "PN-A", Description: "second bolt"},
	}

	m := e.Match(material, catalog, 0.6)
	assert.Equal(t, "first bolt", m.SupplierDescription)
}

func TestMatch_PartNumberOutranksExactText(t *testing.T) {
	e := New()
	material := model.ExtractedMaterial{
		Name:       "torque wrench",
		Label:      model.LabelConsumableWithPNQty,
		ActionPath: model.ActionGreen,
		PartNumber: "TW-500",
	}
	catalog := []model.SupplierItem{
		{PartNumber: "OTHER", Description: "torque wrench deluxe"},
		{PartNumber: "TW-500", Description: "calibrated driver"},
	}

	m := e.Match(material, catalog, 0.6)
	assert.Equal(t, model.MatchExactPartNumber, m.MatchType)
	assert.Equal(t, "TW-500", m.SupplierPartNumber)
}

func TestMatch_EmptyCatalog(t *testing.T) {
	e := New()
	material := model.ExtractedMaterial{
		Name:       "anything",
		Label:      model.LabelConsumableWithPNQty,
		ActionPath: model.ActionGreen,
		PartNumber: "PN",
	}

	m := e.Match(material, nil, 0.6)
	assert.Equal(t, model.MatchNone, m.MatchType)
	assert.Zero(t, m.ConfidenceScore)
}

func TestMatch_Deterministic(t *testing.T) {
	e := New()
	material := model.ExtractedMaterial{
		Name:       "rubber gasket seal",
		Label:      model.LabelAmbiguousConsumableName,
		ActionPath: model.ActionAmber,
	}
	catalog := []model.SupplierItem{
		{PartNumber: "A", Description: "rubber seal gasket kit"},
		{PartNumber: "B", Description: "gasket seal rubber pack"},
	}

	first := e.Match(material, catalog, 0.6)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Match(material, catalog, 0.6))
	}
}

func TestMatch_EnrichmentAlwaysApplied(t *testing.T) {
	e := New()
	material := model.ExtractedMaterial{
		Name:          "unobtainium rod",
		Label:         model.LabelConsumableObsoletePN,
		ActionPath:    model.ActionRed,
		Confidence:    model.ConfidenceLow,
		PartNumber:    "OBS-1",
		VendorName:    "Oldco",
		Quantity:      4,
		UnitOfMeasure: "pcs",
		ObsoletePN:    true,
		KitAvailable:  true,
	}

	m := e.Match(material, nil, 0.6)
	require.Equal(t, model.MatchNone, m.MatchType)
	assert.Equal(t, model.LabelConsumableObsoletePN, m.Label)
	assert.Equal(t, model.ActionRed, m.ActionPath)
	assert.Equal(t, model.ConfidenceLow, m.ConfidenceLevel)
	assert.Equal(t, "OBS-1", m.PartNumber)
	assert.Equal(t, "Oldco", m.VendorName)
	assert.Equal(t, 4.0, m.Quantity)
	assert.Equal(t, "pcs", m.UnitOfMeasure)
	assert.True(t, m.ObsoletePN)
	assert.True(t, m.KitAvailable)
}

func TestMatch_FullWidthPartNumberNormalized(t *testing.T) {
	e := New()
	material := model.ExtractedMaterial{
		Name:       "bolt",
		Label:      model.LabelConsumableWithPNQty,
		ActionPath: model.ActionGreen,
		PartNumber: "ＢＯＬＴ－１", // BOLT-1 in full-width forms
	}
	catalog := []model.SupplierItem{
		{PartNumber: "BOLT-1", Description: "hex bolt"},
	}

	m := e.Match(material, catalog, 0.6)
	assert.Equal(t, model.MatchExactPartNumber, m.MatchType)
}

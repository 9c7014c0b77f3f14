// Package match implements the classification-aware matching engine that
// resolves extracted QA materials against a supplier catalog.
package match

import (
	"fmt"
	"strings"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
)

// Strategy confidence constants. Exact part-number hits outrank exact text
// hits, which outrank everything the similarity strategies can produce.
const (
	exactPartNumberConfidence = 0.98
	exactTextConfidence       = 0.95
	vendorBaseConfidence      = 0.6
	vendorSimilarityWeight    = 0.3
	fuzzyMinIndex             = 0.4
	fuzzyMinCommonWords       = 2
)

// Engine generates candidate matches for one material at a time. It holds no
// mutable state, so a single Engine is safe to share across goroutines.
type Engine struct{}

// New creates a match Engine.
func New() *Engine {
	return &Engine{}
}

// candidate pairs a prospective match with its strategy rank so ties in
// confidence break toward the earlier-listed strategy.
type candidate struct {
	match model.BOMMatch
	rank  int
}

// Match resolves a single material against the full catalog. It always
// returns exactly one BOMMatch: the best surviving candidate, or an explicit
// no-match record. The returned match carries the material's classification
// fields regardless of outcome.
func (e *Engine) Match(material model.ExtractedMaterial, catalog []model.SupplierItem, baseThreshold float64) model.BOMMatch {
	candidates := e.generate(material, catalog)
	threshold := AdjustThreshold(baseThreshold, material)

	best, found := selectBest(candidates, threshold)
	if !found {
		best = model.BOMMatch{
			MaterialName:        material.Name,
			SupplierDescription: "",
			ConfidenceScore:     0,
			MatchType:           model.MatchNone,
			QAExcerpt:           material.Context,
			Reasoning:           "no suitable match found",
			MaterialCategory:    material.Category,
		}
	}

	enrich(&best, material)
	return best
}

// generate runs the four strategies in priority order, gated on the
// material's classification label.
func (e *Engine) generate(material model.ExtractedMaterial, catalog []model.SupplierItem) []candidate {
	var out []candidate

	if material.PartNumber != "" && material.Label.HasPartNumber() {
		out = appendCandidates(out, 0, e.exactPartNumber(material, catalog))
	}
	out = appendCandidates(out, 1, e.exactText(material, catalog))
	if material.VendorName != "" && material.Label.VendorOnly() {
		out = appendCandidates(out, 2, e.vendorBased(material, catalog))
	}
	if material.Label.Ambiguous() {
		out = appendCandidates(out, 3, e.fuzzy(material, catalog))
	}

	return out
}

func appendCandidates(dst []candidate, rank int, matches []model.BOMMatch) []candidate {
	for _, m := range matches {
		dst = append(dst, candidate{match: m, rank: rank})
	}
	return dst
}

// selectBest discards candidates below the threshold and picks the one with
// maximum confidence. On exact ties the first-seen candidate wins, which by
// construction is the earlier strategy (and earlier catalog row).
func selectBest(candidates []candidate, threshold float64) (model.BOMMatch, bool) {
	var best candidate
	found := false
	for _, c := range candidates {
		if c.match.ConfidenceScore < threshold {
			continue
		}
		if !found || c.match.ConfidenceScore > best.match.ConfidenceScore {
			best = c
			found = true
		}
	}
	return best.match, found
}

func (e *Engine) exactPartNumber(material model.ExtractedMaterial, catalog []model.SupplierItem) []model.BOMMatch {
	var matches []model.BOMMatch
	pn := normalize(material.PartNumber)
	if pn == "" {
		return nil
	}
	for _, item := range catalog {
		if normalize(item.PartNumber) != pn {
			continue
		}
		matches = append(matches, model.BOMMatch{
			MaterialName:        material.Name,
			SupplierPartNumber:  item.PartNumber,
			SupplierDescription: item.Description,
			ConfidenceScore:     exactPartNumberConfidence,
			MatchType:           model.MatchExactPartNumber,
			QAExcerpt:           material.Context,
			Reasoning:           fmt.Sprintf("exact part number match: %s", material.PartNumber),
			MaterialCategory:    material.Category,
			SupplierCategory:    item.Category,
		})
	}
	return matches
}

func (e *Engine) exactText(material model.ExtractedMaterial, catalog []model.SupplierItem) []model.BOMMatch {
	var matches []model.BOMMatch
	name := normalize(material.Name)
	if name == "" {
		return nil
	}
	for _, item := range catalog {
		if !strings.Contains(normalize(item.Description), name) &&
			!strings.Contains(normalize(item.PartNumber), name) {
			continue
		}
		matches = append(matches, model.BOMMatch{
			MaterialName:        material.Name,
			SupplierPartNumber:  item.PartNumber,
			SupplierDescription: item.Description,
			ConfidenceScore:     exactTextConfidence,
			MatchType:           model.MatchExact,
			QAExcerpt:           material.Context,
			Reasoning:           "material name found verbatim in supplier description",
			MaterialCategory:    material.Category,
			SupplierCategory:    item.Category,
		})
	}
	return matches
}

func (e *Engine) vendorBased(material model.ExtractedMaterial, catalog []model.SupplierItem) []model.BOMMatch {
	var matches []model.BOMMatch
	vendor := normalize(material.VendorName)
	if vendor == "" {
		return nil
	}
	nameWords := tokens(material.Name)
	for _, item := range catalog {
		if !strings.Contains(normalize(item.Manufacturer), vendor) {
			continue
		}
		similarity, _ := jaccard(nameWords, tokens(item.Description))
		matches = append(matches, model.BOMMatch{
			MaterialName:        material.Name,
			SupplierPartNumber:  item.PartNumber,
			SupplierDescription: item.Description,
			ConfidenceScore:     vendorBaseConfidence + similarity*vendorSimilarityWeight,
			MatchType:           model.MatchVendorBased,
			QAExcerpt:           material.Context,
			Reasoning:           fmt.Sprintf("vendor match: %s with name similarity %.2f", material.VendorName, similarity),
			MaterialCategory:    material.Category,
			SupplierCategory:    item.Category,
		})
	}
	return matches
}

func (e *Engine) fuzzy(material model.ExtractedMaterial, catalog []model.SupplierItem) []model.BOMMatch {
	var matches []model.BOMMatch
	nameWords := tokens(material.Name)
	if len(nameWords) == 0 {
		return nil
	}
	for _, item := range catalog {
		index, common := jaccard(nameWords, tokens(item.Description))
		if common < fuzzyMinCommonWords || index < fuzzyMinIndex {
			continue
		}
		matches = append(matches, model.BOMMatch{
			MaterialName:        material.Name,
			SupplierPartNumber:  item.PartNumber,
			SupplierDescription: item.Description,
			ConfidenceScore:     index,
			MatchType:           model.MatchFuzzy,
			QAExcerpt:           material.Context,
			Reasoning:           fmt.Sprintf("fuzzy match on %d common words (jaccard %.2f)", common, index),
			MaterialCategory:    material.Category,
			SupplierCategory:    item.Category,
		})
	}
	return matches
}

// enrich copies the material's classification and audit fields onto the
// match. This happens for every return path, matched or not.
func enrich(m *model.BOMMatch, material model.ExtractedMaterial) {
	m.Label = material.Label
	m.ActionPath = material.ActionPath
	m.ConfidenceLevel = material.Confidence
	m.PartNumber = material.PartNumber
	m.PNMismatch = material.PNMismatch
	m.NameMismatch = material.NameMismatch
	m.ObsoletePN = material.ObsoletePN
	m.Quantity = material.Quantity
	m.UnitOfMeasure = material.UnitOfMeasure
	m.VendorName = material.VendorName
	m.KitAvailable = material.KitAvailable
	m.ConsumableOrTool = material.ConsumableOrTool
}

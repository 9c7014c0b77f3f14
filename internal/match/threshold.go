package match

import "github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"

// interventionFloor is the minimum acceptance threshold for materials whose
// label requires human review, regardless of action-path scaling.
const interventionFloor = 0.7

// AdjustThreshold scales the caller-supplied base threshold by the material's
// action path: green materials were classified confidently upstream so the
// bar is lowered, red materials raise it. Labels in the human-intervention
// set additionally clamp the threshold to at least 0.7.
func AdjustThreshold(base float64, material model.ExtractedMaterial) float64 {
	adjusted := base
	switch material.ActionPath {
	case model.ActionGreen:
		adjusted = base * 0.8
	case model.ActionAmber:
		adjusted = base
	case model.ActionRed:
		adjusted = base * 1.2
	}

	if material.Label.RequiresIntervention() && adjusted < interventionFloor {
		adjusted = interventionFloor
	}
	return adjusted
}

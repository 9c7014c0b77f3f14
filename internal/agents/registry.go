// Package agents provides the model-backed workflow collaborators and their
// deterministic offline stand-ins.
package agents

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
)

//go:embed rules.yaml
var rulesYAML []byte

// Rule maps one classification label to its registration path and default
// confidence grade.
type Rule struct {
	Label      int    `yaml:"label"`
	Name       string `yaml:"name"`
	ActionPath string `yaml:"action_path"`
	Confidence string `yaml:"confidence"`
}

// Registry holds the classification rulebook.
type Registry struct {
	rules           map[model.ClassificationLabel]Rule
	focusCategories []string
}

// LoadRegistry parses the embedded rulebook.
func LoadRegistry() (*Registry, error) {
	var doc struct {
		Labels          []Rule   `yaml:"labels"`
		FocusCategories []string `yaml:"focus_categories"`
	}
	if err := yaml.Unmarshal(rulesYAML, &doc); err != nil {
		return nil, eris.Wrap(err, "agents: parse rulebook")
	}
	if len(doc.Labels) == 0 {
		return nil, eris.New("agents: rulebook has no labels")
	}

	r := &Registry{
		rules:           make(map[model.ClassificationLabel]Rule, len(doc.Labels)),
		focusCategories: doc.FocusCategories,
	}
	for _, rule := range doc.Labels {
		label := model.ClassificationLabel(rule.Label)
		if !label.Valid() {
			return nil, eris.Errorf("agents: rulebook label %d out of range", rule.Label)
		}
		r.rules[label] = rule
	}
	return r, nil
}

// FocusCategories returns the default category whitelist for extraction.
func (r *Registry) FocusCategories() []string {
	out := make([]string, len(r.focusCategories))
	copy(out, r.focusCategories)
	return out
}

// Apply normalizes a material against the rulebook: invalid labels fall back
// to ambiguous, and missing action path or confidence are filled in from the
// label's rule.
func (r *Registry) Apply(m *model.ExtractedMaterial) {
	if !m.Label.Valid() {
		m.Label = model.LabelAmbiguousConsumableName
	}
	rule, ok := r.rules[m.Label]
	if !ok {
		return
	}
	if m.ActionPath == "" {
		m.ActionPath = model.ActionPath(rule.ActionPath)
	}
	if m.Confidence == "" {
		m.Confidence = model.ConfidenceLevel(rule.Confidence)
	}
}

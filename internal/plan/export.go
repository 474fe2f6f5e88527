package plan

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ExportedRound is the reviewable form of a Round.
type ExportedRound struct {
	Plans    []ExportedPlan     `yaml:"plans"`
	Deferred []ExportedDeferred `yaml:"deferred,omitempty"`
	Failed   []string           `yaml:"failed,omitempty"`
}

// ExportedPlan is the reviewable form of a DeclPlan.
type ExportedPlan struct {
	Shape    string          `yaml:"shape"`
	Domain   string          `yaml:"domain"`
	Kind     string          `yaml:"kind"`
	Fields   []ExportedField `yaml:"fields,omitempty"`
	Cases    []string        `yaml:"cases,omitempty"`
	Requires []string        `yaml:"requires,omitempty"`
}

// ExportedField is the reviewable form of a TransformPlan.
type ExportedField struct {
	Shape     string `yaml:"shape"`
	Domain    string `yaml:"domain"`
	Transform string `yaml:"transform"`
	Nested    string `yaml:"nested,omitempty"`
	Ordinal   string `yaml:"ordinal,omitempty"`
}

// ExportedDeferred is the reviewable form of a Deferred declaration.
type ExportedDeferred struct {
	Decl   string `yaml:"decl"`
	Reason string `yaml:"reason"`
}

// Export converts a round into its reviewable form.
func Export(r *Round) *ExportedRound {
	out := &ExportedRound{Plans: []ExportedPlan{}}

	for i := range r.Plans {
		out.Plans = append(out.Plans, exportPlan(&r.Plans[i]))
	}

	for _, d := range r.Deferred {
		out.Deferred = append(out.Deferred, ExportedDeferred{Decl: d.Decl.String(), Reason: d.Reason})
	}

	for _, id := range r.Failed {
		out.Failed = append(out.Failed, id.String())
	}

	return out
}

// ExportYAML renders a round as YAML.
func ExportYAML(r *Round) ([]byte, error) {
	data, err := yaml.Marshal(Export(r))
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}

	return data, nil
}

func exportPlan(dp *DeclPlan) ExportedPlan {
	ep := ExportedPlan{
		Shape:  dp.Shape.String(),
		Domain: dp.Domain.String(),
		Kind:   dp.Kind.String(),
	}

	for _, f := range dp.Fields {
		ef := ExportedField{
			Shape:     f.ShapeName,
			Domain:    f.DomainName,
			Transform: f.Kind.String(),
		}

		if f.Nested != nil {
			ef.Nested = wrappedName(f.Nested.Wrap, f.Nested.Shape)
		}

		if f.Ordinal != nil {
			ef.Ordinal = f.Ordinal.Enum.String()
		}

		ep.Fields = append(ep.Fields, ef)
	}

	for _, c := range dp.Cases {
		ep.Cases = append(ep.Cases, c.Shape+" -> "+c.Domain)
	}

	for _, id := range dp.Requires {
		ep.Requires = append(ep.Requires, id.String())
	}

	return ep
}

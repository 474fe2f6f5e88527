package plan

import (
	"fmt"
	"go/token"

	"domainer/internal/analyze"
	"domainer/internal/diagnostic"
	"domainer/internal/match"
)

// matchCases pairs every shape case with the domain case of the same name,
// after rename. The pairing must be a bijection; every violation is
// reported before giving up on the declaration.
func (p *Planner) matchCases(st *state, domain *analyze.Declaration) ([]CasePair, bool) {
	meta := st.meta
	pairs := make([]CasePair, 0, len(meta.Members))
	claimed := make(map[string]string)
	ok := true

	var domainNames, shapeNames []string

	for _, dc := range domain.Cases {
		if accessible(st.decl, domain.ID, dc.Exported) {
			domainNames = append(domainNames, dc.Name)
		}
	}

	for _, m := range meta.Members {
		shapeNames = append(shapeNames, m.Name)
	}

	for _, m := range meta.Members {
		target := m.DomainName()

		dc := domain.Case(target)
		if dc == nil || !accessible(st.decl, domain.ID, dc.Exported) {
			p.unmatched(st, m.Name, m.Pos,
				fmt.Sprintf("case %s has no counterpart %s in %s", m.Name, target, domain.ID.Name),
				match.Suggest(target, domainNames, match.DefaultSuggestLimit))

			ok = false

			continue
		}

		if prev, dup := claimed[target]; dup {
			p.addError(st, diagnostic.CodeDuplicateEnumCase, m.Name, m.Pos,
				"cases %s and %s both map to %s.%s", prev, m.Name, domain.ID.Name, target)

			ok = false

			continue
		}

		claimed[target] = m.Name
		pairs = append(pairs, CasePair{Shape: m.Name, Domain: target})
	}

	for _, dc := range domain.Cases {
		if _, done := claimed[dc.Name]; done {
			continue
		}

		p.unmatched(st, dc.Name, dc.Pos,
			fmt.Sprintf("%s.%s is not covered by any case of %s", domain.ID.Name, dc.Name, st.decl.ID.Name),
			match.Suggest(dc.Name, shapeNames, match.DefaultSuggestLimit))

		ok = false
	}

	if !ok {
		return nil, false
	}

	// Cases sharing a constant value would collide in the generated switch.
	ok = p.distinctValues(st, st.decl) && p.distinctValues(st, domain)

	return pairs, ok
}

func (p *Planner) distinctValues(st *state, decl *analyze.Declaration) bool {
	seen := make(map[string]string)
	ok := true

	for _, c := range decl.Cases {
		if prev, dup := seen[c.Value]; dup {
			p.addError(st, diagnostic.CodeDuplicateEnumCase, c.Name, c.Pos,
				"cases %s.%s and %s.%s share the value %s", decl.ID.Name, prev, decl.ID.Name, c.Name, c.Value)

			ok = false

			continue
		}

		seen[c.Value] = c.Name
	}

	return ok
}

func (p *Planner) unmatched(st *state, member string, pos token.Position, msg string, suggestions []string) {
	st.diags.Add(diagnostic.Diagnostic{
		Severity:    diagnostic.SeverityError,
		Code:        diagnostic.CodeUnmatchedEnumCase,
		Message:     msg,
		Decl:        st.decl.ID.String(),
		Member:      member,
		Pos:         pos,
		Suggestions: suggestions,
	})
}

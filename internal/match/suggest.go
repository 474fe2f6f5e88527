package match

import (
	"cmp"
	"slices"
)

// MinSuggestScore is the similarity below which a candidate is not offered.
const MinSuggestScore = 0.5

// DefaultSuggestLimit caps the number of suggestions per diagnostic.
const DefaultSuggestLimit = 3

type scored struct {
	name  string
	score float64
}

// Suggest returns up to limit candidates most similar to name, best first.
// Ties are broken by candidate name so the result is deterministic.
func Suggest(name string, candidates []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	norm := NormalizeIdent(name)

	var ranked []scored

	for _, c := range candidates {
		if c == name {
			continue
		}

		s := Similarity(norm, NormalizeIdent(c))
		if s >= MinSuggestScore {
			ranked = append(ranked, scored{name: c, score: s})
		}
	}

	slices.SortFunc(ranked, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}

		return cmp.Compare(a.name, b.name)
	})

	out := make([]string, 0, min(limit, len(ranked)))
	for i := 0; i < len(ranked) && i < limit; i++ {
		out = append(out, ranked[i].name)
	}

	return out
}

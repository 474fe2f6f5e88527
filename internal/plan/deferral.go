package plan

import (
	"slices"

	"domainer/internal/analyze"
	"domainer/internal/diagnostic"
)

// guardDepth fails every declaration from which a nested-mapping chain of
// more than MaxDepth distinct declarations can be walked. Cycles end a
// chain; they are legal and never count as infinite depth.
func (p *Planner) guardDepth() {
	if p.config.MaxDepth <= 0 {
		return
	}

	for _, id := range p.order {
		st := p.states[id]
		if st.status != statusOK || len(st.deps) == 0 {
			continue
		}

		if depth, ok := p.chainDepth(id); !ok {
			p.addError(st, diagnostic.CodeRecursionLimitExceeded, "", st.decl.Pos,
				"nested mapping chain from %s is deeper than %d (reached %d)", id.Name, p.config.MaxDepth, depth)
			st.fail()
		}
	}
}

// chainDepth walks the nested dependencies of root depth first. It returns
// the deepest level reached and false once the ceiling is crossed.
func (p *Planner) chainDepth(root analyze.TypeID) (int, bool) {
	onPath := make(map[analyze.TypeID]bool)
	// reached memoizes the deepest level each declaration was entered at; a
	// shallower visit cannot go further.
	reached := make(map[analyze.TypeID]int)
	deepest := 0

	var walk func(id analyze.TypeID, depth int) bool

	walk = func(id analyze.TypeID, depth int) bool {
		deepest = max(deepest, depth)
		if depth > p.config.MaxDepth {
			return false
		}

		if onPath[id] {
			return true
		}

		if prev, seen := reached[id]; seen && prev >= depth {
			return true
		}

		reached[id] = depth
		onPath[id] = true

		defer delete(onPath, id)

		st := p.states[id]
		if st == nil {
			return true
		}

		for _, dep := range st.deps {
			if dep == id {
				continue
			}

			if !walk(dep, depth+1) {
				return false
			}
		}

		return true
	}

	ok := walk(root, 0)

	return deepest, ok
}

// propagate settles statuses over the dependency graph: a declaration that
// depends on a failed one fails, then one that depends on a deferred one is
// deferred. Both steps are monotone fixpoints, so the outcome does not
// depend on iteration order.
func (p *Planner) propagate() {
	failedBy := p.spread(statusFailed)
	deferredBy := p.spread(statusDeferred)

	for _, id := range p.order {
		st := p.states[id]

		if dep, ok := failedBy[id]; ok {
			p.addError(st, diagnostic.CodeInvalidDependency, "", st.decl.Pos,
				"depends on %s, which cannot be generated", dep)
		}

		if dep, ok := deferredBy[id]; ok {
			st.reason = "waits for " + dep.String()
		}
	}
}

// spread moves OK declarations with a dependency in the given status into
// that status until nothing changes. It returns, per moved declaration, the
// first dependency in that status after the fixpoint.
func (p *Planner) spread(to status) map[analyze.TypeID]analyze.TypeID {
	moved := make(map[analyze.TypeID]bool)

	for changed := true; changed; {
		changed = false

		for _, id := range p.order {
			st := p.states[id]
			if st.status != statusOK {
				continue
			}

			for _, dep := range st.deps {
				if ds := p.states[dep]; ds != nil && ds.status == to {
					st.status = to
					moved[id] = true
					changed = true

					break
				}
			}
		}
	}

	by := make(map[analyze.TypeID]analyze.TypeID, len(moved))

	for id := range moved {
		for _, dep := range p.states[id].deps {
			if ds := p.states[dep]; ds != nil && ds.status == to {
				by[id] = dep
				break
			}
		}
	}

	return by
}

func appendID(ids []analyze.TypeID, id analyze.TypeID) []analyze.TypeID {
	if slices.Contains(ids, id) {
		return ids
	}

	return append(ids, id)
}

func sortedIDs(ids []analyze.TypeID) []analyze.TypeID {
	slices.SortFunc(ids, func(a, b analyze.TypeID) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})

	return ids
}

package plan

import (
	"go/token"
	"slices"

	"domainer/internal/analyze"
	"domainer/internal/common"
	"domainer/internal/diagnostic"
)

// TransformKind tags the strategy selected for one record field.
type TransformKind int

const (
	// TransformIdentity copies the value under the same name.
	TransformIdentity TransformKind = iota
	// TransformRenamed copies the value under the domain-side name.
	TransformRenamed
	// TransformNested calls the generated functions of a mapped field type.
	TransformNested
	// TransformEnumOrdinal encodes an enum case as its declaration index.
	TransformEnumOrdinal
)

// String returns a human-readable transform name.
func (k TransformKind) String() string {
	switch k {
	case TransformIdentity:
		return "identity"
	case TransformRenamed:
		return "renamed"
	case TransformNested:
		return "nested"
	case TransformEnumOrdinal:
		return "enum_ordinal"
	default:
		return common.UnknownStr
	}
}

// Wrap is the container around a nested mapped type.
type Wrap int

const (
	WrapNone    Wrap = iota // T
	WrapPointer             // *T, nil preserved
	WrapSlice               // []T, nil preserved
)

// String returns a human-readable wrap name.
func (w Wrap) String() string {
	switch w {
	case WrapNone:
		return "none"
	case WrapPointer:
		return "pointer"
	case WrapSlice:
		return "slice"
	default:
		return common.UnknownStr
	}
}

// NestedRef is the data of a TransformNested plan.
type NestedRef struct {
	// Shape is the mapped field type.
	Shape analyze.TypeID
	// Domain is the domain type Shape is paired with.
	Domain analyze.TypeID
	Wrap   Wrap
}

// OrdinalRef is the data of a TransformEnumOrdinal plan.
type OrdinalRef struct {
	// Enum is the shape-side enumeration indexed by the field.
	Enum analyze.TypeID
	// Cases are the enumeration's cases in declaration order.
	Cases []string
	// Domain is set when Enum is itself mapped; its generated functions are
	// applied after indexing.
	Domain *analyze.TypeID
	// Index is the integer type of the shape field.
	Index *analyze.TypeExpr
}

// TransformPlan is the selected transform for one record field.
type TransformPlan struct {
	Kind       TransformKind
	ShapeName  string
	DomainName string
	Nested     *NestedRef
	Ordinal    *OrdinalRef
	Pos        token.Position
}

// CasePair pairs one shape enum case with its domain case.
type CasePair struct {
	Shape  string
	Domain string
}

// DeclPlan is the validated plan of one annotated declaration.
type DeclPlan struct {
	Shape  analyze.TypeID
	Domain analyze.TypeID
	Kind   analyze.DeclKind
	// Fields is set for records, in declaration order.
	Fields []TransformPlan
	// Cases is set for enums, in declaration order.
	Cases []CasePair
	// Requires lists the mapped declarations whose generated functions the
	// plan calls, sorted.
	Requires []analyze.TypeID
	Pos      token.Position
}

// IsEnum reports whether the plan maps an enumeration.
func (p *DeclPlan) IsEnum() bool {
	return p.Kind == analyze.DeclKindEnum
}

// Deferred is a declaration that could not be resolved this round.
type Deferred struct {
	Decl   analyze.TypeID
	Reason string
	Pos    token.Position
}

// Round is the outcome of planning every annotated declaration once.
type Round struct {
	// Plans are the validated declarations, in declaration order.
	Plans []DeclPlan
	// Deferred are retried by the driver in a later round.
	Deferred []Deferred
	// Failed are abandoned for this round; Diagnostics says why.
	Failed      []analyze.TypeID
	Diagnostics diagnostic.Diagnostics
}

// Packages returns the sorted package paths that have validated plans.
func (r *Round) Packages() []string {
	seen := make(map[string]bool)

	var out []string

	for _, p := range r.Plans {
		if !seen[p.Shape.PkgPath] {
			seen[p.Shape.PkgPath] = true
			out = append(out, p.Shape.PkgPath)
		}
	}

	slices.Sort(out)

	return out
}

// PlansFor returns the validated plans of one package, in declaration order.
func (r *Round) PlansFor(pkgPath string) []DeclPlan {
	var out []DeclPlan

	for _, p := range r.Plans {
		if p.Shape.PkgPath == pkgPath {
			out = append(out, p)
		}
	}

	return out
}

// IsDeferred reports whether the declaration was deferred.
func (r *Round) IsDeferred(id analyze.TypeID) bool {
	for _, d := range r.Deferred {
		if d.Decl == id {
			return true
		}
	}

	return false
}

package plan

import (
	"fmt"

	"domainer/internal/analyze"
	"domainer/internal/diagnostic"
	"domainer/internal/mapping"
	"domainer/internal/match"
)

// selectFields selects one transform per record member and validates the
// pairing against the domain struct. It reports false when the declaration
// was deferred or failed; errors take precedence over deferral.
func (p *Planner) selectFields(st *state, domain *analyze.Declaration) ([]TransformPlan, bool) {
	meta := st.meta
	fields := make([]TransformPlan, 0, len(meta.Members))
	fedBy := make(map[string]string)
	failed := false

	for i := range meta.Members {
		m := &meta.Members[i]

		tp, ok := p.selectTransform(st, m, domain)
		if !ok {
			failed = failed || st.diags.HasErrors()
			continue
		}

		if prev, dup := fedBy[tp.DomainName]; dup {
			p.addError(st, diagnostic.CodeInvalidAnnotation, m.Name, m.Pos,
				"domain field %s is already fed by %s", tp.DomainName, prev)

			failed = true

			continue
		}

		fedBy[tp.DomainName] = m.Name
		fields = append(fields, tp)
	}

	if failed {
		st.fail()
		return nil, false
	}

	if st.status != statusOK {
		return nil, false
	}

	for _, df := range domain.Fields {
		if _, ok := fedBy[df.Name]; ok || !accessible(st.decl, domain.ID, df.Exported) {
			continue
		}

		st.diags.Add(diagnostic.Diagnostic{
			Severity: diagnostic.SeverityWarning,
			Code:     diagnostic.CodeUncoveredDomainField,
			Message: fmt.Sprintf("%s.%s is fed by no field; %sToModel leaves it zero",
				domain.ID.Name, df.Name, st.decl.ID.Name),
			Decl:   st.decl.ID.String(),
			Member: df.Name,
			Pos:    df.Pos,
		})
	}

	return fields, true
}

// selectTransform picks the transform of one member by precedence: enum
// ordinal, nested mapping, renamed, identity.
func (p *Planner) selectTransform(st *state, m *mapping.Member, domain *analyze.Declaration) (TransformPlan, bool) {
	tp := TransformPlan{
		Kind:       TransformIdentity,
		ShapeName:  m.Name,
		DomainName: m.DomainName(),
		Pos:        m.Pos,
	}

	ft := m.Field.Type
	if ft.Invalid() {
		st.deferTo("field %s: type does not type-check yet", m.Name)
		return tp, false
	}

	df := domain.Field(tp.DomainName)
	if df == nil || !accessible(st.decl, domain.ID, df.Exported) {
		p.unknownDomainField(st, m, domain)
		return tp, false
	}

	if df.Type.Invalid() {
		st.deferTo("field %s: domain field %s.%s does not type-check yet", m.Name, domain.ID.Name, df.Name)
		return tp, false
	}

	switch {
	case m.Ordinal != nil:
		tp.Kind = TransformEnumOrdinal
		return tp, p.selectOrdinal(st, m, &tp, df)

	case p.nestedElem(ft) != nil:
		tp.Kind = TransformNested
		return tp, p.selectNested(st, m, &tp, df)

	case m.Rename != "":
		tp.Kind = TransformRenamed
	}

	if !compatible(ft, df.Type) {
		p.addError(st, diagnostic.CodeTypeMismatch, m.Name, m.Pos,
			"field %s is %s but %s.%s is %s", m.Name, ft.Repr, domain.ID.Name, df.Name, df.Type.Repr)

		return tp, false
	}

	return tp, true
}

func (p *Planner) selectOrdinal(st *state, m *mapping.Member, tp *TransformPlan, df *analyze.FieldInfo) bool {
	ref := m.Ordinal
	if ref.Unresolved {
		st.deferTo("field %s: ordinal type %s: no loaded package matches", m.Name, ref.Raw)
		return false
	}

	enum, ok := p.src.Resolve(ref.ID)
	if !ok {
		st.deferTo("field %s: ordinal type %s is not resolved", m.Name, ref.ID)
		return false
	}

	if enum.Kind != analyze.DeclKindEnum {
		p.addError(st, diagnostic.CodeTypeMismatch, m.Name, m.Pos,
			"ordinal type %s is a %s, want an enumeration", enum.ID, enum.Kind)

		return false
	}

	if !m.Field.Type.IsInteger() {
		p.addError(st, diagnostic.CodeTypeMismatch, m.Name, m.Pos,
			"ordinal field %s must be an integer, got %s", m.Name, m.Field.Type.Repr)

		return false
	}

	ord := &OrdinalRef{Enum: enum.ID, Index: m.Field.Type}

	for _, c := range enum.Cases {
		if !accessible(st.decl, enum.ID, c.Exported) {
			p.addError(st, diagnostic.CodeTypeMismatch, m.Name, m.Pos,
				"ordinal type %s has unexported case %s", enum.ID, c.Name)

			return false
		}

		ord.Cases = append(ord.Cases, c.Name)
	}

	// A mapped enumeration is converted with its own generated functions.
	want := enum.ID

	if dep, mapped := p.states[enum.ID]; mapped {
		st.deps = appendID(st.deps, enum.ID)

		if dep.meta != nil && !dep.meta.Domain.Unresolved {
			domainID := dep.meta.Domain.ID
			ord.Domain = &domainID
			want = domainID
		}
	}

	tp.Ordinal = ord

	if ord.Domain == nil && p.isMapped(enum.ID) {
		// Domain of the mapped enumeration is not known yet; propagation
		// settles the status through the dependency.
		return true
	}

	if df.Type.Kind != analyze.TypeKindNamed || df.Type.ID != want {
		p.addError(st, diagnostic.CodeTypeMismatch, m.Name, m.Pos,
			"ordinal field %s decodes to %s but the domain field is %s", m.Name, want, df.Type.Repr)

		return false
	}

	return true
}

func (p *Planner) selectNested(st *state, m *mapping.Member, tp *TransformPlan, df *analyze.FieldInfo) bool {
	elem, wrap := unwrap(m.Field.Type)
	ref := &NestedRef{Shape: elem.ID, Wrap: wrap}
	tp.Nested = ref
	st.deps = appendID(st.deps, elem.ID)

	dep := p.states[elem.ID]
	if dep.meta == nil || dep.meta.Domain.Unresolved {
		// Failed or deferred dependency; propagation reports it.
		return true
	}

	ref.Domain = dep.meta.Domain.ID

	delem, dwrap := unwrap(df.Type)
	if dwrap != wrap || delem.Kind != analyze.TypeKindNamed || delem.ID != ref.Domain {
		p.addError(st, diagnostic.CodeTypeMismatch, m.Name, m.Pos,
			"field %s maps to %s but the domain field is %s", m.Name, wrappedName(wrap, ref.Domain), df.Type.Repr)

		return false
	}

	return true
}

func (p *Planner) unknownDomainField(st *state, m *mapping.Member, domain *analyze.Declaration) {
	var names []string

	for _, df := range domain.Fields {
		if accessible(st.decl, domain.ID, df.Exported) {
			names = append(names, df.Name)
		}
	}

	st.diags.Add(diagnostic.Diagnostic{
		Severity:    diagnostic.SeverityError,
		Code:        diagnostic.CodeUnknownDomainField,
		Message:     fmt.Sprintf("%s has no accessible field %s", domain.ID.Name, m.DomainName()),
		Decl:        st.decl.ID.String(),
		Member:      m.Name,
		Pos:         m.Pos,
		Suggestions: match.Suggest(m.DomainName(), names, match.DefaultSuggestLimit),
	})
}

// nestedElem returns the mapped type behind T, *T or []T, or nil.
func (p *Planner) nestedElem(t *analyze.TypeExpr) *analyze.TypeExpr {
	elem, _ := unwrap(t)
	if elem.Kind != analyze.TypeKindNamed || !p.isMapped(elem.ID) {
		return nil
	}

	return elem
}

func (p *Planner) isMapped(id analyze.TypeID) bool {
	_, ok := p.states[id]
	return ok
}

// unwrap strips one pointer or slice level.
func unwrap(t *analyze.TypeExpr) (*analyze.TypeExpr, Wrap) {
	switch t.Kind {
	case analyze.TypeKindPointer:
		return t.Elem, WrapPointer
	case analyze.TypeKindSlice:
		return t.Elem, WrapSlice
	default:
		return t, WrapNone
	}
}

func wrappedName(w Wrap, id analyze.TypeID) string {
	switch w {
	case WrapPointer:
		return "*" + id.String()
	case WrapSlice:
		return "[]" + id.String()
	default:
		return id.String()
	}
}

// compatible reports whether a value of type a can be assigned to a field
// of type b. Only pairs that can be decided from the expressions are
// rejected; anything else is left to the compiler.
func compatible(a, b *analyze.TypeExpr) bool {
	if a == nil || b == nil {
		return true
	}

	switch {
	case a.Kind == analyze.TypeKindOther || b.Kind == analyze.TypeKindOther:
		return true
	case a.Kind == analyze.TypeKindNamed && b.Kind == analyze.TypeKindNamed:
		return a.ID == b.ID
	case a.Kind == analyze.TypeKindNamed || b.Kind == analyze.TypeKindNamed:
		// A named type is assignable to or from an unnamed composite with
		// the same underlying type, never to another defined basic type.
		return a.Kind != analyze.TypeKindBasic && b.Kind != analyze.TypeKindBasic
	case a.Kind != b.Kind:
		return false
	case a.Kind == analyze.TypeKindBasic:
		return a.Basic == b.Basic
	default:
		return compatible(a.Elem, b.Elem)
	}
}

// accessible reports whether generated code in the shape's package may name
// a member of a type declared in pkg.
func accessible(shape *analyze.Declaration, owner analyze.TypeID, exported bool) bool {
	return exported || shape.ID.PkgPath == owner.PkgPath
}

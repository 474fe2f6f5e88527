package mapping

import (
	"fmt"
	"go/token"

	"domainer/internal/analyze"
	"domainer/internal/diagnostic"
)

// Directive names, after the configured prefix.
const (
	// DirectiveModel pairs a declaration with its domain type.
	DirectiveModel = "model"
	// DirectiveName renames an enum case on the domain side.
	DirectiveName = "name"
)

// Member is the metadata of one field or enum case.
type Member struct {
	// Name is the shape-side name.
	Name string
	// Rename is the explicit domain-side name, empty when absent.
	Rename string
	// Ordinal is the enum type of an ordinal-encoded field, nil when absent.
	Ordinal *TypeRef
	// Field is set for record members.
	Field *analyze.FieldInfo
	// Case is set for enum members.
	Case *analyze.CaseInfo
	Pos  token.Position
}

// DomainName returns the rename if present, else the shape-side name. The
// same alias is used in both directions.
func (m *Member) DomainName() string {
	if m.Rename != "" {
		return m.Rename
	}

	return m.Name
}

// Metadata is the mapping metadata of one annotated declaration.
type Metadata struct {
	Decl    *analyze.Declaration
	Domain  TypeRef
	Members []Member
}

// ID returns the shape declaration's TypeID.
func (m *Metadata) ID() analyze.TypeID {
	return m.Decl.ID
}

// IsEnum reports whether the declaration is an enumeration.
func (m *Metadata) IsEnum() bool {
	return m.Decl.Kind == analyze.DeclKindEnum
}

// Extractor pulls mapping metadata off declarations.
type Extractor struct {
	index  PackageIndex
	tagKey string
}

// NewExtractor creates an Extractor reading the given struct tag key.
func NewExtractor(index PackageIndex, tagKey string) *Extractor {
	if tagKey == "" {
		tagKey = DefaultTagKey
	}

	return &Extractor{index: index, tagKey: tagKey}
}

// Extract returns the metadata of an annotated declaration. On failure the
// reasons are added to diags and false is returned; the declaration is then
// excluded from further processing.
func (e *Extractor) Extract(decl *analyze.Declaration, diags *diagnostic.Diagnostics) (*Metadata, bool) {
	declName := decl.ID.String()

	if decl.Kind != analyze.DeclKindRecord && decl.Kind != analyze.DeclKindEnum {
		diags.Add(diagnostic.Diagnostic{
			Severity: diagnostic.SeverityError,
			Code:     diagnostic.CodeInvalidTargetKind,
			Message: fmt.Sprintf("model directive applies to struct types and enumerations, %s is %s",
				decl.ID.Name, kindPhrase(decl)),
			Decl: declName,
			Pos:  decl.Pos,
		})

		return nil, false
	}

	dir, _ := decl.Directive(DirectiveModel)

	domain, err := ParseRef(dir.Args, decl, e.index)
	if err != nil {
		addInvalid(diags, declName, "", dir.Pos, "model directive: %v", err)
		return nil, false
	}

	meta := &Metadata{Decl: decl, Domain: domain}
	ok := true

	if decl.Kind == analyze.DeclKindRecord {
		for i := range decl.Fields {
			m, fieldOK := e.recordMember(decl, &decl.Fields[i], diags)
			ok = ok && fieldOK
			meta.Members = append(meta.Members, m)
		}
	} else {
		for i := range decl.Cases {
			m, caseOK := e.enumMember(decl, &decl.Cases[i], diags)
			ok = ok && caseOK
			meta.Members = append(meta.Members, m)
		}
	}

	if !ok {
		return nil, false
	}

	return meta, true
}

func (e *Extractor) recordMember(decl *analyze.Declaration, f *analyze.FieldInfo, diags *diagnostic.Diagnostics) (Member, bool) {
	m := Member{Name: f.Name, Field: f, Pos: f.Pos}

	opts, err := ParseTag(f.Tag.Get(e.tagKey))
	if err != nil {
		addInvalid(diags, decl.ID.String(), f.Name, f.Pos, "%s tag: %v", e.tagKey, err)
		return m, false
	}

	m.Rename = opts.Rename

	if opts.Ordinal != "" {
		ref, err := ParseRef(opts.Ordinal, decl, e.index)
		if err != nil {
			addInvalid(diags, decl.ID.String(), f.Name, f.Pos, "ordinal: %v", err)
			return m, false
		}

		m.Ordinal = &ref
	}

	return m, true
}

func (e *Extractor) enumMember(decl *analyze.Declaration, c *analyze.CaseInfo, diags *diagnostic.Diagnostics) (Member, bool) {
	m := Member{Name: c.Name, Case: c, Pos: c.Pos}

	dir, ok := c.Directive(DirectiveName)
	if !ok {
		return m, true
	}

	if !token.IsIdentifier(dir.Args) {
		addInvalid(diags, decl.ID.String(), c.Name, dir.Pos, "name directive: %q is not a Go identifier", dir.Args)
		return m, false
	}

	m.Rename = dir.Args

	return m, true
}

func addInvalid(diags *diagnostic.Diagnostics, decl, member string, pos token.Position, format string, args ...any) {
	diags.Add(diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Code:     diagnostic.CodeInvalidAnnotation,
		Message:  fmt.Sprintf(format, args...),
		Decl:     decl,
		Member:   member,
		Pos:      pos,
	})
}

func kindPhrase(decl *analyze.Declaration) string {
	switch decl.Kind {
	case analyze.DeclKindUnknown:
		return "a type that failed to type-check"
	case analyze.DeclKindOther:
		if decl.Underlying != "" {
			return "a " + decl.Underlying + " type without constants"
		}

		return "neither"
	default:
		return decl.Kind.String()
	}
}

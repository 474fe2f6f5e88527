package mapping

import (
	"fmt"
	"go/token"
	"strings"

	"domainer/internal/analyze"
)

// TypeRef is a type reference taken from a directive or tag.
type TypeRef struct {
	// Raw is the reference as written.
	Raw string
	// ID is the referenced type. PkgPath is empty when Unresolved.
	ID analyze.TypeID
	// Unresolved marks a qualifier that names no known package yet.
	Unresolved bool
}

// PackageIndex looks up loaded packages by package name.
type PackageIndex interface {
	PackagesNamed(name string) []string
}

// ParseRef resolves a raw reference in the context of the declaration it
// annotates. Accepted forms: "Name", "qual.Name", "full/import/path.Name".
func ParseRef(raw string, decl *analyze.Declaration, index PackageIndex) (TypeRef, error) {
	raw = strings.TrimSpace(raw)
	ref := TypeRef{Raw: raw}

	if raw == "" {
		return ref, fmt.Errorf("empty type reference")
	}

	dot := strings.LastIndexByte(raw, '.')
	if dot < 0 {
		if !token.IsIdentifier(raw) {
			return ref, fmt.Errorf("type reference %q is not an identifier", raw)
		}

		ref.ID = analyze.TypeID{PkgPath: decl.ID.PkgPath, Name: raw}

		return ref, nil
	}

	qual, name := raw[:dot], raw[dot+1:]
	if qual == "" || !token.IsIdentifier(name) {
		return ref, fmt.Errorf("malformed type reference %q", raw)
	}

	ref.ID.Name = name

	switch {
	case strings.Contains(qual, "/"):
		ref.ID.PkgPath = qual
	case decl.Imports[qual] != "":
		ref.ID.PkgPath = decl.Imports[qual]
	case qual == decl.PkgName:
		ref.ID.PkgPath = decl.ID.PkgPath
	default:
		var paths []string
		if index != nil {
			paths = index.PackagesNamed(qual)
		}

		switch len(paths) {
		case 0:
			ref.Unresolved = true
		case 1:
			ref.ID.PkgPath = paths[0]
		default:
			return ref, fmt.Errorf("qualifier %q is ambiguous: %s", qual, strings.Join(paths, ", "))
		}
	}

	return ref, nil
}

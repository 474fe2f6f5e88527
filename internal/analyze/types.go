package analyze

import (
	"go/token"
	"reflect"
	"slices"
	"strings"

	"domainer/internal/common"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "domainer/examples/school/dbmodel"
	Name    string // e.g., "DBStudent"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// IsZero reports whether the TypeID is empty.
func (t TypeID) IsZero() bool {
	return t.PkgPath == "" && t.Name == ""
}

// Less orders TypeIDs by package path, then name.
func (t TypeID) Less(o TypeID) bool {
	if t.PkgPath != o.PkgPath {
		return t.PkgPath < o.PkgPath
	}

	return t.Name < o.Name
}

// DeclKind is the kind of a named type declaration.
type DeclKind int

const (
	DeclKindUnknown DeclKind = iota // type could not be checked
	DeclKindRecord                  // named struct type
	DeclKindEnum                    // named basic type with declared constants
	DeclKindOther                   // any other named type
)

// String returns a human-readable representation of the DeclKind.
func (k DeclKind) String() string {
	switch k {
	case DeclKindRecord:
		return "record"
	case DeclKindEnum:
		return "enum"
	case DeclKindOther:
		return "other"
	default:
		return common.UnknownStr
	}
}

// TypeKind represents the kind of a field type expression.
type TypeKind int

const (
	TypeKindUnknown TypeKind = iota
	TypeKindBasic            // int, string, bool, etc.
	TypeKindNamed            // named type (struct, enum, external)
	TypeKindPointer          // pointer to another type
	TypeKindSlice            // slice of another type
	TypeKindOther            // maps, arrays, funcs, interfaces...
	TypeKindInvalid          // type failed to check
)

// String returns a human-readable representation of the TypeKind.
func (k TypeKind) String() string {
	switch k {
	case TypeKindBasic:
		return "basic"
	case TypeKindNamed:
		return "named"
	case TypeKindPointer:
		return "pointer"
	case TypeKindSlice:
		return "slice"
	case TypeKindOther:
		return "other"
	case TypeKindInvalid:
		return "invalid"
	default:
		return common.UnknownStr
	}
}

// TypeExpr describes the type of a struct field.
type TypeExpr struct {
	Kind TypeKind
	// ID is set for named types; for basic types only Name is set.
	ID TypeID
	// Elem is the element type of pointers and slices.
	Elem *TypeExpr
	// Basic is the name of the underlying basic type for basic and named
	// basic types (e.g. "int32"), empty otherwise.
	Basic string
	// Repr is the go/types spelling, qualified by package name.
	Repr string
}

// IsInteger reports whether the expression is an integer basic type or a
// named type with an integer underlying type.
func (t *TypeExpr) IsInteger() bool {
	if t == nil {
		return false
	}

	switch t.Basic {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr":
		return true
	default:
		return false
	}
}

// Invalid reports whether the expression, or any element of it, failed to
// type-check.
func (t *TypeExpr) Invalid() bool {
	for cur := t; cur != nil; cur = cur.Elem {
		if cur.Kind == TypeKindInvalid {
			return true
		}
	}

	return false
}

// Directive is a `//prefix:name args` comment line.
type Directive struct {
	Name string
	Args string
	Pos  token.Position
}

// FieldInfo describes a struct field.
type FieldInfo struct {
	Name     string            // Go field name
	Exported bool              // Whether the field is exported
	Type     *TypeExpr         // Field type
	Tag      reflect.StructTag // Raw struct tag
	Embedded bool              // Whether the field is embedded (anonymous)
	Index    int               // Field index in the struct
	Pos      token.Position
}

// CaseInfo describes one constant of an enumeration.
type CaseInfo struct {
	Name       string
	Value      string // exact constant value
	Exported   bool
	Directives []Directive
	Pos        token.Position
}

// Declaration is a named type of a loaded package.
type Declaration struct {
	ID      TypeID
	PkgName string
	Kind    DeclKind
	Pos     token.Position
	// Imports maps the local import names of the declaring file to paths.
	Imports map[string]string
	// Directives holds the doc-comment directives of the type spec.
	Directives []Directive
	// Fields is set for records, in declaration order.
	Fields []FieldInfo
	// Cases is set for enums, in declaration order.
	Cases []CaseInfo
	// Underlying is the basic underlying type of enums.
	Underlying string
	// FromSource is true when the declaration was read from syntax (and so
	// carries directives); false for type-only declarations of imports.
	FromSource bool
}

// Directive returns the first directive with the given name.
func (d *Declaration) Directive(name string) (Directive, bool) {
	for _, dir := range d.Directives {
		if dir.Name == name {
			return dir, true
		}
	}

	return Directive{}, false
}

// Field returns the field with the given name, or nil.
func (d *Declaration) Field(name string) *FieldInfo {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}

	return nil
}

// Case returns the enum case with the given name, or nil.
func (d *Declaration) Case(name string) *CaseInfo {
	for i := range d.Cases {
		if d.Cases[i].Name == name {
			return &d.Cases[i]
		}
	}

	return nil
}

// Directive returns the first directive of the case with the given name.
func (c *CaseInfo) Directive(name string) (Directive, bool) {
	for _, dir := range c.Directives {
		if dir.Name == name {
			return dir, true
		}
	}

	return Directive{}, false
}

// TypeGraph holds all analyzed declarations from loaded packages.
type TypeGraph struct {
	// Types maps TypeID to Declaration for all named types.
	Types map[TypeID]*Declaration
	// Packages maps package paths to their package info.
	Packages map[string]*PackageInfo
}

// NewTypeGraph creates a new empty TypeGraph.
func NewTypeGraph() *TypeGraph {
	return &TypeGraph{
		Types:    make(map[TypeID]*Declaration),
		Packages: make(map[string]*PackageInfo),
	}
}

// Resolve returns the declaration for a given TypeID. Declarations whose
// type failed to check are reported as unresolved.
func (g *TypeGraph) Resolve(id TypeID) (*Declaration, bool) {
	decl, ok := g.Types[id]
	if !ok || decl.Kind == DeclKindUnknown {
		return nil, false
	}

	return decl, true
}

// Annotated returns all source declarations carrying the named directive,
// ordered by package path, file and offset.
func (g *TypeGraph) Annotated(directive string) []*Declaration {
	var out []*Declaration

	for _, decl := range g.Types {
		if !decl.FromSource {
			continue
		}

		if _, ok := decl.Directive(directive); ok {
			out = append(out, decl)
		}
	}

	slices.SortFunc(out, func(a, b *Declaration) int {
		if c := strings.Compare(a.ID.PkgPath, b.ID.PkgPath); c != 0 {
			return c
		}

		return ComparePositions(a.Pos, b.Pos)
	})

	return out
}

// PackagesNamed returns the sorted paths of loaded packages with the given
// package name.
func (g *TypeGraph) PackagesNamed(name string) []string {
	var paths []string

	for path, pkg := range g.Packages {
		if pkg.Name == name {
			paths = append(paths, path)
		}
	}

	slices.Sort(paths)

	return paths
}

// Package returns the package info for the given path, or nil.
func (g *TypeGraph) Package(path string) *PackageInfo {
	return g.Packages[path]
}

// PackageInfo holds information about a loaded package.
type PackageInfo struct {
	Path  string   // Import path
	Name  string   // Package name
	Dir   string   // Directory on disk, empty for type-only packages
	Files []string // Go source files, sorted
	Types []TypeID // Named types defined in this package
	// Scope lists every package-level identifier (types, funcs, vars,
	// consts), sorted.
	Scope []string
	// Errors lists type-check and load errors; the package is still usable.
	Errors []string
	// FromSource is true when the package was loaded with syntax.
	FromSource bool
}

// ComparePositions orders positions by file name, then offset.
func ComparePositions(a, b token.Position) int {
	if c := strings.Compare(a.Filename, b.Filename); c != 0 {
		return c
	}

	return a.Offset - b.Offset
}

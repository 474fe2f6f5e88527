package gen

import (
	"path/filepath"

	"domainer/internal/analyze"
)

// Unit is one output file: every generated function of one shape package.
type Unit struct {
	PkgPath string
	PkgName string
	// Dir is the package directory; empty for packages known only by path.
	Dir      string
	Filename string
	Imports  []Import
	Funcs    []Func
	// Decls are the shape declarations the unit covers, in order.
	Decls []analyze.TypeID
	// Deps are the input files the unit was generated from, sorted.
	Deps []string
}

// Path returns the output file path.
func (u *Unit) Path() string {
	return filepath.Join(u.Dir, u.Filename)
}

// Import is one import spec of a unit.
type Import struct {
	// Alias is empty when the package name matches the last path element.
	Alias string
	Path  string
}

// FuncKind selects the body layout of a Func.
type FuncKind int

const (
	// FuncRecord builds the output struct field by field.
	FuncRecord FuncKind = iota
	// FuncEnum dispatches on the input case.
	FuncEnum
)

// Func is one generated conversion function.
type Func struct {
	Kind FuncKind
	Name string
	// Doc is the doc comment text, empty when comments are disabled.
	Doc string
	In  string
	Out string
	// Assignments is set for FuncRecord, in field order.
	Assignments []Assignment
	// Arms is set for FuncEnum, in case order.
	Arms []Arm
	// Panic is the argument of the panic ending a FuncEnum, reached by
	// values that are not declared cases.
	Panic string
}

// AssignKind selects the statement shape of an Assignment.
type AssignKind int

const (
	// AssignDirect is `out.Target = Expr`.
	AssignDirect AssignKind = iota
	// AssignPointer converts the pointee and keeps nil as nil.
	AssignPointer
	// AssignSlice converts element-wise and keeps nil as nil.
	AssignSlice
)

// Assignment sets one output field.
type Assignment struct {
	Kind   AssignKind
	Target string
	// Source is the input field read by AssignPointer and AssignSlice.
	Source string
	// Expr is the right-hand side of AssignDirect.
	Expr string
	// Call converts one element for AssignPointer and AssignSlice.
	Call string
	// Elem is the output element type of AssignSlice.
	Elem string
}

// IsPointer reports whether the assignment keeps a nil pointer.
func (a Assignment) IsPointer() bool { return a.Kind == AssignPointer }

// IsSlice reports whether the assignment keeps a nil slice.
func (a Assignment) IsSlice() bool { return a.Kind == AssignSlice }

// Arm is one `case Case: return Result` of an enum dispatch.
type Arm struct {
	Case   string
	Result string
}

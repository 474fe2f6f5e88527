package gen

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"domainer/internal/analyze"
	"domainer/internal/plan"
)

// DefaultFilename is the name of the generated file in each shape package.
const DefaultFilename = "domainer_gen.go"

// Function name suffixes of the generated pair.
const (
	ToModelSuffix   = "ToModel"
	FromModelSuffix = "FromModel"
)

// PackageLookup provides package names, directories and files.
type PackageLookup interface {
	Package(path string) *analyze.PackageInfo
}

// Config holds configuration for code generation.
type Config struct {
	// Filename is the name of the generated file in each package.
	Filename string
	// Comments enables doc comments on generated functions.
	Comments bool
}

// DefaultConfig returns the default generator configuration.
func DefaultConfig() Config {
	return Config{
		Filename: DefaultFilename,
		Comments: true,
	}
}

// Generator lowers plans into units and renders them.
type Generator struct {
	config Config
	lookup PackageLookup
}

// NewGenerator creates a new Generator.
func NewGenerator(config Config, lookup PackageLookup) *Generator {
	if config.Filename == "" {
		config.Filename = DefaultFilename
	}

	return &Generator{config: config, lookup: lookup}
}

// Build lowers the validated plans of a round into one unit per shape
// package, ordered by package path.
func (g *Generator) Build(round *plan.Round) []*Unit {
	var units []*Unit

	for _, pkgPath := range round.Packages() {
		units = append(units, g.buildUnit(pkgPath, round.PlansFor(pkgPath)))
	}

	return units
}

func (g *Generator) buildUnit(pkgPath string, plans []plan.DeclPlan) *Unit {
	unit := &Unit{
		PkgPath:  pkgPath,
		PkgName:  packageName(pkgPath, g.lookup),
		Filename: g.config.Filename,
	}

	var local []string

	if pkg := g.lookupPackage(pkgPath); pkg != nil {
		unit.Dir = pkg.Dir

		for _, id := range pkg.Types {
			local = append(local, id.Name)
		}

		local = append(local, pkg.Scope...)
	}

	imports := newImportSet(pkgPath, local)
	imports.assign(referencedPackages(plans), g.lookup)

	for i := range plans {
		p := &plans[i]
		unit.Decls = append(unit.Decls, p.Shape)

		if p.IsEnum() {
			unit.Funcs = append(unit.Funcs, g.enumFuncs(p, imports)...)
		} else {
			unit.Funcs = append(unit.Funcs, g.recordFuncs(p, imports)...)
		}
	}

	unit.Imports = imports.sorted()
	unit.Deps = g.deps(unit, plans)

	return unit
}

// referencedPackages lists every package whose identifiers the generated
// functions spell out.
func referencedPackages(plans []plan.DeclPlan) []string {
	var paths []string

	for _, p := range plans {
		paths = append(paths, p.Domain.PkgPath)

		if p.IsEnum() {
			paths = append(paths, "fmt")
		}

		for _, f := range p.Fields {
			if n := f.Nested; n != nil {
				paths = append(paths, n.Shape.PkgPath, n.Domain.PkgPath)
			}

			if o := f.Ordinal; o != nil {
				paths = append(paths, "slices", o.Enum.PkgPath)

				if o.Domain != nil {
					paths = append(paths, o.Domain.PkgPath)
				}

				if o.Index.Kind == analyze.TypeKindNamed {
					paths = append(paths, o.Index.ID.PkgPath)
				}
			}
		}
	}

	return paths
}

func (g *Generator) recordFuncs(p *plan.DeclPlan, im *importSet) []Func {
	shape := im.typeName(p.Shape)
	domain := im.typeName(p.Domain)

	to := Func{
		Kind: FuncRecord,
		Name: p.Shape.Name + ToModelSuffix,
		In:   shape,
		Out:  domain,
	}
	from := Func{
		Kind: FuncRecord,
		Name: p.Shape.Name + FromModelSuffix,
		In:   domain,
		Out:  shape,
	}

	for i := range p.Fields {
		f := &p.Fields[i]
		to.Assignments = append(to.Assignments, toModel(f, im))
		from.Assignments = append(from.Assignments, fromModel(f, im))
	}

	g.document(&to, &from, shape, domain)

	return []Func{to, from}
}

// toModel builds the shape-to-domain assignment of one field.
func toModel(f *plan.TransformPlan, im *importSet) Assignment {
	a := Assignment{Kind: AssignDirect, Target: f.DomainName, Source: f.ShapeName}
	src := "in." + f.ShapeName

	switch f.Kind {
	case plan.TransformNested:
		n := f.Nested
		call := im.qualify(n.Shape.PkgPath, n.Shape.Name+ToModelSuffix)

		nested(&a, n.Wrap, call, im.typeName(n.Domain), src)

	case plan.TransformEnumOrdinal:
		o := f.Ordinal
		a.Expr = fmt.Sprintf("[...]%s{%s}[%s]", im.typeName(o.Enum), caseList(o, im), src)

		if o.Domain != nil {
			a.Expr = fmt.Sprintf("%s(%s)", im.qualify(o.Enum.PkgPath, o.Enum.Name+ToModelSuffix), a.Expr)
		}

	default:
		a.Expr = src
	}

	return a
}

// fromModel builds the domain-to-shape assignment of one field.
func fromModel(f *plan.TransformPlan, im *importSet) Assignment {
	a := Assignment{Kind: AssignDirect, Target: f.ShapeName, Source: f.DomainName}
	src := "in." + f.DomainName

	switch f.Kind {
	case plan.TransformNested:
		n := f.Nested
		call := im.qualify(n.Shape.PkgPath, n.Shape.Name+FromModelSuffix)

		nested(&a, n.Wrap, call, im.typeName(n.Shape), src)

	case plan.TransformEnumOrdinal:
		o := f.Ordinal
		value := src

		if o.Domain != nil {
			value = fmt.Sprintf("%s(%s)", im.qualify(o.Enum.PkgPath, o.Enum.Name+FromModelSuffix), src)
		}

		a.Expr = fmt.Sprintf("%s(%s([]%s{%s}, %s))",
			indexType(o.Index, im), im.qualify("slices", "Index"), im.typeName(o.Enum), caseList(o, im), value)

	default:
		a.Expr = src
	}

	return a
}

func nested(a *Assignment, wrap plan.Wrap, call, elem, src string) {
	switch wrap {
	case plan.WrapPointer:
		a.Kind = AssignPointer
		a.Call = call
	case plan.WrapSlice:
		a.Kind = AssignSlice
		a.Call = call
		a.Elem = elem
	default:
		a.Expr = fmt.Sprintf("%s(%s)", call, src)
	}
}

func caseList(o *plan.OrdinalRef, im *importSet) string {
	names := make([]string, len(o.Cases))
	for i, c := range o.Cases {
		names[i] = im.qualify(o.Enum.PkgPath, c)
	}

	return strings.Join(names, ", ")
}

func indexType(t *analyze.TypeExpr, im *importSet) string {
	if t.Kind == analyze.TypeKindNamed {
		return im.typeName(t.ID)
	}

	return t.Basic
}

func (g *Generator) enumFuncs(p *plan.DeclPlan, im *importSet) []Func {
	shape := im.typeName(p.Shape)
	domain := im.typeName(p.Domain)

	to := Func{
		Kind: FuncEnum,
		Name: p.Shape.Name + ToModelSuffix,
		In:   shape,
		Out:  domain,
	}
	from := Func{
		Kind: FuncEnum,
		Name: p.Shape.Name + FromModelSuffix,
		In:   domain,
		Out:  shape,
	}

	sprintf := im.qualify("fmt", "Sprintf")
	to.Panic = fmt.Sprintf(`%s("%s: unexpected %s %%v", in)`, sprintf, to.Name, shape)
	from.Panic = fmt.Sprintf(`%s("%s: unexpected %s %%v", in)`, sprintf, from.Name, domain)

	for _, c := range p.Cases {
		s := im.qualify(p.Shape.PkgPath, c.Shape)
		d := im.qualify(p.Domain.PkgPath, c.Domain)

		to.Arms = append(to.Arms, Arm{Case: s, Result: d})
		from.Arms = append(from.Arms, Arm{Case: d, Result: s})
	}

	g.document(&to, &from, shape, domain)

	return []Func{to, from}
}

func (g *Generator) document(to, from *Func, shape, domain string) {
	if !g.config.Comments {
		return
	}

	to.Doc = fmt.Sprintf("%s converts a %s into a %s.", to.Name, shape, domain)
	from.Doc = fmt.Sprintf("%s converts a %s into a %s.", from.Name, domain, shape)
}

// deps lists the source files of the unit's package and of every package
// its plans reference, minus the generated file itself.
func (g *Generator) deps(unit *Unit, plans []plan.DeclPlan) []string {
	paths := append(referencedPackages(plans), unit.PkgPath)
	out := unit.Path()

	var files []string

	for _, path := range paths {
		pkg := g.lookupPackage(path)
		if pkg == nil {
			continue
		}

		for _, f := range pkg.Files {
			if filepath.Clean(f) != filepath.Clean(out) {
				files = append(files, f)
			}
		}
	}

	slices.Sort(files)

	return slices.Compact(files)
}

func (g *Generator) lookupPackage(path string) *analyze.PackageInfo {
	if g.lookup == nil {
		return nil
	}

	return g.lookup.Package(path)
}

package analyze

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// DefaultDirectivePrefix is the comment prefix of mapping directives.
const DefaultDirectivePrefix = "domainer"

// Options configures an Analyzer.
type Options struct {
	// Dir is the working directory for package patterns.
	Dir string
	// BuildTags are passed to the build system as -tags.
	BuildTags []string
	// DirectivePrefix selects the `//prefix:name` comment lines to collect.
	DirectivePrefix string
	// ExcludeFiles lists base names (e.g. generated outputs) that are left out
	// of PackageInfo.Files.
	ExcludeFiles []string
	// Overlay replaces or adds file contents by absolute path, so a round
	// can see output that was not written to disk.
	Overlay map[string][]byte
}

// Analyzer loads Go packages and builds a declaration graph.
type Analyzer struct {
	opts  Options
	fset  *token.FileSet
	graph *TypeGraph
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(opts Options) *Analyzer {
	if opts.DirectivePrefix == "" {
		opts.DirectivePrefix = DefaultDirectivePrefix
	}

	return &Analyzer{
		opts:  opts,
		fset:  token.NewFileSet(),
		graph: NewTypeGraph(),
	}
}

// LoadPackages loads the specified packages and builds the type graph.
// Patterns are standard Go package patterns (e.g., "./...", "domainer/examples/school/dbmodel").
//
// Type errors inside packages do not fail the load; they are recorded on the
// package and the affected declarations resolve as unknown.
func (a *Analyzer) LoadPackages(ctx context.Context, patterns ...string) (*TypeGraph, error) {
	if len(patterns) == 0 {
		return nil, errors.New("no package patterns given")
	}

	cfg := &packages.Config{
		Mode:    LoadMode,
		Context: ctx,
		Dir:     a.opts.Dir,
		Fset:    a.fset,
		Overlay: a.opts.Overlay,
	}
	if len(a.opts.BuildTags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(a.opts.BuildTags, ",")}
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages matched %v", patterns)
	}

	slices.SortFunc(pkgs, func(x, y *packages.Package) int {
		return strings.Compare(x.PkgPath, y.PkgPath)
	})

	for _, pkg := range pkgs {
		a.processPackage(pkg)
	}

	// Direct imports contribute type-only declarations so that domain types
	// outside the patterns still resolve.
	for _, pkg := range pkgs {
		if pkg.Types == nil {
			continue
		}

		for _, imp := range pkg.Types.Imports() {
			a.processTypeOnly(imp)
		}
	}

	return a.graph, nil
}

// Graph returns the current type graph.
func (a *Analyzer) Graph() *TypeGraph {
	return a.graph
}

// processPackage extracts declarations from a package loaded with syntax.
func (a *Analyzer) processPackage(pkg *packages.Package) {
	info := &PackageInfo{
		Path:       pkg.PkgPath,
		Name:       pkg.Name,
		FromSource: true,
	}

	for _, e := range pkg.Errors {
		info.Errors = append(info.Errors, e.Error())
	}

	for _, f := range pkg.GoFiles {
		if info.Dir == "" {
			info.Dir = filepath.Dir(f)
		}

		if slices.Contains(a.opts.ExcludeFiles, filepath.Base(f)) {
			continue
		}

		info.Files = append(info.Files, f)
	}

	slices.Sort(info.Files)
	a.graph.Packages[pkg.PkgPath] = info

	if pkg.Types == nil || pkg.TypesInfo == nil {
		return
	}

	info.Scope = pkg.Types.Scope().Names()

	importNames := make(map[string]string)
	for _, imp := range pkg.Types.Imports() {
		importNames[imp.Path()] = imp.Name()
	}

	cases := a.collectCases(pkg)

	for _, file := range pkg.Syntax {
		imports := fileImports(file, importNames)

		for _, d := range file.Decls {
			gd, ok := d.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}

			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}

				obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
				if !ok || obj == nil {
					continue
				}

				doc := ts.Doc
				if doc == nil && !gd.Lparen.IsValid() {
					doc = gd.Doc
				}

				decl := a.buildDeclaration(obj, cases)
				decl.Pos = a.fset.Position(ts.Pos())
				decl.Imports = imports
				decl.Directives = a.parseDirectives(doc)
				decl.FromSource = true

				a.graph.Types[decl.ID] = decl
				info.Types = append(info.Types, decl.ID)
			}
		}
	}
}

// processTypeOnly extracts exported declarations from an imported package
// known only through its type information.
func (a *Analyzer) processTypeOnly(tpkg *types.Package) {
	if _, ok := a.graph.Packages[tpkg.Path()]; ok {
		return
	}

	info := &PackageInfo{
		Path: tpkg.Path(),
		Name: tpkg.Name(),
	}
	a.graph.Packages[tpkg.Path()] = info

	scope := tpkg.Scope()
	cases := make(map[*types.TypeName][]CaseInfo)

	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*types.Const)
		if !ok {
			continue
		}

		if tn := enumOwner(c, tpkg); tn != nil {
			cases[tn] = append(cases[tn], CaseInfo{
				Name:     c.Name(),
				Value:    c.Val().ExactString(),
				Exported: c.Exported(),
				Pos:      a.fset.Position(c.Pos()),
			})
		}
	}

	sortCases(cases)

	for _, name := range scope.Names() {
		obj, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !obj.Exported() {
			continue
		}

		decl := a.buildDeclaration(obj, cases)
		decl.Pos = a.fset.Position(obj.Pos())

		a.graph.Types[decl.ID] = decl
		info.Types = append(info.Types, decl.ID)
	}
}

// collectCases gathers the package-level constants of every named type of
// the package, in source order.
func (a *Analyzer) collectCases(pkg *packages.Package) map[*types.TypeName][]CaseInfo {
	cases := make(map[*types.TypeName][]CaseInfo)

	for _, file := range pkg.Syntax {
		for _, d := range file.Decls {
			gd, ok := d.(*ast.GenDecl)
			if !ok || gd.Tok != token.CONST {
				continue
			}

			for _, spec := range gd.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}

				doc := vs.Doc
				if doc == nil && !gd.Lparen.IsValid() {
					doc = gd.Doc
				}

				directives := append(a.parseDirectives(doc), a.parseDirectives(vs.Comment)...)

				for _, ident := range vs.Names {
					if ident.Name == "_" {
						continue
					}

					c, ok := pkg.TypesInfo.Defs[ident].(*types.Const)
					if !ok || c == nil {
						continue
					}

					tn := enumOwner(c, pkg.Types)
					if tn == nil {
						continue
					}

					cases[tn] = append(cases[tn], CaseInfo{
						Name:       c.Name(),
						Value:      c.Val().ExactString(),
						Exported:   c.Exported(),
						Directives: directives,
						Pos:        a.fset.Position(ident.Pos()),
					})
				}
			}
		}
	}

	sortCases(cases)

	return cases
}

// enumOwner returns the named type of c when that type is declared in pkg.
func enumOwner(c *types.Const, pkg *types.Package) *types.TypeName {
	named, ok := types.Unalias(c.Type()).(*types.Named)
	if !ok {
		return nil
	}

	tn := named.Obj()
	if tn.Pkg() != pkg {
		return nil
	}

	return tn
}

func sortCases(cases map[*types.TypeName][]CaseInfo) {
	for _, list := range cases {
		slices.SortStableFunc(list, func(x, y CaseInfo) int {
			return ComparePositions(x.Pos, y.Pos)
		})
	}
}

// buildDeclaration classifies a type name and extracts its members.
func (a *Analyzer) buildDeclaration(obj *types.TypeName, cases map[*types.TypeName][]CaseInfo) *Declaration {
	decl := &Declaration{
		ID: TypeID{
			PkgPath: obj.Pkg().Path(),
			Name:    obj.Name(),
		},
		PkgName: obj.Pkg().Name(),
		Kind:    DeclKindOther,
	}

	if obj.IsAlias() {
		return decl
	}

	named, ok := obj.Type().(*types.Named)
	if !ok || named.TypeParams().Len() > 0 {
		return decl
	}

	switch ut := named.Underlying().(type) {
	case *types.Struct:
		decl.Kind = DeclKindRecord
		decl.Fields = a.structFields(ut)

	case *types.Basic:
		if ut.Kind() == types.Invalid {
			decl.Kind = DeclKindUnknown
			return decl
		}

		decl.Underlying = ut.Name()
		if cs := cases[obj]; len(cs) > 0 {
			decl.Kind = DeclKindEnum
			decl.Cases = cs
		}
	}

	return decl
}

// structFields extracts the non-blank fields of a struct type.
func (a *Analyzer) structFields(st *types.Struct) []FieldInfo {
	var fields []FieldInfo

	for i := range st.NumFields() {
		field := st.Field(i)
		if field.Name() == "_" {
			continue
		}

		fields = append(fields, FieldInfo{
			Name:     field.Name(),
			Exported: field.Exported(),
			Type:     typeExpr(field.Type()),
			Tag:      reflect.StructTag(st.Tag(i)),
			Embedded: field.Embedded(),
			Index:    i,
			Pos:      a.fset.Position(field.Pos()),
		})
	}

	return fields
}

// typeExpr converts a go/types type into a TypeExpr.
func typeExpr(t types.Type) *TypeExpr {
	expr := &TypeExpr{
		Repr: types.TypeString(t, func(p *types.Package) string { return p.Name() }),
	}

	switch tt := types.Unalias(t).(type) {
	case *types.Basic:
		if tt.Kind() == types.Invalid {
			expr.Kind = TypeKindInvalid
			break
		}

		expr.Kind = TypeKindBasic
		expr.ID = TypeID{Name: tt.Name()}
		expr.Basic = tt.Name()

	case *types.Named:
		obj := tt.Obj()
		expr.Kind = TypeKindNamed
		expr.ID = TypeID{Name: obj.Name()}

		if obj.Pkg() != nil {
			expr.ID.PkgPath = obj.Pkg().Path()
		}

		if b, ok := tt.Underlying().(*types.Basic); ok {
			if b.Kind() == types.Invalid {
				expr.Kind = TypeKindInvalid
			} else {
				expr.Basic = b.Name()
			}
		}

	case *types.Pointer:
		expr.Kind = TypeKindPointer
		expr.Elem = typeExpr(tt.Elem())

	case *types.Slice:
		expr.Kind = TypeKindSlice
		expr.Elem = typeExpr(tt.Elem())

	default:
		expr.Kind = TypeKindOther
	}

	return expr
}

// parseDirectives collects the `//prefix:name args` lines of a comment group.
func (a *Analyzer) parseDirectives(cg *ast.CommentGroup) []Directive {
	if cg == nil {
		return nil
	}

	marker := "//" + a.opts.DirectivePrefix + ":"

	var out []Directive

	for _, c := range cg.List {
		rest, ok := strings.CutPrefix(c.Text, marker)
		if !ok {
			continue
		}

		name, args, _ := strings.Cut(strings.TrimSpace(rest), " ")
		out = append(out, Directive{
			Name: name,
			Args: strings.TrimSpace(args),
			Pos:  a.fset.Position(c.Pos()),
		})
	}

	return out
}

// fileImports maps the local import names of a file to import paths.
func fileImports(file *ast.File, names map[string]string) map[string]string {
	imports := make(map[string]string)

	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}

		var local string

		// Blank imports still name their package for directive references.
		switch {
		case spec.Name != nil && spec.Name.Name == ".":
			continue
		case spec.Name != nil && spec.Name.Name != "_":
			local = spec.Name.Name
		case names[path] != "":
			local = names[path]
		default:
			local = filepath.Base(path)
		}

		imports[local] = path
	}

	return imports
}

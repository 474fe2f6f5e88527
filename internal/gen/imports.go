package gen

import (
	"slices"

	"domainer/internal/analyze"
	"domainer/internal/common"
)

// reservedNames are the identifiers generated bodies declare locally.
var reservedNames = []string{"in", "out", "v", "i"}

// importSet assigns one qualifier per imported package. Collisions between
// package names, with local identifiers or with package-level names of the
// output package are resolved with numbered stems (domain, domain1, ...).
type importSet struct {
	self    string
	names   map[string]string
	taken   map[string]struct{}
	imports []Import
}

func newImportSet(self string, packageNames []string) *importSet {
	s := &importSet{
		self:  self,
		names: make(map[string]string),
		taken: make(map[string]struct{}),
	}

	for _, n := range reservedNames {
		s.taken[n] = struct{}{}
	}

	for _, n := range packageNames {
		s.taken[n] = struct{}{}
	}

	return s
}

// assign allocates qualifiers for paths in sorted order so allocation does
// not depend on discovery order.
func (s *importSet) assign(paths []string, lookup PackageLookup) {
	paths = slices.Clone(paths)
	slices.Sort(paths)
	paths = slices.Compact(paths)

	for _, path := range paths {
		if path == "" || path == s.self {
			continue
		}

		if _, done := s.names[path]; done {
			continue
		}

		name := packageName(path, lookup)

		if _, clash := s.taken[name]; clash {
			name = newStem(name, s.taken).next()
		}

		s.taken[name] = struct{}{}
		s.names[path] = name

		imp := Import{Path: path}
		if name != common.PkgAlias(path) {
			imp.Alias = name
		}

		s.imports = append(s.imports, imp)
	}
}

// qualify spells an identifier declared in pkgPath from the output package.
func (s *importSet) qualify(pkgPath, name string) string {
	if pkgPath == "" || pkgPath == s.self {
		return name
	}

	return s.names[pkgPath] + "." + name
}

func (s *importSet) typeName(id analyze.TypeID) string {
	return s.qualify(id.PkgPath, id.Name)
}

func (s *importSet) sorted() []Import {
	out := slices.Clone(s.imports)
	slices.SortFunc(out, func(a, b Import) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		default:
			return 0
		}
	})

	return out
}

func packageName(path string, lookup PackageLookup) string {
	if lookup != nil {
		if pkg := lookup.Package(path); pkg != nil && pkg.Name != "" {
			return pkg.Name
		}
	}

	return common.PkgAlias(path)
}

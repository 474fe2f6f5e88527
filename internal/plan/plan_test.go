package plan

import (
	"fmt"
	"go/token"
	"reflect"
	"strconv"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainer/internal/analyze"
	"domainer/internal/diagnostic"
	"domainer/internal/mapping"
)

const (
	dbPkg  = "example/dbmodel"
	domPkg = "example/domain"
)

type fixture struct {
	g    *analyze.TypeGraph
	next int
}

func newFixture() *fixture {
	g := analyze.NewTypeGraph()
	g.Packages[dbPkg] = &analyze.PackageInfo{Path: dbPkg, Name: "dbmodel"}
	g.Packages[domPkg] = &analyze.PackageInfo{Path: domPkg, Name: "domain"}

	return &fixture{g: g}
}

func (f *fixture) pos(pkg string) token.Position {
	f.next++
	return token.Position{Filename: pkg + "/types.go", Offset: f.next * 10, Line: f.next}
}

func (f *fixture) add(decl *analyze.Declaration) *analyze.Declaration {
	f.g.Types[decl.ID] = decl
	return decl
}

func (f *fixture) record(pkg, name, model string, fields ...analyze.FieldInfo) *analyze.Declaration {
	decl := &analyze.Declaration{
		ID:         analyze.TypeID{PkgPath: pkg, Name: name},
		PkgName:    f.g.Packages[pkg].Name,
		Kind:       analyze.DeclKindRecord,
		Pos:        f.pos(pkg),
		Imports:    map[string]string{"domain": domPkg},
		Fields:     fields,
		FromSource: true,
	}

	for i := range decl.Fields {
		decl.Fields[i].Index = i
		decl.Fields[i].Pos = f.pos(pkg)
	}

	if model != "" {
		decl.Directives = []analyze.Directive{{Name: mapping.DirectiveModel, Args: model}}
	}

	return f.add(decl)
}

func (f *fixture) enum(pkg, name, model string, cases ...analyze.CaseInfo) *analyze.Declaration {
	decl := &analyze.Declaration{
		ID:         analyze.TypeID{PkgPath: pkg, Name: name},
		PkgName:    f.g.Packages[pkg].Name,
		Kind:       analyze.DeclKindEnum,
		Pos:        f.pos(pkg),
		Imports:    map[string]string{"domain": domPkg},
		Cases:      cases,
		Underlying: "int",
		FromSource: true,
	}

	for i := range decl.Cases {
		decl.Cases[i].Pos = f.pos(pkg)
	}

	if model != "" {
		decl.Directives = []analyze.Directive{{Name: mapping.DirectiveModel, Args: model}}
	}

	return f.add(decl)
}

func field(name string, t *analyze.TypeExpr, tag string) analyze.FieldInfo {
	return analyze.FieldInfo{
		Name:     name,
		Exported: token.IsExported(name),
		Type:     t,
		Tag:      reflect.StructTag(tag),
	}
}

func basic(name string) *analyze.TypeExpr {
	return &analyze.TypeExpr{Kind: analyze.TypeKindBasic, ID: analyze.TypeID{Name: name}, Basic: name, Repr: name}
}

func named(pkg, name string) *analyze.TypeExpr {
	return &analyze.TypeExpr{Kind: analyze.TypeKindNamed, ID: analyze.TypeID{PkgPath: pkg, Name: name}, Repr: name}
}

func namedInt(pkg, name string) *analyze.TypeExpr {
	t := named(pkg, name)
	t.Basic = "int"

	return t
}

func ptr(elem *analyze.TypeExpr) *analyze.TypeExpr {
	return &analyze.TypeExpr{Kind: analyze.TypeKindPointer, Elem: elem, Repr: "*" + elem.Repr}
}

func slice(elem *analyze.TypeExpr) *analyze.TypeExpr {
	return &analyze.TypeExpr{Kind: analyze.TypeKindSlice, Elem: elem, Repr: "[]" + elem.Repr}
}

func cases(names ...string) []analyze.CaseInfo {
	out := make([]analyze.CaseInfo, len(names))
	for i, n := range names {
		out[i] = analyze.CaseInfo{Name: n, Value: strconv.Itoa(i), Exported: token.IsExported(n)}
	}

	return out
}

func renamed(c []analyze.CaseInfo, renames map[string]string) []analyze.CaseInfo {
	for i := range c {
		if to, ok := renames[c[i].Name]; ok {
			c[i].Directives = []analyze.Directive{{Name: mapping.DirectiveName, Args: to}}
		}
	}

	return c
}

// school builds the student/address/color graph used across tests.
func school() *fixture {
	f := newFixture()

	f.record(domPkg, "Student", "",
		field("Username", basic("string"), ""),
		field("Address", named(domPkg, "Address"), ""),
		field("Home", ptr(named(domPkg, "Address")), ""),
		field("Previous", slice(named(domPkg, "Address")), ""),
		field("Favorite", namedInt(domPkg, "Color"), ""),
		field("Age", basic("int"), ""),
	)
	f.record(domPkg, "Address", "",
		field("Street", basic("string"), ""),
		field("City", basic("string"), ""),
	)
	f.enum(domPkg, "Color", "", cases("Red", "Green", "Blue")...)

	f.record(dbPkg, "DBStudent", "domain.Student",
		field("UserName", basic("string"), `domain:"Username"`),
		field("Address", named(dbPkg, "DBAddress"), ""),
		field("Home", ptr(named(dbPkg, "DBAddress")), ""),
		field("Previous", slice(named(dbPkg, "DBAddress")), ""),
		field("Favorite", basic("int32"), `domain:",ordinal=DBColor"`),
		field("Age", basic("int"), ""),
	)
	f.record(dbPkg, "DBAddress", "domain.Address",
		field("Street", basic("string"), ""),
		field("City", basic("string"), ""),
	)
	f.enum(dbPkg, "DBColor", "domain.Color",
		renamed(cases("RED", "GREEN", "BLUE"), map[string]string{"RED": "Red", "GREEN": "Green", "BLUE": "Blue"})...)

	return f
}

func planOf(t *testing.T, r *Round, name string) *DeclPlan {
	t.Helper()

	for i := range r.Plans {
		if r.Plans[i].Shape.Name == name {
			return &r.Plans[i]
		}
	}

	require.Failf(t, "plan not found", "no plan for %s in\n%s", name, spew.Sdump(r))

	return nil
}

func dbID(name string) analyze.TypeID {
	return analyze.TypeID{PkgPath: dbPkg, Name: name}
}

func domID(name string) analyze.TypeID {
	return analyze.TypeID{PkgPath: domPkg, Name: name}
}

func TestPlan_School(t *testing.T) {
	r := NewPlanner(school().g, DefaultConfig()).Plan()

	require.False(t, r.Diagnostics.HasErrors(), r.Diagnostics.Error())
	require.Len(t, r.Plans, 3, spew.Sdump(r.Plans))
	assert.Empty(t, r.Deferred)
	assert.Empty(t, r.Failed)

	student := planOf(t, r, "DBStudent")
	assert.Equal(t, domID("Student"), student.Domain)
	assert.Equal(t, []analyze.TypeID{dbID("DBAddress"), dbID("DBColor")}, student.Requires)
	require.Len(t, student.Fields, 6)

	kinds := make(map[string]TransformKind)
	for _, f := range student.Fields {
		kinds[f.ShapeName] = f.Kind
	}

	assert.Equal(t, map[string]TransformKind{
		"UserName": TransformRenamed,
		"Address":  TransformNested,
		"Home":     TransformNested,
		"Previous": TransformNested,
		"Favorite": TransformEnumOrdinal,
		"Age":      TransformIdentity,
	}, kinds)

	assert.Equal(t, "Username", student.Fields[0].DomainName)
	assert.Equal(t, WrapNone, student.Fields[1].Nested.Wrap)
	assert.Equal(t, WrapPointer, student.Fields[2].Nested.Wrap)
	assert.Equal(t, WrapSlice, student.Fields[3].Nested.Wrap)
	assert.Equal(t, domID("Address"), student.Fields[3].Nested.Domain)

	ord := student.Fields[4].Ordinal
	require.NotNil(t, ord)
	assert.Equal(t, dbID("DBColor"), ord.Enum)
	assert.Equal(t, []string{"RED", "GREEN", "BLUE"}, ord.Cases)
	require.NotNil(t, ord.Domain)
	assert.Equal(t, domID("Color"), *ord.Domain)

	color := planOf(t, r, "DBColor")
	assert.True(t, color.IsEnum())
	assert.Equal(t, []CasePair{
		{Shape: "RED", Domain: "Red"},
		{Shape: "GREEN", Domain: "Green"},
		{Shape: "BLUE", Domain: "Blue"},
	}, color.Cases)

	assert.Equal(t, []string{dbPkg}, r.Packages())
	assert.Len(t, r.PlansFor(dbPkg), 3)
}

func TestPlan_RenameIsSymmetric(t *testing.T) {
	f := newFixture()
	f.record(domPkg, "Student", "", field("Username", basic("string"), ""))
	f.record(dbPkg, "DBStudent", "domain.Student", field("UserName", basic("string"), `domain:"Username"`))

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	p := planOf(t, r, "DBStudent")
	require.Len(t, p.Fields, 1)
	assert.Equal(t, TransformPlan{
		Kind:       TransformRenamed,
		ShapeName:  "UserName",
		DomainName: "Username",
		Pos:        p.Fields[0].Pos,
	}, p.Fields[0])
}

func TestPlan_UnresolvedDomainIsDeferred(t *testing.T) {
	f := school()
	f.record(dbPkg, "DBCourse", "domain.Course", field("Name", basic("string"), ""))
	f.record(dbPkg, "DBLater", "later.Thing", field("Name", basic("string"), ""))

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	require.False(t, r.Diagnostics.HasErrors(), r.Diagnostics.Error())
	assert.Len(t, r.Plans, 3)
	require.Len(t, r.Deferred, 2, spew.Sdump(r.Deferred))
	assert.True(t, r.IsDeferred(dbID("DBCourse")))
	assert.True(t, r.IsDeferred(dbID("DBLater")))
	assert.Contains(t, r.Deferred[0].Reason, "domain.Course")
	assert.Len(t, r.Diagnostics.ByCode(diagnostic.CodeDeferred), 2)
}

func TestPlan_DeferralPropagates(t *testing.T) {
	f := school()
	delete(f.g.Types, domID("Address"))

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	require.False(t, r.Diagnostics.HasErrors(), r.Diagnostics.Error())
	assert.True(t, r.IsDeferred(dbID("DBAddress")))
	assert.True(t, r.IsDeferred(dbID("DBStudent")))
	assert.False(t, r.IsDeferred(dbID("DBColor")))

	for _, d := range r.Deferred {
		if d.Decl == dbID("DBStudent") {
			assert.Equal(t, "waits for example/dbmodel.DBAddress", d.Reason)
		}
	}
}

func TestPlan_UncheckedTypeIsDeferred(t *testing.T) {
	f := school()
	f.g.Types[dbID("DBAddress")].Kind = analyze.DeclKindUnknown

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	assert.True(t, r.IsDeferred(dbID("DBAddress")))
	assert.True(t, r.IsDeferred(dbID("DBStudent")))
	assert.Len(t, r.Plans, 1)
}

func TestPlan_UncheckedDomainFieldIsDeferred(t *testing.T) {
	f := school()
	student := f.g.Types[domID("Student")]
	invalid := &analyze.TypeExpr{Kind: analyze.TypeKindInvalid, Repr: "invalid type"}
	student.Field("Address").Type = invalid
	student.Field("Age").Type = invalid

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	require.True(t, r.IsDeferred(dbID("DBStudent")), spew.Sdump(r))
	assert.NotContains(t, r.Failed, dbID("DBStudent"))
	assert.Empty(t, r.Diagnostics.ByCode(diagnostic.CodeTypeMismatch))
	assert.Equal(t, "field Address: domain field Student.Address does not type-check yet", r.Deferred[0].Reason)
	assert.Len(t, r.Plans, 2)
}

func TestPlan_FailurePropagates(t *testing.T) {
	f := school()
	f.g.Types[dbID("DBAddress")].Fields[0].Name = "Stret"

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	unknown := r.Diagnostics.ByCode(diagnostic.CodeUnknownDomainField)
	require.Len(t, unknown, 1, r.Diagnostics.Error())
	assert.Equal(t, "Stret", unknown[0].Member)
	assert.Contains(t, unknown[0].Suggestions, "Street")

	dep := r.Diagnostics.ByCode(diagnostic.CodeInvalidDependency)
	require.Len(t, dep, 1)
	assert.Equal(t, dbID("DBStudent").String(), dep[0].Decl)

	assert.ElementsMatch(t, []analyze.TypeID{dbID("DBAddress"), dbID("DBStudent")}, r.Failed)
	assert.Len(t, r.Plans, 1)
}

func TestPlan_FailureWinsOverDeferral(t *testing.T) {
	f := school()
	f.g.Types[dbID("DBAddress")].Fields[0].Name = "Stret"
	delete(f.g.Types, domID("Color"))

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	assert.True(t, r.IsDeferred(dbID("DBColor")))
	assert.Contains(t, r.Failed, dbID("DBStudent"))
	assert.False(t, r.IsDeferred(dbID("DBStudent")))
}

func TestPlan_OrdinalBeatsNested(t *testing.T) {
	f := school()
	student := f.g.Types[dbID("DBStudent")]
	student.Fields[4] = field("Favorite", namedInt(dbPkg, "DBColor"), `domain:",ordinal=DBColor"`)

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	require.False(t, r.Diagnostics.HasErrors(), r.Diagnostics.Error())
	p := planOf(t, r, "DBStudent")
	assert.Equal(t, TransformEnumOrdinal, p.Fields[4].Kind)
	assert.Nil(t, p.Fields[4].Nested)
}

func TestPlan_OrdinalOfUnmappedEnum(t *testing.T) {
	f := newFixture()
	f.enum(dbPkg, "Level", "", cases("Low", "High")...)
	f.record(domPkg, "Task", "", field("Level", namedInt(dbPkg, "Level"), ""))
	f.record(dbPkg, "DBTask", "domain.Task", field("Level", basic("uint8"), `domain:",ordinal=Level"`))

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	require.False(t, r.Diagnostics.HasErrors(), r.Diagnostics.Error())
	p := planOf(t, r, "DBTask")
	assert.Nil(t, p.Fields[0].Ordinal.Domain)
	assert.Empty(t, p.Requires)
}

func TestPlan_OrdinalErrors(t *testing.T) {
	tests := []struct {
		name  string
		field analyze.FieldInfo
	}{
		{"not integer", field("Favorite", basic("string"), `domain:",ordinal=DBColor"`)},
		{"not enum", field("Favorite", basic("int"), `domain:",ordinal=DBAddress"`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := school()
			f.g.Types[dbID("DBStudent")].Fields[4] = tt.field

			r := NewPlanner(f.g, DefaultConfig()).Plan()

			assert.Len(t, r.Diagnostics.ByCode(diagnostic.CodeTypeMismatch), 1, r.Diagnostics.Error())
			assert.Contains(t, r.Failed, dbID("DBStudent"))
		})
	}
}

func TestPlan_NestedTypeMismatch(t *testing.T) {
	f := school()
	f.g.Types[domID("Student")].Fields[2].Type = named(domPkg, "Address")

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	mismatch := r.Diagnostics.ByCode(diagnostic.CodeTypeMismatch)
	require.Len(t, mismatch, 1, r.Diagnostics.Error())
	assert.Equal(t, "Home", mismatch[0].Member)
	assert.Contains(t, mismatch[0].Message, "*example/domain.Address")
}

func TestPlan_IdentityTypeMismatch(t *testing.T) {
	f := school()
	f.g.Types[dbID("DBStudent")].Fields[5].Type = basic("string")

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	assert.Len(t, r.Diagnostics.ByCode(diagnostic.CodeTypeMismatch), 1)
	assert.Contains(t, r.Failed, dbID("DBStudent"))
}

func TestPlan_UncoveredDomainField(t *testing.T) {
	f := school()
	addr := f.g.Types[domID("Address")]
	addr.Fields = append(addr.Fields, field("Zip", basic("string"), ""), field("internal", basic("string"), ""))

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	require.False(t, r.Diagnostics.HasErrors())
	require.Len(t, r.Diagnostics.Warnings, 1)
	assert.Equal(t, diagnostic.CodeUncoveredDomainField, r.Diagnostics.Warnings[0].Code)
	assert.Equal(t, "Zip", r.Diagnostics.Warnings[0].Member)
}

func TestPlan_DuplicateDomainField(t *testing.T) {
	f := school()
	student := f.g.Types[dbID("DBStudent")]
	student.Fields = append(student.Fields, field("Nick", basic("string"), `domain:"Username"`))

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	invalid := r.Diagnostics.ByCode(diagnostic.CodeInvalidAnnotation)
	require.Len(t, invalid, 1)
	assert.Equal(t, "Nick", invalid[0].Member)
}

func TestPlan_EnumCaseErrors(t *testing.T) {
	tests := []struct {
		name     string
		shape    []analyze.CaseInfo
		code     string
		count    int
		suggests string
	}{
		{
			name:     "unmatched shape case",
			shape:    renamed(cases("RED", "GREEN", "BLUE"), map[string]string{"RED": "Red", "GREEN": "Gren", "BLUE": "Blue"}),
			code:     diagnostic.CodeUnmatchedEnumCase,
			count:    2, // Gren has no counterpart, Green is uncovered
			suggests: "Green",
		},
		{
			name:  "duplicate",
			shape: renamed(cases("RED", "GREEN", "BLUE", "CRIMSON"), map[string]string{"RED": "Red", "GREEN": "Green", "BLUE": "Blue", "CRIMSON": "Red"}),
			code:  diagnostic.CodeDuplicateEnumCase,
			count: 1,
		},
		{
			name:  "uncovered domain case",
			shape: renamed(cases("RED", "GREEN"), map[string]string{"RED": "Red", "GREEN": "Green"}),
			code:  diagnostic.CodeUnmatchedEnumCase,
			count: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := school()
			f.g.Types[dbID("DBColor")].Cases = tt.shape

			r := NewPlanner(f.g, DefaultConfig()).Plan()

			got := r.Diagnostics.ByCode(tt.code)
			require.Len(t, got, tt.count, r.Diagnostics.Error())
			assert.Contains(t, r.Failed, dbID("DBColor"))
			assert.Contains(t, r.Failed, dbID("DBStudent"))

			if tt.suggests != "" {
				assert.Contains(t, got[0].Suggestions, tt.suggests)
			}
		})
	}
}

func TestPlan_EnumSharedValue(t *testing.T) {
	f := school()
	c := f.g.Types[dbID("DBColor")].Cases
	c[2].Value = c[0].Value

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	got := r.Diagnostics.ByCode(diagnostic.CodeDuplicateEnumCase)
	require.Len(t, got, 1)
	assert.Equal(t, "BLUE", got[0].Member)
}

func TestPlan_EnumPairedWithRecord(t *testing.T) {
	f := school()
	f.g.Types[dbID("DBColor")].Directives[0].Args = "domain.Address"

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	assert.Len(t, r.Diagnostics.ByCode(diagnostic.CodeTypeMismatch), 1)
	assert.Contains(t, r.Failed, dbID("DBColor"))
}

func TestPlan_InvalidTargetKind(t *testing.T) {
	f := school()
	f.add(&analyze.Declaration{
		ID:         dbID("Tags"),
		PkgName:    "dbmodel",
		Kind:       analyze.DeclKindOther,
		Pos:        f.pos(dbPkg),
		Directives: []analyze.Directive{{Name: mapping.DirectiveModel, Args: "domain.Tags"}},
		FromSource: true,
	})

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	assert.Len(t, r.Diagnostics.ByCode(diagnostic.CodeInvalidTargetKind), 1)
	assert.Equal(t, []analyze.TypeID{dbID("Tags")}, r.Failed)
	assert.Len(t, r.Plans, 3)
}

func TestPlan_CyclesAreLegal(t *testing.T) {
	f := newFixture()
	f.record(domPkg, "Node", "",
		field("Value", basic("int"), ""),
		field("Next", ptr(named(domPkg, "Node")), ""),
		field("Owner", ptr(named(domPkg, "Tree")), ""),
	)
	f.record(domPkg, "Tree", "", field("Root", ptr(named(domPkg, "Node")), ""))
	f.record(dbPkg, "DBNode", "domain.Node",
		field("Value", basic("int"), ""),
		field("Next", ptr(named(dbPkg, "DBNode")), ""),
		field("Owner", ptr(named(dbPkg, "DBTree")), ""),
	)
	f.record(dbPkg, "DBTree", "domain.Tree", field("Root", ptr(named(dbPkg, "DBNode")), ""))

	r := NewPlanner(f.g, DefaultConfig()).Plan()

	require.False(t, r.Diagnostics.HasErrors(), r.Diagnostics.Error())
	assert.Len(t, r.Plans, 2)
	assert.Equal(t, []analyze.TypeID{dbID("DBNode"), dbID("DBTree")}, planOf(t, r, "DBNode").Requires)
}

func chain(f *fixture, n int) {
	for i := 0; i < n; i++ {
		var domFields, dbFields []analyze.FieldInfo
		if i+1 < n {
			domFields = append(domFields, field("Next", named(domPkg, fmt.Sprintf("D%d", i+1)), ""))
			dbFields = append(dbFields, field("Next", named(dbPkg, fmt.Sprintf("T%d", i+1)), ""))
		}

		f.record(domPkg, fmt.Sprintf("D%d", i), "", domFields...)
		f.record(dbPkg, fmt.Sprintf("T%d", i), fmt.Sprintf("domain.D%d", i), dbFields...)
	}
}

func TestPlan_RecursionLimit(t *testing.T) {
	f := newFixture()
	chain(f, 5)

	r := NewPlanner(f.g, Config{MaxDepth: 2}).Plan()

	limit := r.Diagnostics.ByCode(diagnostic.CodeRecursionLimitExceeded)
	require.Len(t, limit, 2, r.Diagnostics.Error())
	assert.ElementsMatch(t, []analyze.TypeID{dbID("T0"), dbID("T1")}, r.Failed)
	assert.Len(t, r.Plans, 3)

	r = NewPlanner(f.g, Config{MaxDepth: 4}).Plan()
	assert.False(t, r.Diagnostics.HasErrors(), r.Diagnostics.Error())
	assert.Len(t, r.Plans, 5)

	r = NewPlanner(f.g, Config{}).Plan()
	assert.Len(t, r.Plans, 5)
}

func TestPlan_Deterministic(t *testing.T) {
	f := school()
	f.record(dbPkg, "DBCourse", "domain.Course", field("Name", basic("string"), ""))

	first := NewPlanner(f.g, DefaultConfig()).Plan()

	for i := 0; i < 5; i++ {
		again := NewPlanner(f.g, DefaultConfig()).Plan()
		require.Equal(t, first, again, "round %d differs:\n%s", i, spew.Sdump(again))
	}
}

func TestExportYAML(t *testing.T) {
	r := NewPlanner(school().g, DefaultConfig()).Plan()

	data, err := ExportYAML(r)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "shape: example/dbmodel.DBStudent")
	assert.Contains(t, out, "transform: renamed")
	assert.Contains(t, out, "*example/dbmodel.DBAddress")
	assert.Contains(t, out, "ordinal: example/dbmodel.DBColor")
	assert.Contains(t, out, "RED -> Red")
}

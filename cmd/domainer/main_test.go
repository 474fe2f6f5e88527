package main

import (
	"bytes"
	"encoding/json"
	"go/token"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainer/internal/diagnostic"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()

	return stdout.String(), stderr.String(), err
}

func plainPrinter(t *testing.T) *printer {
	t.Helper()

	require.NoError(t, rootCmd.PersistentFlags().Set("color", "off"))
	t.Cleanup(func() { _ = rootCmd.PersistentFlags().Set("color", "auto") })

	return newPrinter(rootCmd)
}

func TestPrinter_Format(t *testing.T) {
	p := plainPrinter(t)

	got := p.format(diagnostic.Diagnostic{
		Severity:    diagnostic.SeverityError,
		Code:        diagnostic.CodeUnknownDomainField,
		Message:     "Student has no accessible field Usrname",
		Decl:        "example/dbmodel.DBStudent",
		Member:      "UserName",
		Pos:         token.Position{Filename: "types.go", Line: 7, Column: 2},
		Suggestions: []string{"Username"},
	})

	assert.Equal(t,
		"types.go:7:2: error[unknown_domain_field] example/dbmodel.DBStudent.UserName: "+
			"Student has no accessible field Usrname (did you mean Username?)", got)
}

func TestPrinter_QuietHidesInfos(t *testing.T) {
	p := plainPrinter(t)

	var buf bytes.Buffer
	p.err = &buf
	p.quiet = true

	var d diagnostic.Diagnostics
	d.Add(diagnostic.Diagnostic{Severity: diagnostic.SeverityInfo, Code: diagnostic.CodeDeferred, Message: "waiting", Decl: "a.B"})
	d.Add(diagnostic.Diagnostic{Severity: diagnostic.SeverityWarning, Code: diagnostic.CodeUncoveredDomainField, Message: "no source", Decl: "a.B", Member: "X"})

	p.diagnostics(&d)

	assert.Equal(t, "warning[uncovered_domain_field] a.B.X: no source\n", buf.String())
}

func TestVersion_JSON(t *testing.T) {
	stdout, _, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var v versionPayload
	require.NoError(t, json.Unmarshal([]byte(stdout), &v))
	assert.Equal(t, "domainer", v.Tool)
	assert.NotEmpty(t, v.Version)
}

func TestRenderVersion_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer

	err := renderVersion(&buf, versionPayload{Tool: "domainer", Version: "v1.0.0"}, "xml")
	assert.Error(t, err)

	require.NoError(t, renderVersion(&buf, versionPayload{Tool: "domainer", Version: "v1.0.0"}, "pretty"))
	assert.Equal(t, "domainer v1.0.0\n", buf.String())
}

func TestPlanCommand(t *testing.T) {
	cfg := filepath.Join("..", "..", "examples", "school", "domainer.yaml")

	stdout, _, err := execute(t, "plan", "--config", cfg, "--color", "off")
	require.NoError(t, err)

	assert.Contains(t, stdout, "shape: domainer/examples/school/dbmodel.DBStudent")
	assert.Contains(t, stdout, "transform: enum_ordinal")
	assert.NotContains(t, stdout, "deferred:")
}

func TestConfigNotFound(t *testing.T) {
	_, _, err := execute(t, "plan", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestColorFlag_Invalid(t *testing.T) {
	t.Cleanup(func() { _ = rootCmd.PersistentFlags().Set("color", "auto") })

	_, _, err := execute(t, "version", "--color", "yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid --color "yes"`)
}

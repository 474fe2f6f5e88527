package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"./..."}, c.Packages)
	assert.Equal(t, DefaultDirective, c.Directive)
	assert.Equal(t, DefaultTag, c.Tag)
	assert.Equal(t, DefaultOutput, c.Output)
	assert.Equal(t, DefaultMaxDepth, c.Depth())
	assert.Equal(t, DefaultMaxRounds, c.MaxRounds)
	assert.True(t, c.WithComments())
	require.NoError(t, c.Validate())
}

func TestParseYAML(t *testing.T) {
	c, err := ParseYAML([]byte(`
packages: ["./internal/...", "./pkg/store"]
directive: mapper
tag: map
output: zz_mapping.go
max_depth: 0
max_rounds: 3
comments: false
build_tags: [integration]
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"./internal/...", "./pkg/store"}, c.Packages)
	assert.Equal(t, "mapper", c.Directive)
	assert.Equal(t, "map", c.Tag)
	assert.Equal(t, "zz_mapping.go", c.Output)
	assert.Equal(t, 0, c.Depth())
	assert.Equal(t, 3, c.MaxRounds)
	assert.False(t, c.WithComments())
	assert.Equal(t, []string{"integration"}, c.BuildTags)
	require.NoError(t, c.Validate())
}

func TestParseYAML_Empty(t *testing.T) {
	c, err := ParseYAML(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestParseYAML_UnknownKey(t *testing.T) {
	_, err := ParseYAML([]byte("max_dpeth: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_dpeth")
}

func TestParseTOML(t *testing.T) {
	c, err := ParseTOML([]byte(`
packages = ["./..."]
tag = "db"
max_depth = 4
build_tags = ["a", "b"]
`))
	require.NoError(t, err)

	assert.Equal(t, "db", c.Tag)
	assert.Equal(t, 4, c.Depth())
	assert.Equal(t, DefaultDirective, c.Directive)
	assert.Equal(t, []string{"a", "b"}, c.BuildTags)
}

func TestParseTOML_UnknownKey(t *testing.T) {
	_, err := ParseTOML([]byte("outptu = \"x.go\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outptu")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"directive", func(c *Config) { c.Directive = "my-gen" }, "directive"},
		{"tag", func(c *Config) { c.Tag = "a:b" }, "tag"},
		{"output dir", func(c *Config) { c.Output = "gen/out.go" }, "output"},
		{"output ext", func(c *Config) { c.Output = "out.txt" }, "output"},
		{"output test", func(c *Config) { c.Output = "out_test.go" }, "output"},
		{"depth", func(c *Config) { d := -1; c.MaxDepth = &d }, "max_depth"},
		{"rounds", func(c *Config) { c.MaxRounds = -2 }, "max_rounds"},
		{"packages", func(c *Config) { c.Packages = []string{" "} }, "packages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)

			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "domainer.yaml"), "tag: db\n")

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	c, err := Discover(nested)
	require.NoError(t, err)

	wantRoot, err := filepath.Abs(root)
	require.NoError(t, err)

	assert.Equal(t, "db", c.Tag)
	assert.Equal(t, wantRoot, c.Root)
	assert.Equal(t, filepath.Join(wantRoot, "domainer.yaml"), c.Path)
}

func TestDiscover_TOML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "domainer.toml"), "max_rounds = 2\n")

	c, err := Discover(root)
	require.NoError(t, err)
	assert.Equal(t, 2, c.MaxRounds)
}

func TestLoad_Invalid(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "domainer.yaml")
	writeFile(t, path, "max_rounds: -1\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_rounds")
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileNames are the recognized config file names, in lookup order.
var FileNames = []string{"domainer.yaml", "domainer.yml", "domainer.toml"}

// Defaults.
const (
	DefaultDirective = "domainer"
	DefaultTag       = "domain"
	DefaultOutput    = "domainer_gen.go"
	DefaultMaxDepth  = 32
	DefaultMaxRounds = 8
)

// Config is the generator configuration.
type Config struct {
	// Packages are the go/packages patterns to load.
	Packages []string `yaml:"packages" toml:"packages"`
	// Directive is the comment directive prefix (//<directive>:model).
	Directive string `yaml:"directive" toml:"directive"`
	// Tag is the struct tag key carrying field metadata.
	Tag string `yaml:"tag" toml:"tag"`
	// Output is the generated file name in each shape package.
	Output string `yaml:"output" toml:"output"`
	// MaxDepth limits nested-mapping chains (0 = unlimited).
	MaxDepth *int `yaml:"max_depth" toml:"max_depth"`
	// MaxRounds limits the number of generation rounds.
	MaxRounds int `yaml:"max_rounds" toml:"max_rounds"`
	// Comments enables doc comments on generated functions.
	Comments *bool `yaml:"comments" toml:"comments"`
	// BuildTags are passed to the package loader.
	BuildTags []string `yaml:"build_tags" toml:"build_tags"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-" toml:"-"`
	// Root is the directory patterns are resolved against.
	Root string `yaml:"-" toml:"-"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	c := &Config{}
	applyDefaults(c)

	return c
}

func applyDefaults(c *Config) {
	if len(c.Packages) == 0 {
		c.Packages = []string{"./..."}
	}

	if c.Directive == "" {
		c.Directive = DefaultDirective
	}

	if c.Tag == "" {
		c.Tag = DefaultTag
	}

	if c.Output == "" {
		c.Output = DefaultOutput
	}

	if c.MaxDepth == nil {
		d := DefaultMaxDepth
		c.MaxDepth = &d
	}

	if c.MaxRounds == 0 {
		c.MaxRounds = DefaultMaxRounds
	}

	if c.Comments == nil {
		on := true
		c.Comments = &on
	}
}

// Depth returns the effective nested-mapping depth ceiling.
func (c *Config) Depth() int {
	if c.MaxDepth == nil {
		return DefaultMaxDepth
	}

	return *c.MaxDepth
}

// WithComments reports whether generated functions get doc comments.
func (c *Config) WithComments() bool {
	return c.Comments == nil || *c.Comments
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	var errs []error

	if !token.IsIdentifier(c.Directive) {
		errs = append(errs, fmt.Errorf("directive %q is not an identifier", c.Directive))
	}

	if c.Tag == "" || strings.ContainsAny(c.Tag, " \t:\"`") {
		errs = append(errs, fmt.Errorf("tag %q is not a valid struct tag key", c.Tag))
	}

	if filepath.Base(c.Output) != c.Output || filepath.Ext(c.Output) != ".go" || strings.HasSuffix(c.Output, "_test.go") {
		errs = append(errs, fmt.Errorf("output %q must be a plain non-test .go file name", c.Output))
	}

	if c.Depth() < 0 {
		errs = append(errs, fmt.Errorf("max_depth must not be negative, got %d", c.Depth()))
	}

	if c.MaxRounds < 1 {
		errs = append(errs, fmt.Errorf("max_rounds must be at least 1, got %d", c.MaxRounds))
	}

	for _, p := range c.Packages {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, errors.New("packages must not contain empty patterns"))
			break
		}
	}

	return errors.Join(errs...)
}

// Find walks up from startDir looking for a config file.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("resolving start directory: %w", err)
	}

	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("stat %q: %w", candidate, err)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}

		dir = parent
	}
}

// Discover loads the config file found from startDir, or the defaults
// rooted at startDir when there is none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}

	if ok {
		return Load(path)
	}

	root, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolving start directory: %w", err)
	}

	c := Default()
	c.Root = root

	return c, nil
}

// Load reads, defaults and validates a config file. The format follows the
// file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var c *Config

	switch filepath.Ext(path) {
	case ".toml":
		c, err = ParseTOML(data)
	default:
		c, err = ParseYAML(data)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	c.Root = filepath.Dir(c.Path)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// ParseYAML parses YAML config data and applies defaults. Unknown keys are
// rejected.
func ParseYAML(data []byte) (*Config, error) {
	var c Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	applyDefaults(&c)

	return &c, nil
}

// ParseTOML parses TOML config data and applies defaults. Unknown keys are
// rejected.
func ParseTOML(data []byte) (*Config, error) {
	var c Config

	meta, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	applyDefaults(&c)

	return &c, nil
}

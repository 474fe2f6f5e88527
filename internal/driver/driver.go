package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"

	"domainer/internal/analyze"
	"domainer/internal/common"
	"domainer/internal/config"
	"domainer/internal/diagnostic"
	"domainer/internal/gen"
	"domainer/internal/mapping"
	"domainer/internal/plan"
)

// Mode selects what a run does with the rendered units.
type Mode int

const (
	// ModeWrite writes changed units to disk.
	ModeWrite Mode = iota
	// ModeCheck only compares the units with the files on disk.
	ModeCheck
)

// Options configures a Driver.
type Options struct {
	Mode Mode
	// Patterns override the configured packages when set.
	Patterns []string
	// Logger receives round progress; nil discards it.
	Logger *log.Logger
}

// Result is the outcome of a run.
type Result struct {
	// Rounds is the number of rounds run.
	Rounds int
	// Last is the plan of the final round.
	Last *plan.Round
	// Units are the units of the final round, by path.
	Units []*gen.Unit
	// Diagnostics of the final round. Declarations still deferred are
	// reported as unresolved_reference errors.
	Diagnostics diagnostic.Diagnostics
	// Written and Unchanged list output paths in write mode.
	Written   []string
	Unchanged []string
	// Removed lists generated files deleted in write mode because every
	// annotated declaration of their package was deferred or failed.
	Removed []string
	// Stale lists outputs that are missing, out of date, or left over from
	// such a package in check mode.
	Stale []string
}

// Driver runs generation rounds for one configuration.
type Driver struct {
	cfg  *config.Config
	opts Options
	log  *log.Logger
}

// New creates a new Driver.
func New(cfg *config.Config, opts Options) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Driver{cfg: cfg, opts: opts, log: logger}
}

// Run executes rounds until nothing is deferred, a round changes no output,
// or the round limit is reached.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	// current holds the latest content per output path; in check mode it is
	// also the overlay the next round loads.
	current := make(map[string][]byte)
	files := gen.NewFileSink()

	var (
		units []*gen.Unit
		graph *analyze.TypeGraph
	)

	for round := 1; round <= d.cfg.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res.Rounds = round

		var err error

		graph, err = d.load(ctx, current)
		if err != nil {
			return nil, err
		}

		planned := plan.NewPlanner(graph, plan.Config{
			TagKey:   d.cfg.Tag,
			MaxDepth: d.cfg.Depth(),
		}).Plan()
		res.Last = planned

		d.log.Printf("round %d: %d planned, %d deferred, %d failed",
			round, len(planned.Plans), len(planned.Deferred), len(planned.Failed))

		units = gen.NewGenerator(gen.Config{
			Filename: d.cfg.Output,
			Comments: d.cfg.WithComments(),
		}, graph).Build(planned)

		mem := gen.NewMemorySink()
		for _, u := range units {
			if err := gen.Emit(mem, u); err != nil {
				d.keepUnformatted(err)
				return nil, fmt.Errorf("round %d: %w", round, err)
			}
		}

		changed := d.absorb(mem, current)

		if d.opts.Mode == ModeWrite {
			if err := mem.CopyTo(files); err != nil {
				return nil, fmt.Errorf("round %d: %w", round, err)
			}
		}

		if len(planned.Deferred) == 0 {
			break
		}

		if !changed {
			d.log.Printf("round %d: output unchanged, %d declarations stay deferred", round, len(planned.Deferred))
			break
		}
	}

	res.Units = units
	res.Diagnostics = finalDiagnostics(res.Last)
	leftover := d.leftovers(graph, units)

	if d.opts.Mode == ModeWrite {
		res.Written = slices.Compact(files.Written())

		for _, p := range slices.Compact(files.Unchanged()) {
			if !slices.Contains(res.Written, p) {
				res.Unchanged = append(res.Unchanged, p)
			}
		}

		for _, p := range leftover {
			if err := os.Remove(p); err != nil {
				return nil, fmt.Errorf("removing %s: %w", p, err)
			}

			d.log.Printf("removed %s: no declaration of its package was generated", p)
			res.Removed = append(res.Removed, p)
		}
	} else {
		res.Stale = append(stale(current), leftover...)
		slices.Sort(res.Stale)
	}

	return res, nil
}

func (d *Driver) load(ctx context.Context, current map[string][]byte) (*analyze.TypeGraph, error) {
	patterns := d.opts.Patterns
	if len(patterns) == 0 {
		patterns = d.cfg.Packages
	}

	opts := analyze.Options{
		Dir:             d.cfg.Root,
		BuildTags:       d.cfg.BuildTags,
		DirectivePrefix: d.cfg.Directive,
		ExcludeFiles:    []string{d.cfg.Output},
	}

	if d.opts.Mode == ModeCheck && len(current) > 0 {
		opts.Overlay = current
	}

	graph, err := analyze.NewAnalyzer(opts).LoadPackages(ctx, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	return graph, nil
}

// absorb records the units of a round and reports whether any content
// differs from the previous round, or from disk on the first round.
func (d *Driver) absorb(mem *gen.MemorySink, current map[string][]byte) bool {
	changed := false

	for _, path := range mem.Paths() {
		data, _ := mem.File(path)

		prev, seen := current[path]
		if !seen {
			prev, _ = os.ReadFile(path)
		}

		if !bytes.Equal(prev, data) {
			changed = true
		}

		current[path] = data
	}

	return changed
}

// leftovers lists generated files of packages that still carry annotated
// declarations but got no unit, so the file would keep functions for
// declarations that were deferred or failed. Files without the generated
// header are never touched.
func (d *Driver) leftovers(graph *analyze.TypeGraph, units []*gen.Unit) []string {
	if graph == nil {
		return nil
	}

	built := make(map[string]bool, len(units))
	for _, u := range units {
		built[u.PkgPath] = true
	}

	var out []string

	for _, decl := range graph.Annotated(mapping.DirectiveModel) {
		path := decl.ID.PkgPath
		if built[path] {
			continue
		}

		built[path] = true

		pkg := graph.Package(path)
		if pkg == nil || pkg.Dir == "" {
			continue
		}

		file := filepath.Join(pkg.Dir, d.cfg.Output)

		data, err := os.ReadFile(file)
		if err != nil || !bytes.HasPrefix(data, []byte(common.GeneratedHeader)) {
			continue
		}

		out = append(out, file)
	}

	slices.Sort(out)

	return out
}

func (d *Driver) keepUnformatted(err error) {
	if d.opts.Mode != ModeWrite {
		return
	}

	p, werr := gen.WriteDebugUnformatted(err)
	if werr != nil {
		d.log.Printf("writing unformatted output: %v", werr)
		return
	}

	if p != "" {
		d.log.Printf("unformatted output kept in %s", p)
	}
}

// finalDiagnostics turns the deferred notes of the last round into errors.
func finalDiagnostics(last *plan.Round) diagnostic.Diagnostics {
	var out diagnostic.Diagnostics
	if last == nil {
		return out
	}

	out.Errors = slices.Clone(last.Diagnostics.Errors)
	out.Warnings = slices.Clone(last.Diagnostics.Warnings)

	for _, info := range last.Diagnostics.Infos {
		if info.Code != diagnostic.CodeDeferred {
			out.Infos = append(out.Infos, info)
		}
	}

	for _, def := range last.Deferred {
		out.Add(diagnostic.Diagnostic{
			Severity: diagnostic.SeverityError,
			Code:     diagnostic.CodeUnresolvedReference,
			Message:  "still unresolved after the last round: " + def.Reason,
			Decl:     def.Decl.String(),
			Pos:      def.Pos,
		})
	}

	return out
}

func stale(current map[string][]byte) []string {
	var out []string

	for path, data := range current {
		disk, err := os.ReadFile(path)
		if err != nil || !bytes.Equal(disk, data) {
			out = append(out, path)
		}
	}

	slices.Sort(out)

	return out
}

package plan

import (
	"fmt"
	"go/token"

	"domainer/internal/analyze"
	"domainer/internal/diagnostic"
	"domainer/internal/mapping"
)

// DefaultMaxDepth is the default ceiling on nested-mapping chains.
const DefaultMaxDepth = 32

// Config holds configuration for the planning process.
type Config struct {
	// TagKey is the struct tag key carrying field metadata.
	TagKey string
	// MaxDepth limits nested-mapping chains (0 = unlimited).
	MaxDepth int
}

// DefaultConfig returns the default planning configuration.
func DefaultConfig() Config {
	return Config{
		TagKey:   mapping.DefaultTagKey,
		MaxDepth: DefaultMaxDepth,
	}
}

// Source is the declaration graph a round is planned over.
type Source interface {
	Annotated(directive string) []*analyze.Declaration
	Resolve(id analyze.TypeID) (*analyze.Declaration, bool)
	PackagesNamed(name string) []string
}

type status int

const (
	statusOK status = iota
	statusDeferred
	statusFailed
)

// state is the per-round bookkeeping of one annotated declaration.
type state struct {
	decl   *analyze.Declaration
	meta   *mapping.Metadata
	plan   *DeclPlan
	status status
	reason string
	// deps are the annotated declarations the plan calls into, sorted.
	deps  []analyze.TypeID
	diags diagnostic.Diagnostics
}

func (s *state) deferTo(format string, args ...any) {
	if s.status == statusOK {
		s.status = statusDeferred
		s.reason = fmt.Sprintf(format, args...)
	}
}

func (s *state) fail() {
	s.status = statusFailed
}

// Planner plans one round over a declaration graph.
type Planner struct {
	src       Source
	config    Config
	extractor *mapping.Extractor

	states map[analyze.TypeID]*state
	order  []analyze.TypeID
}

// NewPlanner creates a new Planner.
func NewPlanner(src Source, config Config) *Planner {
	return &Planner{
		src:       src,
		config:    config,
		extractor: mapping.NewExtractor(src, config.TagKey),
	}
}

// Plan runs the planning pipeline over every declaration carrying the model
// directive and returns the partitioned round.
func (p *Planner) Plan() *Round {
	p.states = make(map[analyze.TypeID]*state)
	p.order = nil

	// Pass 1: extraction. Every annotated declaration is registered before
	// any field is planned so nested detection sees the whole set.
	for _, decl := range p.src.Annotated(mapping.DirectiveModel) {
		st := &state{decl: decl}
		p.states[decl.ID] = st
		p.order = append(p.order, decl.ID)

		if decl.Kind == analyze.DeclKindUnknown {
			st.deferTo("type %s does not type-check yet", decl.ID.Name)
			continue
		}

		meta, ok := p.extractor.Extract(decl, &st.diags)
		if !ok {
			st.fail()
			continue
		}

		st.meta = meta
	}

	// Pass 2: per-declaration planning.
	for _, id := range p.order {
		st := p.states[id]
		if st.status == statusOK {
			p.planDecl(st)
		}
	}

	// Pass 3: chain depth, then status propagation.
	p.guardDepth()
	p.propagate()

	return p.collect()
}

func (p *Planner) planDecl(st *state) {
	meta := st.meta

	if meta.Domain.Unresolved {
		st.deferTo("domain type %s: no loaded package matches", meta.Domain.Raw)
		return
	}

	domain, ok := p.src.Resolve(meta.Domain.ID)
	if !ok {
		st.deferTo("domain type %s is not resolved", meta.Domain.ID)
		return
	}

	dp := &DeclPlan{
		Shape:  meta.ID(),
		Domain: domain.ID,
		Kind:   meta.Decl.Kind,
		Pos:    meta.Decl.Pos,
	}

	if meta.IsEnum() {
		if domain.Kind != analyze.DeclKindEnum {
			p.addError(st, diagnostic.CodeTypeMismatch, "", meta.Decl.Pos,
				"enumeration %s is paired with %s, which is a %s", meta.Decl.ID.Name, domain.ID, domain.Kind)
			st.fail()

			return
		}

		cases, ok := p.matchCases(st, domain)
		if !ok {
			st.fail()
			return
		}

		dp.Cases = cases
	} else {
		if domain.Kind != analyze.DeclKindRecord {
			p.addError(st, diagnostic.CodeTypeMismatch, "", meta.Decl.Pos,
				"struct %s is paired with %s, which is a %s", meta.Decl.ID.Name, domain.ID, domain.Kind)
			st.fail()

			return
		}

		fields, ok := p.selectFields(st, domain)
		if !ok {
			return
		}

		dp.Fields = fields
	}

	st.deps = sortedIDs(st.deps)
	dp.Requires = st.deps
	st.plan = dp
}

func (p *Planner) addError(st *state, code, member string, pos token.Position, format string, args ...any) {
	st.diags.Add(diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Decl:     st.decl.ID.String(),
		Member:   member,
		Pos:      pos,
	})
}

// collect partitions the states in declaration order.
func (p *Planner) collect() *Round {
	round := &Round{}

	for _, id := range p.order {
		st := p.states[id]

		switch st.status {
		case statusOK:
			round.Plans = append(round.Plans, *st.plan)
			round.Diagnostics.Merge(st.diags)
		case statusDeferred:
			round.Deferred = append(round.Deferred, Deferred{
				Decl:   id,
				Reason: st.reason,
				Pos:    st.decl.Pos,
			})
			round.Diagnostics.Add(diagnostic.Diagnostic{
				Severity: diagnostic.SeverityInfo,
				Code:     diagnostic.CodeDeferred,
				Message:  "deferred: " + st.reason,
				Decl:     id.String(),
				Pos:      st.decl.Pos,
			})
		case statusFailed:
			round.Failed = append(round.Failed, id)
			round.Diagnostics.Merge(st.diags)
		}
	}

	return round
}

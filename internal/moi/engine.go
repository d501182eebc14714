package moi

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/systemshift/biograph/internal/model"
	"github.com/systemshift/biograph/internal/query"
	"github.com/systemshift/biograph/internal/server/graph"
)

// TableExecutor runs a statement and returns projected rows.
type TableExecutor interface {
	Table(ctx context.Context, stmt query.Statement) (*graph.QueryResult[[]any], error)
}

// Request is one interpretation run.
type Request struct {
	Pedigree   *Pedigree           `json:"pedigree" yaml:"pedigree" validate:"required"`
	Disorder   string              `json:"disorder" yaml:"disorder" validate:"required"`
	Pattern    Pattern             `json:"pattern" yaml:"pattern" validate:"required"`
	Penetrance Penetrance          `json:"penetrance,omitempty" yaml:"penetrance,omitempty"`
	Query      *query.Query        `json:"query,omitempty" yaml:"-"`
	Options    *query.QueryOptions `json:"options,omitempty" yaml:"-"`
}

// Plan is a compiled request ready to execute.
type Plan struct {
	Pattern   Pattern             `json:"pattern"`
	Genotypes map[string][]string `json:"genotypes"`
	Query     *query.Query        `json:"query"`
	Statement query.Statement     `json:"statement"`
}

// Result of Engine.Run.
type Result struct {
	ID                   string              `json:"id"`
	ElapsedTimeMs        int64               `json:"elapsedTimeMs"`
	ResultCount          int                 `json:"resultCount"`
	Truncated            bool                `json:"truncated"`
	Pattern              Pattern             `json:"pattern"`
	Genotypes            map[string][]string `json:"genotypes"`
	Statement            string              `json:"statement"`
	Variants             []VariantCalls      `json:"variants"`
	CompoundHeterozygous []GeneVariants      `json:"compoundHeterozygous,omitempty"`
}

// Prepare derives genotypes for req, injects them into its query and
// compiles the variant statement. It never touches the store. The
// statement projects the calls of every constrained sample, plus both
// parents for patterns that are classified after the query.
func Prepare(req Request) (*Plan, error) {
	pattern, err := ParsePattern(string(req.Pattern))
	if err != nil {
		return nil, err
	}
	penetrance, err := ParsePenetrance(string(req.Penetrance))
	if err != nil {
		return nil, err
	}

	genotypes, err := DeriveGenotypes(req.Pedigree, req.Disorder, pattern, penetrance)
	if err != nil {
		return nil, err
	}
	q, err := Inject(req.Query, genotypes, pattern)
	if err != nil {
		return nil, err
	}

	samples := make([]string, 0, len(genotypes)+2)
	for s := range genotypes {
		samples = append(samples, s)
	}
	if pattern.NeedsClassification() {
		_, father, mother, err := trio(req.Pedigree)
		if err != nil {
			return nil, &NoSatisfiableGenotypesError{Pattern: pattern, Disorder: req.Disorder, Reason: err.Error()}
		}
		samples = append(samples, father.Sample(), mother.Sample())
	}
	sort.Strings(samples)

	opts := req.Options.Clone()
	opts.Put(query.OptIncludeSamples, strings.Join(samples, ","))
	stmt, err := query.CompileVariant(q, opts)
	if err != nil {
		return nil, err
	}
	return &Plan{Pattern: pattern, Genotypes: genotypes, Query: q, Statement: stmt}, nil
}

// Engine runs interpretation requests against a graph store.
type Engine struct {
	exec   TableExecutor
	logger *slog.Logger
}

// NewEngine creates an engine backed by exec.
func NewEngine(exec TableExecutor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{exec: exec, logger: logger.With("component", "moi")}
}

// Run prepares req, executes it and classifies the returned variants when
// the pattern needs cross-sample comparison. Store errors are returned
// unchanged.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	plan, err := Prepare(req)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("running inheritance query",
		"pattern", plan.Pattern,
		"disorder", req.Disorder,
		"samples", len(plan.Genotypes),
	)

	table, err := e.exec.Table(ctx, plan.Statement)
	if err != nil {
		return nil, err
	}
	variants, err := ParseVariantRows(plan.Statement.Columns, table.Results)
	if err != nil {
		return nil, fmt.Errorf("reading variant rows: %w", err)
	}

	res := &Result{
		ID:        table.ID,
		Truncated: table.Truncated,
		Pattern:   plan.Pattern,
		Genotypes: plan.Genotypes,
		Statement: plan.Statement.Text,
		Variants:  variants,
	}

	switch plan.Pattern {
	case DeNovo:
		res.Variants, err = FilterDeNovo(req.Pedigree, variants)
	case CompoundHeterozygous:
		res.CompoundHeterozygous, err = FilterCompoundHeterozygous(req.Pedigree, variants)
		res.Variants = nil
		seen := make(map[*model.Node]bool)
		for _, g := range res.CompoundHeterozygous {
			for _, v := range append(append([]VariantCalls(nil), g.Paternal...), g.Maternal...) {
				if !seen[v.Variant] {
					seen[v.Variant] = true
					res.Variants = append(res.Variants, v)
				}
			}
		}
	}
	if err != nil {
		return nil, err
	}
	if res.Variants == nil {
		res.Variants = []VariantCalls{}
	}

	res.ResultCount = len(res.Variants)
	res.ElapsedTimeMs = time.Since(start).Milliseconds()
	e.logger.Info("inheritance query complete",
		"pattern", plan.Pattern,
		"candidates", len(variants),
		"matches", res.ResultCount,
		"truncated", res.Truncated,
	)
	return res, nil
}

package engine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/rule"
)

// Result is the outcome of one evaluation.
type Result struct {
	Rule      string
	Start     *board.Position
	Positions []*board.Position // distinct, ordered by Position.Key
	Steps     uint64
	Elapsed   time.Duration
	Cached    bool
}

// Len returns the number of resulting positions.
func (r *Result) Len() int {
	return len(r.Positions)
}

// Diffs returns, for every resulting position, the cells that differ from
// the start position.
func (r *Result) Diffs() [][]board.Vec {
	out := make([][]board.Vec, len(r.Positions))
	for i, p := range r.Positions {
		out[i] = board.Diff(r.Start, p)
	}
	return out
}

// Options configures an Engine. The zero value is usable.
type Options struct {
	Workers           int   // parallel workers for large state sets (0 = GOMAXPROCS)
	ParallelThreshold int   // minimum states before fanning out (0 = 64, negative = never)
	RuleCacheSize     int64 // compiled rules kept (0 = no cache)
	Logger            *slog.Logger
	Metrics           *Metrics
	Results           ResultStore
}

// Engine evaluates rules against positions. It is safe for concurrent use;
// every evaluation has its own state.
type Engine struct {
	workers   int
	threshold int
	rules     *ruleCache
	log       *slog.Logger
	metrics   *Metrics
	results   ResultStore

	// Callbacks
	OnResult func(*Result)
}

// New creates an engine.
func New(opts Options) (*Engine, error) {
	rc, err := newRuleCache(opts.RuleCacheSize)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		workers:   opts.Workers,
		threshold: opts.ParallelThreshold,
		rules:     rc,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		results:   opts.Results,
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	if e.threshold == 0 {
		e.threshold = 64
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e, nil
}

// Close releases the rule cache.
func (e *Engine) Close() {
	e.rules.close()
}

// Compile returns the compiled form of src, from the cache when possible.
func (e *Engine) Compile(ctx context.Context, src string) (rule.Move, error) {
	if m, ok := e.rules.get(src); ok {
		e.metrics.cacheLookup(true)
		return m, nil
	}
	if e.rules != nil {
		e.metrics.cacheLookup(false)
	}
	_, span := tracer.Start(ctx, "engine.Compile")
	defer span.End()

	m, err := rule.CompileSource(src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compile failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("arrows", rule.Arrows(m)))
	e.rules.set(src, m)
	e.log.Debug("rule compiled", "arrows", rule.Arrows(m))
	return m, nil
}

// Evaluate compiles src and computes every position it produces from pos.
// The zero budget means DefaultBudget.
func (e *Engine) Evaluate(ctx context.Context, src string, pos *board.Position, budget Budget) (*Result, error) {
	ctx, span := tracer.Start(ctx, "engine.Evaluate")
	defer span.End()

	key := ""
	if e.results != nil {
		key = ResultKey(src, pos)
		if r := e.loadResult(key, src, pos); r != nil {
			span.SetAttributes(attribute.Bool("cached", true), attribute.Int("results", r.Len()))
			e.metrics.observe("cached", r)
			return r, nil
		}
	}

	m, err := e.Compile(ctx, src)
	if err != nil {
		e.metrics.observe(errorLabel(err), nil)
		return nil, err
	}

	r, err := e.EvaluateMove(ctx, m, pos, budget)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		e.metrics.observe(errorLabel(err), nil)
		return nil, err
	}
	r.Rule = src
	span.SetAttributes(
		attribute.Int("results", r.Len()),
		attribute.Int64("steps", int64(r.Steps)),
	)
	span.SetStatus(codes.Ok, "")
	e.metrics.observe("ok", r)

	if e.results != nil {
		e.saveResult(key, r)
	}
	if e.OnResult != nil {
		e.OnResult(r)
	}
	return r, nil
}

// EvaluateMove computes E(m, pos) for an already compiled move.
func (e *Engine) EvaluateMove(ctx context.Context, m rule.Move, pos *board.Position, budget Budget) (*Result, error) {
	budget = budget.OrDefault()
	mt, cancel := newMeter(ctx, budget)
	defer cancel()

	threshold := e.threshold
	if threshold < 0 {
		threshold = 0
	}
	ev := newEvaluator(mt, m, e.workers, threshold, e.log)
	out, err := ev.eval(m, []State{newState(pos)})
	if err != nil {
		var be *BudgetExceededError
		if errors.As(err, &be) {
			e.log.Warn("evaluation budget exceeded", "steps", be.Steps, "budget", budget.String(), "elapsed", be.Elapsed)
		}
		return nil, err
	}

	r := &Result{
		Start:     pos,
		Positions: positions(out),
		Steps:     mt.Steps(),
		Elapsed:   mt.elapsed(),
	}
	e.log.Debug("evaluated",
		"results", r.Len(),
		"steps", r.Steps,
		"arrows", ev.arrows,
		"iterations", ev.iterations,
		"fanouts", ev.fanouts,
		"elapsed", r.Elapsed)
	return r, nil
}

// FindAndReplace returns every position obtained by rewriting one match
// of f in pos with g, that is E(f -> g, pos).
func (e *Engine) FindAndReplace(ctx context.Context, f, g rule.Pattern, pos *board.Position) (*Result, error) {
	return e.EvaluateMove(ctx, &rule.Arrow{LHS: f, RHS: g}, pos, Budget{})
}

func (e *Engine) loadResult(key, src string, pos *board.Position) *Result {
	data, ok, err := e.results.LoadResult(key)
	if err != nil {
		e.log.Warn("result cache read failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	r, err := decodeResult(data, pos)
	if err != nil {
		e.log.Warn("result cache entry unreadable", "error", err)
		return nil
	}
	r.Rule = src
	return r
}

func (e *Engine) saveResult(key string, r *Result) {
	data, err := encodeResult(r)
	if err == nil {
		err = e.results.SaveResult(key, data)
	}
	if err != nil {
		e.log.Warn("result cache write failed", "error", err)
	}
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, ErrBudgetExceeded):
		return "budget"
	case errors.Is(err, rule.ErrSyntax):
		return "syntax"
	}
	return "construction"
}

var defaultEngine, _ = New(Options{})

// Evaluate runs src on pos with a default engine.
func Evaluate(ctx context.Context, src string, pos *board.Position, budget Budget) (*Result, error) {
	return defaultEngine.Evaluate(ctx, src, pos, budget)
}

// FindAndReplace is Engine.FindAndReplace on a default engine.
func FindAndReplace(f, g rule.Pattern, pos *board.Position) ([]*board.Position, error) {
	r, err := defaultEngine.FindAndReplace(context.Background(), f, g, pos)
	if err != nil {
		return nil, err
	}
	return r.Positions, nil
}

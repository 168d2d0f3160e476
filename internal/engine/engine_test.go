package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/rule"
)

func mustCompact(t *testing.T, s string) *board.Position {
	t.Helper()
	pos, err := board.ParseCompact(s)
	require.NoError(t, err)
	return pos
}

func compacts(r *Result) []string {
	out := make([]string, len(r.Positions))
	for i, p := range r.Positions {
		out[i] = p.Compact()
	}
	sort.Strings(out)
	return out
}

func eval(t *testing.T, src, pos string) []string {
	t.Helper()
	r, err := Evaluate(context.Background(), src, mustCompact(t, pos), Budget{})
	require.NoError(t, err, src)
	return compacts(r)
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name string
		rule string
		pos  string
		want []string
	}{
		{"pawn step", "♙ + u. -> . + u♙", "./♙", []string{"♙/1"}},
		{"two pawns", "♙ + u. -> . + u♙", "../♙♙", []string{"1♙/♙1", "♙1/1♙"}},
		{"blocked rook", "(♖ + u. -> . + u♖)+", "♟/./♖", []string{"♟/♖/1"}},
		{"poi fixes one rook", "%♖: (% + u. -> . + u%){2}", "../../♖♖", []string{"1♖/2/♖1", "♖1/2/1♖"}},
		{"no poi mixes rooks", "(♖ + u. -> . + u♖){2}", "../../♖♖", []string{"1♖/2/♖1", "2/♖♖/2", "♖1/2/1♖"}},
		{"promotion at the edge", "♙ + u# -> ♕ + u#", "♙", []string{"♕"}},
		{"rhs outside window", "♙ -> . + u♙", "./♙", []string{}},
		{"rhs cannot remove a cell", "♙ -> #", "./♙", []string{}},
		{"no match", "♙ + u. -> . + u♙", "♟/♙", []string{}},
		{"absent poi piece", "%♘: % + u. -> . + u%", "./♙", []string{}},
		{"rotated step", "R(♖ + u. -> . + u♖)", ".♖", []string{"♖1"}},
		{"colour swapped", "C(♙ + u. -> . + u♙)", "./♟", []string{"♟/1"}},
		{"capture", "♖ + u♟ -> . + u♖", "♟/♖", []string{"♖/1"}},
		{"alternation", "♙ + u. -> . + u♙ | ♙ + r. -> . + r♙", "../♙.", []string{"2/1♙", "♙1/2"}},
		{"sequence", "(♙ + u. -> . + u♙)(♙ + u. -> . + u♙)", "./1/♙", []string{"♙/1/1"}},
		{"poi follows the piece", "%♖: (% + u. -> . + u%)(% + r. -> . + r%)", "../♖.", []string{"1♖/2"}},
		{"builtin macro", "%♖: in_any_direction(% + u. -> . + u%)", "3/1♖1/3", []string{"1♖1/3/3", "3/2♖/3", "3/3/1♖1", "3/♖2/3"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := eval(t, tc.rule, tc.pos)
			if len(tc.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRepetition(t *testing.T) {
	const column = "1/1/1/♖"
	step := "(♖ + u. -> . + u♖)"
	tests := []struct {
		quant string
		want  int
	}{
		{"{0}", 1},
		{"{1}", 1},
		{"{3}", 1},
		{"{4}", 0},
		{"{1,2}", 2},
		{"{2,}", 2},
		{"?", 2},
		{"*", 4},
		{"+", 3},
	}
	for _, tc := range tests {
		t.Run(tc.quant, func(t *testing.T) {
			assert.Len(t, eval(t, step+tc.quant, column), tc.want)
		})
	}
}

func TestEvaluatorLaws(t *testing.T) {
	moves := []string{
		"♙ + u. -> . + u♙",
		"(♖ + u. -> . + u♖ | ♖ + r. -> . + r♖)",
		"%♖: in_any_direction(% + u. -> . + u%)",
	}
	positions := []string{"3/1♖1/♙2", "♟2/1♙1/♖2", "3/3/3"}
	for _, ps := range positions {
		pos := mustCompact(t, ps)
		assert.Equal(t, []string{ps}, eval(t, "nil", ps))
		for _, m := range moves {
			opt := eval(t, "("+m+")?", ps)
			assert.Contains(t, opt, pos.Compact(), "E(M?) contains p")

			star := eval(t, "("+m+")*", ps)
			for _, q := range []string{"{0}", "{1}", "{2}", "{3}"} {
				for _, p := range eval(t, "("+m+")"+q, ps) {
					assert.Contains(t, star, p, "E(M*) contains E(M%s)", q)
				}
			}
			plus := eval(t, "("+m+")+", ps)
			seq := eval(t, "("+m+") ("+m+")*", ps)
			assert.Equal(t, seq, plus, "E(M+) = E(M M*)")
		}
	}
}

func TestClosureTerminates(t *testing.T) {
	// every placement of two identical rooks on a 4x4 board
	r, err := Evaluate(context.Background(),
		"(%♖: in_any_direction(% + u. -> . + u%))*",
		mustCompact(t, "4/1♖2/2♖1/4"), Budget{})
	require.NoError(t, err)
	assert.Equal(t, 120, r.Len())
}

func TestParallelMatchesSequential(t *testing.T) {
	src := "(%♖: in_any_direction(% + u. -> . + u%))*"
	pos := mustCompact(t, "4/1♖2/2♖1/4")

	seq, err := New(Options{Workers: 1})
	require.NoError(t, err)
	par, err := New(Options{Workers: 4, ParallelThreshold: 2})
	require.NoError(t, err)
	defer seq.Close()
	defer par.Close()

	a, err := seq.Evaluate(context.Background(), src, pos, Budget{})
	require.NoError(t, err)
	b, err := par.Evaluate(context.Background(), src, pos, Budget{})
	require.NoError(t, err)
	assert.Equal(t, compacts(a), compacts(b))
	assert.Equal(t, a.Steps, b.Steps)
}

func TestBudgetExceeded(t *testing.T) {
	pos := mustCompact(t, "1/1/♖")
	src := "(♖ + u. -> . + u♖ | ♖ + d. -> . + d♖)*"

	_, err := Evaluate(context.Background(), src, pos, Budget{MaxSteps: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))
	var be *BudgetExceededError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, uint64(3), be.Steps)

	r, err := Evaluate(context.Background(), src, pos, Budget{MaxSteps: 100})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
}

func TestBudgetDefaults(t *testing.T) {
	tests := []struct {
		name   string
		budget Budget
		want   Budget
		desc   string
	}{
		{"zero means default", Budget{}, DefaultBudget, "2000000 steps, 30s"},
		{"unlimited is kept", Unlimited, Unlimited, "unlimited steps, no timeout"},
		{"steps only", Budget{MaxSteps: 10}, Budget{MaxSteps: 10}, "10 steps, no timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.budget.OrDefault()
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.desc, got.String())
		})
	}

	m, cancel := newMeter(context.Background(), Unlimited)
	defer cancel()
	assert.NoError(t, m.step(DefaultBudget.MaxSteps+1))

	r, err := Evaluate(context.Background(), "(♖ + u. -> . + u♖)*", mustCompact(t, "1/1/♖"), Unlimited)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Evaluate(ctx, "♙ + u. -> . + u♙", mustCompact(t, "./♙"), Budget{Timeout: time.Minute})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCompileErrorsAbort(t *testing.T) {
	pos := mustCompact(t, "./♙")
	tests := []struct {
		src    string
		target error
	}{
		{"(♙ -> .", rule.ErrSyntax},
		{"(♙ -> ♙){3,1}", rule.ErrQuantifierRange},
		{"% + u. -> . + u%", rule.ErrUnboundPOI},
		{"♙ + ♙ -> .", board.ErrDisjoint},
		{"in_any_direction(♙ -> .", rule.ErrSyntax},
		{"rotated ♙ -> .", rule.ErrSyntax},
		{"loop = loop\nloop", rule.ErrSyntax},
		{"nil = ♙ -> .\nnil", rule.ErrSyntax},
	}
	for _, tc := range tests {
		_, err := Evaluate(context.Background(), tc.src, pos, Budget{})
		assert.True(t, errors.Is(err, tc.target), "%q: got %v", tc.src, err)
	}
}

func TestFindAndReplace(t *testing.T) {
	f := rule.Pattern{board.NewFragment(board.Cell{At: board.Vec{}, Content: '♙'})}
	g := rule.Pattern{board.NewFragment(board.Cell{At: board.Vec{}, Content: '♕'})}
	got, err := FindAndReplace(f, g, mustCompact(t, "♙1/1♙"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	var out []string
	for _, p := range got {
		out = append(out, p.Compact())
	}
	sort.Strings(out)
	assert.Equal(t, []string{"♕1/1♙", "♙1/1♕"}, out)
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) LoadResult(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	return d, ok, nil
}

func (m *memStore) SaveResult(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func TestResultStore(t *testing.T) {
	store := &memStore{data: make(map[string][]byte)}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	e, err := New(Options{Results: store, Metrics: metrics, RuleCacheSize: 16})
	require.NoError(t, err)
	defer e.Close()

	pos := mustCompact(t, "../♙♙")
	src := "♙ + u. -> . + u♙"
	first, err := e.Evaluate(context.Background(), src, pos, Budget{})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Len(t, store.data, 1)

	second, err := e.Evaluate(context.Background(), src, pos, Budget{})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, compacts(first), compacts(second))
	assert.Equal(t, first.Steps, second.Steps)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.evaluations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.evaluations.WithLabelValues("cached")))
}

func TestResultDiffs(t *testing.T) {
	r, err := Evaluate(context.Background(), "♙ + u. -> . + u♙", mustCompact(t, "./♙"), Budget{})
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, [][]board.Vec{{{X: 0, Y: 1}, {X: 0, Y: 0}}}, r.Diffs())
}

func TestStateTable(t *testing.T) {
	pos := mustCompact(t, "♙.")
	moved := pos.With(board.Cell{At: board.Vec{X: 1}, Content: '♙'})

	table := NewStateTable()
	assert.True(t, table.Insert(newState(pos)))
	assert.False(t, table.Insert(newState(pos)))
	assert.True(t, table.Insert(newState(moved)))
	assert.True(t, table.Insert(newState(pos).push(binding{at: board.Vec{}, piece: '♙'})))
	assert.Equal(t, 3, table.Len())
	assert.True(t, table.Contains(newState(moved)))
	assert.InDelta(t, 25.0, table.DuplicateRate(), 0.001)
}

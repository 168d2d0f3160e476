package engine

import (
	"fmt"
	"log/slog"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/rule"
)

// evaluator computes the denotation of a move over sets of states. A set
// is a slice without duplicates; every case below keeps that invariant.
type evaluator struct {
	meter     *meter
	plans     map[*rule.Arrow]*arrowPlan
	workers   int
	threshold int
	log       *slog.Logger

	// statistics, read after evaluation
	arrows     uint64
	fanouts    uint64
	iterations uint64
}

func newEvaluator(m *meter, move rule.Move, workers, threshold int, log *slog.Logger) *evaluator {
	ev := &evaluator{
		meter:     m,
		plans:     make(map[*rule.Arrow]*arrowPlan),
		workers:   max(workers, 1),
		threshold: threshold,
		log:       log,
	}
	rule.Walk(move, func(n rule.Move) {
		if a, ok := n.(*rule.Arrow); ok {
			ev.plans[a] = newArrowPlan(a)
		}
	})
	return ev
}

func (ev *evaluator) eval(m rule.Move, states []State) ([]State, error) {
	if len(states) == 0 {
		return nil, nil
	}
	switch n := m.(type) {
	case rule.Nil:
		return states, nil
	case *rule.Arrow:
		return ev.arrow(n, states)
	case *rule.POI:
		return ev.poi(n, states)
	case *rule.Seq:
		mid, err := ev.eval(n.First, states)
		if err != nil {
			return nil, err
		}
		return ev.eval(n.Then, mid)
	case *rule.Alt:
		left, err := ev.eval(n.Left, states)
		if err != nil {
			return nil, err
		}
		right, err := ev.eval(n.Right, states)
		if err != nil {
			return nil, err
		}
		return union(left, right), nil
	case *rule.Repeat:
		return ev.repeat(n, states)
	}
	return nil, fmt.Errorf("engine: unknown move node %T", m)
}

func (ev *evaluator) arrow(a *rule.Arrow, states []State) ([]State, error) {
	plan := ev.plans[a]
	if plan == nil {
		plan = newArrowPlan(a)
	}
	ev.arrows++

	if ev.workers > 1 && ev.threshold > 0 && len(states) >= ev.threshold {
		ev.fanouts++
		out, pool, err := applyParallel(ev.meter, plan, states, ev.workers)
		if ev.log.Enabled(ev.meter.ctx, slog.LevelDebug) {
			per := make([]uint64, len(pool))
			for i, w := range pool {
				per[i] = w.Steps()
			}
			ev.log.Debug("parallel arrow", "states", len(states), "workers", len(pool), "steps", per)
		}
		return out, err
	}

	table := NewStateTable()
	var buf []State
	for _, s := range states {
		if err := ev.meter.step(1); err != nil {
			return nil, err
		}
		buf = plan.apply(s, buf[:0])
		for _, r := range buf {
			table.Insert(r)
		}
	}
	return table.States(), nil
}

// poi binds every occurrence of the piece in every state, evaluates the
// body once over all of them, then drops the binding.
func (ev *evaluator) poi(p *rule.POI, states []State) ([]State, error) {
	var bound []State
	for _, s := range states {
		for _, v := range s.Pos.Find(p.Piece) {
			bound = append(bound, s.push(binding{at: v, piece: p.Piece}))
		}
	}
	out, err := ev.eval(p.Body, bound)
	if err != nil {
		return nil, err
	}
	table := NewStateTable()
	for _, s := range out {
		table.Insert(s.pop())
	}
	return table.States(), nil
}

// repeat composes the body Min times, then keeps applying it to the states
// not seen before until Max is reached or nothing new appears. A state
// reached again at a later level has already been expanded with at least
// as many levels remaining, so the frontier never needs it twice.
func (ev *evaluator) repeat(r *rule.Repeat, states []State) ([]State, error) {
	cur := states
	for k := 0; k < r.Min; k++ {
		next, err := ev.eval(r.Body, cur)
		if err != nil {
			return nil, err
		}
		if len(next) == 0 {
			return nil, nil
		}
		cur = next
	}

	seen := NewStateTable()
	frontier := seen.InsertAll(cur)
	for k := r.Min; r.Max == rule.Unbounded || k < r.Max; k++ {
		if len(frontier) == 0 {
			break
		}
		ev.iterations++
		next, err := ev.eval(r.Body, frontier)
		if err != nil {
			return nil, err
		}
		frontier = seen.InsertAll(next)
	}
	if r.Max == rule.Unbounded {
		ev.log.Debug("fixed point reached", "states", seen.Len(), "duplicates", fmt.Sprintf("%.1f%%", seen.DuplicateRate()))
	}
	return seen.States(), nil
}

func union(a, b []State) []State {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	return dedupe(append(a[:len(a):len(a)], b...))
}

// positions returns the distinct positions of states ordered by key.
func positions(states []State) []*board.Position {
	table := NewStateTable()
	for _, s := range states {
		table.Insert(newState(s.Pos))
	}
	sorted := table.Sorted()
	out := make([]*board.Position, len(sorted))
	for i, s := range sorted {
		out[i] = s.Pos
	}
	return out
}

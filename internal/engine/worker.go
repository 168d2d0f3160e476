package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/rule"
)

// rewrite is one rhs alternative that may replace a given lhs alternative.
type rewrite struct {
	cells []board.Cell
	poi   int // index of the '%' cell in cells, -1 if none
}

// arrowPlan is an arrow prepared for application: for every lhs
// alternative, the rhs alternatives whose domain lies inside it.
type arrowPlan struct {
	lhs      rule.Pattern
	rewrites [][]rewrite
}

func newArrowPlan(a *rule.Arrow) *arrowPlan {
	p := &arrowPlan{lhs: a.LHS, rewrites: make([][]rewrite, len(a.LHS))}
	for i, f := range a.LHS {
		lhsPOI := poiIndex(f.Cells()) >= 0
		for _, g := range a.RHS {
			if !f.Contains(g) {
				continue
			}
			rw := rewrite{cells: g.Cells()}
			rw.poi = poiIndex(rw.cells)
			// '%' on the right only moves a piece the left side picked up.
			if rw.poi >= 0 && !lhsPOI {
				continue
			}
			p.rewrites[i] = append(p.rewrites[i], rw)
		}
	}
	return p
}

func poiIndex(cells []board.Cell) int {
	for k, c := range cells {
		if c.Content == board.POI {
			return k
		}
	}
	return -1
}

// apply returns every state produced by rewriting one placement of the
// arrow in s.
func (p *arrowPlan) apply(s State, out []State) []State {
	at, piece, bound := s.POI()
	var placements []Placement
	if bound {
		placements = MatchBound(p.lhs, s.Pos, at, piece)
	} else {
		placements = Match(p.lhs, s.Pos)
	}

	changes := make([]board.Cell, 0, 8)
	for _, pl := range placements {
	next:
		for _, rw := range p.rewrites[pl.Alt] {
			if rw.poi >= 0 && !bound {
				continue
			}
			changes = changes[:0]
			for _, c := range rw.cells {
				v := c.At.Add(pl.Offset)
				content := c.Content
				if content == board.POI {
					content = piece
				}
				if !s.Pos.OnBoard(v) {
					if content == board.OffBoard {
						continue
					}
					continue next
				}
				if content == board.OffBoard {
					continue next
				}
				changes = append(changes, board.Cell{At: v, Content: content})
			}
			pos := s.Pos.With(changes...)
			if rw.poi >= 0 {
				out = append(out, s.advance(pos, rw.cells[rw.poi].At.Add(pl.Offset), true))
			} else {
				out = append(out, s.advance(pos, board.Vec{}, false))
			}
		}
	}
	return out
}

// Worker applies an arrow to a slice of states and inserts the results into
// a table shared with the other workers of the same evaluation.
type Worker struct {
	id    int
	steps uint64
	meter *meter
	table *StateTable
}

// newWorker creates a worker that charges m and fills table.
func newWorker(id int, m *meter, table *StateTable) *Worker {
	return &Worker{id: id, meter: m, table: table}
}

// ID returns the worker's ID.
func (w *Worker) ID() int {
	return w.id
}

// Steps returns the number of states this worker has processed.
func (w *Worker) Steps() uint64 {
	return w.steps
}

func (w *Worker) run(ctx context.Context, plan *arrowPlan, states []State) error {
	var buf []State
	for _, s := range states {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.meter.step(1); err != nil {
			return err
		}
		w.steps++
		buf = plan.apply(s, buf[:0])
		for _, r := range buf {
			w.table.Insert(r)
		}
	}
	return nil
}

// applyParallel splits states into one chunk per worker and runs them
// under an errgroup. The first error cancels the others.
func applyParallel(m *meter, plan *arrowPlan, states []State, workers int) ([]State, []*Worker, error) {
	table := NewStateTable()
	chunk := (len(states) + workers - 1) / workers
	g, ctx := errgroup.WithContext(m.ctx)
	g.SetLimit(workers)

	var pool []*Worker
	for id, lo := 0, 0; lo < len(states); id, lo = id+1, lo+chunk {
		hi := min(lo+chunk, len(states))
		w := newWorker(id, m, table)
		pool = append(pool, w)
		part := states[lo:hi]
		g.Go(func() error {
			return w.run(ctx, plan, part)
		})
	}
	if err := g.Wait(); err != nil {
		if _, ok := err.(*BudgetExceededError); !ok {
			err = &BudgetExceededError{Steps: m.Steps(), Budget: m.budget, Elapsed: m.elapsed(), Cause: err}
		}
		return nil, pool, err
	}
	return table.States(), pool, nil
}

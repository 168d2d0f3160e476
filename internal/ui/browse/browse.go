// Package browse holds the state of the graphical position browser: the
// played positions, the successors of the current one, a cell cursor and
// a selection that filters successors.
package browse

import (
	"context"
	"errors"
	"slices"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/engine"
)

// ErrNoSuccessor is returned by Commit when no successor is shown.
var ErrNoSuccessor = errors.New("no successor to commit")

// Model is the browser state. It is not safe for concurrent use; only
// Evaluate may run while other methods are called.
type Model struct {
	engine *engine.Engine
	src    string
	budget engine.Budget

	history    []*board.Position
	successors []*board.Position
	evaluated  bool

	// Indices into successors that change every selected cell
	visible  []int
	index    int
	cursor   board.Vec
	selected map[board.Vec]bool
}

// New creates a model at start. The successors are unknown until
// SetSuccessors.
func New(e *engine.Engine, src string, start *board.Position, budget engine.Budget) *Model {
	return &Model{
		engine:   e,
		src:      src,
		budget:   budget,
		history:  []*board.Position{start},
		cursor:   start.Board().Min,
		selected: make(map[board.Vec]bool),
	}
}

// Rule returns the rule source.
func (m *Model) Rule() string {
	return m.src
}

// Current returns the position being played.
func (m *Model) Current() *board.Position {
	return m.history[len(m.history)-1]
}

// Turn returns the number of committed moves.
func (m *Model) Turn() int {
	return len(m.history) - 1
}

// History returns the played positions, oldest first.
func (m *Model) History() []*board.Position {
	return m.history
}

// Evaluate computes the successors of pos. It reads no mutable state and
// may run on another goroutine.
func (m *Model) Evaluate(ctx context.Context, pos *board.Position) ([]*board.Position, error) {
	res, err := m.engine.Evaluate(ctx, m.src, pos, m.budget)
	if err != nil {
		return nil, err
	}
	return res.Positions, nil
}

// Refresh evaluates the current position and installs the result.
func (m *Model) Refresh(ctx context.Context) error {
	succ, err := m.Evaluate(ctx, m.Current())
	if err != nil {
		return err
	}
	m.SetSuccessors(m.Current(), succ)
	return nil
}

// SetSuccessors installs the successors of from. A stale result, for a
// position that is no longer current, is ignored.
func (m *Model) SetSuccessors(from *board.Position, succ []*board.Position) bool {
	if !from.Equal(m.Current()) {
		return false
	}
	m.successors = succ
	m.visible = nil
	m.index = 0
	m.evaluated = true
	m.refilter(nil)
	return true
}

// Evaluated reports whether the successors of the current position are
// known.
func (m *Model) Evaluated() bool {
	return m.evaluated
}

// OutOfOptions reports whether the current position has no successor.
func (m *Model) OutOfOptions() bool {
	return m.evaluated && len(m.successors) == 0
}

// Counts returns the number of successors shown and in total.
func (m *Model) Counts() (shown, total int) {
	return len(m.visible), len(m.successors)
}

// Index returns the position of the shown successor among those passing
// the filter, or -1.
func (m *Model) Index() int {
	if len(m.visible) == 0 {
		return -1
	}
	return m.index
}

// Successor returns the shown successor.
func (m *Model) Successor() (*board.Position, bool) {
	if len(m.visible) == 0 {
		return nil, false
	}
	return m.successors[m.visible[m.index]], true
}

// Changed returns the cells the shown successor changes.
func (m *Model) Changed() []board.Vec {
	s, ok := m.Successor()
	if !ok {
		return nil
	}
	return board.Diff(m.Current(), s)
}

// Next shows the following successor, wrapping around.
func (m *Model) Next() {
	if n := len(m.visible); n > 0 {
		m.index = (m.index + 1) % n
	}
}

// Prev shows the preceding successor, wrapping around.
func (m *Model) Prev() {
	if n := len(m.visible); n > 0 {
		m.index = (m.index - 1 + n) % n
	}
}

// Cursor returns the cursor cell.
func (m *Model) Cursor() board.Vec {
	return m.cursor
}

// MoveCursor moves the cursor by d, staying on the board rectangle.
func (m *Model) MoveCursor(d board.Vec) {
	b := m.Current().Board()
	next := m.cursor.Add(d)
	if b.Contains(next) {
		m.cursor = next
	}
}

// SetCursor places the cursor on v if it is on the board rectangle.
func (m *Model) SetCursor(v board.Vec) {
	if m.Current().Board().Contains(v) {
		m.cursor = v
	}
}

// ToggleSelect adds the cursor cell to the selection, or removes it.
func (m *Model) ToggleSelect() {
	if m.selected[m.cursor] {
		delete(m.selected, m.cursor)
	} else {
		m.selected[m.cursor] = true
	}
	m.refilter(m.shown())
}

// ClearSelection empties the selection.
func (m *Model) ClearSelection() {
	clear(m.selected)
	m.refilter(m.shown())
}

// Selection returns the selected cells in reading order.
func (m *Model) Selection() []board.Vec {
	out := make([]board.Vec, 0, len(m.selected))
	for v := range m.selected {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b board.Vec) int {
		if a.Y != b.Y {
			return b.Y - a.Y
		}
		return a.X - b.X
	})
	return out
}

// IsSelected reports whether v is selected.
func (m *Model) IsSelected(v board.Vec) bool {
	return m.selected[v]
}

// Commit plays the shown successor. The successors of the new position
// are unknown until the next SetSuccessors.
func (m *Model) Commit() error {
	s, ok := m.Successor()
	if !ok {
		return ErrNoSuccessor
	}
	m.history = append(m.history, s)
	m.reset()
	return nil
}

// Undo returns to the previous position.
func (m *Model) Undo() bool {
	if len(m.history) < 2 {
		return false
	}
	m.history = m.history[:len(m.history)-1]
	m.reset()
	return true
}

func (m *Model) reset() {
	m.successors = nil
	m.visible = nil
	m.index = 0
	m.evaluated = false
	clear(m.selected)
	if !m.Current().Board().Contains(m.cursor) {
		m.cursor = m.Current().Board().Min
	}
}

func (m *Model) shown() *board.Position {
	s, _ := m.Successor()
	return s
}

// refilter recomputes the shown successors, staying on keep when it still
// passes.
func (m *Model) refilter(keep *board.Position) {
	m.visible = m.visible[:0]
	cur := m.Current()
	for i, s := range m.successors {
		if m.passes(cur, s) {
			m.visible = append(m.visible, i)
		}
	}

	m.index = 0
	for i, j := range m.visible {
		if m.successors[j] == keep {
			m.index = i
			break
		}
	}
}

// passes reports whether s changes every selected cell.
func (m *Model) passes(cur, s *board.Position) bool {
	for v := range m.selected {
		if cur.At(v) == s.At(v) {
			return false
		}
	}
	return true
}

package browse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/engine"
	"github.com/hailam/algchess/internal/logging"
)

const step = "♙ + u. -> . + u♙"

func newModel(t *testing.T, src, compact string) *Model {
	t.Helper()
	e, err := engine.New(engine.Options{Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	start, err := board.ParseCompact(compact)
	require.NoError(t, err)
	return New(e, src, start, engine.Budget{})
}

func TestBrowseAndCommit(t *testing.T) {
	m := newModel(t, step, "../♙♙")
	assert.False(t, m.Evaluated())
	_, ok := m.Successor()
	assert.False(t, ok)

	require.NoError(t, m.Refresh(context.Background()))
	shown, total := m.Counts()
	assert.Equal(t, 2, shown)
	assert.Equal(t, 2, total)
	assert.Equal(t, 0, m.Index())

	first, _ := m.Successor()
	m.Next()
	second, _ := m.Successor()
	assert.NotSame(t, first, second)
	m.Next()
	again, _ := m.Successor()
	assert.Same(t, first, again, "Next wraps around")
	m.Prev()
	back, _ := m.Successor()
	assert.Same(t, second, back)
	assert.Len(t, m.Changed(), 2)

	require.NoError(t, m.Commit())
	assert.Equal(t, 1, m.Turn())
	assert.False(t, m.Evaluated())
	require.NoError(t, m.Refresh(context.Background()))
	_, total = m.Counts()
	assert.Equal(t, 1, total)

	require.NoError(t, m.Commit())
	require.NoError(t, m.Refresh(context.Background()))
	assert.True(t, m.OutOfOptions())
	assert.ErrorIs(t, m.Commit(), ErrNoSuccessor)
	assert.Equal(t, "♙♙/2", m.Current().Compact())

	assert.True(t, m.Undo())
	assert.True(t, m.Undo())
	assert.False(t, m.Undo())
	assert.Equal(t, 0, m.Turn())
}

func TestSelectionFilters(t *testing.T) {
	m := newModel(t, step, "../♙♙")
	require.NoError(t, m.Refresh(context.Background()))

	// Select the cell above the right pawn.
	m.MoveCursor(board.Right)
	m.MoveCursor(board.Up)
	assert.Equal(t, board.Vec{X: 1, Y: 1}, m.Cursor())
	m.ToggleSelect()
	assert.Equal(t, []board.Vec{{X: 1, Y: 1}}, m.Selection())
	assert.True(t, m.IsSelected(board.Vec{X: 1, Y: 1}))

	shown, total := m.Counts()
	assert.Equal(t, 1, shown)
	assert.Equal(t, 2, total)
	s, ok := m.Successor()
	require.True(t, ok)
	assert.Equal(t, board.Content('♙'), s.At(board.Vec{X: 1, Y: 1}))

	// No successor changes both top cells.
	m.MoveCursor(board.Left)
	m.ToggleSelect()
	shown, _ = m.Counts()
	assert.Zero(t, shown)
	assert.Equal(t, -1, m.Index())
	assert.False(t, m.OutOfOptions(), "filtered out is not out of options")

	m.ClearSelection()
	shown, _ = m.Counts()
	assert.Equal(t, 2, shown)
}

func TestToggleKeepsShownSuccessor(t *testing.T) {
	m := newModel(t, step, "../♙♙")
	require.NoError(t, m.Refresh(context.Background()))
	m.Next()
	before, _ := m.Successor()

	// Selecting a cell the shown successor changes keeps it in view.
	for _, v := range m.Changed() {
		if before.At(v) == '♙' {
			m.SetCursor(v)
		}
	}
	m.ToggleSelect()
	after, ok := m.Successor()
	require.True(t, ok)
	assert.Same(t, before, after)
}

func TestCursorStaysOnBoard(t *testing.T) {
	m := newModel(t, step, "../♙♙")
	m.MoveCursor(board.Left)
	m.MoveCursor(board.Down)
	assert.Equal(t, board.Vec{}, m.Cursor())
	m.SetCursor(board.Vec{X: 5, Y: 5})
	assert.Equal(t, board.Vec{}, m.Cursor())
}

func TestStaleSuccessorsIgnored(t *testing.T) {
	m := newModel(t, step, "../♙♙")
	start := m.Current()
	succ, err := m.Evaluate(context.Background(), start)
	require.NoError(t, err)

	require.True(t, m.SetSuccessors(start, succ))
	require.NoError(t, m.Commit())
	assert.False(t, m.SetSuccessors(start, succ))
	assert.False(t, m.Evaluated())
}

package engine

import (
	"strings"

	"github.com/hailam/algchess/internal/board"
)

// binding is one entry of the POI stack: the bound piece and the cell it
// currently stands on.
type binding struct {
	at    board.Vec
	piece board.Content
}

// State is a position together with the POI bindings of the enclosing
// binders, innermost last. States are values; every change returns a copy.
type State struct {
	Pos   *board.Position
	binds []binding
}

func newState(pos *board.Position) State {
	return State{Pos: pos}
}

// POI returns the innermost binding.
func (s State) POI() (board.Vec, board.Content, bool) {
	if len(s.binds) == 0 {
		return board.Vec{}, 0, false
	}
	b := s.binds[len(s.binds)-1]
	return b.at, b.piece, true
}

func (s State) push(b binding) State {
	binds := make([]binding, len(s.binds)+1)
	copy(binds, s.binds)
	binds[len(s.binds)] = b
	return State{Pos: s.Pos, binds: binds}
}

func (s State) pop() State {
	if len(s.binds) == 0 {
		return s
	}
	return State{Pos: s.Pos, binds: s.binds[:len(s.binds)-1:len(s.binds)-1]}
}

// advance replaces the position and, when moved is set, relocates the
// innermost binding to poi.
func (s State) advance(pos *board.Position, poi board.Vec, moved bool) State {
	if !moved || len(s.binds) == 0 {
		return State{Pos: pos, binds: s.binds}
	}
	binds := make([]binding, len(s.binds))
	copy(binds, s.binds)
	binds[len(binds)-1].at = poi
	return State{Pos: pos, binds: binds}
}

func (s State) hash() uint64 {
	h := s.Pos.Hash()
	for i, b := range s.binds {
		h ^= board.ZobristCell(b.at, b.piece) * uint64(2*i+3)
	}
	return h
}

func (s State) equal(o State) bool {
	if len(s.binds) != len(o.binds) || !s.Pos.Equal(o.Pos) {
		return false
	}
	for i := range s.binds {
		if s.binds[i] != o.binds[i] {
			return false
		}
	}
	return true
}

// key orders states deterministically.
func (s State) key() string {
	if len(s.binds) == 0 {
		return s.Pos.Key()
	}
	var b strings.Builder
	b.WriteString(s.Pos.Key())
	for _, x := range s.binds {
		b.WriteString("|")
		b.WriteString(x.at.String())
		b.WriteRune(rune(x.piece))
	}
	return b.String()
}

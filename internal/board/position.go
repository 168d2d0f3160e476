package board

import (
	"fmt"
	"strings"
)

// Board is the rectangle a position lives on. Cells of the rectangle may
// still be holes, which hold OffBoard.
type Board struct {
	Min           Vec
	Width, Height int
}

// Contains reports whether v lies inside the rectangle.
func (b Board) Contains(v Vec) bool {
	x, y := v.X-b.Min.X, v.Y-b.Min.Y
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// Max returns the upper-right corner.
func (b Board) Max() Vec {
	return Vec{b.Min.X + b.Width - 1, b.Min.Y + b.Height - 1}
}

// Size returns the number of cells in the rectangle.
func (b Board) Size() int {
	return b.Width * b.Height
}

func (b Board) index(v Vec) int {
	return (v.Y-b.Min.Y)*b.Width + (v.X - b.Min.X)
}

func (b Board) vec(i int) Vec {
	return Vec{b.Min.X + i%b.Width, b.Min.Y + i/b.Width}
}

// Position is a fragment whose domain is exactly the cells of a board.
// Positions are never mutated; With returns a new one.
type Position struct {
	board Board
	cells []Content

	// Zobrist hash, kept up to date by With
	hash uint64
}

// NewPosition returns a board of the given size filled with Empty.
func NewPosition(width, height int) *Position {
	b := Board{Width: width, Height: height}
	p := &Position{board: b, cells: make([]Content, b.Size())}
	for i := range p.cells {
		p.cells[i] = Empty
	}
	p.hash = p.computeHash()
	return p
}

// PositionFromFragment builds a position from a fragment. The board is the
// fragment's bounding rectangle; offsets missing from the fragment become
// holes.
func PositionFromFragment(f Fragment) (*Position, error) {
	lo, hi, ok := f.Bounds()
	if !ok {
		return nil, fmt.Errorf("invalid position: no cells")
	}
	b := Board{Min: lo, Width: hi.X - lo.X + 1, Height: hi.Y - lo.Y + 1}
	p := &Position{board: b, cells: make([]Content, b.Size())}
	for i := range p.cells {
		p.cells[i] = OffBoard
	}
	for v, c := range f.cells {
		if c == POI {
			return nil, fmt.Errorf("invalid position: placeholder %s at %s", c, v)
		}
		p.cells[b.index(v)] = c
	}
	p.hash = p.computeHash()
	return p, nil
}

// Board returns the rectangle the position lives on.
func (p *Position) Board() Board {
	return p.board
}

// At returns the content of v. Cells outside the board read as OffBoard.
func (p *Position) At(v Vec) Content {
	if !p.board.Contains(v) {
		return OffBoard
	}
	return p.cells[p.board.index(v)]
}

// OnBoard reports whether v is a cell of the position, that is inside the
// rectangle and not a hole.
func (p *Position) OnBoard(v Vec) bool {
	return p.At(v) != OffBoard
}

// Hash returns the Zobrist hash.
func (p *Position) Hash() uint64 {
	return p.hash
}

// Key returns a string equal for equal positions.
func (p *Position) Key() string {
	var b strings.Builder
	b.Grow(len(p.cells) + 16)
	fmt.Fprintf(&b, "%d,%d,%dx%d:", p.board.Min.X, p.board.Min.Y, p.board.Width, p.board.Height)
	for _, c := range p.cells {
		b.WriteRune(rune(c))
	}
	return b.String()
}

// Equal reports whether two positions hold the same content on every cell.
func (p *Position) Equal(o *Position) bool {
	if p == o {
		return true
	}
	if p.hash != o.hash || p.board != o.board {
		return false
	}
	for i, c := range p.cells {
		if o.cells[i] != c {
			return false
		}
	}
	return true
}

// Fragment returns the position as a fragment over its on-board cells.
func (p *Position) Fragment() Fragment {
	m := make(map[Vec]Content, len(p.cells))
	for i, c := range p.cells {
		if c != OffBoard {
			m[p.board.vec(i)] = c
		}
	}
	return Fragment{cells: m}
}

// Find returns every cell holding c, in reading order.
func (p *Position) Find(c Content) []Vec {
	var out []Vec
	for y := p.board.Height - 1; y >= 0; y-- {
		for x := 0; x < p.board.Width; x++ {
			i := y*p.board.Width + x
			if p.cells[i] == c {
				out = append(out, p.board.vec(i))
			}
		}
	}
	return out
}

// Pieces returns every piece on the board in reading order.
func (p *Position) Pieces() []Cell {
	var out []Cell
	for y := p.board.Height - 1; y >= 0; y-- {
		for x := 0; x < p.board.Width; x++ {
			i := y*p.board.Width + x
			if p.cells[i].IsPiece() {
				out = append(out, Cell{p.board.vec(i), p.cells[i]})
			}
		}
	}
	return out
}

// With returns a copy of p with the given cells overwritten. Cells outside
// the rectangle are ignored.
func (p *Position) With(changes ...Cell) *Position {
	np := &Position{board: p.board, cells: make([]Content, len(p.cells)), hash: p.hash}
	copy(np.cells, p.cells)
	for _, ch := range changes {
		if !p.board.Contains(ch.At) {
			continue
		}
		i := p.board.index(ch.At)
		old := np.cells[i]
		if old == ch.Content {
			continue
		}
		np.hash ^= ZobristCell(ch.At, old) ^ ZobristCell(ch.At, ch.Content)
		np.cells[i] = ch.Content
	}
	return np
}

// ComputeHash recomputes the Zobrist hash from scratch.
func (p *Position) ComputeHash() uint64 {
	return p.computeHash()
}

func (p *Position) computeHash() uint64 {
	var h uint64
	for i, c := range p.cells {
		h ^= ZobristCell(p.board.vec(i), c)
	}
	return h
}

// Diff returns the cells whose contents differ between a and b, in reading
// order. Cells on only one of the boards compare against OffBoard.
func Diff(a, b *Position) []Vec {
	lo, hi := a.board.Min, a.board.Max()
	if b.board != a.board {
		bhi := b.board.Max()
		lo = Vec{min(lo.X, b.board.Min.X), min(lo.Y, b.board.Min.Y)}
		hi = Vec{max(hi.X, bhi.X), max(hi.Y, bhi.Y)}
	}
	var out []Vec
	for y := hi.Y; y >= lo.Y; y-- {
		for x := lo.X; x <= hi.X; x++ {
			v := Vec{x, y}
			if a.At(v) != b.At(v) {
				out = append(out, v)
			}
		}
	}
	return out
}

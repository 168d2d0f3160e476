package engine

import (
	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/rule"
)

// Placement is one match of a pattern: alternative Alt translated by
// Offset agrees with the position on every cell of its domain.
type Placement struct {
	Offset board.Vec
	Alt    int
}

// Match returns every placement of p in pos. An unbound '%' cell matches
// any piece.
func Match(p rule.Pattern, pos *board.Position) []Placement {
	return match(p, pos, nil)
}

// MatchBound is Match with '%' bound to the piece standing on poi.
func MatchBound(p rule.Pattern, pos *board.Position, poi board.Vec, piece board.Content) []Placement {
	return match(p, pos, &binding{at: poi, piece: piece})
}

func match(p rule.Pattern, pos *board.Position, bound *binding) []Placement {
	var out []Placement
	for i, f := range p {
		out = matchFragment(out, i, f, pos, bound)
	}
	return out
}

// anchorRank orders candidate anchor cells: pieces are rarest on a board,
// then empty cells, then the placeholder, then off-board cells.
func anchorRank(c board.Content) int {
	switch {
	case c == board.OffBoard:
		return 3
	case c == board.POI:
		return 2
	case c == board.Empty:
		return 1
	}
	return 0
}

func matchFragment(out []Placement, alt int, f board.Fragment, pos *board.Position, bound *binding) []Placement {
	if f.IsZero() {
		return append(out, Placement{Alt: alt})
	}
	cells := f.Cells()

	// a bound placeholder fixes the translation
	if bound != nil {
		for _, c := range cells {
			if c.Content == board.POI {
				t := bound.at.Sub(c.At)
				if fits(cells, t, pos, bound) {
					out = append(out, Placement{Offset: t, Alt: alt})
				}
				return out
			}
		}
	}

	anchor := cells[0]
	for _, c := range cells[1:] {
		if anchorRank(c.Content) < anchorRank(anchor.Content) {
			anchor = c
		}
	}

	b := pos.Board()
	switch anchor.Content {
	case board.OffBoard:
		// every cell is off-board; at least one must land on a hole
		// inside the rectangle
		seen := make(map[board.Vec]bool)
		for _, v := range holes(pos) {
			for _, c := range cells {
				t := v.Sub(c.At)
				if seen[t] {
					continue
				}
				seen[t] = true
				if fits(cells, t, pos, bound) {
					out = append(out, Placement{Offset: t, Alt: alt})
				}
			}
		}
		return out
	case board.POI:
		for _, pc := range pos.Pieces() {
			t := pc.At.Sub(anchor.At)
			if fits(cells, t, pos, bound) {
				out = append(out, Placement{Offset: t, Alt: alt})
			}
		}
		return out
	}

	for y := b.Min.Y + b.Height - 1; y >= b.Min.Y; y-- {
		for x := b.Min.X; x < b.Min.X+b.Width; x++ {
			v := board.Vec{X: x, Y: y}
			if pos.At(v) != anchor.Content {
				continue
			}
			t := v.Sub(anchor.At)
			if fits(cells, t, pos, bound) {
				out = append(out, Placement{Offset: t, Alt: alt})
			}
		}
	}
	return out
}

// fits reports whether every cell of the fragment, translated by t, agrees
// with the position.
func fits(cells []board.Cell, t board.Vec, pos *board.Position, bound *binding) bool {
	for _, c := range cells {
		v := c.At.Add(t)
		got := pos.At(v)
		if c.Content != board.POI {
			if got != c.Content {
				return false
			}
			continue
		}
		if bound != nil {
			if v != bound.at || got != bound.piece {
				return false
			}
		} else if !got.IsPiece() {
			return false
		}
	}
	return true
}

func holes(pos *board.Position) []board.Vec {
	b := pos.Board()
	var out []board.Vec
	for y := b.Min.Y + b.Height - 1; y >= b.Min.Y; y-- {
		for x := b.Min.X; x < b.Min.X+b.Width; x++ {
			v := board.Vec{X: x, Y: y}
			if pos.At(v) == board.OffBoard {
				out = append(out, v)
			}
		}
	}
	return out
}

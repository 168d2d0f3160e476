package board

import (
	"slices"
	"strings"
)

// Cell is one entry of a fragment.
type Cell struct {
	At      Vec
	Content Content
}

// Fragment is a finite partial map from offsets to contents. Fragments are
// immutable; every operation returns a new value.
type Fragment struct {
	cells map[Vec]Content
}

// Zero is the empty fragment, the identity of Glue.
var Zero = Fragment{}

// Single returns the fragment holding c at v.
func Single(v Vec, c Content) Fragment {
	return Fragment{cells: map[Vec]Content{v: c}}
}

// NewFragment builds a fragment from cells. Later entries for the same offset
// win.
func NewFragment(cells ...Cell) Fragment {
	if len(cells) == 0 {
		return Zero
	}
	m := make(map[Vec]Content, len(cells))
	for _, c := range cells {
		m[c.At] = c.Content
	}
	return Fragment{cells: m}
}

// Len returns the size of the domain.
func (f Fragment) Len() int {
	return len(f.cells)
}

// IsZero reports whether the domain is empty.
func (f Fragment) IsZero() bool {
	return len(f.cells) == 0
}

// At returns the content at v and whether v is in the domain.
func (f Fragment) At(v Vec) (Content, bool) {
	c, ok := f.cells[v]
	return c, ok
}

// Cells returns the entries in diagram reading order.
func (f Fragment) Cells() []Cell {
	out := make([]Cell, 0, len(f.cells))
	for v, c := range f.cells {
		out = append(out, Cell{v, c})
	}
	slices.SortFunc(out, func(a, b Cell) int {
		switch {
		case a.At == b.At:
			return 0
		case a.At.Less(b.At):
			return -1
		}
		return 1
	})
	return out
}

// Contains reports whether every offset of o is in the domain of f.
func (f Fragment) Contains(o Fragment) bool {
	for v := range o.cells {
		if _, ok := f.cells[v]; !ok {
			return false
		}
	}
	return true
}

// Count returns how many cells hold c.
func (f Fragment) Count(c Content) int {
	n := 0
	for _, x := range f.cells {
		if x == c {
			n++
		}
	}
	return n
}

// Glue returns the union of two fragments with disjoint domains.
func (f Fragment) Glue(o Fragment) (Fragment, error) {
	if f.IsZero() {
		return o, nil
	}
	if o.IsZero() {
		return f, nil
	}
	m := make(map[Vec]Content, len(f.cells)+len(o.cells))
	for v, c := range f.cells {
		m[v] = c
	}
	for _, cell := range o.Cells() {
		if prev, ok := m[cell.At]; ok {
			return Zero, &DisjointnessError{At: cell.At, Left: prev, Right: cell.Content}
		}
		m[cell.At] = cell.Content
	}
	return Fragment{cells: m}, nil
}

// Apply maps every offset and content through m.
func (f Fragment) Apply(m Movement) Fragment {
	if f.IsZero() || m.IsIdentity() {
		return f
	}
	out := make(map[Vec]Content, len(f.cells))
	for v, c := range f.cells {
		out[m.Apply(v)] = m.ApplyContent(c)
	}
	return Fragment{cells: out}
}

// Translate shifts every offset by t.
func (f Fragment) Translate(t Vec) Fragment {
	return f.Apply(Translate(t))
}

// Equal reports structural equality.
func (f Fragment) Equal(o Fragment) bool {
	if len(f.cells) != len(o.cells) {
		return false
	}
	for v, c := range f.cells {
		if x, ok := o.cells[v]; !ok || x != c {
			return false
		}
	}
	return true
}

// Bounds returns the lower-left and upper-right corners of the bounding
// rectangle. ok is false for the empty fragment.
func (f Fragment) Bounds() (lo, hi Vec, ok bool) {
	for v := range f.cells {
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo = Vec{min(lo.X, v.X), min(lo.Y, v.Y)}
		hi = Vec{max(hi.X, v.X), max(hi.Y, v.Y)}
	}
	return lo, hi, ok
}

// Anchor returns the first offset in reading order. Canonical translates it
// to the origin.
func (f Fragment) Anchor() Vec {
	var a Vec
	first := true
	for v := range f.cells {
		if first || v.Less(a) {
			a, first = v, false
		}
	}
	return a
}

// Canonical returns f translated so its anchor sits on the origin, together
// with the translation that was removed. Two fragments that differ only by a
// translation have equal canonical forms.
func (f Fragment) Canonical() (Fragment, Vec) {
	a := f.Anchor()
	if a == (Vec{}) {
		return f, a
	}
	return f.Translate(a.Neg()), a
}

// Key returns a string that is equal for structurally equal fragments.
func (f Fragment) Key() string {
	var b strings.Builder
	for _, c := range f.Cells() {
		b.WriteString(c.At.String())
		b.WriteRune(rune(c.Content))
	}
	return b.String()
}

// String renders the fragment as a bordered diagram. Offsets outside the
// domain print as spaces.
func (f Fragment) String() string {
	lo, hi, ok := f.Bounds()
	if !ok {
		return "++\n++"
	}
	w := hi.X - lo.X + 1
	border := "+" + strings.Repeat("-", w) + "+"
	var b strings.Builder
	b.WriteString(border)
	for y := hi.Y; y >= lo.Y; y-- {
		b.WriteString("\n|")
		for x := lo.X; x <= hi.X; x++ {
			c, ok := f.cells[Vec{x, y}]
			if !ok {
				c = ' '
			}
			b.WriteRune(rune(c))
		}
		b.WriteString("|")
	}
	b.WriteString("\n")
	b.WriteString(border)
	return b.String()
}

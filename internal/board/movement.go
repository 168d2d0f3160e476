package board

import (
	"fmt"
	"strings"
)

// Movement is an element of the group generated by the unit translations,
// the quarter-turn rotation R, the mirror F and the colour swap C.
//
// It is stored in normal form v -> R^rot F^flip v + shift, with the colour
// swap applied to contents when swap is set. The zero value is the identity.
type Movement struct {
	rot   uint8
	flip  bool
	shift Vec
	swap  bool
}

// Identity is the neutral movement.
var Identity = Movement{}

// Translate returns the movement v -> v + t.
func Translate(t Vec) Movement {
	return Movement{shift: t}
}

// Rotate returns R^r: r quarter turns counter-clockwise about the origin.
func Rotate(r int) Movement {
	return Movement{rot: uint8(r & 3)}
}

// Flip returns F, the mirror x -> -x.
func Flip() Movement {
	return Movement{flip: true}
}

// ColourSwap returns C, which relabels contents and leaves offsets alone.
func ColourSwap() Movement {
	return Movement{swap: true}
}

// Apply maps an offset.
func (m Movement) Apply(v Vec) Vec {
	return m.linear(v).Add(m.shift)
}

// ApplyContent maps a cell content.
func (m Movement) ApplyContent(c Content) Content {
	if m.swap {
		return c.Swap()
	}
	return c
}

// SwapsColour reports whether the movement exchanges sides.
func (m Movement) SwapsColour() bool {
	return m.swap
}

// IsIdentity reports whether m is the neutral element.
func (m Movement) IsIdentity() bool {
	return m == Identity
}

func (m Movement) linear(v Vec) Vec {
	if m.flip {
		v = v.mirror()
	}
	return v.rotate(int(m.rot))
}

// Compose returns m∘n, the movement that applies n first and then m.
func (m Movement) Compose(n Movement) Movement {
	r := int(n.rot)
	if m.flip {
		r = -r
	}
	return Movement{
		rot:   uint8((int(m.rot) + r) & 3),
		flip:  m.flip != n.flip,
		shift: m.linear(n.shift).Add(m.shift),
		swap:  m.swap != n.swap,
	}
}

// Inverse returns the movement undoing m.
func (m Movement) Inverse() Movement {
	r := int(m.rot)
	if !m.flip {
		r = -r
	}
	inv := Movement{rot: uint8(r & 3), flip: m.flip, swap: m.swap}
	inv.shift = inv.linear(m.shift).Neg()
	return inv
}

// Pow returns m composed with itself k times. Negative powers use the
// inverse.
func (m Movement) Pow(k int) Movement {
	if k < 0 {
		m, k = m.Inverse(), -k
	}
	out := Identity
	for ; k > 0; k-- {
		out = m.Compose(out)
	}
	return out
}

// String renders the movement as words in application order, for example
// "1", "r d^3", "R^2 l" or "F R C".
func (m Movement) String() string {
	var parts []string
	if m.flip {
		parts = append(parts, "F")
	}
	switch m.rot {
	case 0:
	case 1:
		parts = append(parts, "R")
	default:
		parts = append(parts, fmt.Sprintf("R^%d", m.rot))
	}
	parts = appendStep(parts, m.shift.X, "r", "l")
	parts = appendStep(parts, m.shift.Y, "u", "d")
	if m.swap {
		parts = append(parts, "C")
	}
	if len(parts) == 0 {
		return "1"
	}
	return strings.Join(parts, " ")
}

func appendStep(parts []string, n int, pos, neg string) []string {
	word := pos
	if n < 0 {
		word, n = neg, -n
	}
	switch {
	case n == 1:
		return append(parts, word)
	case n > 1:
		return append(parts, fmt.Sprintf("%s^%d", word, n))
	}
	return parts
}

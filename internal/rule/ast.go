package rule

import (
	"fmt"
	"strings"

	"github.com/hailam/algchess/internal/board"
)

// Unbounded is the Max of a repetition without an upper bound.
const Unbounded = -1

// Pattern is a finite disjunction of fragments. Every placement of any
// alternative is a match.
type Pattern []board.Fragment

// HasPOI reports whether any alternative mentions the POI placeholder.
func (p Pattern) HasPOI() bool {
	for _, f := range p {
		if f.Count(board.POI) > 0 {
			return true
		}
	}
	return false
}

// String renders the alternatives as compact cell lists.
func (p Pattern) String() string {
	parts := make([]string, len(p))
	for i, f := range p {
		parts[i] = fragmentTerm(f)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

// fragmentTerm writes a fragment back as glued cells, each prefixed with
// the translation that places it.
func fragmentTerm(f board.Fragment) string {
	if f.IsZero() {
		return "0"
	}
	cells := f.Cells()
	parts := make([]string, len(cells))
	for i, c := range cells {
		m := board.Translate(c.At).String()
		sym := quotePiece(c.Content)
		if m == "1" {
			parts[i] = sym
		} else {
			parts[i] = strings.ReplaceAll(m, " ", "") + sym
		}
	}
	return strings.Join(parts, " + ")
}

func quotePiece(c board.Content) string {
	r := rune(c)
	if isASCIILetter(r) && isMovementLetter(r) {
		return "'" + string(r) + "'"
	}
	return c.String()
}

// Move is a node of the compiled rule tree. The set of nodes is closed:
// Nil, *Arrow, *POI, *Seq, *Alt and *Repeat.
type Move interface {
	fmt.Stringer
	move()
}

// Nil is the identity move.
type Nil struct{}

// Arrow rewrites a matched LHS alternative with an RHS alternative.
type Arrow struct {
	LHS, RHS Pattern
}

// POI binds each occurrence of Piece in turn and evaluates Body with the
// '%' placeholder standing for that instance.
type POI struct {
	Piece board.Content
	Body  Move
}

// Seq applies First and then Then to every result.
type Seq struct {
	First, Then Move
}

// Alt is the union of two moves.
type Alt struct {
	Left, Right Move
}

// Repeat applies Body between Min and Max times. Max is Unbounded for '*'
// and '+'.
type Repeat struct {
	Body     Move
	Min, Max int
}

func (Nil) move()     {}
func (*Arrow) move()  {}
func (*POI) move()    {}
func (*Seq) move()    {}
func (*Alt) move()    {}
func (*Repeat) move() {}

func (Nil) String() string { return "nil" }

func (a *Arrow) String() string {
	return a.LHS.String() + " -> " + a.RHS.String()
}

func (p *POI) String() string {
	return fmt.Sprintf("%%%s: %s", quotePiece(p.Piece), p.Body)
}

func (s *Seq) String() string {
	return group(s.First) + " " + group(s.Then)
}

func (a *Alt) String() string {
	left := a.Left.String()
	if _, ok := a.Left.(*POI); ok {
		left = "(" + left + ")"
	}
	return left + " | " + a.Right.String()
}

func (r *Repeat) String() string {
	var q string
	switch {
	case r.Min == 0 && r.Max == Unbounded:
		q = "*"
	case r.Min == 1 && r.Max == Unbounded:
		q = "+"
	case r.Min == 0 && r.Max == 1:
		q = "?"
	case r.Max == Unbounded:
		q = fmt.Sprintf("{%d,}", r.Min)
	case r.Min == r.Max:
		q = fmt.Sprintf("{%d}", r.Min)
	default:
		q = fmt.Sprintf("{%d,%d}", r.Min, r.Max)
	}
	return "(" + r.Body.String() + ")" + q
}

func group(m Move) string {
	switch m.(type) {
	case Nil, *Repeat:
		return m.String()
	}
	return "(" + m.String() + ")"
}

// Walk calls fn for m and every move below it, parents first.
func Walk(m Move, fn func(Move)) {
	fn(m)
	switch n := m.(type) {
	case *POI:
		Walk(n.Body, fn)
	case *Seq:
		Walk(n.First, fn)
		Walk(n.Then, fn)
	case *Alt:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Repeat:
		Walk(n.Body, fn)
	}
}

// Arrows returns the number of arrow nodes in m.
func Arrows(m Move) int {
	n := 0
	Walk(m, func(x Move) {
		if _, ok := x.(*Arrow); ok {
			n++
		}
	})
	return n
}

package rule

import (
	"fmt"
	"strings"

	"github.com/hailam/algchess/internal/board"
)

// Compile parses src and compiles it into a Move.
func Compile(src string) (Move, error) {
	e, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return CompileExpr(e)
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) Move {
	m, err := Compile(src)
	if err != nil {
		panic(fmt.Sprintf("rule: Compile(%q): %v", src, err))
	}
	return m
}

// CompileExpr turns a parsed rule into a Move. Movement prefixes are pushed
// down onto the cells of every pattern, glue is evaluated, and alternatives
// that differ only by a translation of both sides are merged.
func CompileExpr(e Expr) (Move, error) {
	return compileMove(e, board.Identity, 0)
}

func compileMove(e Expr, m board.Movement, binders int) (Move, error) {
	switch x := e.(type) {
	case *nilExpr:
		return Nil{}, nil

	case *transform:
		return compileMove(x.x, m.Compose(x.m), binders)

	case *arrowExpr:
		lhs, err := compilePattern(x.lhs, m)
		if err != nil {
			return nil, err
		}
		rhs, err := compilePattern(x.rhs, m)
		if err != nil {
			return nil, err
		}
		if err := checkPlaceholders(x.pos, binders, lhs, rhs); err != nil {
			return nil, err
		}
		if rhs.HasPOI() && !lhs.HasPOI() {
			return nil, syntaxErrorf(x.pos, "'%%' on the right of an arrow needs a '%%' on the left")
		}
		return &Arrow{LHS: lhs, RHS: rhs}, nil

	case *seqExpr:
		first, err := compileMove(x.first, m, binders)
		if err != nil {
			return nil, err
		}
		then, err := compileMove(x.then, m, binders)
		if err != nil {
			return nil, err
		}
		return &Seq{First: first, Then: then}, nil

	case *altExpr:
		left, err := compileMove(x.left, m, binders)
		if err != nil {
			return nil, err
		}
		right, err := compileMove(x.right, m, binders)
		if err != nil {
			return nil, err
		}
		return mergeAlt(left, right), nil

	case *repeatExpr:
		body, err := compileMove(x.x, m, binders)
		if err != nil {
			return nil, err
		}
		return &Repeat{Body: body, Min: x.min, Max: x.max}, nil

	case *bindExpr:
		body, err := compileMove(x.body, m, binders+1)
		if err != nil {
			return nil, err
		}
		return &POI{Piece: m.ApplyContent(x.piece), Body: body}, nil
	}
	return nil, syntaxErrorf(e.Pos(), "expected a move, found a pattern")
}

func compilePattern(e Expr, m board.Movement) (Pattern, error) {
	switch x := e.(type) {
	case *cellExpr:
		return Pattern{board.Single(m.Apply(board.Vec{}), m.ApplyContent(x.content))}, nil

	case *zeroExpr:
		return Pattern{board.Zero}, nil

	case *transform:
		return compilePattern(x.x, m.Compose(x.m))

	case *glueExpr:
		left, err := compilePattern(x.left, m)
		if err != nil {
			return nil, err
		}
		right, err := compilePattern(x.right, m)
		if err != nil {
			return nil, err
		}
		out := make(Pattern, 0, len(left)*len(right))
		for _, a := range left {
			for _, b := range right {
				g, err := a.Glue(b)
				if err != nil {
					return nil, fmt.Errorf("glue at %s: %w", x.pos, err)
				}
				out = append(out, g)
			}
		}
		return dedupePattern(out), nil

	case *altExpr:
		left, err := compilePattern(x.left, m)
		if err != nil {
			return nil, err
		}
		right, err := compilePattern(x.right, m)
		if err != nil {
			return nil, err
		}
		return dedupePattern(append(left, right...)), nil
	}
	return nil, syntaxErrorf(e.Pos(), "expected a pattern, found a move")
}

func dedupePattern(p Pattern) Pattern {
	seen := make(map[string]bool, len(p))
	out := p[:0:0]
	for _, f := range p {
		k := f.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}

// checkPlaceholders rejects '%' outside a binder and alternatives naming
// more than one '%' cell.
func checkPlaceholders(pos Pos, binders int, sides ...Pattern) error {
	for _, side := range sides {
		for _, f := range side {
			n := f.Count(board.POI)
			if n == 0 {
				continue
			}
			if binders == 0 {
				return &UnboundPOIError{Pos: pos}
			}
			if n > 1 {
				return syntaxErrorf(pos, "%d '%%' cells in one pattern alternative", n)
			}
		}
	}
	return nil
}

// mergeAlt flattens a union and drops alternatives equal to an earlier one.
// Arrows are compared up to a common translation of both sides.
func mergeAlt(left, right Move) Move {
	var alts []Move
	var flatten func(Move)
	flatten = func(m Move) {
		if a, ok := m.(*Alt); ok {
			flatten(a.Left)
			flatten(a.Right)
			return
		}
		alts = append(alts, m)
	}
	flatten(left)
	flatten(right)

	seen := make(map[string]bool, len(alts))
	kept := alts[:0]
	for _, m := range alts {
		k := moveKey(m)
		if seen[k] {
			continue
		}
		seen[k] = true
		kept = append(kept, m)
	}

	out := kept[len(kept)-1]
	for i := len(kept) - 2; i >= 0; i-- {
		out = &Alt{Left: kept[i], Right: out}
	}
	return out
}

func moveKey(m Move) string {
	a, ok := m.(*Arrow)
	if !ok || len(a.LHS) == 0 {
		return m.String()
	}
	_, shift := a.LHS[0].Canonical()
	var b strings.Builder
	b.WriteString("arrow:")
	for _, f := range a.LHS {
		b.WriteString(f.Translate(shift.Neg()).Key())
		b.WriteByte('|')
	}
	b.WriteString("->")
	for _, f := range a.RHS {
		b.WriteString(f.Translate(shift.Neg()).Key())
		b.WriteByte('|')
	}
	return b.String()
}

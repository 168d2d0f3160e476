package rule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMacrosExpand(t *testing.T) {
	src, err := NewMacros().
		Define("step", "P + u. -> . + uP").
		Define("both", "step | colour_swapped(step)").
		Expand("both")
	require.NoError(t, err)
	assert.Equal(t, "((P + u. -> . + uP) | (C((P + u. -> . + uP))))", src)

	m, err := Compile(src)
	require.NoError(t, err)
	assert.Equal(t, 2, Arrows(m))
}

func TestBuiltinInAnyDirection(t *testing.T) {
	src, err := NewMacros().Expand("%♖: in_any_direction(% + u. -> . + u%)")
	require.NoError(t, err)
	assert.Equal(t, "%♖: ((% + u. -> . + u%)|R(% + u. -> . + u%)|R^2(% + u. -> . + u%)|R^3(% + u. -> . + u%))", src)

	m, err := Compile(src)
	require.NoError(t, err)
	assert.Equal(t, 4, Arrows(m))
}

func TestMacrosLeaveQuotesAndComments(t *testing.T) {
	src, err := NewMacros().
		Define("rook", "'R'").
		Expand("'rook' // rook\nrook")
	require.NoError(t, err)
	assert.Equal(t, "'rook' // rook\n('R')", src)
}

func TestMacroNameValidation(t *testing.T) {
	for _, name := range []string{"x", "nil", "ud", "RC", "in_any_direction", "9lives", "two words"} {
		_, err := NewMacros().Define(name, "P -> P").Expand("nil")
		assert.True(t, errors.Is(err, ErrSyntax), "%q: got %v", name, err)
	}
	_, err := NewMacros().Define("pawn_step", "P -> P").Expand("pawn_step")
	assert.NoError(t, err)
}

func TestMacroRecursion(t *testing.T) {
	_, err := NewMacros().
		Define("loop", "(P -> P) loop").
		Expand("P -> P\n  loop")
	var serr *SyntaxError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Contains(t, serr.Message, "in macro loop")
	assert.Equal(t, Pos{Line: 2, Column: 3, Offset: 9}, serr.Pos)
}

func TestMacroErrorPositions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Pos
	}{
		{"no parentheses", "rotated P -> Q", Pos{Line: 1, Column: 1, Offset: 0}},
		{"unclosed argument", "P -> P |\nflipped (P -> Q", Pos{Line: 2, Column: 9, Offset: 17}},
		{"nested builtin", "in_any_direction(♖ | rotated)", Pos{Line: 1, Column: 22, Offset: 23}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMacros().Expand(tc.src)
			require.True(t, errors.Is(err, ErrSyntax), "got %v", err)
			var serr *SyntaxError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, tc.want, serr.Pos)
		})
	}
}

func TestSplitSource(t *testing.T) {
	s, err := SplitSource(`
// pawns move one step up
pawn_step = ♙ + u. -> . + u♙
pawn_step | colour_swapped(pawn_step)
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"pawn_step"}, s.Macros.Names())
	body, ok := s.Macros.Body("pawn_step")
	require.True(t, ok)
	assert.Equal(t, "♙ + u. -> . + u♙", body)

	m, err := CompileSource(`
pawn_step = ♙ + u. -> . + u♙
pawn_step | colour_swapped(pawn_step)
`)
	require.NoError(t, err)
	assert.Equal(t, 2, Arrows(m))

	_, err = CompileSource("P -> P\n  x = P -> P\nx")
	var serr *SyntaxError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Equal(t, Pos{Line: 2, Column: 3, Offset: 9}, serr.Pos)

	_, err = CompileSource("step = P -> Q\n\nstep (")
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Equal(t, 3, serr.Pos.Line, "definition lines keep their place")

	_, err = CompileSource("pawn -> .")
	assert.True(t, errors.Is(err, ErrSyntax), "undefined macro should be a syntax error, got %v", err)
}

package diagram

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/algchess/internal/board"
)

func near(t *testing.T, want color.RGBA, got color.Color) {
	t.Helper()
	r, g, b, _ := got.RGBA()
	diff := func(a uint8, b uint32) int {
		d := int(a) - int(b>>8)
		if d < 0 {
			d = -d
		}
		return d
	}
	if diff(want.R, r) > 8 || diff(want.G, g) > 8 || diff(want.B, b) > 8 {
		t.Errorf("colour %v, want about %v", got, want)
	}
}

func mustCompact(t *testing.T, s string) *board.Position {
	t.Helper()
	pos, err := board.ParseCompact(s)
	require.NoError(t, err)
	return pos
}

func TestBoardSVG(t *testing.T) {
	pos := mustCompact(t, "#./..")
	svg := BoardSVG(pos, Options{CellSize: 10, Highlight: []board.Vec{{X: 1, Y: 1}, {X: 9, Y: 9}}})

	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Equal(t, 4, strings.Count(svg, "<rect")-1, "four squares plus one on-board highlight")
	assert.Contains(t, svg, hex(DefaultTheme.Hole))
	assert.Contains(t, svg, hex(DefaultTheme.Highlight))
}

func TestRender(t *testing.T) {
	pos := mustCompact(t, "#♙/..")
	const cell = 20
	img, err := Render(pos, Options{CellSize: cell})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2*cell, 2*cell), img.Bounds())

	// The top-left cell is a hole, the bottom row is empty.
	near(t, DefaultTheme.Hole, img.At(cell/2, cell/2))
	near(t, DefaultTheme.Dark, img.At(cell/2, cell+cell/2))
	near(t, DefaultTheme.Light, img.At(cell+cell/2, cell+cell/2))

	// The pawn's token covers the square beside its label.
	near(t, DefaultTheme.WhitePiece, img.At(cell+cell/2-4, cell/2))
}

func TestRenderHighlightAndCoordinates(t *testing.T) {
	pos := mustCompact(t, "2/2")
	const cell = 40
	img, err := Render(pos, Options{CellSize: cell, Coordinates: true, Highlight: []board.Vec{{X: 0, Y: 0}}})
	require.NoError(t, err)

	margin := cell / 2
	assert.Equal(t, image.Rect(0, 0, 2*cell+margin, 2*cell+margin), img.Bounds())
	near(t, DefaultTheme.Highlight, img.At(margin+1, 2*cell-2))
	near(t, DefaultTheme.Dark, img.At(margin+cell/2, 2*cell-cell/2))
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, mustCompact(t, "♜1/1♖"), Options{CellSize: 16}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())
}

func TestPieceIcon(t *testing.T) {
	tests := []struct {
		c    board.Content
		fill color.RGBA
	}{
		{'♙', DefaultTheme.WhitePiece},
		{'♟', DefaultTheme.BlackPiece},
		{'P', DefaultTheme.WhitePiece},
		{'q', DefaultTheme.BlackPiece},
		{'*', DefaultTheme.NeutralPiece},
	}
	for _, tc := range tests {
		img, err := PieceIcon(tc.c, 64)
		require.NoError(t, err, tc.c.String())
		assert.Equal(t, 64, img.Bounds().Dx())
		// Inside the disc, left of the label.
		near(t, tc.fill, img.At(12, 32))
		// Corners stay transparent.
		_, _, _, a := img.At(0, 0).RGBA()
		assert.Zero(t, a)
	}

	for _, c := range []board.Content{board.Empty, board.OffBoard, board.POI} {
		_, err := PieceIcon(c, 64)
		assert.True(t, errors.Is(err, ErrNotPiece), c.String())
	}
	_, err := PieceIcon('♙', 0)
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "N", Label('♘'))
	assert.Equal(t, "N", Label('♞'))
	assert.Equal(t, "x", Label('x'))
}

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/hailam/algchess/internal/board"
)

// Theme defines the colour scheme of the boards.
type Theme struct {
	LightSquare   color.RGBA
	DarkSquare    color.RGBA
	Hole          color.RGBA
	ChangedColor  color.RGBA
	SelectedColor color.RGBA
	CursorColor   color.RGBA
	Background    color.RGBA
	TextColor     color.RGBA
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		LightSquare:   color.RGBA{240, 217, 181, 255}, // Tan
		DarkSquare:    color.RGBA{181, 136, 99, 255},  // Brown
		Hole:          color.RGBA{28, 30, 36, 255},
		ChangedColor:  color.RGBA{255, 140, 0, 150},   // Orange
		SelectedColor: color.RGBA{100, 160, 255, 140}, // Blue
		CursorColor:   color.RGBA{247, 247, 105, 255}, // Yellow
		Background:    color.RGBA{40, 44, 52, 255},
		TextColor:     color.RGBA{220, 220, 220, 255},
	}
}

// BoardView describes one board drawn on screen.
type BoardView struct {
	Pos      *board.Position
	X, Y     int // logical top-left corner
	Size     int // logical side of the square area the board fits in
	Caption  string
	Changed  []board.Vec
	Selected func(board.Vec) bool
	Cursor   *board.Vec
}

// cellSize returns the side of one cell so the whole board fits.
func (v BoardView) cellSize() int {
	b := v.Pos.Board()
	return v.Size / max(b.Width, b.Height, 1)
}

// Renderer handles all drawing operations.
type Renderer struct {
	sprites *SpriteManager
	theme   *Theme
	scale   float64 // HiDPI scale factor
}

// NewRenderer creates a new renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		sprites: NewSpriteManager(),
		theme:   DefaultTheme(),
		scale:   1.0,
	}
}

// SetScale sets the HiDPI scale factor for rendering.
func (r *Renderer) SetScale(scale float64) {
	r.scale = scale
	r.sprites.SetScale(scale)
}

// s returns the scaled value for rendering.
func (r *Renderer) s(v int) float32 {
	return float32(float64(v) * r.scale)
}

// Theme returns the current theme.
func (r *Renderer) Theme() *Theme {
	return r.theme
}

// DrawBoard draws the squares, overlays and pieces of a view.
func (r *Renderer) DrawBoard(screen *ebiten.Image, v BoardView) {
	b := v.Pos.Board()
	cell := v.cellSize()

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			at := board.Vec{X: b.Min.X + x, Y: b.Min.Y + y}
			px, py := r.CellToScreen(v, at)

			c := r.theme.LightSquare
			switch {
			case v.Pos.At(at) == board.OffBoard:
				c = r.theme.Hole
			case (at.X+at.Y)%2 == 0:
				c = r.theme.DarkSquare
			}
			vector.DrawFilledRect(screen, r.s(px), r.s(py), r.s(cell), r.s(cell), c, false)

			if v.Selected != nil && v.Selected(at) {
				vector.DrawFilledRect(screen, r.s(px), r.s(py), r.s(cell), r.s(cell), r.theme.SelectedColor, false)
			}
		}
	}

	for _, at := range v.Changed {
		if !b.Contains(at) {
			continue
		}
		px, py := r.CellToScreen(v, at)
		vector.DrawFilledRect(screen, r.s(px), r.s(py), r.s(cell), r.s(cell), r.theme.ChangedColor, false)
	}

	inset := cell / 10
	for _, pc := range v.Pos.Pieces() {
		px, py := r.CellToScreen(v, pc.At)
		r.sprites.DrawPieceAt(screen, pc.Content, cell-2*inset, float64(r.s(px+inset)), float64(r.s(py+inset)))
	}

	if v.Cursor != nil && b.Contains(*v.Cursor) {
		px, py := r.CellToScreen(v, *v.Cursor)
		vector.StrokeRect(screen, r.s(px)+1, r.s(py)+1, r.s(cell)-2, r.s(cell)-2, r.s(3), r.theme.CursorColor, false)
	}

	if v.Caption != "" {
		if face := RegularFace(defaultFontSize); face != nil {
			op := &text.DrawOptions{}
			op.GeoM.Translate(float64(r.s(v.X)), float64(r.s(v.Y+b.Height*cell+6)))
			op.ColorScale.ScaleWithColor(r.theme.TextColor)
			text.Draw(screen, v.Caption, face, op)
		}
	}
}

// CellToScreen returns the logical top-left corner of a cell.
func (r *Renderer) CellToScreen(v BoardView, at board.Vec) (int, int) {
	b := v.Pos.Board()
	cell := v.cellSize()
	x := v.X + (at.X-b.Min.X)*cell
	y := v.Y + (b.Max().Y-at.Y)*cell // Flip so y grows upward
	return x, y
}

// ScreenToCell converts logical coordinates to a cell of the view.
func (r *Renderer) ScreenToCell(v BoardView, x, y int) (board.Vec, bool) {
	b := v.Pos.Board()
	cell := v.cellSize()
	if cell == 0 || x < v.X || y < v.Y {
		return board.Vec{}, false
	}
	cx, cy := (x-v.X)/cell, (y-v.Y)/cell
	if cx >= b.Width || cy >= b.Height {
		return board.Vec{}, false
	}
	return board.Vec{X: b.Min.X + cx, Y: b.Max().Y - cy}, true
}

package ui

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Panel dimensions
const (
	PanelPadding   = 20
	SectionSpacing = 28
	LineHeight     = 20
)

// Panel colors
var (
	panelBg        = color.RGBA{38, 40, 45, 255}    // Dark background
	dividerColor   = color.RGBA{60, 65, 72, 255}    // Divider line
	textPrimary    = color.RGBA{240, 240, 245, 255} // Primary text
	textSecondary  = color.RGBA{160, 165, 175, 255} // Secondary text
	textMuted      = color.RGBA{120, 125, 135, 255} // Muted text
	statusBusy     = color.RGBA{100, 180, 255, 255} // Blue while evaluating
	statusGameOver = color.RGBA{255, 200, 80, 255}  // Yellow for game over
	statusError    = color.RGBA{255, 110, 110, 255}
)

var keyHelp = []string{
	"arrows   move cursor",
	"space    select cell",
	"esc      clear selection",
	"pgup/dn  cycle successors",
	"enter    play successor",
	"bksp     undo",
	"q        quit",
}

// Panel is the side panel with the game, counts and status.
type Panel struct {
	game  *Game
	scale float64
}

// NewPanel creates a new panel for the given game.
func NewPanel(g *Game) *Panel {
	return &Panel{game: g, scale: 1.0}
}

// SetScale sets the HiDPI scale factor.
func (p *Panel) SetScale(scale float64) {
	p.scale = scale
}

// Draw renders the panel at the right of the boards.
func (p *Panel) Draw(screen *ebiten.Image) {
	sf := func(v int) float32 { return float32(float64(v) * p.scale) }
	vector.DrawFilledRect(screen, sf(PanelX), 0, sf(PanelWidth), sf(ScreenHeight), panelBg, false)
	vector.StrokeLine(screen, sf(PanelX), 0, sf(PanelX), sf(ScreenHeight), sf(1), dividerColor, false)

	g := p.game
	x := PanelX + PanelPadding
	y := PanelPadding

	p.drawTitle(screen, g.title, x, y)
	y += SectionSpacing
	for _, line := range wrap(g.description, 34) {
		p.drawText(screen, line, x, y, textSecondary)
		y += LineHeight
	}
	y += LineHeight / 2

	m := g.model
	p.drawText(screen, fmt.Sprintf("Turn %d", m.Turn()), x, y, textPrimary)
	y += LineHeight
	shown, total := m.Counts()
	switch {
	case !m.Evaluated():
		p.drawText(screen, "Successors: ...", x, y, textPrimary)
	case shown == total:
		p.drawText(screen, fmt.Sprintf("Successor %d of %d", m.Index()+1, total), x, y, textPrimary)
	default:
		p.drawText(screen, fmt.Sprintf("Successor %d of %d (%d filtered)", m.Index()+1, shown, total), x, y, textPrimary)
	}
	y += LineHeight
	if sel := m.Selection(); len(sel) > 0 {
		cells := make([]string, len(sel))
		for i, v := range sel {
			cells[i] = v.String()
		}
		p.drawText(screen, "Selected: "+strings.Join(cells, " "), x, y, textSecondary)
	}
	y += LineHeight
	p.drawText(screen, "Cursor: "+m.Cursor().String(), x, y, textMuted)
	y += SectionSpacing

	status, c := g.statusLine()
	for _, line := range wrap(status, 34) {
		p.drawText(screen, line, x, y, c)
		y += LineHeight
	}

	y = ScreenHeight - PanelPadding - len(keyHelp)*LineHeight
	for _, line := range keyHelp {
		p.drawText(screen, line, x, y, textMuted)
		y += LineHeight
	}
}

func (p *Panel) drawTitle(screen *ebiten.Image, s string, x, y int) {
	face := BoldFace(titleFontSize)
	if face == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x)*p.scale, float64(y)*p.scale)
	op.ColorScale.ScaleWithColor(textPrimary)
	text.Draw(screen, s, face, op)
}

func (p *Panel) drawText(screen *ebiten.Image, s string, x, y int, c color.Color) {
	face := RegularFace(defaultFontSize)
	if face == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x)*p.scale, float64(y)*p.scale)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, face, op)
}

// wrap breaks s into lines of at most width runes at spaces.
func wrap(s string, width int) []string {
	var lines []string
	var cur []rune
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		if len(cur) > 0 && len(cur)+1+len(w) > width {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}

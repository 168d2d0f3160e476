package repl

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/hailam/algchess/internal/board"
)

// Styler renders positions as text diagrams, marking changed cells in
// colour when the output is a terminal.
type Styler struct {
	color   bool
	changed lipgloss.Style
	frame   lipgloss.Style
}

// NewStyler creates a styler for w. Colour is used only when w is a
// terminal.
func NewStyler(w io.Writer) *Styler {
	r := lipgloss.NewRenderer(w)
	return &Styler{
		color:   IsTerminal(w),
		changed: r.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")),
		frame:   r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// PlainStyler never colours.
func PlainStyler() *Styler {
	return &Styler{}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Color reports whether the styler emits escape sequences.
func (s *Styler) Color() bool {
	return s.color
}

// Diagram renders pos with a border. Cells listed in changed are
// highlighted in colour, or marked with a trailing list without it.
func (s *Styler) Diagram(pos *board.Position, changed []board.Vec) string {
	if !s.color {
		out := pos.String()
		if len(changed) > 0 {
			cells := make([]string, len(changed))
			for i, v := range changed {
				cells[i] = v.String()
			}
			out += "\nchanged: " + strings.Join(cells, " ")
		}
		return out
	}

	mark := make(map[board.Vec]bool, len(changed))
	for _, v := range changed {
		mark[v] = true
	}
	b := pos.Board()
	border := s.frame.Render("+" + strings.Repeat("-", b.Width) + "+")
	var sb strings.Builder
	sb.WriteString(border)
	for y := b.Height - 1; y >= 0; y-- {
		sb.WriteString("\n" + s.frame.Render("|"))
		for x := 0; x < b.Width; x++ {
			v := board.Vec{X: b.Min.X + x, Y: b.Min.Y + y}
			c := pos.At(v)
			cell := string(rune(c))
			if c == board.OffBoard {
				cell = " "
			}
			if mark[v] {
				cell = s.changed.Render(cell)
			}
			sb.WriteString(cell)
		}
		sb.WriteString(s.frame.Render("|"))
	}
	sb.WriteString("\n" + border)
	return sb.String()
}

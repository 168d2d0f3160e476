package board

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseFragment reads diagram lines into a fragment. The last line is row
// y0, rows above it count upward, and spaces are left out of the domain.
func ParseFragment(lines []string, origin Vec) Fragment {
	m := make(map[Vec]Content)
	h := len(lines)
	for row, line := range lines {
		y := origin.Y + h - row - 1
		x := origin.X
		for _, r := range line {
			if r != ' ' {
				m[Vec{x, y}] = Content(r)
			}
			x++
		}
	}
	if len(m) == 0 {
		return Zero
	}
	return Fragment{cells: m}
}

// ParsePosition reads a text diagram with its bottom-left cell on the origin.
// Rows run top to bottom; '.' is empty and '#' or a space is a hole. The
// "+---+" border printed by String is accepted and stripped.
func ParsePosition(text string) (*Position, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("invalid diagram: no rows")
	}
	lines, err := stripBorder(lines)
	if err != nil {
		return nil, err
	}

	width := 0
	for _, l := range lines {
		width = max(width, utf8.RuneCountInString(l))
	}
	p := &Position{board: Board{Width: width, Height: len(lines)}}
	p.cells = make([]Content, p.board.Size())
	for row, line := range lines {
		y := len(lines) - row - 1
		x := 0
		for _, r := range line {
			c := Content(r)
			switch c {
			case ' ':
				c = OffBoard
			case POI:
				return nil, fmt.Errorf("invalid diagram: placeholder %s at row %d", c, row+1)
			}
			p.cells[y*width+x] = c
			x++
		}
		for ; x < width; x++ {
			p.cells[y*width+x] = OffBoard
		}
	}
	p.hash = p.computeHash()
	return p, nil
}

func stripBorder(lines []string) ([]string, error) {
	first := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(first, "+") {
		return lines, nil
	}
	if len(lines) < 2 || !strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "+") {
		return nil, fmt.Errorf("invalid diagram: unterminated border")
	}
	inner := lines[1 : len(lines)-1]
	out := make([]string, len(inner))
	for i, l := range inner {
		l = strings.TrimSpace(l)
		if !strings.HasPrefix(l, "|") || !strings.HasSuffix(l, "|") || len(l) < 2 {
			return nil, fmt.Errorf("invalid diagram: row %d is not enclosed in '|'", i+1)
		}
		out[i] = l[1 : len(l)-1]
	}
	return out, nil
}

// String renders the position as a bordered diagram with holes as spaces.
func (p *Position) String() string {
	border := "+" + strings.Repeat("-", p.board.Width) + "+"
	var b strings.Builder
	b.WriteString(border)
	for y := p.board.Height - 1; y >= 0; y-- {
		b.WriteString("\n|")
		for x := 0; x < p.board.Width; x++ {
			c := p.cells[y*p.board.Width+x]
			if c == OffBoard {
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

// ParseCompact reads the one-line form produced by Compact: rows from the
// top separated by '/', digit runs for consecutive empty cells and '#' for
// holes. Short rows are padded with holes.
func ParseCompact(s string) (*Position, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("invalid compact position: empty")
	}
	rows := strings.Split(s, "/")
	parsed := make([][]Content, len(rows))
	width := 0
	for i, row := range rows {
		var cells []Content
		runes := []rune(row)
		for j := 0; j < len(runes); j++ {
			r := runes[j]
			if r < '0' || r > '9' {
				if Content(r) == POI {
					return nil, fmt.Errorf("invalid compact position: placeholder in row %d", i+1)
				}
				cells = append(cells, Content(r))
				continue
			}
			k := j
			for k < len(runes) && runes[k] >= '0' && runes[k] <= '9' {
				k++
			}
			n, err := strconv.Atoi(string(runes[j:k]))
			if err != nil || n == 0 {
				return nil, fmt.Errorf("invalid compact position: bad run %q in row %d", string(runes[j:k]), i+1)
			}
			for ; n > 0; n-- {
				cells = append(cells, Empty)
			}
			j = k - 1
		}
		parsed[i] = cells
		width = max(width, len(cells))
	}
	if width == 0 {
		return nil, fmt.Errorf("invalid compact position: no cells")
	}

	p := &Position{board: Board{Width: width, Height: len(rows)}}
	p.cells = make([]Content, p.board.Size())
	for i, cells := range parsed {
		y := len(rows) - i - 1
		for x := 0; x < width; x++ {
			c := OffBoard
			if x < len(cells) {
				c = cells[x]
			}
			p.cells[y*width+x] = c
		}
	}
	p.hash = p.computeHash()
	return p, nil
}

// Compact returns the one-line form of the position.
func (p *Position) Compact() string {
	var b strings.Builder
	for y := p.board.Height - 1; y >= 0; y-- {
		run := 0
		for x := 0; x < p.board.Width; x++ {
			c := p.cells[y*p.board.Width+x]
			if c == Empty {
				run++
				continue
			}
			if run > 0 {
				b.WriteString(strconv.Itoa(run))
				run = 0
			}
			b.WriteRune(rune(c))
		}
		if run > 0 {
			b.WriteString(strconv.Itoa(run))
		}
		if y > 0 {
			b.WriteByte('/')
		}
	}
	return b.String()
}

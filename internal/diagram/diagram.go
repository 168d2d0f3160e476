// Package diagram draws positions as images: checkered squares, holes,
// highlighted cells and piece tokens, rasterised from generated SVG.
package diagram

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/hailam/algchess/internal/board"
)

// ErrNotPiece is returned when an icon is requested for a marker.
var ErrNotPiece = errors.New("content is not a piece")

const defaultCellSize = 48

// Theme holds the colours of a diagram.
type Theme struct {
	Light, Dark  color.RGBA
	Hole         color.RGBA
	Highlight    color.RGBA
	WhitePiece   color.RGBA
	BlackPiece   color.RGBA
	NeutralPiece color.RGBA
	Outline      color.RGBA
	Label        color.RGBA
}

// DefaultTheme is a wood board with orange highlights.
var DefaultTheme = Theme{
	Light:        color.RGBA{240, 217, 181, 255},
	Dark:         color.RGBA{181, 136, 99, 255},
	Hole:         color.RGBA{40, 40, 46, 255},
	Highlight:    color.RGBA{255, 140, 0, 255},
	WhitePiece:   color.RGBA{250, 250, 250, 255},
	BlackPiece:   color.RGBA{30, 30, 30, 255},
	NeutralPiece: color.RGBA{120, 160, 200, 255},
	Outline:      color.RGBA{60, 60, 60, 255},
	Label:        color.RGBA{90, 90, 90, 255},
}

// Options controls rendering.
type Options struct {
	CellSize    int         // pixels per cell (0 = 48)
	Highlight   []board.Vec // cells to outline
	Coordinates bool        // draw x and y labels along the bottom and left
	Theme       *Theme      // nil = DefaultTheme
}

func (o Options) cellSize() int {
	if o.CellSize <= 0 {
		return defaultCellSize
	}
	return o.CellSize
}

func (o Options) theme() *Theme {
	if o.Theme == nil {
		return &DefaultTheme
	}
	return o.Theme
}

func (o Options) margin() int {
	if !o.Coordinates {
		return 0
	}
	return o.cellSize() / 2
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// BoardSVG returns the squares of pos as an SVG document: checkered cells,
// filled holes and outlined highlights. Pieces are not included.
func BoardSVG(pos *board.Position, opts Options) string {
	b := pos.Board()
	cell := opts.cellSize()
	th := opts.theme()
	w, h := b.Width*cell, b.Height*cell

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, w, h, w, h)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			v := board.Vec{X: b.Min.X + x, Y: b.Min.Y + y}
			fill := th.Light
			switch {
			case pos.At(v) == board.OffBoard:
				fill = th.Hole
			case (v.X+v.Y)%2 == 0:
				fill = th.Dark
			}
			px, py := x*cell, (b.Height-1-y)*cell
			fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`, px, py, cell, cell, hex(fill))
		}
	}
	stroke := max(cell/12, 2)
	for _, v := range opts.Highlight {
		if !b.Contains(v) {
			continue
		}
		px, py := (v.X-b.Min.X)*cell, (b.Max().Y-v.Y)*cell
		fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="%s" stroke-width="%d"/>`,
			px+stroke/2, py+stroke/2, cell-stroke, cell-stroke, hex(th.Highlight), stroke)
	}
	sb.WriteString(`</svg>`)
	return sb.String()
}

// PieceSVG returns the token for c on a 100x100 canvas: a disc filled
// with the colour of c's side.
func PieceSVG(c board.Content, th *Theme) string {
	if th == nil {
		th = &DefaultTheme
	}
	fill := th.NeutralPiece
	switch c.Color() {
	case board.White:
		fill = th.WhitePiece
	case board.Black:
		fill = th.BlackPiece
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100" viewBox="0 0 100 100">`+
		`<circle cx="50" cy="50" r="40" fill="%s" stroke="%s" stroke-width="5"/></svg>`,
		hex(fill), hex(th.Outline))
}

// rasterize renders an SVG document into a w x h image.
func rasterize(svg string, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return rgba, nil
}

// PieceIcon renders the token for c at size x size pixels with its label.
func PieceIcon(c board.Content, size int) (*image.RGBA, error) {
	return pieceIcon(c, size, &DefaultTheme)
}

func pieceIcon(c board.Content, size int, th *Theme) (*image.RGBA, error) {
	if !c.IsPiece() {
		return nil, fmt.Errorf("%w: %q", ErrNotPiece, rune(c))
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid icon size %d", size)
	}
	img, err := rasterize(PieceSVG(c, th), size, size)
	if err != nil {
		return nil, err
	}
	ink := th.BlackPiece
	if c.Color() == board.Black {
		ink = th.WhitePiece
	}
	if err := drawCentered(img, Label(c), float64(size)*0.45, ink, img.Bounds()); err != nil {
		return nil, err
	}
	return img, nil
}

// Render draws pos with its pieces.
func Render(pos *board.Position, opts Options) (*image.RGBA, error) {
	b := pos.Board()
	cell := opts.cellSize()
	th := opts.theme()
	margin := opts.margin()

	squares, err := rasterize(BoardSVG(pos, opts), b.Width*cell, b.Height*cell)
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Width*cell+margin, b.Height*cell+margin))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, squares.Bounds().Add(image.Pt(margin, 0)), squares, image.Point{}, draw.Src)

	icons := make(map[board.Content]*image.RGBA)
	inset := cell / 10
	for _, pc := range pos.Pieces() {
		icon, ok := icons[pc.Content]
		if !ok {
			icon, err = pieceIcon(pc.Content, cell-2*inset, th)
			if err != nil {
				return nil, err
			}
			icons[pc.Content] = icon
		}
		px := margin + (pc.At.X-b.Min.X)*cell + inset
		py := (b.Max().Y-pc.At.Y)*cell + inset
		draw.Draw(out, icon.Bounds().Add(image.Pt(px, py)), icon, image.Point{}, draw.Over)
	}

	if opts.Coordinates {
		size := float64(margin) * 0.6
		for x := 0; x < b.Width; x++ {
			r := image.Rect(margin+x*cell, b.Height*cell, margin+(x+1)*cell, b.Height*cell+margin)
			if err := drawCentered(out, fmt.Sprint(b.Min.X+x), size, th.Label, r); err != nil {
				return nil, err
			}
		}
		for y := 0; y < b.Height; y++ {
			r := image.Rect(0, (b.Height-1-y)*cell, margin, (b.Height-y)*cell)
			if err := drawCentered(out, fmt.Sprint(b.Min.Y+y), size, th.Label, r); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// RenderPNG writes pos as a PNG image.
func RenderPNG(w io.Writer, pos *board.Position, opts Options) error {
	img, err := Render(pos, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

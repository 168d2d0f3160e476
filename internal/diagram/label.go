package diagram

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/hailam/algchess/internal/board"
)

var labelFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(gobold.TTF)
})

// chessLetters names the chess glyphs, which the label font lacks.
var chessLetters = map[board.Content]string{
	'♔': "K", '♕': "Q", '♖': "R", '♗': "B", '♘': "N", '♙': "P",
	'♚': "K", '♛': "Q", '♜': "R", '♝': "B", '♞': "N", '♟': "P",
}

// Label returns the text drawn on a piece token.
func Label(c board.Content) string {
	if l, ok := chessLetters[c]; ok {
		return l
	}
	return c.String()
}

// drawCentered draws s in the middle of r.
func drawCentered(dst draw.Image, s string, size float64, ink color.Color, r image.Rectangle) error {
	f, err := labelFont()
	if err != nil {
		return err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return err
	}
	defer face.Close()

	m := face.Metrics()
	width := font.MeasureString(face, s)
	cx := fixed.I(r.Min.X) + (fixed.I(r.Dx())-width)/2
	baseline := fixed.I(r.Min.Y) + (fixed.I(r.Dy())+m.Ascent-m.Descent)/2

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ink),
		Face: face,
		Dot:  fixed.Point26_6{X: cx, Y: baseline},
	}
	d.DrawString(s)
	return nil
}

package ui

import (
	"bytes"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	defaultFontSize = 14.0
	titleFontSize   = 18.0
)

var (
	regularSource *text.GoTextFaceSource
	boldSource    *text.GoTextFaceSource
)

func init() {
	var err error
	if regularSource, err = text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF)); err != nil {
		slog.Warn("Failed to load regular font", "error", err)
	}
	if boldSource, err = text.NewGoTextFaceSource(bytes.NewReader(gobold.TTF)); err != nil {
		slog.Warn("Failed to load bold font", "error", err)
	}
}

// RegularFace returns the body face at the given size, scaled for HiDPI.
func RegularFace(size float64) *text.GoTextFace {
	if regularSource == nil {
		return nil
	}
	return &text.GoTextFace{Source: regularSource, Size: size * UIScale}
}

// BoldFace returns the title face at the given size, scaled for HiDPI.
func BoldFace(size float64) *text.GoTextFace {
	if boldSource == nil {
		return nil
	}
	return &text.GoTextFace{Source: boldSource, Size: size * UIScale}
}

// MeasureText returns the width and height of s in face.
func MeasureText(s string, face *text.GoTextFace) (width, height float64) {
	if face == nil {
		return 0, 0
	}
	return text.Measure(s, face, face.Size*1.3)
}

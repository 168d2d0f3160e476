// Package ui implements the graphical position browser using Ebitengine.
package ui

import (
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/diagram"
)

type spriteKey struct {
	content board.Content
	size    int
}

// SpriteManager renders piece tokens on demand and keeps them.
type SpriteManager struct {
	sprites     map[spriteKey]*ebiten.Image
	renderScale float64 // Render at higher resolution for sharp scaling
	scale       float64 // HiDPI scale factor
}

// NewSpriteManager creates an empty sprite manager.
func NewSpriteManager() *SpriteManager {
	return &SpriteManager{
		sprites:     make(map[spriteKey]*ebiten.Image),
		renderScale: 2.0,
		scale:       1.0,
	}
}

// SetScale sets the HiDPI scale factor. Sprites rendered at another
// scale are dropped.
func (sm *SpriteManager) SetScale(scale float64) {
	if scale == sm.scale {
		return
	}
	sm.scale = scale
	clear(sm.sprites)
}

// Piece returns the token for c at the given logical size, or nil for a
// marker.
func (sm *SpriteManager) Piece(c board.Content, size int) *ebiten.Image {
	key := spriteKey{c, size}
	if img, ok := sm.sprites[key]; ok {
		return img
	}
	px := int(float64(size) * sm.scale * sm.renderScale)
	icon, err := diagram.PieceIcon(c, px)
	if err != nil {
		slog.Debug("No sprite", "content", c.String(), "error", err)
		sm.sprites[key] = nil
		return nil
	}
	img := ebiten.NewImageFromImage(icon)
	sm.sprites[key] = img
	return img
}

// DrawPieceAt draws the token for c with its top-left corner at x, y in
// screen pixels.
func (sm *SpriteManager) DrawPieceAt(screen *ebiten.Image, c board.Content, size int, x, y float64) {
	sprite := sm.Piece(c, size)
	if sprite == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	// Scale down from render resolution to display size
	scale := 1.0 / sm.renderScale
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(sprite, op)
}

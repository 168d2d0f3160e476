package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Action is a browser command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionCursorUp
	ActionCursorDown
	ActionCursorLeft
	ActionCursorRight
	ActionToggle
	ActionClear
	ActionNext
	ActionPrev
	ActionCommit
	ActionUndo
	ActionQuit
)

var keyActions = []struct {
	key    ebiten.Key
	action Action
	repeat bool
}{
	{ebiten.KeyArrowUp, ActionCursorUp, true},
	{ebiten.KeyArrowDown, ActionCursorDown, true},
	{ebiten.KeyArrowLeft, ActionCursorLeft, true},
	{ebiten.KeyArrowRight, ActionCursorRight, true},
	{ebiten.KeySpace, ActionToggle, false},
	{ebiten.KeyEscape, ActionClear, false},
	{ebiten.KeyPageDown, ActionNext, true},
	{ebiten.KeyPageUp, ActionPrev, true},
	{ebiten.KeyEnter, ActionCommit, false},
	{ebiten.KeyBackspace, ActionUndo, false},
	{ebiten.KeyQ, ActionQuit, false},
}

// InputHandler manages mouse and keyboard input.
type InputHandler struct {
	mouseX, mouseY  int // Logical coordinates (unscaled)
	leftJustPressed bool
	actions         []Action
}

// NewInputHandler creates a new input handler.
func NewInputHandler() *InputHandler {
	return &InputHandler{}
}

// Update updates the input state. Call this once per frame.
func (ih *InputHandler) Update() {
	rawX, rawY := ebiten.CursorPosition()

	// Convert to logical coordinates by dividing by scale
	scale := max(UIScale, 1.0)
	ih.mouseX = int(float64(rawX) / scale)
	ih.mouseY = int(float64(rawY) / scale)
	ih.leftJustPressed = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)

	ih.actions = ih.actions[:0]
	for _, ka := range keyActions {
		d := inpututil.KeyPressDuration(ka.key)
		if d == 1 || (ka.repeat && repeating(d)) {
			ih.actions = append(ih.actions, ka.action)
		}
	}
}

// repeating reports whether a key held for d ticks fires again.
func repeating(d int) bool {
	const delay, interval = 20, 4
	return d >= delay && (d-delay)%interval == 0
}

// Actions returns the commands triggered this frame.
func (ih *InputHandler) Actions() []Action {
	return ih.actions
}

// MousePosition returns the current mouse position in logical coordinates.
func (ih *InputHandler) MousePosition() (int, int) {
	return ih.mouseX, ih.mouseY
}

// IsLeftJustPressed returns true if the left mouse button was just pressed.
func (ih *InputHandler) IsLeftJustPressed() bool {
	return ih.leftJustPressed
}

package ui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/book"
	"github.com/hailam/algchess/internal/engine"
	"github.com/hailam/algchess/internal/storage"
	"github.com/hailam/algchess/internal/ui/browse"
)

// UI Constants
const (
	Margin       = 20
	BoardSize    = 440
	CaptionH     = 28
	PanelWidth   = 300
	PanelX       = Margin*3 + BoardSize*2
	ScreenWidth  = PanelX + PanelWidth
	ScreenHeight = Margin*2 + BoardSize + CaptionH
)

// UIScale is the global HiDPI scale factor for all UI drawing.
// Set by Game.Layout() and used by the font helpers and input.
var UIScale float64 = 1.0

// Options configures the browser. Engine and Book are required.
type Options struct {
	Engine  *engine.Engine
	Book    *book.Book
	Storage *storage.Storage // optional: sessions, stats and preferences
	Game    string           // "" = last game played, else chess
	Budget  engine.Budget
	Logger  *slog.Logger
}

type evalResult struct {
	from *board.Position
	succ []*board.Position
	err  error
}

// Game implements ebiten.Game for the position browser.
type Game struct {
	model       *browse.Model
	title       string
	description string

	engine *engine.Engine
	budget engine.Budget
	log    *slog.Logger

	// Storage
	storage  *storage.Storage
	prefs    *storage.UserPreferences
	session  *storage.Session
	started  time.Time
	recorded bool

	// Components
	renderer *Renderer
	input    *InputHandler
	panel    *Panel

	// Background evaluation
	evaluating bool
	evalCh     chan evalResult
	cancel     context.CancelFunc

	welcome bool // first launch: show the key help until the first key
	err     error
	scale   float64
}

// NewGame creates a browser on the start position of a book game.
func NewGame(opts Options) (*Game, error) {
	if opts.Engine == nil || opts.Book == nil {
		return nil, errors.New("ui: engine and book are required")
	}
	g := &Game{
		engine:   opts.Engine,
		budget:   opts.Budget,
		log:      opts.Logger,
		storage:  opts.Storage,
		renderer: NewRenderer(),
		input:    NewInputHandler(),
		evalCh:   make(chan evalResult, 1),
		scale:    1.0,
	}
	if g.log == nil {
		g.log = slog.Default()
	}
	g.loadPreferences()

	name := opts.Game
	if name == "" {
		name = g.prefs.LastGame
	}
	def, ok := opts.Book.Game(name)
	if !ok {
		return nil, fmt.Errorf("ui: unknown game %q", name)
	}
	start, err := def.Position()
	if err != nil {
		return nil, err
	}
	src, err := def.Rule()
	if err != nil {
		return nil, err
	}

	g.title = def.Name
	g.description = def.Description
	g.model = browse.New(g.engine, src, start, g.budget)
	g.panel = NewPanel(g)
	g.started = time.Now()

	if g.storage != nil {
		if first, err := g.storage.IsFirstLaunch(); err == nil && first {
			g.welcome = true
			if err := g.storage.MarkFirstLaunchComplete(); err != nil {
				g.log.Warn("Failed to mark first launch", "error", err)
			}
		}
		g.session = storage.NewSession(def.Name, src, start.Compact())
		g.saveSession()
		g.prefs.LastGame = def.Name
		g.prefs.LastPlayed = g.started
		g.savePreferences()
	}
	return g, nil
}

// loadPreferences loads user preferences from storage.
func (g *Game) loadPreferences() {
	if g.storage == nil {
		g.prefs = storage.DefaultPreferences()
		return
	}
	var err error
	g.prefs, err = g.storage.LoadPreferences()
	if err != nil {
		g.log.Warn("Failed to load preferences", "error", err)
		g.prefs = storage.DefaultPreferences()
	}
}

// savePreferences saves current preferences to storage.
func (g *Game) savePreferences() {
	if g.storage == nil {
		return
	}
	if err := g.storage.SavePreferences(g.prefs); err != nil {
		g.log.Warn("Failed to save preferences", "error", err)
	}
}

func (g *Game) saveSession() {
	if g.storage == nil || g.session == nil {
		return
	}
	if err := g.storage.SaveSession(g.session); err != nil {
		g.log.Warn("Failed to save session", "id", g.session.ID, "error", err)
	}
}

// recordGame stores the game in the statistics once.
func (g *Game) recordGame(stuck bool) {
	if g.storage == nil || g.recorded || (!stuck && g.model.Turn() == 0) {
		return
	}
	g.recorded = true
	err := g.storage.RecordGame(storage.GameResult{
		Game:     g.title,
		Turns:    g.model.Turn(),
		Duration: time.Since(g.started),
		Stuck:    stuck,
	})
	if err != nil {
		g.log.Warn("Failed to record game", "error", err)
	}
}

// Close stops any evaluation and records the game.
func (g *Game) Close() {
	if g.cancel != nil {
		g.cancel()
	}
	g.recordGame(false)
}

// Update handles input and background evaluation.
func (g *Game) Update() error {
	g.input.Update()
	g.checkEvaluation()

	for _, a := range g.input.Actions() {
		g.welcome = false
		if a == ActionQuit {
			g.Close()
			return ebiten.Termination
		}
		g.apply(a)
	}

	if g.input.IsLeftJustPressed() {
		mx, my := g.input.MousePosition()
		if at, ok := g.renderer.ScreenToCell(g.currentView(), mx, my); ok {
			g.model.SetCursor(at)
			g.model.ToggleSelect()
		}
	}

	if !g.model.Evaluated() && !g.evaluating && g.err == nil {
		g.startEvaluation()
	}
	return nil
}

func (g *Game) apply(a Action) {
	m := g.model
	switch a {
	case ActionCursorUp:
		m.MoveCursor(board.Up)
	case ActionCursorDown:
		m.MoveCursor(board.Down)
	case ActionCursorLeft:
		m.MoveCursor(board.Left)
	case ActionCursorRight:
		m.MoveCursor(board.Right)
	case ActionToggle:
		m.ToggleSelect()
	case ActionClear:
		m.ClearSelection()
	case ActionNext:
		m.Next()
	case ActionPrev:
		m.Prev()
	case ActionCommit:
		if err := m.Commit(); err != nil {
			return
		}
		g.err = nil
		if g.session != nil {
			g.session.History = append(g.session.History, m.Current().Compact())
			g.saveSession()
		}
	case ActionUndo:
		if !m.Undo() {
			return
		}
		g.err = nil
		g.recorded = false
		if g.session != nil && len(g.session.History) > 1 {
			g.session.History = g.session.History[:len(g.session.History)-1]
			g.saveSession()
		}
	}
}

// startEvaluation computes the successors of the current position on a
// background goroutine.
func (g *Game) startEvaluation() {
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.evaluating = true

	pos := g.model.Current()
	go func() {
		succ, err := g.model.Evaluate(ctx, pos)
		g.evalCh <- evalResult{from: pos, succ: succ, err: err}
	}()
}

// checkEvaluation installs a finished evaluation.
func (g *Game) checkEvaluation() {
	select {
	case res := <-g.evalCh:
		g.evaluating = false
		g.cancel()
		if res.err != nil {
			g.log.Warn("Evaluation failed", "error", res.err)
			if res.from.Equal(g.model.Current()) {
				g.err = res.err
			}
			return
		}
		if g.model.SetSuccessors(res.from, res.succ) && g.model.OutOfOptions() {
			g.recordGame(true)
		}
	default:
	}
}

func (g *Game) statusLine() (string, color.Color) {
	switch {
	case g.err != nil:
		return g.err.Error(), statusError
	case g.evaluating || !g.model.Evaluated():
		return "Evaluating...", statusBusy
	case g.model.OutOfOptions():
		return "Out of options! Game over.", statusGameOver
	case g.welcome:
		return "Welcome! Select cells with Space to filter successors, Enter plays the one shown.", statusBusy
	}
	return "", textPrimary
}

func (g *Game) currentView() BoardView {
	cursor := g.model.Cursor()
	return BoardView{
		Pos:      g.model.Current(),
		X:        Margin,
		Y:        Margin,
		Size:     BoardSize,
		Caption:  "Current",
		Selected: g.model.IsSelected,
		Cursor:   &cursor,
	}
}

// Draw renders the current board, the shown successor and the panel.
func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.SetScale(g.scale)
	g.panel.SetScale(g.scale)
	screen.Fill(g.renderer.Theme().Background)

	g.renderer.DrawBoard(screen, g.currentView())

	if s, ok := g.model.Successor(); ok {
		shown, _ := g.model.Counts()
		g.renderer.DrawBoard(screen, BoardView{
			Pos:     s,
			X:       Margin*2 + BoardSize,
			Y:       Margin,
			Size:    BoardSize,
			Caption: fmt.Sprintf("Successor %d/%d", g.model.Index()+1, shown),
			Changed: g.model.Changed(),
		})
	}

	g.panel.Draw(screen)
}

// Layout returns the game's screen dimensions, scaled for HiDPI displays.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.scale = max(ebiten.Monitor().DeviceScaleFactor(), 1.0)
	UIScale = g.scale
	return int(float64(ScreenWidth) * g.scale), int(float64(ScreenHeight) * g.scale)
}

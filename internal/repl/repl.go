// Package repl implements the interactive line protocol: pick a game or a
// board, write a rule, list the successor positions and play one of them.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/book"
	"github.com/hailam/algchess/internal/engine"
	"github.com/hailam/algchess/internal/rule"
	"github.com/hailam/algchess/internal/storage"
)

// OutOfOptions is printed when the rule yields no successor.
const OutOfOptions = "Out of options! Game over."

const customGame = "custom"

var errQuit = errors.New("quit")

// Options configures a REPL. Engine and Book are required.
type Options struct {
	Engine  *engine.Engine
	Book    *book.Book
	Storage *storage.Storage // sessions and stats are kept only when set
	Budget  engine.Budget
	Styler  *Styler
	Logger  *slog.Logger
}

// REPL holds one interactive play session.
type REPL struct {
	engine *engine.Engine
	book   *book.Book
	store  *storage.Storage
	budget engine.Budget
	style  *Styler
	log    *slog.Logger
	out    io.Writer

	game    string
	src     string
	macros  *rule.Macros
	history []*board.Position
	session *storage.Session
	started time.Time
	ended   bool

	// Successors of the current position from the last "go"
	results []*board.Position
	stale   bool
}

// New creates a REPL with no position and no rule.
func New(opts Options) *REPL {
	r := &REPL{
		engine: opts.Engine,
		book:   opts.Book,
		store:  opts.Storage,
		budget: opts.Budget,
		style:  opts.Styler,
		log:    opts.Logger,
		macros: rule.NewMacros(),
	}
	if r.style == nil {
		r.style = PlainStyler()
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// Run reads commands from in until "quit", end of input or ctx ends.
func (r *REPL) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	r.out = out
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		err := r.Execute(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			r.log.Debug("Command failed", "line", line, "error", err)
			r.printf("error: %v\n", err)
		}
	}
	r.finish(false)
	return scanner.Err()
}

// Execute runs one command line.
func (r *REPL) Execute(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "game":
		return r.handleGame(rest)
	case "board":
		return r.handleBoard(rest)
	case "rule":
		return r.handleRule(rest)
	case "def":
		return r.handleDef(rest)
	case "go":
		return r.handleGo(ctx, rest)
	case "list":
		return r.handleList()
	case "show":
		return r.handleShow(rest)
	case "pick":
		return r.handlePick(rest)
	case "undo":
		return r.handleUndo()
	case "d":
		r.printCurrent()
		return nil
	case "help":
		r.printf("%s", helpText)
		return nil
	case "quit", "exit":
		r.finish(false)
		return errQuit
	}
	return fmt.Errorf("unknown command %q (try help)", cmd)
}

const helpText = `commands:
  game <name>          load a game from the book
  board <compact>      set the position, e.g. board ../♙♙
  rule <source>        set the rule
  def <name> = <body>  define a macro used by the rule
  go [steps]           list the positions the rule produces
  list                 list them again
  show <n>             show position n with its changed cells
  pick <n>             play position n
  undo                 take back the last pick
  d                    show the current position
  quit
`

// handleGame loads a named game, or lists the book without a name.
func (r *REPL) handleGame(name string) error {
	if name == "" {
		for _, n := range r.book.Names() {
			g, _ := r.book.Game(n)
			r.printf("%-10s %s\n", n, g.Description)
		}
		return nil
	}
	g, ok := r.book.Game(name)
	if !ok {
		return fmt.Errorf("unknown game %q", name)
	}
	pos, err := g.Position()
	if err != nil {
		return err
	}
	r.finish(false)
	r.game = g.Name
	r.src = g.Source
	r.macros = g.MacroSet()
	r.reset(pos)
	r.printf("%s: %s\n", g.Name, g.Description)
	r.printCurrent()
	return nil
}

func (r *REPL) handleBoard(compact string) error {
	if compact == "" {
		return errors.New("usage: board <compact>")
	}
	pos, err := board.ParseCompact(compact)
	if err != nil {
		return err
	}
	r.finish(false)
	if r.game == "" {
		r.game = customGame
	}
	r.reset(pos)
	r.printCurrent()
	return nil
}

func (r *REPL) handleRule(src string) error {
	if src == "" {
		if r.src == "" {
			r.printf("no rule\n")
		} else {
			r.printf("%s\n", r.src)
		}
		return nil
	}
	if _, err := r.expanded(src); err != nil {
		return err
	}
	r.src = src
	r.stale = true
	r.saveSession()
	return nil
}

func (r *REPL) handleDef(def string) error {
	name, body, ok := strings.Cut(def, "=")
	name, body = strings.TrimSpace(name), strings.TrimSpace(body)
	if !ok || name == "" || body == "" {
		return errors.New("usage: def <name> = <body>")
	}
	next := r.macros.Clone().Define(name, body)
	if _, err := next.Expand(name); err != nil {
		return err
	}
	r.macros = next
	r.stale = true
	return nil
}

func (r *REPL) handleGo(ctx context.Context, arg string) error {
	cur := r.current()
	if cur == nil {
		return errors.New("no position (use game or board)")
	}
	if r.src == "" {
		return errors.New("no rule (use rule or game)")
	}
	src, err := r.expanded(r.src)
	if err != nil {
		return err
	}

	budget := r.budget
	if arg != "" {
		n, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || n == 0 {
			return fmt.Errorf("invalid step limit %q", arg)
		}
		budget.MaxSteps = n
	}

	res, err := r.engine.Evaluate(ctx, src, cur, budget)
	if err != nil {
		return err
	}
	r.results = res.Positions
	r.stale = false

	if res.Len() == 0 {
		r.printf("%s\n", OutOfOptions)
		r.finish(true)
		return nil
	}
	r.printf("%s positions (%s steps, %s)\n",
		humanize.Comma(int64(res.Len())), humanize.Comma(int64(res.Steps)), res.Elapsed.Round(time.Microsecond))
	r.printList()
	return nil
}

func (r *REPL) handleList() error {
	if r.results == nil {
		return errors.New("nothing to list (use go)")
	}
	r.printList()
	return nil
}

func (r *REPL) handleShow(arg string) error {
	pos, err := r.result(arg)
	if err != nil {
		return err
	}
	r.printf("%s\n", r.style.Diagram(pos, board.Diff(r.current(), pos)))
	return nil
}

func (r *REPL) handlePick(arg string) error {
	pos, err := r.result(arg)
	if err != nil {
		return err
	}
	if r.stale {
		return errors.New("rule changed since the last go")
	}
	changed := board.Diff(r.current(), pos)
	r.history = append(r.history, pos)
	r.results = nil
	if r.session != nil {
		r.session.History = append(r.session.History, pos.Compact())
	}
	r.saveSession()
	r.printf("turn %d\n%s\n", len(r.history)-1, r.style.Diagram(pos, changed))
	return nil
}

func (r *REPL) handleUndo() error {
	if len(r.history) < 2 {
		return errors.New("nothing to undo")
	}
	r.history = r.history[:len(r.history)-1]
	r.results = nil
	r.ended = false
	if r.session != nil && len(r.session.History) > 1 {
		r.session.History = r.session.History[:len(r.session.History)-1]
	}
	r.saveSession()
	r.printCurrent()
	return nil
}

// Turn returns the number of picks made in the current game.
func (r *REPL) Turn() int {
	return max(len(r.history)-1, 0)
}

// Current returns the position being played, or nil.
func (r *REPL) Current() *board.Position {
	return r.current()
}

// Session returns the persisted session, or nil without storage.
func (r *REPL) Session() *storage.Session {
	return r.session
}

func (r *REPL) current() *board.Position {
	if len(r.history) == 0 {
		return nil
	}
	return r.history[len(r.history)-1]
}

func (r *REPL) result(arg string) (*board.Position, error) {
	if r.results == nil {
		return nil, errors.New("no positions (use go)")
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(r.results) {
		return nil, fmt.Errorf("choose a position between 1 and %d", len(r.results))
	}
	return r.results[n-1], nil
}

func (r *REPL) expanded(src string) (string, error) {
	s, err := rule.SplitSource(src)
	if err != nil {
		return "", err
	}
	macros := r.macros.Clone()
	for _, name := range s.Macros.Names() {
		body, _ := s.Macros.Body(name)
		macros.Define(name, body)
	}
	out, err := macros.Expand(s.Rule)
	if err != nil {
		return "", err
	}
	if _, err := r.engine.Compile(context.Background(), out); err != nil {
		return "", err
	}
	return out, nil
}

func (r *REPL) reset(pos *board.Position) {
	r.history = []*board.Position{pos}
	r.results = nil
	r.stale = false
	r.ended = false
	r.started = time.Now()
	r.session = nil
	if r.store != nil {
		r.session = storage.NewSession(r.game, r.src, pos.Compact())
		r.saveSession()
		if prefs, err := r.store.LoadPreferences(); err == nil {
			prefs.LastGame = r.game
			prefs.LastPlayed = r.started
			if err := r.store.SavePreferences(prefs); err != nil {
				r.log.Warn("Failed to save preferences", "error", err)
			}
		}
	}
}

func (r *REPL) saveSession() {
	if r.store == nil || r.session == nil {
		return
	}
	r.session.Rule = r.src
	if err := r.store.SaveSession(r.session); err != nil {
		r.log.Warn("Failed to save session", "id", r.session.ID, "error", err)
	}
}

// finish records the game in the stats once, if any turn was played or it
// ended with no options.
func (r *REPL) finish(stuck bool) {
	if r.ended || r.store == nil || len(r.history) == 0 {
		return
	}
	if !stuck && r.Turn() == 0 {
		return
	}
	r.ended = true
	err := r.store.RecordGame(storage.GameResult{
		Game:     r.game,
		Turns:    r.Turn(),
		Duration: time.Since(r.started),
		Stuck:    stuck,
	})
	if err != nil {
		r.log.Warn("Failed to record game", "error", err)
	}
}

func (r *REPL) printCurrent() {
	cur := r.current()
	if cur == nil {
		r.printf("no position\n")
		return
	}
	r.printf("%s\n", r.style.Diagram(cur, nil))
}

func (r *REPL) printList() {
	cur := r.current()
	for i, p := range r.results {
		cells := board.Diff(cur, p)
		parts := make([]string, len(cells))
		for j, v := range cells {
			parts[j] = fmt.Sprintf("%s=%s", v, p.At(v))
		}
		r.printf("%3d  %-24s %s\n", i+1, p.Compact(), strings.Join(parts, " "))
	}
}

func (r *REPL) printf(format string, args ...any) {
	if r.out == nil {
		return
	}
	fmt.Fprintf(r.out, format, args...)
}

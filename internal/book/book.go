// Package book holds named games: a starting board and the rule that
// produces each turn's successor positions.
package book

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/rule"
)

//go:embed games.yaml
var defaultGames []byte

// Macro is a named rule fragment.
type Macro struct {
	Name string `yaml:"name" json:"name"`
	Body string `yaml:"body" json:"body"`
}

// Game is a starting board with the rule played on it.
type Game struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Board       string  `yaml:"board" json:"board"`
	Macros      []Macro `yaml:"macros,omitempty" json:"macros,omitempty"`
	Source      string  `yaml:"rule" json:"rule"`
}

// Position parses the starting board.
func (g *Game) Position() (*board.Position, error) {
	pos, err := board.ParsePosition(g.Board)
	if err != nil {
		return nil, fmt.Errorf("game %q: board: %w", g.Name, err)
	}
	return pos, nil
}

// MacroSet returns the game's definitions as a macro set.
func (g *Game) MacroSet() *rule.Macros {
	m := rule.NewMacros()
	for _, d := range g.Macros {
		m.Define(d.Name, d.Body)
	}
	return m
}

// Rule returns the rule with every macro expanded.
func (g *Game) Rule() (string, error) {
	src, err := g.MacroSet().Expand(g.Source)
	if err != nil {
		return "", fmt.Errorf("game %q: rule: %w", g.Name, err)
	}
	return src, nil
}

// Validate parses the board and compiles the rule.
func (g *Game) Validate() error {
	var errs error
	if strings.TrimSpace(g.Name) == "" {
		errs = multierror.Append(errs, fmt.Errorf("game without a name"))
	}
	if _, err := g.Position(); err != nil {
		errs = multierror.Append(errs, err)
	}
	src, err := g.Rule()
	if err != nil {
		errs = multierror.Append(errs, err)
	} else if _, err := rule.Compile(src); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("game %q: rule: %w", g.Name, err))
	}
	return errs
}

// Book is an ordered collection of games.
type Book struct {
	games map[string]*Game
	order []string
}

// New creates an empty book.
func New() *Book {
	return &Book{games: make(map[string]*Game)}
}

type bookFile struct {
	Games []*Game `yaml:"games"`
}

// Load reads games from YAML. Every game is validated and all failures
// are reported together.
func Load(r io.Reader) (*Book, error) {
	var f bookFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("book: decode: %w", err)
	}

	b := New()
	var errs error
	for _, g := range f.Games {
		if err := g.Validate(); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		b.Add(g)
	}
	if errs != nil {
		return nil, errs
	}
	return b, nil
}

// LoadFile reads a YAML book from disk.
func LoadFile(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Default returns the built-in games.
func Default() *Book {
	b, err := Load(strings.NewReader(string(defaultGames)))
	if err != nil {
		panic(fmt.Sprintf("book: built-in games: %v", err))
	}
	return b
}

// Add inserts g, replacing any game of the same name in place.
func (b *Book) Add(g *Game) {
	if _, ok := b.games[g.Name]; !ok {
		b.order = append(b.order, g.Name)
	}
	b.games[g.Name] = g
}

// Merge adds every game of o.
func (b *Book) Merge(o *Book) {
	for _, name := range o.order {
		b.Add(o.games[name])
	}
}

// Game returns the named game.
func (b *Book) Game(name string) (*Game, bool) {
	g, ok := b.games[name]
	return g, ok
}

// Names returns the game names in the order they were added.
func (b *Book) Names() []string {
	return append([]string(nil), b.order...)
}

// Len returns the number of games.
func (b *Book) Len() int {
	return len(b.order)
}

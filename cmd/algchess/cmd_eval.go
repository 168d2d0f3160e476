package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hailam/algchess/internal/app"
	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/book"
	"github.com/hailam/algchess/internal/diagram"
	"github.com/hailam/algchess/internal/engine"
	"github.com/hailam/algchess/internal/repl"
	"github.com/hailam/algchess/internal/rule"
	"github.com/hailam/algchess/internal/server"
)

var (
	evalPosition positionFlags
	evalBudget   budgetFlags
	evalRuleFile string
	evalFormat   string
	evalPNGDir   string
	evalDiff     bool
	evalCache    bool

	evalCmd = &cobra.Command{
		Use:   "eval [rule]",
		Short: "Print every position a rule produces",
		Long: `Evaluates a rule on a position and prints the distinct results.

The rule comes from the argument, from --rule-file, or from the game named
by --game. Lines of the form "name = body" define macros. With --game the
game's own macros are available too.`,
		Example: `  algchess eval --game chess
  algchess eval '♖ + r. -> . + r♖' --compact '♖3'
  algchess eval -f rule.txt -b board.txt --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runEval,
	}
)

func init() {
	evalPosition.register(evalCmd)
	evalBudget.register(evalCmd)
	f := evalCmd.Flags()
	f.StringVarP(&evalRuleFile, "rule-file", "f", "", "file holding the rule (- for stdin)")
	f.StringVar(&evalFormat, "format", "text", "output format: text, compact or json")
	f.StringVar(&evalPNGDir, "png-dir", "", "also write every result as a PNG into this directory")
	f.BoolVar(&evalDiff, "diff", false, "mark the cells each result changed")
	f.BoolVar(&evalCache, "cache", false, "read and write results in the database")
}

func runEval(cmd *cobra.Command, args []string) error {
	switch evalFormat {
	case "text", "compact", "json":
	default:
		return errors.Errorf("unknown format %q (want text, compact or json)", evalFormat)
	}

	a, err := openApp(cmd, "cli", app.Options{NoStorage: !evalCache})
	if err != nil {
		return err
	}
	defer a.Close()

	start, g, err := evalPosition.load(cmd, a.Book)
	if err != nil {
		return err
	}
	src, err := ruleSource(cmd, args, evalRuleFile, g)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	res, err := a.Engine.Evaluate(ctx, src, start, evalBudget.apply(cmd, a.Budget()))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printResult(out, res); err != nil {
		return err
	}
	if evalPNGDir != "" {
		n, err := writePNGs(evalPNGDir, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d images to %s\n", n, evalPNGDir)
	}
	return nil
}

// ruleSource returns the macro-expanded rule from the argument, the rule
// file or the game, in that order.
func ruleSource(cmd *cobra.Command, args []string, file string, g *book.Game) (string, error) {
	var text string
	switch {
	case len(args) > 0:
		text = args[0]
	case file != "":
		var err error
		if text, err = readInput(cmd, file); err != nil {
			return "", err
		}
	case g != nil:
		return g.Rule()
	default:
		return "", errors.New("no rule: pass it as an argument, with --rule-file or with --game")
	}

	s, err := rule.SplitSource(text)
	if err != nil {
		return "", err
	}
	macros := rule.NewMacros()
	if g != nil {
		macros = g.MacroSet()
	}
	for _, name := range s.Macros.Names() {
		body, _ := s.Macros.Body(name)
		macros.Define(name, body)
	}
	return macros.Expand(s.Rule)
}

func printResult(w io.Writer, res *engine.Result) error {
	switch evalFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(server.NewEvaluateResponse(res))
	case "compact":
		for _, p := range res.Positions {
			fmt.Fprintln(w, p.Compact())
		}
		return nil
	}

	fmt.Fprintln(w, summary(res))
	style := repl.NewStyler(w)
	for i, p := range res.Positions {
		var changed []board.Vec
		if evalDiff {
			changed = board.Diff(res.Start, p)
		}
		fmt.Fprintf(w, "\n#%d\n%s\n", i+1, style.Diagram(p, changed))
	}
	return nil
}

// summary is the one-line count shown above text results.
func summary(res *engine.Result) string {
	noun := "positions"
	if res.Len() == 1 {
		noun = "position"
	}
	s := fmt.Sprintf("%s %s (%s steps, %s)", humanize.Comma(int64(res.Len())), noun,
		humanize.Comma(int64(res.Steps)), res.Elapsed.Round(time.Microsecond))
	if res.Cached {
		s += " cached"
	}
	return s
}

func writePNGs(dir string, res *engine.Result) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, errors.Wrap(err, "create png dir")
	}
	for i, p := range res.Positions {
		path := filepath.Join(dir, fmt.Sprintf("%03d.png", i+1))
		if err := writePNG(path, p, diagram.Options{Highlight: board.Diff(res.Start, p), Coordinates: true}); err != nil {
			return i, err
		}
	}
	return res.Len(), nil
}

func writePNG(path string, pos *board.Position, opts diagram.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := diagram.RenderPNG(f, pos, opts); err != nil {
		f.Close()
		return errors.Wrapf(err, "render %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

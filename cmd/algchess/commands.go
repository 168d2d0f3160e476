package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hailam/algchess/internal/app"
	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/book"
	"github.com/hailam/algchess/internal/config"
	"github.com/hailam/algchess/internal/engine"
)

// --- Global flags ---
var (
	configPath string
	logLevel   string
	logJSON    bool
	noStorage  bool

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "algchess",
		Short: "Evaluate board-algebra move rules",
		Long: `algchess computes every position a move rule produces from a board.
Rules are written in board algebra, for example

    ♙ + u. -> . + u♙

moves a white pawn one cell up.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default $ALGCHESS_CONFIG or the platform config dir)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&logJSON, "log-json", false, "log as JSON")
	pf.BoolVar(&noStorage, "no-storage", false, "do not open the database")

	rootCmd.AddCommand(evalCmd, gamesCmd, replCmd, serveCmd, renderCmd, checkCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logJSON {
		cfg.Log.JSON = true
	}
	return nil
}

// openApp opens the shared components, writing logs to the command's
// error stream.
func openApp(cmd *cobra.Command, service string, opts app.Options) (*app.App, error) {
	opts.Service = service
	opts.LogOutput = cmd.ErrOrStderr()
	opts.NoStorage = opts.NoStorage || noStorage
	return app.Open(cfg, opts)
}

// positionFlags selects a position by diagram file, compact string or
// book game.
type positionFlags struct {
	board   string
	compact string
	game    string
}

func (p *positionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.board, "board", "b", "", "file holding a board diagram (- for stdin)")
	cmd.Flags().StringVarP(&p.compact, "compact", "c", "", "position in compact form, rows top to bottom separated by /")
	cmd.Flags().StringVarP(&p.game, "game", "g", "", "start position of a book game")
}

// load returns the selected position and, when --game is set, the game.
func (p *positionFlags) load(cmd *cobra.Command, b *book.Book) (*board.Position, *book.Game, error) {
	var g *book.Game
	if p.game != "" {
		var ok bool
		if g, ok = b.Game(p.game); !ok {
			return nil, nil, errors.Errorf("unknown game %q (try: %s)", p.game, strings.Join(b.Names(), ", "))
		}
	}
	switch {
	case p.board != "":
		text, err := readInput(cmd, p.board)
		if err != nil {
			return nil, nil, err
		}
		pos, err := board.ParsePosition(text)
		return pos, g, errors.Wrap(err, "board")
	case p.compact != "":
		pos, err := board.ParseCompact(p.compact)
		return pos, g, errors.Wrap(err, "compact")
	case g != nil:
		pos, err := g.Position()
		return pos, g, err
	}
	return nil, nil, errors.New("no position: use --board, --compact or --game")
}

// readInput reads a file, or the command's input for "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), errors.Wrap(err, "read stdin")
	}
	data, err := os.ReadFile(path)
	return string(data), errors.Wrapf(err, "read %s", path)
}

// budgetFlags overrides the configured evaluation budget.
type budgetFlags struct {
	maxSteps uint64
	timeout  time.Duration
}

func (f *budgetFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&f.maxSteps, "max-steps", 0, "step limit, 0 for none (default from config)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "time limit, for example 5s (default from config)")
}

func (f *budgetFlags) apply(cmd *cobra.Command, b engine.Budget) engine.Budget {
	if cmd.Flags().Changed("max-steps") {
		b.MaxSteps = f.maxSteps
	}
	if cmd.Flags().Changed("timeout") {
		b.Timeout = f.timeout
	}
	if b.IsZero() {
		return engine.Unlimited
	}
	return b
}

package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hailam/algchess/internal/app"
	"github.com/hailam/algchess/internal/repl"
)

var (
	replGame string

	replCmd = &cobra.Command{
		Use:   "repl",
		Short: "Play a game interactively, one command per line",
		Long: `Reads commands from standard input. Type "help" for the list.

  game chess      load a game from the book
  go              compute the successors of the current position
  pick 3          play the third successor
  undo            take the last pick back`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
)

func init() {
	replCmd.Flags().StringVarP(&replGame, "game", "g", "", "game to load on start")
}

func runREPL(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, "repl", app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	r := repl.New(repl.Options{
		Engine:  a.Engine,
		Book:    a.Book,
		Storage: a.Storage,
		Budget:  a.Budget(),
		Styler:  repl.NewStyler(out),
		Logger:  a.Log,
	})

	var in io.Reader = cmd.InOrStdin()
	if replGame != "" {
		in = io.MultiReader(strings.NewReader("game "+replGame+"\n"), in)
	}
	return r.Run(cmd.Context(), in, out)
}

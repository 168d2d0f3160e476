package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hailam/algchess/internal/app"
	"github.com/hailam/algchess/internal/book"
	"github.com/hailam/algchess/internal/repl"
)

var (
	gamesCmd = &cobra.Command{
		Use:   "games",
		Short: "List the games in the rule book",
		Args:  cobra.NoArgs,
		RunE:  runGamesList,
	}
	gamesShowCmd = &cobra.Command{
		Use:   "show <name>",
		Short: "Show a game's board, macros and rule",
		Args:  cobra.ExactArgs(1),
		RunE:  runGamesShow,
	}
	gamesStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show play statistics and recent sessions",
		Args:  cobra.NoArgs,
		RunE:  runGamesStats,
	}
)

func init() {
	gamesCmd.AddCommand(gamesShowCmd, gamesStatsCmd)
}

func runGamesList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, "cli", app.Options{NoStorage: true})
	if err != nil {
		return err
	}
	defer a.Close()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, name := range a.Book.Names() {
		g, _ := a.Book.Game(name)
		fmt.Fprintf(tw, "%s\t%s\n", g.Name, g.Description)
	}
	return tw.Flush()
}

func runGamesShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, "cli", app.Options{NoStorage: true})
	if err != nil {
		return err
	}
	defer a.Close()

	g, ok := a.Book.Game(args[0])
	if !ok {
		return errors.Errorf("unknown game %q", args[0])
	}
	return showGame(cmd.OutOrStdout(), g)
}

func showGame(w io.Writer, g *book.Game) error {
	pos, err := g.Position()
	if err != nil {
		return err
	}
	expanded, err := g.Rule()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %s\n\n", g.Name, g.Description)
	fmt.Fprintln(w, repl.NewStyler(w).Diagram(pos, nil))
	if len(g.Macros) > 0 {
		fmt.Fprintln(w, "\nmacros:")
		for _, m := range g.Macros {
			fmt.Fprintf(w, "  %s = %s\n", m.Name, m.Body)
		}
	}
	fmt.Fprintf(w, "\nrule:\n  %s\n", g.Source)
	if expanded != g.Source {
		fmt.Fprintf(w, "\nexpanded:\n  %s\n", expanded)
	}
	return nil
}

func runGamesStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, "cli", app.Options{NoCache: true})
	if err != nil {
		return err
	}
	defer a.Close()
	if a.Storage == nil {
		return errors.New("storage is disabled")
	}

	stats, err := a.Storage.LoadStats()
	if err != nil {
		return err
	}
	sessions, err := a.Storage.ListSessions()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "games played:    %s\n", humanize.Comma(int64(stats.GamesPlayed)))
	fmt.Fprintf(w, "turns played:    %s\n", humanize.Comma(int64(stats.TurnsPlayed)))
	fmt.Fprintf(w, "average turns:   %.1f\n", stats.AverageTurns())
	fmt.Fprintf(w, "longest game:    %d turns\n", stats.LongestGame)
	fmt.Fprintf(w, "out of options:  %d\n", stats.OutOfOptions)
	fmt.Fprintf(w, "time played:     %s\n", stats.TotalPlay.Round(time.Second))

	if len(sessions) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nsessions:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range sessions {
		fmt.Fprintf(tw, "  %s\t%s\tturn %d\t%s\n", s.ID[:8], s.Game, s.Turn(), humanize.Time(s.UpdatedAt))
	}
	return tw.Flush()
}

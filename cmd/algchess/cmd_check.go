package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hailam/algchess/internal/app"
	"github.com/hailam/algchess/internal/book"
	"github.com/hailam/algchess/internal/rule"
)

var (
	checkRuleFile string
	checkGame     string

	checkCmd = &cobra.Command{
		Use:   "check [rule]",
		Short: "Parse and compile a rule and print its move tree",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCheck,
	}
)

func init() {
	checkCmd.Flags().StringVarP(&checkRuleFile, "rule-file", "f", "", "file holding the rule (- for stdin)")
	checkCmd.Flags().StringVarP(&checkGame, "game", "g", "", "check this game's rule, or make its macros available")
}

func runCheck(cmd *cobra.Command, args []string) error {
	var g *book.Game
	if checkGame != "" {
		a, err := openApp(cmd, "cli", app.Options{NoStorage: true})
		if err != nil {
			return err
		}
		defer a.Close()
		var ok bool
		if g, ok = a.Book.Game(checkGame); !ok {
			return errors.Errorf("unknown game %q", checkGame)
		}
	}

	src, err := ruleSource(cmd, args, checkRuleFile, g)
	if err != nil {
		return err
	}
	m, err := rule.Compile(src)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "rule:   %s\n", src)
	fmt.Fprintf(w, "move:   %s\n", m)
	fmt.Fprintf(w, "arrows: %d\n\n", rule.Arrows(m))
	printTree(w, m, 0)
	return nil
}

// printTree writes one node per line, children indented under parents.
func printTree(w io.Writer, m rule.Move, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := m.(type) {
	case *rule.Arrow:
		fmt.Fprintf(w, "%sarrow %s -> %s\n", indent, n.LHS, n.RHS)
	case *rule.POI:
		fmt.Fprintf(w, "%spoi %s\n", indent, n.Piece)
		printTree(w, n.Body, depth+1)
	case *rule.Seq:
		fmt.Fprintf(w, "%sseq\n", indent)
		printTree(w, n.First, depth+1)
		printTree(w, n.Then, depth+1)
	case *rule.Alt:
		fmt.Fprintf(w, "%salt\n", indent)
		printTree(w, n.Left, depth+1)
		printTree(w, n.Right, depth+1)
	case *rule.Repeat:
		upper := "∞"
		if n.Max != rule.Unbounded {
			upper = fmt.Sprint(n.Max)
		}
		fmt.Fprintf(w, "%srepeat %d..%s\n", indent, n.Min, upper)
		printTree(w, n.Body, depth+1)
	default:
		fmt.Fprintf(w, "%s%s\n", indent, m)
	}
}

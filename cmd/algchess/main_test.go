package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/engine"
	"github.com/hailam/algchess/internal/rule"
	"github.com/hailam/algchess/internal/server"
)

const pawnStep = "♙ + u. -> . + u♙"

// resetFlags puts every flag of the command tree back to its default so
// that package-level flag variables do not leak between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the CLI with a throwaway config and no database.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	base := []string{"--config", filepath.Join(t.TempDir(), "config.yaml"), "--no-storage", "--log-level", "error"}
	rootCmd.SetArgs(append(base, args...))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEvalCompact(t *testing.T) {
	out, _, err := run(t, "", "eval", pawnStep, "--compact", "../♙♙", "--format", "compact")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		pos, err := board.ParseCompact(line)
		require.NoError(t, err, line)
		assert.Len(t, pos.Pieces(), 2)
	}
}

func TestEvalText(t *testing.T) {
	out, _, err := run(t, "", "eval", pawnStep, "--compact", "../♙♙", "--diff")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "2 positions ("), out)
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "changed:")
}

func TestEvalGameJSON(t *testing.T) {
	out, _, err := run(t, "", "eval", "--game", "pawns", "--format", "json")
	require.NoError(t, err)

	var resp server.EvaluateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 8, resp.Count)
	assert.Len(t, resp.Results, 8)
	assert.False(t, resp.Cached)
}

func TestEvalRuleFileWithMacros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rule.txt")
	require.NoError(t, os.WriteFile(path, []byte("// one step up\nstep = " + pawnStep + "\nstep\n"), 0644))

	out, _, err := run(t, "", "eval", "-f", path, "-c", "../♙♙", "--format", "compact")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 2)
}

func TestEvalBoardFromStdin(t *testing.T) {
	out, _, err := run(t, "♟\n♖\n", "eval", "♖ + u♟ -> . + u♖", "--board", "-", "--format", "compact")
	require.NoError(t, err)
	assert.Equal(t, "♖/1\n", out)
}

func TestEvalPNGDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	_, stderr, err := run(t, "", "eval", pawnStep, "-c", "../♙♙", "--png-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "wrote 2 images")

	for _, name := range []string{"001.png", "002.png"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), name)
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		want   string
		target error
	}{
		{name: "no position", args: []string{"eval", pawnStep}, want: "no position"},
		{name: "no rule", args: []string{"eval", "-c", "♙"}, want: "no rule"},
		{name: "unknown game", args: []string{"eval", "-g", "go"}, want: "unknown game"},
		{name: "bad format", args: []string{"eval", pawnStep, "-c", "♙", "--format", "yaml"}, want: "unknown format"},
		{name: "syntax", args: []string{"eval", "♙ ->", "-c", "♙"}, target: rule.ErrSyntax},
		{name: "budget", args: []string{"eval", "(♖ + u. -> . + u♖)+", "-c", "1/1/1/♖", "--max-steps", "1"}, target: engine.ErrBudgetExceeded},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := run(t, "", tc.args...)
			require.Error(t, err)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			} else {
				assert.Contains(t, err.Error(), tc.want)
			}
		})
	}
}

func TestGames(t *testing.T) {
	out, _, err := run(t, "", "games")
	require.NoError(t, err)
	assert.Contains(t, out, "chess")
	assert.Contains(t, out, "pawns")

	out, _, err = run(t, "", "games", "show", "chess")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "chess: "), out)
	assert.Contains(t, out, "rule:")

	_, _, err = run(t, "", "games", "show", "go")
	assert.Error(t, err)

	_, _, err = run(t, "", "games", "stats")
	assert.EqualError(t, err, "storage is disabled")
}

func TestCheck(t *testing.T) {
	out, _, err := run(t, "", "check", pawnStep)
	require.NoError(t, err)
	assert.Contains(t, out, "arrows: 1")
	assert.Contains(t, out, "arrow ")

	out, _, err = run(t, "", "check", "(" + pawnStep + ")*")
	require.NoError(t, err)
	assert.Contains(t, out, "repeat 0..∞")

	_, _, err = run(t, "", "check", "% -> .")
	assert.Error(t, err)
}

func TestCheckGame(t *testing.T) {
	out, _, err := run(t, "", "check", "--game", "chess")
	require.NoError(t, err)
	assert.Contains(t, out, "alt")
}

func TestRender(t *testing.T) {
	dir := t.TempDir()

	png := filepath.Join(dir, "chess.png")
	_, _, err := run(t, "", "render", "--game", "chess", "-o", png, "--coords")
	require.NoError(t, err)
	data, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	svg := filepath.Join(dir, "rook.svg")
	_, _, err = run(t, "", "render", "-c", "♖2/3", "--mark", "0,1", "--mark", "2,0", "-o", svg)
	require.NoError(t, err)
	data, err = os.ReadFile(svg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	_, _, err = run(t, "", "render", "-c", "♖", "--mark", "x", "-o", svg)
	assert.Error(t, err)
}

func TestREPL(t *testing.T) {
	out, _, err := run(t, "go\npick 1\nquit\n", "repl", "--game", "pawns")
	require.NoError(t, err)
	assert.Contains(t, out, "8 positions")
	assert.Contains(t, out, "turn 1")
}

func TestParseCells(t *testing.T) {
	cells, err := parseCells([]string{"0,1", "-2,3"})
	require.NoError(t, err)
	assert.Equal(t, []board.Vec{{X: 0, Y: 1}, {X: -2, Y: 3}}, cells)

	_, err = parseCells([]string{"1"})
	assert.Error(t, err)
}

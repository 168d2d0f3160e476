package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hailam/algchess/internal/app"
	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/diagram"
)

var (
	renderPosition positionFlags
	renderOut      string
	renderCell     int
	renderCoords   bool
	renderMark     []string

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Draw a position as PNG or SVG",
		Example: `  algchess render --game chess -o chess.png --coords
  algchess render --compact '♖2/3' --mark 0,1 -o rook.svg`,
		Args: cobra.NoArgs,
		RunE: runRender,
	}
)

func init() {
	renderPosition.register(renderCmd)
	f := renderCmd.Flags()
	f.StringVarP(&renderOut, "out", "o", "position.png", "output file; a .svg suffix writes SVG")
	f.IntVar(&renderCell, "cell", 48, "cell size in pixels")
	f.BoolVar(&renderCoords, "coords", false, "label the axes")
	f.StringArrayVar(&renderMark, "mark", nil, "cells to outline as x,y (repeatable)")
}

func runRender(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, "cli", app.Options{NoStorage: true})
	if err != nil {
		return err
	}
	defer a.Close()

	pos, _, err := renderPosition.load(cmd, a.Book)
	if err != nil {
		return err
	}
	marks, err := parseCells(renderMark)
	if err != nil {
		return err
	}
	opts := diagram.Options{CellSize: renderCell, Highlight: marks, Coordinates: renderCoords}

	if strings.HasSuffix(strings.ToLower(renderOut), ".svg") {
		svg := diagram.BoardSVG(pos, opts)
		if err := os.WriteFile(renderOut, []byte(svg), 0644); err != nil {
			return errors.Wrapf(err, "write %s", renderOut)
		}
	} else if err := writePNG(renderOut, pos, opts); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "wrote", renderOut)
	return nil
}

// parseCells reads "x,y" pairs.
func parseCells(specs []string) ([]board.Vec, error) {
	out := make([]board.Vec, 0, len(specs))
	for _, s := range specs {
		var v board.Vec
		if _, err := fmt.Sscanf(s, "%d,%d", &v.X, &v.Y); err != nil {
			return nil, errors.Errorf("bad cell %q: want x,y", s)
		}
		out = append(out, v)
	}
	return out, nil
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/hailam/algchess/internal/app"
	"github.com/hailam/algchess/internal/server"
)

var (
	serveAddr  string
	serveDebug bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the evaluation API over HTTP",
		Long: `Starts the HTTP API:

  POST /v1/evaluate             evaluate a rule on a position
  GET  /v1/games                list the rule book
  GET  /v1/games/:name          one game with its expanded rule
  POST /v1/games/:name/moves    successors of a position in a game
  GET  /healthz                 liveness
  GET  /metrics                 Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "gin debug mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, "server", app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.Config.Server.Addr
	}
	h := server.NewHandlers(a.Engine, a.Book, a.Budget(), a.Log)
	router := server.NewRouter(h, a.Registry, serveDebug)
	return server.New(addr, router, a.Log).Run(cmd.Context())
}

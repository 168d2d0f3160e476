// algchess-gui browses the successor positions of a board-algebra game
// with Ebitengine.
package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/hailam/algchess/internal/app"
	"github.com/hailam/algchess/internal/config"
	"github.com/hailam/algchess/internal/ui"
)

var (
	configPath = flag.String("config", "", "config file (default: platform config dir)")
	gameName   = flag.String("game", "", "game to open (default: last played)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	a, err := app.Open(cfg, app.Options{Service: "gui"})
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	game, err := ui.NewGame(ui.Options{
		Engine:  a.Engine,
		Book:    a.Book,
		Storage: a.Storage,
		Game:    *gameName,
		Budget:  a.Budget(),
		Logger:  a.Log,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	ebiten.SetWindowSize(ui.ScreenWidth, ui.ScreenHeight)
	ebiten.SetWindowTitle("algchess")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}

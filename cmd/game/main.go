package main

import (
	"log"

	"github.com/glampert/heritage-builder-sub001/internal/game"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	ebiten.SetWindowTitle("Heritage Builder")
	ebiten.SetWindowSize(1280, 800)
	if err := ebiten.RunGame(game.New()); err != nil {
		log.Fatal(err)
	}
}

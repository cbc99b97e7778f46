package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/glampert/heritage-builder-sub001/internal/game"
)

func main() {
	var preset int
	var ticks int
	var seed int64
	var step float64
	var savePath string

	flag.IntVar(&preset, "preset", 0, "built-in map preset index")
	flag.IntVar(&ticks, "ticks", 6000, "simulation ticks to run")
	flag.Int64Var(&seed, "seed", 42, "RNG seed")
	flag.Float64Var(&step, "step", 1.0/60.0, "seconds per tick")
	flag.StringVar(&savePath, "save", "", "write a save file after the run")
	flag.Parse()

	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		os.Exit(1)
	}
	presets := game.BuiltinPresets()
	if preset < 0 || preset >= len(presets) {
		fmt.Printf("error: -preset must be 0..%d\n", len(presets)-1)
		os.Exit(1)
	}

	sim := game.NewSimulation(game.SimulationOptions{
		MapSize: presets[preset].Size,
		Seed:    seed,
	})
	if err := sim.LoadPreset(preset); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	fmt.Printf("=== Headless Settlement Run ===\n")
	fmt.Printf("preset=%q ticks=%d seed=%d step=%.4fs\n\n", presets[preset].Name, ticks, seed, step)

	for i := 0; i < ticks; i++ {
		sim.Update(step)
	}

	fmt.Print(game.BuildSettlementReport(sim))

	if savePath != "" {
		if err := sim.SaveToFile(savePath); err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		}
	}
}

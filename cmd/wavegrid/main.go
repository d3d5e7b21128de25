// Command wavegrid generates a tile grid from a YAML tileset and writes the
// resolved grid to a YAML file, optionally saving it to the level store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tilewright/wavegrid/internal/config"
	"github.com/tilewright/wavegrid/internal/levelstore"
	"github.com/tilewright/wavegrid/internal/logger"
	"github.com/tilewright/wavegrid/internal/wfc"
)

func main() {
	configFile := flag.String("config", "data/wavegrid.yaml", "Path to config YAML file")
	tilesetFile := flag.String("tileset", "", "Path to tileset YAML file (overrides config)")
	width := flag.Int("width", 0, "Grid width in cells (overrides config)")
	height := flag.Int("height", 0, "Grid height in cells (overrides config)")
	seed := flag.Int64("seed", 0, "Generation seed (default: random based on current time)")
	outFile := flag.String("out", "resolved.yaml", "Path to write the resolved grid")
	saveName := flag.String("save", "", "Save the resolved grid to the level store under this name")
	validate := flag.Bool("validate", false, "Re-check local consistency of the resolved grid")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	gen := cfg.Generator
	if *tilesetFile != "" {
		gen.Tileset = *tilesetFile
	}
	if *width > 0 {
		gen.Width = *width
	}
	if *height > 0 {
		gen.Height = *height
	}
	if *seed != 0 {
		gen.Seed = *seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, gen, cfg.Store, *outFile, *saveName, *validate); err != nil {
		logger.Error("generation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, gen config.GeneratorConfig, storeCfg levelstore.Config, outFile, saveName string, validate bool) error {
	tileset, err := wfc.LoadTileset(gen.Tileset)
	if err != nil {
		return err
	}
	logger.Info("tileset loaded", "path", gen.Tileset, "tiles", tileset.Palette.Len(), "anchors", len(tileset.Anchors))

	buffer, err := wfc.NewBuffer(wfc.Config{Width: gen.Width, Height: gen.Height, Seed: gen.Seed})
	if err != nil {
		return err
	}
	if err := tileset.Apply(buffer); err != nil {
		return err
	}

	start := time.Now()
	if err := buffer.Run(ctx); err != nil {
		var contradiction *wfc.ContradictionError
		if errors.As(err, &contradiction) {
			logger.Error("contradiction while collapsing",
				"cell", contradiction.Index,
				"resolved", len(contradiction.Snapshot)-buffer.Unresolved())
		}
		return err
	}
	logger.Info("grid collapsed",
		"width", gen.Width,
		"height", gen.Height,
		"duration_ms", time.Since(start).Milliseconds())

	if validate {
		if err := buffer.Validate(); err != nil {
			return err
		}
		logger.Info("local consistency verified")
	}

	cells, err := wfc.ExportResolved(buffer, tileset.Palette)
	if err != nil {
		return err
	}
	if err := wfc.WriteResolvedYAML(outFile, gen.Width, gen.Height, cells); err != nil {
		return err
	}
	logger.Info("resolved grid written", "path", outFile, "cells", len(cells))

	if saveName != "" {
		store, err := levelstore.Open(storeCfg)
		if err != nil {
			return err
		}
		defer store.Close()

		names := make([]string, len(cells))
		for i, c := range cells {
			names[i] = c.Tile
		}
		id, err := store.Save(saveName, gen.Seed, gen.Width, gen.Height, names)
		if err != nil {
			return err
		}
		logger.Info("level saved", "name", saveName, "id", id)
	}

	return nil
}

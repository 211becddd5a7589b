package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/mapty/internal/config"
	"github.com/claude/mapty/internal/kv"
	"github.com/claude/mapty/internal/tracker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	file := flag.String("file", "", "path to a JSON export of the browser's workouts key (required)")
	replace := flag.Bool("replace", false, "clear existing workouts before importing")
	dryRun := flag.Bool("dry-run", false, "report counts without writing to storage")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *file == "" {
		fmt.Fprintf(os.Stderr, "Usage: mapty-import -config config.yaml -file workouts.json [-replace] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Error("failed to read export", "path", *file, "error", err)
		os.Exit(1)
	}

	workouts, skipped, err := tracker.DecodeSnapshot(data)
	if err != nil {
		log.Error("export is not a workouts array", "error", err)
		os.Exit(1)
	}
	for _, sk := range skipped {
		log.Warn("skipping record", "index", sk.Index, "error", sk.Err)
	}

	if *dryRun {
		log.Info("dry run", "parsed", len(workouts), "skipped", len(skipped))
		return
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	backend, err := kv.Open(ctx, cfg.Storage, log)
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	store := tracker.Open(ctx, backend, log)
	if *replace {
		if err := store.Clear(ctx); err != nil {
			log.Error("clear failed", "error", err)
			os.Exit(1)
		}
	}

	var inserted, duplicated int
	for _, w := range workouts {
		err := store.Add(ctx, w)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, tracker.ErrDuplicateID):
			duplicated++
		default:
			log.Error("import failed", "id", w.ID, "error", err)
			os.Exit(1)
		}
	}

	log.Info("import stats",
		"parsed", len(workouts),
		"skipped", len(skipped),
		"inserted", inserted,
		"duplicated", duplicated,
		"total", store.Len(),
	)
	log.Info("import complete")
}

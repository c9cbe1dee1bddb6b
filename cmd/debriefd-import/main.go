package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/medsim-lab/debriefd/internal/analyzer"
	"github.com/medsim-lab/debriefd/internal/config"
	"github.com/medsim-lab/debriefd/internal/importer"
	"github.com/medsim-lab/debriefd/internal/store"
)

func main() {
	var (
		dir        = flag.String("dir", "", "directory of exported encounter files (.json / .jsonl)")
		singleFile = flag.String("file", "", "import a single file instead of a directory")
		rubricCode = flag.String("rubric", "", "rubric code for encounters that do not name one")
		dryRun     = flag.Bool("dry-run", false, "analyze and log without persisting")
	)
	flag.Parse()

	cfg := config.Load()

	handler := slog.NewJSONHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(handler))

	if *dir == "" && *singleFile == "" {
		slog.Error("either -dir or -file is required")
		os.Exit(1)
	}
	if *rubricCode == "" {
		*rubricCode = cfg.DefaultRubric
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Interrupts checkpoint state so the run can resume.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("interrupt received, stopping after current file")
		cancel()
	}()

	var db *store.Store
	if !*dryRun {
		if cfg.DatabaseURL == "" {
			slog.Error("DATABASE_URL is required unless -dry-run is set")
			os.Exit(1)
		}
		var err error
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	runner := importer.NewRunner(importer.Config{
		Dir:        *dir,
		SingleFile: *singleFile,
		RubricCode: *rubricCode,
		DryRun:     *dryRun,
	}, db, analyzer.New(), slog.Default())

	if err := runner.Run(ctx); err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
}

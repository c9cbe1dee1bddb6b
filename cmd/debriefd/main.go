package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/medsim-lab/debriefd/internal/analyzer"
	"github.com/medsim-lab/debriefd/internal/api"
	"github.com/medsim-lab/debriefd/internal/config"
	"github.com/medsim-lab/debriefd/internal/events"
	"github.com/medsim-lab/debriefd/internal/llmscore"
	"github.com/medsim-lab/debriefd/internal/openai"
	"github.com/medsim-lab/debriefd/internal/processor"
	"github.com/medsim-lab/debriefd/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("debriefd starting", "port", cfg.Port, "default_rubric", cfg.DefaultRubric)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Rule-based engine — always available.
	rules := analyzer.New()

	// LLM scorer (optional — rule-based analysis works without a model).
	var llm *llmscore.Scorer
	if cfg.OpenAIAPIKey != "" {
		client := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		llm = llmscore.New(client, slog.Default())
		slog.Info("llm scorer ready", "model", cfg.OpenAIModel)
	} else {
		slog.Warn("OPENAI_API_KEY not set — running rule-based analysis only")
	}

	// NATS
	eventsClient, err := events.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventsClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Processor — the main pipeline.
	proc := processor.New(db, rules, llm, eventsClient, slog.Default())

	if err := eventsClient.Subscribe(events.SubjectTranscriptStored, proc.HandleTranscriptStored); err != nil {
		slog.Error("failed to subscribe to transcript events", "error", err)
		os.Exit(1)
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, cfg.DefaultRubric, rules, llm, db)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("debriefd ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("debriefd stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

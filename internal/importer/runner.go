package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/medsim-lab/debriefd/internal/analyzer"
	"github.com/medsim-lab/debriefd/internal/events"
	"github.com/medsim-lab/debriefd/internal/llmscore"
	"github.com/medsim-lab/debriefd/internal/store"
)

// Config holds the import command configuration.
type Config struct {
	Dir        string // directory of exported encounter files
	SingleFile string // process a single file only
	RubricCode string // rubric for encounters that do not name one
	DryRun     bool   // analyze and log, but do not persist
}

// Runner walks exported encounter files and scores each one with the rule
// engine. Model-backed scoring stays with the service; imports are meant to
// be cheap and repeatable.
type Runner struct {
	cfg    Config
	store  *store.Store
	rules  *analyzer.Analyzer
	logger *slog.Logger
}

// NewRunner creates an import runner. store may be nil only in dry-run mode.
func NewRunner(cfg Config, s *store.Store, rules *analyzer.Analyzer, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		store:  s,
		rules:  rules,
		logger: logger,
	}
}

// Run executes the import. Progress is checkpointed so an interrupted run
// resumes where it left off.
func (r *Runner) Run(ctx context.Context) error {
	state, err := LoadState()
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	files, err := r.discoverFiles()
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}

	var pending []string
	for _, path := range files {
		if state.IsProcessed(path) {
			continue
		}
		pending = append(pending, path)
	}
	state.FilesRemaining = len(pending)

	r.logger.Info("import starting",
		"files_found", len(files),
		"files_pending", len(pending),
		"dry_run", r.cfg.DryRun,
	)

	for _, path := range pending {
		select {
		case <-ctx.Done():
			r.logger.Info("import interrupted, saving state")
			_ = state.Save()
			return ctx.Err()
		default:
		}

		encounters, err := r.parseFile(path)
		if err != nil {
			r.logger.Warn("failed to parse file", "path", path, "error", err)
			state.AddError(fmt.Sprintf("parse %s: %v", path, err))
			continue
		}

		for _, evt := range encounters {
			if err := r.scoreEncounter(ctx, evt); err != nil {
				r.logger.Warn("failed to score encounter",
					"path", path, "encounter_id", evt.EncounterID, "error", err)
				state.AddError(fmt.Sprintf("score %s: %v", evt.EncounterID, err))
				continue
			}
			state.EncountersScored++
		}

		state.MarkProcessed(path)
		state.FilesRemaining--
		if err := state.Save(); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}

	r.logger.Info("import finished",
		"encounters_scored", state.EncountersScored,
		"errors", len(state.Errors),
	)
	return nil
}

func (r *Runner) discoverFiles() ([]string, error) {
	if r.cfg.SingleFile != "" {
		return []string{r.cfg.SingleFile}, nil
	}

	entries, err := os.ReadDir(r.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", r.cfg.Dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".json" && ext != ".jsonl" {
			continue
		}
		files = append(files, filepath.Join(r.cfg.Dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (r *Runner) parseFile(path string) ([]events.TranscriptStored, error) {
	if strings.ToLower(filepath.Ext(path)) == ".jsonl" {
		return ParseEncounterLog(path)
	}
	evt, err := ParseEncounterFile(path)
	if err != nil {
		return nil, err
	}
	return []events.TranscriptStored{evt}, nil
}

func (r *Runner) scoreEncounter(ctx context.Context, evt events.TranscriptStored) error {
	rubricCode := evt.RubricCode
	if rubricCode == "" {
		rubricCode = r.cfg.RubricCode
	}

	text := evt.Transcript
	if len(evt.Segments) > 0 && len(evt.SpeakerMapping) > 0 {
		if filtered := llmscore.SupervisorText(evt.Segments, evt.SpeakerMapping); filtered != "" {
			text = filtered
		}
	}

	result := r.rules.Analyze(evt.EncounterID, text, rubricCode)

	if r.cfg.DryRun {
		r.logger.Info("scored (dry run)",
			"encounter_id", result.EncounterID,
			"total", result.Scores.Total,
			"scale", result.Scores.Scale,
		)
		return nil
	}

	id, err := r.store.WriteRuleEvaluation(ctx, evt.SupervisorID, evt.TraineeID, result)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	r.logger.Info("scored",
		"encounter_id", result.EncounterID,
		"evaluation_id", id,
		"total", result.Scores.Total,
		"scale", result.Scores.Scale,
	)
	return nil
}

// Package processor wires the analysis pipeline: transcript events in,
// persisted evaluations and analysis events out.
package processor

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/medsim-lab/debriefd/internal/analyzer"
	"github.com/medsim-lab/debriefd/internal/events"
	"github.com/medsim-lab/debriefd/internal/llmscore"
	"github.com/medsim-lab/debriefd/internal/store"
)

type Processor struct {
	store  *store.Store
	rules  *analyzer.Analyzer
	llm    *llmscore.Scorer // nil when no model is configured
	events *events.Client
	logger *slog.Logger
}

func New(s *store.Store, rules *analyzer.Analyzer, llm *llmscore.Scorer, ev *events.Client, logger *slog.Logger) *Processor {
	return &Processor{
		store:  s,
		rules:  rules,
		llm:    llm,
		events: ev,
		logger: logger,
	}
}

// HandleTranscriptStored is the NATS handler for debrief.transcript.stored.
// Every transcript gets a rule-based evaluation; the LLM evaluation is added
// when a model client is configured, and its failure does not block the
// rule-based result.
func (p *Processor) HandleTranscriptStored(subject string, data []byte) {
	ctx := context.Background()

	var evt events.TranscriptStored
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse transcript event", "error", err)
		return
	}
	if evt.EncounterID == "" {
		evt.EncounterID = uuid.New().String()
	}

	p.logger.Info("processing transcript",
		"encounter_id", evt.EncounterID,
		"rubric", evt.RubricCode,
		"transcript_len", len(evt.Transcript),
		"segments", len(evt.Segments),
	)

	// When a speaker mapping is available only supervisor speech is scored —
	// the rubric assesses the supervisor's feedback, not the trainee's case
	// presentation.
	text := evt.Transcript
	if len(evt.Segments) > 0 && len(evt.SpeakerMapping) > 0 {
		if filtered := llmscore.SupervisorText(evt.Segments, evt.SpeakerMapping); filtered != "" {
			text = filtered
		}
	}

	result := p.rules.Analyze(evt.EncounterID, text, evt.RubricCode)
	if _, err := p.store.WriteRuleEvaluation(ctx, evt.SupervisorID, evt.TraineeID, result); err != nil {
		p.logger.Error("failed to persist rule-based evaluation", "encounter_id", evt.EncounterID, "error", err)
		p.publishFailed(evt.EncounterID, "rules", err)
		return
	}

	if p.llm != nil {
		report, err := p.llm.Score(ctx, llmscore.Request{
			EncounterID:    evt.EncounterID,
			Transcript:     evt.Transcript,
			Language:       evt.Language,
			RubricCode:     evt.RubricCode,
			Segments:       evt.Segments,
			SpeakerMapping: evt.SpeakerMapping,
		})
		if err != nil {
			p.logger.Error("llm evaluation failed", "encounter_id", evt.EncounterID, "error", err)
			p.publishFailed(evt.EncounterID, "llm", err)
		} else if _, err := p.store.WriteLLMEvaluation(ctx, evt.SupervisorID, evt.TraineeID, report); err != nil {
			p.logger.Error("failed to persist llm evaluation", "encounter_id", evt.EncounterID, "error", err)
			p.publishFailed(evt.EncounterID, "llm", err)
		}
	}

	if err := p.events.Publish(events.SubjectAnalysisStored, map[string]any{
		"encounter_id": evt.EncounterID,
		"rubric_code":  result.RubricCode,
		"total":        result.Scores.Total,
		"scale":        result.Scores.Scale,
		"structure":    result.Structure,
	}); err != nil {
		p.logger.Error("failed to publish analysis stored", "encounter_id", evt.EncounterID, "error", err)
	}

	p.logger.Info("transcript processed",
		"encounter_id", evt.EncounterID,
		"total", result.Scores.Total,
		"has_opening", result.Structure.HasOpening,
		"has_core", result.Structure.HasCore,
		"has_closing", result.Structure.HasClosing,
	)
}

func (p *Processor) publishFailed(encounterID, engine string, cause error) {
	if err := p.events.Publish(events.SubjectAnalysisFailed, map[string]any{
		"encounter_id": encounterID,
		"engine":       engine,
		"error":        cause.Error(),
	}); err != nil {
		p.logger.Error("failed to publish analysis failed", "encounter_id", encounterID, "error", err)
	}
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medsim-lab/debriefd/internal/analyzer"
	"github.com/medsim-lab/debriefd/internal/llmscore"
)

// Evaluation is one persisted analysis result. Structure, scores, coaching
// and evidence are stored as JSON documents — their shape is
// rubric-dependent, and the store does not interpret them.
type Evaluation struct {
	ID           uuid.UUID       `json:"id"`
	EncounterID  string          `json:"encounter_id"`
	SupervisorID string          `json:"supervisor_id,omitempty"`
	TraineeID    string          `json:"trainee_id,omitempty"`
	RubricCode   string          `json:"rubric_code"`
	Engine       string          `json:"engine"` // "rules" or "llm"
	Total        int             `json:"total"`
	Scale        int             `json:"scale"`
	Structure    json.RawMessage `json:"structure"`
	Scores       json.RawMessage `json:"scores"`
	Coaching     json.RawMessage `json:"coaching"`
	Evidence     json.RawMessage `json:"evidence,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// WriteRuleEvaluation persists a rule-engine result.
func (s *Store) WriteRuleEvaluation(ctx context.Context, supervisorID, traineeID string, result analyzer.Result) (uuid.UUID, error) {
	structure, err := json.Marshal(result.Structure)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal structure: %w", err)
	}
	scores, err := json.Marshal(result.Scores)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal scores: %w", err)
	}
	coaching, err := json.Marshal(result.Coaching)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal coaching: %w", err)
	}

	return s.writeEvaluation(ctx, Evaluation{
		EncounterID:  result.EncounterID,
		SupervisorID: supervisorID,
		TraineeID:    traineeID,
		RubricCode:   result.RubricCode,
		Engine:       "rules",
		Total:        result.Scores.Total,
		Scale:        result.Scores.Scale,
		Structure:    structure,
		Scores:       scores,
		Coaching:     coaching,
	})
}

// WriteLLMEvaluation persists a model-backed report, evidence included.
func (s *Store) WriteLLMEvaluation(ctx context.Context, supervisorID, traineeID string, report *llmscore.Report) (uuid.UUID, error) {
	structure, err := json.Marshal(report.Structure)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal structure: %w", err)
	}
	scores, err := json.Marshal(report.Scores)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal scores: %w", err)
	}
	coaching, err := json.Marshal(report.Coaching)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal coaching: %w", err)
	}
	evidence, err := json.Marshal(report.Evidence)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal evidence: %w", err)
	}

	return s.writeEvaluation(ctx, Evaluation{
		EncounterID:  report.EncounterID,
		SupervisorID: supervisorID,
		TraineeID:    traineeID,
		RubricCode:   report.RubricCode,
		Engine:       "llm",
		Total:        report.Total,
		Scale:        report.Scale,
		Structure:    structure,
		Scores:       scores,
		Coaching:     coaching,
		Evidence:     evidence,
	})
}

func (s *Store) writeEvaluation(ctx context.Context, ev Evaluation) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO evaluations (id, encounter_id, supervisor_id, trainee_id, rubric_code, engine, total, scale, structure, scores, coaching, evidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())`,
		id, ev.EncounterID, ev.SupervisorID, ev.TraineeID, ev.RubricCode, ev.Engine,
		ev.Total, ev.Scale, ev.Structure, ev.Scores, ev.Coaching, ev.Evidence,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert evaluation: %w", err)
	}
	return id, nil
}

// ListEvaluations returns all stored evaluations for an encounter, newest
// first. An encounter can carry several rows (rule-based and LLM engines).
func (s *Store) ListEvaluations(ctx context.Context, encounterID string) ([]Evaluation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, encounter_id, supervisor_id, trainee_id, rubric_code, engine, total, scale, structure, scores, coaching, evidence, created_at
		FROM evaluations
		WHERE encounter_id = $1
		ORDER BY created_at DESC`,
		encounterID,
	)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var evals []Evaluation
	for rows.Next() {
		var ev Evaluation
		if err := rows.Scan(
			&ev.ID, &ev.EncounterID, &ev.SupervisorID, &ev.TraineeID, &ev.RubricCode, &ev.Engine,
			&ev.Total, &ev.Scale, &ev.Structure, &ev.Scores, &ev.Coaching, &ev.Evidence, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan evaluation row: %w", err)
		}
		evals = append(evals, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluation rows: %w", err)
	}
	return evals, nil
}

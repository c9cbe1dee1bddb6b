package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CoachEval records how helpful a coaching report was (1–5 Likert), with
// optional checkboxes for which sections helped. Used later for model and
// prompt release decisions.
type CoachEval struct {
	ID           uuid.UUID
	EncounterID  string
	SupervisorID string
	TraineeID    string
	ScenarioCode string
	RubricCode   string
	ModelVersion string
	HelpfulScore int
	HelpfulFlags []string
	Comment      string
	CreatedAt    time.Time
}

// CoachMemo stores the coaching report sections a user chose to keep.
type CoachMemo struct {
	ID            uuid.UUID
	EncounterID   string
	SupervisorID  string
	TraineeID     string
	ScenarioCode  string
	RubricCode    string
	ModelVersion  string
	SavedSections map[string]string
	Note          string
	CreatedAt     time.Time
}

func (s *Store) WriteCoachEval(ctx context.Context, ce CoachEval) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO coach_evals (id, encounter_id, supervisor_id, trainee_id, scenario_code, rubric_code, model_version, helpful_score, helpful_flags, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())`,
		id, ce.EncounterID, ce.SupervisorID, ce.TraineeID, ce.ScenarioCode, ce.RubricCode,
		ce.ModelVersion, ce.HelpfulScore, ce.HelpfulFlags, ce.Comment,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert coach eval: %w", err)
	}
	return id, nil
}

func (s *Store) WriteCoachMemo(ctx context.Context, cm CoachMemo) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO coach_memos (id, encounter_id, supervisor_id, trainee_id, scenario_code, rubric_code, model_version, saved_sections, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`,
		id, cm.EncounterID, cm.SupervisorID, cm.TraineeID, cm.ScenarioCode, cm.RubricCode,
		cm.ModelVersion, cm.SavedSections, cm.Note,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert coach memo: %w", err)
	}
	return id, nil
}

package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medsim-lab/debriefd/internal/llmscore"
	"github.com/medsim-lab/debriefd/internal/store"
)

// FeedbackRequest is the payload for both analysis endpoints. Transcript is
// required; segments plus a speaker mapping let the rule-based path restrict
// scoring to supervisor speech.
type FeedbackRequest struct {
	EncounterID    string             `json:"encounter_id,omitempty"`
	SupervisorID   string             `json:"supervisor_id,omitempty"`
	TraineeID      string             `json:"trainee_id,omitempty"`
	Transcript     string             `json:"transcript"`
	TraineeLevel   string             `json:"trainee_level,omitempty"`
	Language       string             `json:"language,omitempty"`
	RubricCode     string             `json:"rubric_code,omitempty"`
	Context        *llmscore.Context  `json:"context,omitempty"`
	Segments       []llmscore.Segment `json:"segments,omitempty"`
	SpeakerMapping map[string]string  `json:"speaker_mapping,omitempty"`
}

// analyzeFeedback handles POST /api/v1/feedback — the deterministic
// rule-based engine. It never fails on content: empty transcripts get the
// defined baseline result.
func (s *Server) analyzeFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.RubricCode == "" {
		req.RubricCode = s.defaultRubric
	}

	text := req.Transcript
	if len(req.Segments) > 0 && len(req.SpeakerMapping) > 0 {
		if filtered := llmscore.SupervisorText(req.Segments, req.SpeakerMapping); filtered != "" {
			text = filtered
		}
	}

	result := s.rules.Analyze(req.EncounterID, text, req.RubricCode)

	if s.db != nil {
		if _, err := s.db.WriteRuleEvaluation(r.Context(), req.SupervisorID, req.TraineeID, result); err != nil {
			slog.Error("failed to persist evaluation", "encounter_id", req.EncounterID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// analyzeFeedbackLLM handles POST /api/v1/feedback/llm — the model-backed
// variant. Unlike the rule engine this path can fail (network, model JSON).
func (s *Server) analyzeFeedbackLLM(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil {
		writeError(w, http.StatusServiceUnavailable, "llm scoring is not configured")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.RubricCode == "" {
		req.RubricCode = s.defaultRubric
	}

	report, err := s.llm.Score(r.Context(), llmscore.Request{
		EncounterID:    req.EncounterID,
		Transcript:     req.Transcript,
		TraineeLevel:   req.TraineeLevel,
		Language:       req.Language,
		RubricCode:     req.RubricCode,
		Context:        req.Context,
		Segments:       req.Segments,
		SpeakerMapping: req.SpeakerMapping,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("llm analysis failed: %v", err))
		return
	}

	if s.db != nil {
		if _, err := s.db.WriteLLMEvaluation(r.Context(), req.SupervisorID, req.TraineeID, report); err != nil {
			slog.Error("failed to persist llm evaluation", "encounter_id", req.EncounterID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, report)
}

// CoachEvalRequest rates how helpful a coaching report was.
type CoachEvalRequest struct {
	EncounterID  string   `json:"encounter_id"`
	SupervisorID string   `json:"supervisor_id,omitempty"`
	TraineeID    string   `json:"trainee_id,omitempty"`
	ScenarioCode string   `json:"scenario_code,omitempty"`
	RubricCode   string   `json:"rubric_code,omitempty"`
	ModelVersion string   `json:"model_version,omitempty"`
	HelpfulScore int      `json:"helpful_score"`
	HelpfulFlags []string `json:"helpful_flags,omitempty"`
	Comment      string   `json:"comment,omitempty"`
}

func (s *Server) saveCoachEval(w http.ResponseWriter, r *http.Request) {
	var req CoachEvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.EncounterID == "" {
		writeError(w, http.StatusBadRequest, "encounter_id is required")
		return
	}
	if req.HelpfulScore < 1 || req.HelpfulScore > 5 {
		writeError(w, http.StatusBadRequest, "helpful_score must be between 1 and 5")
		return
	}
	if req.ScenarioCode == "" {
		req.ScenarioCode = "EM_DEBRIEF"
	}
	if req.RubricCode == "" {
		req.RubricCode = s.defaultRubric
	}

	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	id, err := s.db.WriteCoachEval(r.Context(), store.CoachEval{
		EncounterID:  req.EncounterID,
		SupervisorID: req.SupervisorID,
		TraineeID:    req.TraineeID,
		ScenarioCode: req.ScenarioCode,
		RubricCode:   req.RubricCode,
		ModelVersion: req.ModelVersion,
		HelpfulScore: req.HelpfulScore,
		HelpfulFlags: req.HelpfulFlags,
		Comment:      req.Comment,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save coach evaluation: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "id": id.String()})
}

// CoachMemoRequest stores report sections the user chose to keep.
type CoachMemoRequest struct {
	EncounterID   string            `json:"encounter_id"`
	SupervisorID  string            `json:"supervisor_id,omitempty"`
	TraineeID     string            `json:"trainee_id,omitempty"`
	ScenarioCode  string            `json:"scenario_code,omitempty"`
	RubricCode    string            `json:"rubric_code,omitempty"`
	ModelVersion  string            `json:"model_version,omitempty"`
	SavedSections map[string]string `json:"saved_sections"`
	Note          string            `json:"note,omitempty"`
}

func (s *Server) saveCoachMemo(w http.ResponseWriter, r *http.Request) {
	var req CoachMemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.EncounterID == "" {
		writeError(w, http.StatusBadRequest, "encounter_id is required")
		return
	}
	if len(req.SavedSections) == 0 {
		writeError(w, http.StatusBadRequest, "saved_sections must not be empty")
		return
	}
	if req.ScenarioCode == "" {
		req.ScenarioCode = "EM_DEBRIEF"
	}
	if req.RubricCode == "" {
		req.RubricCode = s.defaultRubric
	}

	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	id, err := s.db.WriteCoachMemo(r.Context(), store.CoachMemo{
		EncounterID:   req.EncounterID,
		SupervisorID:  req.SupervisorID,
		TraineeID:     req.TraineeID,
		ScenarioCode:  req.ScenarioCode,
		RubricCode:    req.RubricCode,
		ModelVersion:  req.ModelVersion,
		SavedSections: req.SavedSections,
		Note:          req.Note,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save coach memo: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "id": id.String()})
}

func (s *Server) listEvaluations(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	encounterID := chi.URLParam(r, "encounterID")

	evals, err := s.db.ListEvaluations(r.Context(), encounterID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list evaluations: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"encounter_id": encounterID,
		"evaluations":  evals,
		"count":        len(evals),
	})
}

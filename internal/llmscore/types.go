package llmscore

// Segment is one speaker-tagged, timestamped fragment of transcript from the
// upstream transcription service.
type Segment struct {
	Speaker string   `json:"speaker"`
	Start   *float64 `json:"start,omitempty"`
	End     *float64 `json:"end,omitempty"`
	Text    string   `json:"text"`
}

// Context carries optional case information alongside a request.
type Context struct {
	Case     string `json:"case,omitempty"`
	Language string `json:"language,omitempty"`
	Note     string `json:"note,omitempty"`
}

// RoleSupervisor is the role label the speaker mapping uses for the
// debriefing supervisor. Scoring is anchored on supervisor utterances.
const RoleSupervisor = "지도전문의"

// Request describes one LLM-backed analysis call.
type Request struct {
	EncounterID    string            `json:"encounter_id,omitempty"`
	Transcript     string            `json:"transcript"`
	TraineeLevel   string            `json:"trainee_level,omitempty"`
	Language       string            `json:"language,omitempty"`
	RubricCode     string            `json:"rubric_code,omitempty"`
	Context        *Context          `json:"context,omitempty"`
	Segments       []Segment         `json:"segments,omitempty"`
	SpeakerMapping map[string]string `json:"speaker_mapping,omitempty"`
}

// Structure mirrors the rule engine's phase flags as judged by the model.
type Structure struct {
	HasOpening bool `json:"has_opening"`
	HasCore    bool `json:"has_core"`
	HasClosing bool `json:"has_closing"`
}

// Coaching is the model-written guidance block.
type Coaching struct {
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements_top3"`
	ScriptNextTime string   `json:"script_next_time"`
	MicroHabit     string   `json:"micro_habit_10sec"`
}

// Report is the reshaped model reply. Scores is keyed by dimension name in
// the rubric's order plus the computed total and fixed scale; Evidence maps
// dimensions to the segment indices that justify each score.
type Report struct {
	EncounterID string           `json:"encounter_id,omitempty"`
	RubricCode  string           `json:"rubric_code"`
	Scores      map[string]int   `json:"scores"`
	Total       int              `json:"total"`
	Scale       int              `json:"scale"`
	Structure   Structure        `json:"structure"`
	Coaching    Coaching         `json:"coach"`
	Evidence    map[string][]int `json:"evidence"`
}

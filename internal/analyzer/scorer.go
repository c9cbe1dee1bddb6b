package analyzer

import (
	"strings"

	"github.com/medsim-lab/debriefd/internal/rubric"
)

// Scores holds the nine OSAD dimension scores plus the computed total and
// the rubric's fixed scale. Every dimension is an integer in [1,5].
type Scores struct {
	Approach    int `json:"approach"`     // rapport / attitude
	LearningEnv int `json:"learning_env"` // psychological safety
	Engagement  int `json:"engagement"`   // participation
	Reaction    int `json:"reaction"`     // emotional processing
	Reflection  int `json:"reflection"`   // self-examination prompting
	Analysis    int `json:"analysis"`     // specificity of observation
	Diagnosis   int `json:"diagnosis"`    // depth of cause reasoning
	Application int `json:"application"`  // forward-looking action
	Summary     int `json:"summary"`      // closure / synthesis
	Total       int `json:"total"`
	Scale       int `json:"scale"`
}

// signals are transcript-level booleans computed once per analysis and
// shared by the scorer and the coaching generator.
type signals struct {
	hasSummary     bool
	hasNext        bool
	hasQuestion    bool
	hasSpecificity bool
}

func detectSignals(transcript string) signals {
	return signals{
		hasSummary:     matchAny(transcript, summarySignals),
		hasNext:        matchAny(transcript, nextSignals),
		hasQuestion:    strings.Contains(transcript, "?") || matchAny(transcript, questionSignals),
		hasSpecificity: matchAny(transcript, specificitySignals),
	}
}

// scoreOSAD derives the nine OSAD dimension scores from the structure flags
// and transcript-level signals. Scoring starts from fixed baselines
// (approach 3, everything else 2), applies the increment rules in order,
// then clamps each dimension to [1,5] and sums the total.
//
// Reaction has no increment rule and always lands on its baseline. That gap
// is deliberate — the heuristic has no lexical cue for emotional processing
// yet, and the baseline is the defined behavior.
func scoreOSAD(flags StructureFlags, sig signals) Scores {
	s := Scores{
		Approach:    3,
		LearningEnv: 2,
		Engagement:  2,
		Reaction:    2,
		Reflection:  2,
		Analysis:    2,
		Diagnosis:   2,
		Application: 2,
		Summary:     2,
	}

	if sig.hasQuestion {
		s.Engagement++
		s.Reflection++
	}
	if flags.HasOpening {
		s.Engagement++
		s.LearningEnv++
	}
	if sig.hasSpecificity {
		s.Analysis++
	}
	if flags.HasCore {
		s.Analysis++
		s.Diagnosis++
	}
	if sig.hasSummary {
		s.Summary++
	}
	if sig.hasNext {
		s.Summary++
		s.Application++
	}
	if flags.HasClosing {
		s.Summary++
		s.Application++
	}

	s.Approach = clampScore(s.Approach)
	s.LearningEnv = clampScore(s.LearningEnv)
	s.Engagement = clampScore(s.Engagement)
	s.Reaction = clampScore(s.Reaction)
	s.Reflection = clampScore(s.Reflection)
	s.Analysis = clampScore(s.Analysis)
	s.Diagnosis = clampScore(s.Diagnosis)
	s.Application = clampScore(s.Application)
	s.Summary = clampScore(s.Summary)

	s.Total = s.Approach + s.LearningEnv + s.Engagement + s.Reaction +
		s.Reflection + s.Analysis + s.Diagnosis + s.Application + s.Summary
	s.Scale = rubric.OSAD.Scale
	return s
}

func clampScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

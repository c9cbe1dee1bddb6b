// Package analyzer is the rule-based assessment engine. It scores a
// transcribed supervisor–trainee debriefing against the OSAD rubric using
// deterministic keyword heuristics: no model calls, no state, the same
// transcript always produces the same result.
//
// The engine is total — every input, including empty strings and pure
// punctuation, has a defined output. Unknown rubric codes fall back to the
// default rubric instead of failing.
package analyzer

import (
	"strings"

	"github.com/medsim-lab/debriefd/internal/rubric"
)

// Result is one complete assessment of a transcript.
type Result struct {
	EncounterID string         `json:"encounter_id,omitempty"`
	RubricCode  string         `json:"rubric_code"`
	Structure   StructureFlags `json:"structure"`
	Scores      Scores         `json:"osad"`
	Coaching    CoachingReport `json:"coach"`
}

// Analyzer runs rule-based assessments. The zero value is not usable; call
// New. Safe for concurrent use — it holds only immutable pattern data.
type Analyzer struct {
	patterns PatternSet
}

func New() *Analyzer {
	return &Analyzer{patterns: defaultPatterns}
}

// Analyze assesses a transcript. encounterID is an opaque caller identifier
// passed through to the result. rubricCode selects the rubric; empty or
// unknown codes use the default. The rule engine itself scores OSAD only —
// that is the rubric the keyword heuristics were built for.
func (a *Analyzer) Analyze(encounterID, transcript, rubricCode string) Result {
	rb := rubric.Lookup(rubricCode)
	if rb.Code != rubric.CodeOSAD {
		// The keyword heuristics only exist for OSAD. Other rubrics are
		// served by the LLM path; here they fall back rather than fail.
		rb = rubric.OSAD
	}

	transcript = strings.TrimSpace(transcript)
	sentences := splitSentences(transcript)

	flags := classifyStructure(sentences, a.patterns)
	sig := detectSignals(transcript)
	scores := scoreOSAD(flags, sig)
	coaching := buildCoaching(scores, flags, sig)

	return Result{
		EncounterID: encounterID,
		RubricCode:  rb.Code,
		Structure:   flags,
		Scores:      scores,
		Coaching:    coaching,
	}
}

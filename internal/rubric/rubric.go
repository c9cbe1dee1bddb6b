// Package rubric defines the assessment rubrics debriefd can score against.
//
// A rubric is a fixed, ordered list of named dimensions, each scored on a
// 1..5 scale. The scale (maximum total) is a constant of the rubric, never
// recomputed from individual scores.
package rubric

// Rubric codes.
const (
	CodeOSAD = "OSAD_9DIM"
	CodeOMP  = "OMP_5DIM"
)

// DefaultCode is used when a caller supplies an empty or unknown rubric code.
const DefaultCode = CodeOSAD

// Rubric describes one assessment scale.
type Rubric struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Dimensions   []string `json:"dimensions"` // order is part of the contract
	MaxItemScore int      `json:"max_item_score"`
	Scale        int      `json:"scale"` // fixed maximum total
}

// OSAD is the Objective Structured Assessment of Debriefing, 9 dimensions,
// scale 45. This is the only rubric the rule-based analyzer supports.
var OSAD = Rubric{
	Code: CodeOSAD,
	Name: "Objective Structured Assessment of Debriefing",
	Dimensions: []string{
		"approach",
		"learning_env",
		"engagement",
		"reaction",
		"reflection",
		"analysis",
		"diagnosis",
		"application",
		"summary",
	},
	MaxItemScore: 5,
	Scale:        45,
}

// OMP is the One-Minute Preceptor microskills rubric, 5 dimensions, scale 25.
// Only the LLM-backed scoring path supports it.
var OMP = Rubric{
	Code: CodeOMP,
	Name: "One-Minute Preceptor",
	Dimensions: []string{
		"commitment",
		"probing",
		"teaching",
		"reinforcement",
		"correction",
	},
	MaxItemScore: 5,
	Scale:        25,
}

// Lookup resolves a rubric code. Unknown or empty codes fall back to OSAD
// rather than failing — callers always get a usable rubric.
func Lookup(code string) Rubric {
	switch code {
	case CodeOSAD:
		return OSAD
	case CodeOMP:
		return OMP
	default:
		return OSAD
	}
}

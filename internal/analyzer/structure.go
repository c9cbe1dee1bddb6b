package analyzer

import "strings"

// StructureFlags records which phases of a debriefing conversation were
// detected. The three flags are independent — any combination can occur.
type StructureFlags struct {
	HasOpening bool `json:"has_opening"`
	HasCore    bool `json:"has_core"`
	HasClosing bool `json:"has_closing"`
}

// classifyStructure runs the three phase detectors over the sentence
// sequence. Each detector tries a strict positional rule first and falls
// back to a relaxed transcript-wide rule only when the strict one misses.
// An empty sentence sequence yields all-false flags.
func classifyStructure(sentences []string, p PatternSet) StructureFlags {
	if len(sentences) == 0 {
		return StructureFlags{}
	}
	return StructureFlags{
		HasOpening: detectOpening(sentences, p),
		HasCore:    detectCore(sentences, p),
		HasClosing: detectClosing(sentences, p),
	}
}

// detectOpening looks for the supervisor inviting the trainee's view.
//
// Strict: one of the first two sentences carries a sequencing marker and is
// (or contains) a question; or any sentence is a question phrased with an
// opinion-seeking expression. Relaxed: any question mark, or any opening
// phrase anywhere.
func detectOpening(sentences []string, p PatternSet) bool {
	head := sentences
	if len(head) > 2 {
		head = head[:2]
	}
	for _, s := range head {
		if matchAny(s, p.OpeningFirst) && (strings.Contains(s, "?") || matchAny(s, p.OpeningQuestion)) {
			return true
		}
	}
	for _, s := range sentences {
		if strings.Contains(s, "?") && matchAny(s, p.OpeningQuestion) {
			return true
		}
	}

	// Relaxed fallback.
	for _, s := range sentences {
		if strings.Contains(s, "?") {
			return true
		}
		if matchAny(s, p.OpeningQuestion) || matchAny(s, p.OpeningFirst) {
			return true
		}
	}
	return false
}

// detectCore looks for observation-plus-consequence feedback. Strict rules
// are checked sentence by sentence in order, first match wins:
// observation and reason in one sentence; observation followed immediately
// by a reason sentence; or observation paired with a positive appraisal.
// Relaxed: an observation anywhere plus a reason or appraisal anywhere.
func detectCore(sentences []string, p PatternSet) bool {
	for i, s := range sentences {
		if !matchAny(s, p.CoreObservation) {
			continue
		}
		if matchAny(s, p.CoreReason) {
			return true
		}
		if i+1 < len(sentences) && matchAny(sentences[i+1], p.CoreReason) {
			return true
		}
		if matchAny(s, p.Evaluation) {
			return true
		}
	}

	// Relaxed fallback.
	var observed, reasoned, appraised bool
	for _, s := range sentences {
		if matchAny(s, p.CoreObservation) {
			observed = true
		}
		if matchAny(s, p.CoreReason) {
			reasoned = true
		}
		if matchAny(s, p.Evaluation) {
			appraised = true
		}
	}
	return observed && (reasoned || appraised)
}

// detectClosing looks for a wrap-up. Strict: a summary or next-step marker
// within the last two sentences. Relaxed: such a marker anywhere, or a
// suggestion-style ending on the final sentence.
func detectClosing(sentences []string, p PatternSet) bool {
	tail := sentences
	if len(tail) > 2 {
		tail = tail[len(tail)-2:]
	}
	for _, s := range tail {
		if matchAny(s, p.ClosingSummary) || matchAny(s, p.ClosingNext) {
			return true
		}
	}

	// Relaxed fallback.
	for _, s := range sentences {
		if matchAny(s, p.ClosingSummary) || matchAny(s, p.ClosingNext) {
			return true
		}
	}
	return matchAny(sentences[len(sentences)-1], p.ClosingTail)
}

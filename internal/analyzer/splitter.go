package analyzer

import (
	"regexp"
	"strings"
)

// A sentence ends at a run of terminal punctuation plus any trailing
// whitespace. The run is kept attached to its sentence so downstream checks
// ("does this sentence contain ?") still see it; treating the whole run as
// one boundary keeps "어땠어?!" from producing a phantom second sentence.
var sentenceBoundary = regexp.MustCompile(`[.!?]+\s*`)

// splitSentences segments transcript text into ordered sentence-like units.
// The split is literal, with no disambiguation of abbreviations or decimal
// numbers. Fragments that are empty after trimming are dropped, so the
// result never contains whitespace-only entries. An empty or whitespace-only
// transcript yields nil.
func splitSentences(transcript string) []string {
	var sentences []string
	prev := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(transcript, -1) {
		chunk := transcript[prev:loc[1]]
		prev = loc[1]
		if s := trimFragment(chunk); s != "" {
			sentences = append(sentences, s)
		}
	}
	// Trailing text with no terminator is still a sentence.
	if s := trimFragment(transcript[prev:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// trimFragment trims surrounding whitespace and discards fragments that hold
// nothing but terminator punctuation (a transcript of "..." has no
// sentences). The returned sentence keeps its own terminator.
func trimFragment(chunk string) string {
	s := strings.TrimSpace(chunk)
	if strings.Trim(s, ".!?") == "" {
		return ""
	}
	return s
}

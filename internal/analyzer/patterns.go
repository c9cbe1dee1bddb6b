package analyzer

import "strings"

// PatternSet groups the curated Korean phrase lists the classifier matches
// against, keyed by role. The lists are lexical rules, not hints: detection
// behavior is defined by these exact literals, so changing an entry changes
// the classifier's contract.
type PatternSet struct {
	OpeningQuestion []string
	OpeningFirst    []string
	CoreObservation []string
	CoreReason      []string
	Evaluation      []string
	ClosingSummary  []string
	ClosingNext     []string
	ClosingTail     []string
}

// defaultPatterns is tuned for Korean supervisor–trainee debriefings.
var defaultPatterns = PatternSet{
	// Asking the trainee's opinion, feeling, or reasoning.
	OpeningQuestion: []string{
		"생각은", "생각해", "어때", "어땠", "어떻게 판단", "어떻게 느꼈",
		"왜 그렇게", "왜 그랬", "설명해", "설명해볼래", "말해볼래",
	},
	// Sequencing markers that open a debrief.
	OpeningFirst: []string{"먼저", "처음에", "우선", "일단"},
	// Direct-observation framing.
	CoreObservation: []string{
		"했을 때", "하는 걸 보니까", "하는 것을 보니까", "내가 보기에",
		"내가 봤을 때", "네가 ", "환자에게 설명할 때", "설명했을 때",
	},
	// Causal or result framing.
	CoreReason: []string{
		"그래서", "그 결과", "때문에", "영향을 줬", "보였어", "좋아졌어",
		"나빠졌어", "좋았어", "좋았다고", "잘했어", "잘했다고", "아쉬웠어",
		"아쉬운 점", "문제였어", "문제가 있었", "위험했어", "위험할 수 있었",
	},
	// Generic positive appraisal.
	Evaluation: []string{
		"좋았어", "좋았다고", "잘했", "괜찮았", "인상적이었", "도움이 되었", "도움이 됐",
	},
	// Summary markers.
	ClosingSummary: []string{"정리하면", "요약하자면", "한마디로", "중요한 건"},
	// Next-step markers.
	ClosingNext: []string{
		"다음엔", "다음에는", "다음에", "다음 단계", "해보자", "하면 좋겠어", "해보면 좋겠다",
	},
	// Suggestion/directive endings, checked only on the final sentence.
	ClosingTail: []string{"보자", "해봐", "해보면", "해보는 게", "해야", "하도록 하자"},
}

// Transcript-level signal keywords for the scorer.
var (
	summarySignals     = []string{"요약", "정리하면", "핵심은", "한마디로"}
	nextSignals        = []string{"다음엔", "다음에는", "계획은", "다음 단계", "다음 행동"}
	questionSignals    = []string{"어땠", "생각은", "어떻게", "왜", "무엇이"}
	specificitySignals = []string{"했을 때", "그래서", "그 결과", "때문에", "관찰"}
)

// matchAny reports whether any pattern occurs as a substring of text.
// Case-sensitive, no normalization, no word boundaries.
func matchAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

package analyzer

// CoachingReport is the free-text guidance derived from the scores and
// structure flags. Strengths hold at most two entries, improvements at most
// three, both in a fixed priority order.
type CoachingReport struct {
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements_top3"`
	ScriptNextTime string   `json:"script_next_time"`
	MicroHabit     string   `json:"micro_habit_10sec"`
}

const (
	scriptNextTime = "다음 피드백에서는 '관찰 → 영향 → 대안' 순서로 말해 보세요. " +
		"예: \"아까 네가 환자에게 설명했을 때(관찰), 환자가 조금 불안해 보였어(영향). " +
		"다음엔 먼저 안심시키는 한마디를 하고 설명을 시작해 보자(대안).\""

	microHabit = "대화를 끝내기 전 10초, '정리하면'으로 시작하는 한 문장 요약과 " +
		"다음에 시도할 행동 한 가지를 말하는 습관을 들여 보세요."
)

// buildCoaching assembles the coaching report. Strength and improvement
// selection order is fixed; only which triggers fire depends on the input.
func buildCoaching(scores Scores, flags StructureFlags, sig signals) CoachingReport {
	var strengths []string

	if scores.Engagement >= 4 {
		strengths = append(strengths, "전공의가 대화에 적극적으로 참여하도록 잘 이끌었습니다.")
	}
	if len(strengths) < 2 && scores.Summary >= 4 && scores.Application >= 4 {
		strengths = append(strengths, "핵심 정리와 다음 행동 제시로 대화를 잘 마무리했습니다.")
	}
	if len(strengths) < 2 && scores.Analysis >= 4 {
		strengths = append(strengths, "구체적인 관찰에 근거해 깊이 있게 분석했습니다.")
	}
	if len(strengths) < 2 && scores.LearningEnv >= 4 {
		strengths = append(strengths, "전공의가 편하게 말할 수 있는 분위기를 만들었습니다.")
	}

	// Fallback tier — only when no score-based strength fired.
	if len(strengths) == 0 {
		switch {
		case sig.hasQuestion:
			strengths = append(strengths, "질문으로 전공의의 생각을 끌어내려는 시도가 좋았습니다.")
		case flags.HasOpening:
			strengths = append(strengths, "대화를 전공의의 생각을 묻는 질문으로 시작한 점이 좋았습니다.")
		case flags.HasClosing:
			strengths = append(strengths, "대화를 정리하며 마무리한 점이 좋았습니다.")
		default:
			strengths = append(strengths, "전공의를 존중하는 태도로 대화에 임했습니다.")
		}
	}
	if len(strengths) > 2 {
		strengths = strengths[:2]
	}

	var improvements []string
	if scores.Engagement <= 3 || !flags.HasOpening {
		improvements = append(improvements,
			"피드백을 시작할 때 먼저 \"네 생각은 어땠어?\" 같은 질문으로 전공의의 관점을 물어보세요.")
	}
	if scores.Analysis <= 3 || !flags.HasCore || !sig.hasSpecificity {
		improvements = append(improvements,
			"관찰한 행동을 한 가지 구체적으로 짚어 주세요. 예: \"네가 ~했을 때 ~했어\" 형태의 문장.")
	}
	if scores.Summary <= 3 || scores.Application <= 3 || !flags.HasClosing {
		improvements = append(improvements,
			"마지막 20초는 핵심 요약과 다음에 시도할 행동 한 가지로 마무리해 보세요.")
	}
	if !sig.hasQuestion {
		improvements = append(improvements,
			"대화 중 전공의의 생각을 묻는 성찰 질문을 두 번 이상 던져 보세요.")
	}
	if !sig.hasSummary {
		improvements = append(improvements,
			"\"정리하면\"으로 시작하는 한 문장 요약을 연습해 보세요.")
	}
	if !sig.hasNext {
		improvements = append(improvements,
			"다음 진료에서 시도할 구체적인 행동 한 가지를 전공의와 함께 정해 보세요.")
	}
	if len(improvements) > 3 {
		improvements = improvements[:3]
	}

	return CoachingReport{
		Strengths:      strengths,
		Improvements:   improvements,
		ScriptNextTime: scriptNextTime,
		MicroHabit:     microHabit,
	}
}

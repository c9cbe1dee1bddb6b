// Package llmscore is the model-backed scoring variant. Unlike the rule
// engine it supports every registered rubric, but it only forwards the
// transcript to a completion service and reshapes the JSON reply — all
// judgment lives in the model.
package llmscore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/medsim-lab/debriefd/internal/openai"
	"github.com/medsim-lab/debriefd/internal/rubric"
)

type completer interface {
	CompleteJSON(ctx context.Context, system string, messages []openai.Message) (string, error)
}

type Scorer struct {
	llm    completer
	logger *slog.Logger
}

func New(llm completer, logger *slog.Logger) *Scorer {
	return &Scorer{llm: llm, logger: logger}
}

// modelReply is the raw shape the model is asked to produce.
type modelReply struct {
	Scores    map[string]int   `json:"scores"`
	Structure Structure        `json:"structure"`
	Coaching  Coaching         `json:"coach"`
	Evidence  map[string][]int `json:"evidence"`
}

// Score runs one LLM-backed analysis. When segments are present but none of
// them maps to the supervisor role, the model is not called at all: there is
// nothing to assess, and the fixed minimum-score report explains why.
func (s *Scorer) Score(ctx context.Context, req Request) (*Report, error) {
	rb := rubric.Lookup(req.RubricCode)

	if len(req.Segments) > 0 && len(supervisorIndices(req.Segments, req.SpeakerMapping)) == 0 {
		s.logger.Info("no supervisor utterances — skipping model call",
			"encounter_id", req.EncounterID,
			"segments", len(req.Segments),
		)
		return noSupervisorReport(req.EncounterID, rb), nil
	}

	system := buildSystemPrompt(rb, req.Language)
	user := buildUserPrompt(rb, req)

	s.logger.Info("scoring transcript with model",
		"encounter_id", req.EncounterID,
		"rubric", rb.Code,
		"transcript_len", len(req.Transcript),
		"segments", len(req.Segments),
	)

	raw, err := s.llm.CompleteJSON(ctx, system, []openai.Message{{Role: "user", Content: user}})
	if err != nil {
		return nil, fmt.Errorf("llm scoring: %w", err)
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		s.logger.Error("failed to parse model reply", "error", err, "raw", raw)
		return nil, fmt.Errorf("parse model reply: %w", err)
	}

	return reshape(req.EncounterID, rb, reply), nil
}

// reshape normalizes the model reply into a Report: total and scale are
// recomputed server-side (the model's own arithmetic is not trusted) and
// every rubric dimension is guaranteed a score and an evidence list.
func reshape(encounterID string, rb rubric.Rubric, reply modelReply) *Report {
	scores := make(map[string]int, len(rb.Dimensions))
	total := 0
	for _, dim := range rb.Dimensions {
		v := clampItem(reply.Scores[dim], rb.MaxItemScore)
		scores[dim] = v
		total += v
	}

	evidence := make(map[string][]int, len(rb.Dimensions))
	for _, dim := range rb.Dimensions {
		if idxs, ok := reply.Evidence[dim]; ok && idxs != nil {
			evidence[dim] = idxs
		} else {
			evidence[dim] = []int{}
		}
	}

	return &Report{
		EncounterID: encounterID,
		RubricCode:  rb.Code,
		Scores:      scores,
		Total:       total,
		Scale:       rb.Scale,
		Structure:   reply.Structure,
		Coaching:    reply.Coaching,
		Evidence:    evidence,
	}
}

func clampItem(v, max int) int {
	if v < 1 {
		return 1
	}
	if v > max {
		return max
	}
	return v
}

// supervisorIndices returns the indices of segments whose speaker maps to
// the supervisor role.
func supervisorIndices(segments []Segment, mapping map[string]string) []int {
	var idxs []int
	for i, seg := range segments {
		if mapping[seg.Speaker] == RoleSupervisor {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// SupervisorText concatenates supervisor-mapped segment text, one utterance
// per sentence-ish line. The rule engine consumes plain text; this is the
// seam that filters who gets analyzed.
func SupervisorText(segments []Segment, mapping map[string]string) string {
	var b strings.Builder
	for _, i := range supervisorIndices(segments, mapping) {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strings.TrimSpace(segments[i].Text))
	}
	return b.String()
}

func buildSystemPrompt(rb rubric.Rubric, language string) string {
	var dims, ev strings.Builder
	for _, dim := range rb.Dimensions {
		fmt.Fprintf(&dims, "    %q: int (1-%d),\n", dim, rb.MaxItemScore)
		fmt.Fprintf(&ev, "    %q: [int, ...],\n", dim)
	}
	return fmt.Sprintf(systemPromptTemplate, rb.Name, dims.String(), strings.TrimSuffix(ev.String(), ",\n")+"\n", languageName(language))
}

func buildUserPrompt(rb rubric.Rubric, req Request) string {
	segmentsDesc := "(segments not provided)"
	if len(req.Segments) > 0 {
		var lines []string
		for idx, seg := range req.Segments {
			role := "unknown"
			if r, ok := req.SpeakerMapping[seg.Speaker]; ok {
				role = r
			}
			lines = append(lines, fmt.Sprintf("[%d] role=%s, speaker=%s, start=%v, end=%v, text=%q",
				idx, role, seg.Speaker, floatOrNil(seg.Start), floatOrNil(seg.End), seg.Text))
		}
		segmentsDesc = strings.Join(lines, "\n")
	}

	contextDesc := ""
	if req.Context != nil {
		contextDesc = fmt.Sprintf("case=%s, note=%s", req.Context.Case, req.Context.Note)
	}

	return fmt.Sprintf(userPromptTemplate,
		req.Language, req.TraineeLevel, contextDesc,
		strings.TrimSpace(req.Transcript), segmentsDesc, rb.Name)
}

func floatOrNil(f *float64) any {
	if f == nil {
		return "nil"
	}
	return *f
}

// noSupervisorReport is the fixed minimum-score report returned when the
// recording holds trainee speech only. Scores are floored, evidence is
// empty, and the coaching copy explains what a scoreable recording needs.
func noSupervisorReport(encounterID string, rb rubric.Rubric) *Report {
	scores := make(map[string]int, len(rb.Dimensions))
	evidence := make(map[string][]int, len(rb.Dimensions))
	for _, dim := range rb.Dimensions {
		scores[dim] = 1
		evidence[dim] = []int{}
	}

	return &Report{
		EncounterID: encounterID,
		RubricCode:  rb.Code,
		Scores:      scores,
		Total:       len(rb.Dimensions),
		Scale:       rb.Scale,
		Structure:   Structure{},
		Coaching: Coaching{
			Strengths: []string{
				"이번 녹음에는 전공의의 발언만 있고, 지도전문의의 피드백 발언이 거의(또는 전혀) 없습니다.",
			},
			Improvements: []string{
				"평가는 지도전문의의 피드백 발언을 기준으로 하기 때문에, 지도전문의가 전공의에게 설명하고 정리하는 발언이 필요합니다.",
				"전공의가 설명한 뒤, 지도전문의가 관찰·이유·결과·핵심 메시지를 말해 주는 피드백 구조를 의도적으로 만들어 보세요.",
				"다음에는 지도전문의가 최소 몇 문장 이상 직접 피드백을 말하는 장면이 포함된 녹음을 남겨 주세요.",
			},
			ScriptNextTime: "이번 대화는 대부분 전공의의 설명으로 구성되어 있어 지도전문의 피드백에 대한 평가를 수행하기 어렵습니다. " +
				"다음에는 전공의의 설명이 끝난 뒤, 지도전문의가 관찰한 점과 그 이유, 환자에게 미치는 의미, " +
				"다음 진료에서 전공의가 시도해 볼 행동을 정리해서 말해 주는 연습을 해보세요.",
			MicroHabit: "피드백 장면이 시작되면 '지금은 전공의에게 구조화된 피드백을 주는 시간이다'라고 마음속으로 정리한 뒤, " +
				"최소 두 문장은 지도전문의가 직접 요약과 조언을 말하는 습관을 들여 보세요.",
		},
		Evidence: evidence,
	}
}

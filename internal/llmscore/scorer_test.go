package llmscore

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/medsim-lab/debriefd/internal/openai"
	"github.com/medsim-lab/debriefd/internal/rubric"
)

type fakeCompleter struct {
	reply    string
	err      error
	calls    int
	lastUser string
	lastSys  string
}

func (f *fakeCompleter) CompleteJSON(ctx context.Context, system string, messages []openai.Message) (string, error) {
	f.calls++
	f.lastSys = system
	if len(messages) > 0 {
		f.lastUser = messages[len(messages)-1].Content
	}
	return f.reply, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestScore_ReshapesReply(t *testing.T) {
	fake := &fakeCompleter{reply: `{
		"scores": {"approach": 4, "learning_env": 3, "engagement": 4, "reaction": 3,
			"reflection": 4, "analysis": 3, "diagnosis": 3, "application": 4, "summary": 4,
			"total": 99, "scale": 99},
		"structure": {"has_opening": true, "has_core": true, "has_closing": false},
		"coach": {"strengths": ["s1"], "improvements_top3": ["i1"], "script_next_time": "스크립트", "micro_habit_10sec": "습관"},
		"evidence": {"approach": [0, 2], "engagement": [3]}
	}`}

	rep, err := New(fake, testLogger()).Score(context.Background(), Request{
		EncounterID: "enc-1",
		Transcript:  "먼저 어땠어?",
		Language:    "ko",
		RubricCode:  rubric.CodeOSAD,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// total and scale come from the server, not the model.
	if rep.Total != 32 {
		t.Errorf("total = %d, want 32", rep.Total)
	}
	if rep.Scale != 45 {
		t.Errorf("scale = %d, want 45", rep.Scale)
	}
	if !rep.Structure.HasOpening || rep.Structure.HasClosing {
		t.Errorf("unexpected structure: %+v", rep.Structure)
	}
	if got := rep.Evidence["approach"]; len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("approach evidence = %v, want [0 2]", got)
	}
	// dimensions the model skipped still get an empty evidence list.
	if got, ok := rep.Evidence["reaction"]; !ok || got == nil || len(got) != 0 {
		t.Errorf("reaction evidence = %v, want []", got)
	}
}

func TestScore_ClampsOutOfRangeScores(t *testing.T) {
	fake := &fakeCompleter{reply: `{
		"scores": {"approach": 9, "learning_env": 0, "engagement": -3},
		"structure": {}, "coach": {}, "evidence": {}
	}`}

	rep, err := New(fake, testLogger()).Score(context.Background(), Request{Transcript: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Scores["approach"] != 5 {
		t.Errorf("approach = %d, want clamped 5", rep.Scores["approach"])
	}
	if rep.Scores["learning_env"] != 1 {
		t.Errorf("learning_env = %d, want clamped 1", rep.Scores["learning_env"])
	}
	// missing dimensions are floored, never absent.
	if rep.Scores["summary"] != 1 {
		t.Errorf("summary = %d, want 1", rep.Scores["summary"])
	}
}

func TestScore_OMPRubric(t *testing.T) {
	fake := &fakeCompleter{reply: `{
		"scores": {"commitment": 4, "probing": 3, "teaching": 4, "reinforcement": 3, "correction": 3},
		"structure": {}, "coach": {}, "evidence": {}
	}`}

	rep, err := New(fake, testLogger()).Score(context.Background(), Request{
		Transcript: "x", RubricCode: rubric.CodeOMP,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.RubricCode != rubric.CodeOMP {
		t.Errorf("rubric = %q, want OMP", rep.RubricCode)
	}
	if rep.Total != 17 || rep.Scale != 25 {
		t.Errorf("total/scale = %d/%d, want 17/25", rep.Total, rep.Scale)
	}
	if !strings.Contains(fake.lastSys, "One-Minute Preceptor") {
		t.Error("system prompt should name the OMP framework")
	}
}

func TestScore_NoSupervisorSkipsModel(t *testing.T) {
	fake := &fakeCompleter{reply: `{}`}

	rep, err := New(fake, testLogger()).Score(context.Background(), Request{
		Transcript: "저는 환자 상태를 안정적이라고 판단했습니다.",
		Segments: []Segment{
			{Speaker: "SPEAKER_00", Text: "저는 환자 상태를 안정적이라고 판단했습니다."},
			{Speaker: "SPEAKER_00", Text: "혈압도 확인했습니다."},
		},
		SpeakerMapping: map[string]string{"SPEAKER_00": "전공의"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("model was called %d times, want 0", fake.calls)
	}
	for dim, v := range rep.Scores {
		if v != 1 {
			t.Errorf("%s = %d, want minimum 1", dim, v)
		}
	}
	if rep.Total != 9 {
		t.Errorf("total = %d, want 9", rep.Total)
	}
	if rep.Structure.HasOpening || rep.Structure.HasCore || rep.Structure.HasClosing {
		t.Errorf("structure should be all false, got %+v", rep.Structure)
	}
	if len(rep.Coaching.Improvements) != 3 {
		t.Errorf("got %d improvements, want 3", len(rep.Coaching.Improvements))
	}
}

func TestScore_SupervisorPresentCallsModel(t *testing.T) {
	fake := &fakeCompleter{reply: `{"scores":{},"structure":{},"coach":{},"evidence":{}}`}

	_, err := New(fake, testLogger()).Score(context.Background(), Request{
		Transcript: "먼저 어땠어? 괜찮았습니다.",
		Segments: []Segment{
			{Speaker: "SPEAKER_00", Text: "먼저 어땠어?"},
			{Speaker: "SPEAKER_01", Text: "괜찮았습니다."},
		},
		SpeakerMapping: map[string]string{"SPEAKER_00": RoleSupervisor, "SPEAKER_01": "전공의"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("model was called %d times, want 1", fake.calls)
	}
	if !strings.Contains(fake.lastUser, "[0] role=지도전문의") {
		t.Errorf("user prompt should list segment roles, got:\n%s", fake.lastUser)
	}
}

func TestScore_BadJSONReply(t *testing.T) {
	fake := &fakeCompleter{reply: "this is not json"}

	_, err := New(fake, testLogger()).Score(context.Background(), Request{Transcript: "x"})
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSupervisorText(t *testing.T) {
	segments := []Segment{
		{Speaker: "SPEAKER_00", Text: "먼저 어땠어? "},
		{Speaker: "SPEAKER_01", Text: "괜찮았습니다."},
		{Speaker: "SPEAKER_00", Text: "정리하면 잘했어."},
	}
	mapping := map[string]string{"SPEAKER_00": RoleSupervisor, "SPEAKER_01": "전공의"}

	got := SupervisorText(segments, mapping)
	want := "먼저 어땠어? 정리하면 잘했어."
	if got != want {
		t.Errorf("SupervisorText = %q, want %q", got, want)
	}

	if SupervisorText(segments, nil) != "" {
		t.Error("no mapping means no supervisor text")
	}
}

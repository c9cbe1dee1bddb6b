package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medsim-lab/debriefd/internal/analyzer"
	"github.com/medsim-lab/debriefd/internal/rubric"
)

func testServer(apiToken string) *Server {
	return NewServer(8460, apiToken, rubric.CodeOSAD, analyzer.New(), nil, nil)
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer("")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := testServer("")

	req := httptest.NewRequest("GET", "/api/v1/debriefd/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["service"] != "debriefd" {
		t.Errorf("expected service debriefd, got %q", body["service"])
	}
	if body["llm"] != "disabled" {
		t.Errorf("expected llm disabled, got %q", body["llm"])
	}
	if body["default_rubric"] != rubric.CodeOSAD {
		t.Errorf("expected default rubric %s, got %q", rubric.CodeOSAD, body["default_rubric"])
	}
}

func TestRubricsEndpoint(t *testing.T) {
	srv := testServer("")

	req := httptest.NewRequest("GET", "/api/v1/rubrics", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var rubrics []rubric.Rubric
	if err := json.NewDecoder(w.Body).Decode(&rubrics); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(rubrics) != 2 {
		t.Fatalf("expected 2 rubrics, got %d", len(rubrics))
	}
	if rubrics[0].Code != rubric.CodeOSAD || rubrics[1].Code != rubric.CodeOMP {
		t.Errorf("unexpected rubric codes: %s, %s", rubrics[0].Code, rubrics[1].Code)
	}
}

func TestFeedbackEndpoint(t *testing.T) {
	srv := testServer("")

	payload := `{"encounter_id": "enc-1", "transcript": "먼저 오늘 처치 어땠어요? 환자 볼 때 기도 확인을 했을 때 좋았어요. 그래서 산소포화도가 빨리 회복됐죠. 정리하면 초기 평가가 좋았습니다. 다음엔 약물 용량도 소리 내어 확인합시다."}`
	req := httptest.NewRequest("POST", "/api/v1/feedback", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result analyzer.Result
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.EncounterID != "enc-1" {
		t.Errorf("expected encounter enc-1, got %q", result.EncounterID)
	}
	if result.RubricCode != rubric.CodeOSAD {
		t.Errorf("expected default rubric, got %q", result.RubricCode)
	}
	if !result.Structure.HasOpening || !result.Structure.HasCore || !result.Structure.HasClosing {
		t.Errorf("expected full structure, got %+v", result.Structure)
	}
	if result.Scores.Total < 9 || result.Scores.Total > 45 {
		t.Errorf("total %d out of range", result.Scores.Total)
	}
}

func TestFeedbackEndpointEmptyTranscript(t *testing.T) {
	srv := testServer("")

	req := httptest.NewRequest("POST", "/api/v1/feedback", strings.NewReader(`{"transcript": ""}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty transcript, got %d", w.Code)
	}

	var result analyzer.Result
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Structure.HasOpening || result.Structure.HasCore || result.Structure.HasClosing {
		t.Errorf("expected no structure for empty transcript, got %+v", result.Structure)
	}
	if result.Scores.Total != 19 {
		t.Errorf("expected baseline total 19, got %d", result.Scores.Total)
	}
}

func TestFeedbackEndpointSupervisorFilter(t *testing.T) {
	srv := testServer("")

	// When segments carry a speaker mapping, only supervisor speech is
	// scored. The trainee asks the question here, so the opening must not
	// be credited.
	payload := `{
		"transcript": "오늘 어땠어요? 처치는 잘 끝났습니다.",
		"segments": [
			{"speaker": "A", "text": "오늘 어땠어요?"},
			{"speaker": "B", "text": "처치는 잘 끝났습니다. 기도 확인을 했을 때 좋았어요."}
		],
		"speaker_mapping": {"A": "전공의", "B": "지도전문의"}
	}`
	req := httptest.NewRequest("POST", "/api/v1/feedback", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var result analyzer.Result
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Structure.HasOpening {
		t.Error("trainee's question should not count as supervisor opening")
	}
}

func TestFeedbackEndpointInvalidJSON(t *testing.T) {
	srv := testServer("")

	req := httptest.NewRequest("POST", "/api/v1/feedback", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestFeedbackLLMEndpointUnconfigured(t *testing.T) {
	srv := testServer("")

	req := httptest.NewRequest("POST", "/api/v1/feedback/llm", strings.NewReader(`{"transcript": "x"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a model, got %d", w.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := testServer("secret-token")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"malformed header", "secret-token", http.StatusUnauthorized},
		{"valid token", "Bearer secret-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/feedback", strings.NewReader(`{"transcript": "테스트."}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAuthSkipsPublicRoutes(t *testing.T) {
	srv := testServer("secret-token")

	for _, path := range []string{"/health", "/api/v1/debriefd/status", "/api/v1/rubrics"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200 without auth, got %d", path, w.Code)
		}
	}
}

func TestCoachEvalValidation(t *testing.T) {
	srv := testServer("")

	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"missing encounter", `{"helpful_score": 4}`, http.StatusBadRequest},
		{"score too low", `{"encounter_id": "enc-1", "helpful_score": 0}`, http.StatusBadRequest},
		{"score too high", `{"encounter_id": "enc-1", "helpful_score": 6}`, http.StatusBadRequest},
		{"no database", `{"encounter_id": "enc-1", "helpful_score": 4}`, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/feedback/coach-eval", strings.NewReader(tt.payload))
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestCoachMemoValidation(t *testing.T) {
	srv := testServer("")

	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"missing encounter", `{"saved_sections": {"script": "x"}}`, http.StatusBadRequest},
		{"empty sections", `{"encounter_id": "enc-1", "saved_sections": {}}`, http.StatusBadRequest},
		{"no database", `{"encounter_id": "enc-1", "saved_sections": {"script": "x"}}`, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/feedback/memo", strings.NewReader(tt.payload))
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestListEvaluationsNoDatabase(t *testing.T) {
	srv := testServer("")

	req := httptest.NewRequest("GET", "/api/v1/evaluations/enc-1", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a database, got %d", w.Code)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := testServer("")

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

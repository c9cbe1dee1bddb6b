package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medsim-lab/debriefd/internal/analyzer"
	"github.com/medsim-lab/debriefd/internal/llmscore"
	"github.com/medsim-lab/debriefd/internal/rubric"
	"github.com/medsim-lab/debriefd/internal/store"
)

type Server struct {
	router        *chi.Mux
	port          int
	defaultRubric string
	rules         *analyzer.Analyzer
	llm           *llmscore.Scorer // nil when no model is configured
	db            *store.Store     // nil in tests; results are then not persisted
}

func NewServer(port int, apiToken, defaultRubric string, rules *analyzer.Analyzer, llm *llmscore.Scorer, db *store.Store) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:        router,
		port:          port,
		defaultRubric: defaultRubric,
		rules:         rules,
		llm:           llm,
		db:            db,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/debriefd/status", s.status)
	router.Get("/api/v1/rubrics", s.listRubrics)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(bearerAuth(apiToken))
		r.Post("/feedback", s.analyzeFeedback)
		r.Post("/feedback/llm", s.analyzeFeedbackLLM)
		r.Post("/feedback/coach-eval", s.saveCoachEval)
		r.Post("/feedback/memo", s.saveCoachMemo)
		r.Get("/evaluations/{encounterID}", s.listEvaluations)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// bearerAuth rejects requests without the configured token. An empty token
// disables the check (local development).
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" {
				auth := r.Header.Get("Authorization")
				if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
					writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	llmState := "disabled"
	if s.llm != nil {
		llmState = "enabled"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service":        "debriefd",
		"status":         "ready",
		"default_rubric": s.defaultRubric,
		"llm":            llmState,
	})
}

func (s *Server) listRubrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []rubric.Rubric{rubric.OSAD, rubric.OMP})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

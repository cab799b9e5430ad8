// Package server exposes the risk inference engine over a small JSON API.
// It is a thin boundary: mode selection, input validation, and error
// shaping happen here; everything else is the engine's job.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/quietsignal/phenoscope/internal/common"
	"github.com/quietsignal/phenoscope/internal/engine"
	"github.com/quietsignal/phenoscope/internal/model"
)

// AssessmentStore persists completed assessments. It is optional; a nil
// store disables persistence.
type AssessmentStore interface {
	SaveAssessment(ctx context.Context, assessment *model.Assessment) error
}

// Server routes API requests to the engine.
type Server struct {
	engine *engine.Engine
	store  AssessmentStore
	mux    *http.ServeMux
}

// New creates the API server. store may be nil.
func New(eng *engine.Engine, store AssessmentStore) *Server {
	s := &Server{
		engine: eng,
		store:  store,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("/api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/api/reset", s.handleReset)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// analyzeRequest is the wire shape of an analyze call. Feature fields are
// pointers so absent values are distinguishable from zeros and can fail
// fast instead of silently defaulting.
type analyzeRequest struct {
	Mode                string   `json:"mode"`
	ScreenTime          *float64 `json:"avg_daily_screen_time"`
	NightUsageRatio     *float64 `json:"night_usage_ratio"`
	AppUsageDiversity   *float64 `json:"app_usage_diversity"`
	TypingSpeedVariance *float64 `json:"typing_speed_variance"`
	SleepIrregularity   *float64 `json:"sleep_irregularity_score"`
	SocialWithdrawal    *float64 `json:"social_app_withdrawal_score"`
}

// featureVector validates the manual-mode payload.
func (r *analyzeRequest) featureVector() (model.FeatureVector, error) {
	fields := []struct {
		value *float64
		name  string
	}{
		{r.ScreenTime, "avg_daily_screen_time"},
		{r.NightUsageRatio, "night_usage_ratio"},
		{r.AppUsageDiversity, "app_usage_diversity"},
		{r.TypingSpeedVariance, "typing_speed_variance"},
		{r.SleepIrregularity, "sleep_irregularity_score"},
		{r.SocialWithdrawal, "social_app_withdrawal_score"},
	}
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		if f.value == nil {
			return model.FeatureVector{}, fmt.Errorf("%w: missing feature %q", common.ErrInvalidInput, f.name)
		}
		values = append(values, *f.value)
	}
	return model.FeaturesFromValues(values)
}

type analyzeResponse struct {
	Status string `json:"status"`
	*model.Assessment
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed request body: %v", err))
		return
	}

	var (
		assessment *model.Assessment
		err        error
	)
	switch req.Mode {
	case string(model.ModeAuto):
		assessment, err = s.engine.AnalyzeAuto(r.Context())
	case string(model.ModeManual), "":
		var features model.FeatureVector
		if features, err = req.featureVector(); err == nil {
			assessment, err = s.engine.AnalyzeManual(r.Context(), features)
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", req.Mode))
		return
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, common.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		slog.Error("Analyze failed", "mode", req.Mode, "error", err)
		writeError(w, status, err.Error())
		return
	}

	if s.store != nil {
		if err := s.store.SaveAssessment(r.Context(), assessment); err != nil {
			// Persistence is an audit convenience; the assessment still stands.
			slog.Error("Failed to persist assessment", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Status: "success", Assessment: assessment})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if err := s.engine.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"status":  "error",
		"message": message,
	})
}

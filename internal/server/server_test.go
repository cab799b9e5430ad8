package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietsignal/phenoscope/internal/engine"
	"github.com/quietsignal/phenoscope/internal/model"
	"github.com/quietsignal/phenoscope/internal/storage"
)

var (
	testEngineOnce sync.Once
	testEngine     *engine.Engine
	testEngineErr  error
)

func newTestServer(t *testing.T, store AssessmentStore) *Server {
	t.Helper()
	testEngineOnce.Do(func() {
		cfg := engine.DefaultConfig()
		cfg.PopulationSize = 600
		cfg.StreamDays = 5
		testEngine, testEngineErr = engine.New(cfg)
	})
	require.NoError(t, testEngineErr)
	require.NoError(t, testEngine.Reset(context.Background()))
	return New(testEngine, store)
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeAuto(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := postJSON(t, srv.Handler(), "/api/analyze", `{"mode":"auto"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status      string                `json:"status"`
		Mode        string                `json:"mode"`
		DayIndex    int                   `json:"day_index"`
		RiskLevel   string                `json:"risk_level"`
		Confidence  float64               `json:"confidence"`
		Trend       string                `json:"trend"`
		Explanation string                `json:"explanation"`
		InputEcho   []float64             `json:"input_echo"`
		FeatureData []model.FeatureWeight `json:"feature_data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "auto", resp.Mode)
	assert.Equal(t, 0, resp.DayIndex)
	assert.NotEmpty(t, resp.RiskLevel)
	assert.NotEmpty(t, resp.Trend)
	assert.NotEmpty(t, resp.Explanation)
	assert.Len(t, resp.InputEcho, model.NumFeatures)
	assert.Len(t, resp.FeatureData, model.NumFeatures)
}

func TestAnalyzeManual(t *testing.T) {
	srv := newTestServer(t, nil)

	body := `{
		"mode": "manual",
		"avg_daily_screen_time": 9.5,
		"night_usage_ratio": 0.7,
		"app_usage_diversity": 4,
		"typing_speed_variance": 110,
		"sleep_irregularity_score": 0.8,
		"social_app_withdrawal_score": 0.85
	}`
	rec := postJSON(t, srv.Handler(), "/api/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status     string  `json:"status"`
		DayIndex   int     `json:"day_index"`
		Trend      string  `json:"trend"`
		Confidence float64 `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, model.ManualDayIndex, resp.DayIndex)
	assert.Equal(t, "N/A (Manual)", resp.Trend)
	assert.GreaterOrEqual(t, resp.Confidence, 0.4)
	assert.LessOrEqual(t, resp.Confidence, 1.0)
}

func TestAnalyzeErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "missing feature in manual mode",
			body:       `{"mode":"manual","night_usage_ratio":0.5}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non-numeric feature",
			body:       `{"mode":"manual","avg_daily_screen_time":"lots"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown mode",
			body:       `{"mode":"hybrid"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"mode":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, srv.Handler(), "/api/analyze", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp["status"])
			assert.NotEmpty(t, resp["message"])
		})
	}
}

func TestAnalyzeMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestResetRewindsStream(t *testing.T) {
	srv := newTestServer(t, nil)

	for i := 0; i < 3; i++ {
		rec := postJSON(t, srv.Handler(), "/api/analyze", `{"mode":"auto"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := postJSON(t, srv.Handler(), "/api/reset", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "reset", resp["status"])

	rec = postJSON(t, srv.Handler(), "/api/analyze", `{"mode":"auto"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var after struct {
		DayIndex int `json:"day_index"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Equal(t, 0, after.DayIndex)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyzePersistsAssessment(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()
	require.NoError(t, db.Migrate(context.Background()))

	srv := newTestServer(t, db)
	rec := postJSON(t, srv.Handler(), "/api/analyze", `{"mode":"auto"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	count, err := db.CountAssessments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

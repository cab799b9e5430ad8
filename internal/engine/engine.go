// Package engine implements the core risk-inference engine: it owns the
// fitted feature pipeline, the trained classifier ensemble, the pre-generated
// phenotype stream, and the rolling prediction history.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quietsignal/phenoscope/internal/classify"
	"github.com/quietsignal/phenoscope/internal/explain"
	"github.com/quietsignal/phenoscope/internal/model"
	"github.com/quietsignal/phenoscope/internal/pipeline"
	"github.com/quietsignal/phenoscope/internal/simulate"
	"github.com/quietsignal/phenoscope/internal/tracker"
)

// trendManual is reported for manual analyses, which never touch history.
const trendManual = "N/A (Manual)"

// Config holds construction options for the engine.
type Config struct {
	// TrainProgress, if set, fires once per trained forest tree.
	TrainProgress  func()
	Scenario       model.Scenario
	PopulationSize int
	StreamDays     int
	HistorySize    int
	Seed           uint64
}

// DefaultConfig returns the demo serving defaults.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 2000,
		Seed:           42,
		StreamDays:     30,
		Scenario:       model.ScenarioIncreasingRisk,
		HistorySize:    tracker.DefaultHistorySize,
	}
}

// Engine is the process-lifetime analysis state. It is constructed once
// (training and stream pre-generation happen here), mutated per request, and
// never torn down. A mutex serializes every mutation so history ordering and
// cursor advancement stay consistent.
type Engine struct {
	pipe     *pipeline.Fitted
	ensemble *classify.Ensemble
	primary  Classifier
	eval     classify.Evaluation
	tracker  *tracker.RiskTracker
	stream   []model.FeatureVector
	cursor   int
	mu       sync.Mutex
}

// New trains the ensemble on a fresh synthetic population and pre-generates
// the longitudinal stream. This is the only blocking work in the engine's
// lifetime; no request is served before it completes.
func New(cfg Config) (*Engine, error) {
	slog.Info("Initializing risk inference engine",
		"population", cfg.PopulationSize,
		"stream_days", cfg.StreamDays,
		"scenario", cfg.Scenario)

	population, err := simulate.GeneratePopulation(cfg.PopulationSize, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("generating population: %w", err)
	}

	pipe, err := pipeline.FitTransform(population, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("preprocessing population: %w", err)
	}

	ensemble, err := classify.TrainEnsemble(pipe.XTrain, pipe.YTrain, pipe.Encoder.NumClasses(), cfg.Seed, cfg.TrainProgress)
	if err != nil {
		return nil, fmt.Errorf("training ensemble: %w", err)
	}

	stream, err := simulate.GenerateStream(cfg.StreamDays, cfg.Scenario, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("generating stream: %w", err)
	}

	e := &Engine{
		pipe:     pipe,
		ensemble: ensemble,
		primary:  ensemble.Primary(),
		eval:     ensemble.Evaluate(pipe.XTest, pipe.YTest, pipe.Encoder.Classes()),
		tracker:  tracker.New(cfg.HistorySize),
		stream:   stream,
	}

	slog.Info("Engine ready",
		"accuracy", fmt.Sprintf("%.4f", e.eval.Accuracy),
		"baseline_accuracy", fmt.Sprintf("%.4f", e.eval.BaselineAccuracy))
	return e, nil
}

// AnalyzeAuto scores the next day from the pre-generated stream, appends the
// prediction to the rolling history, and advances the cursor. The cursor
// wraps cyclically when the stream is exhausted.
func (e *Engine) AnalyzeAuto(ctx context.Context) (*model.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	day := e.cursor % len(e.stream)
	features := e.stream[day]
	e.cursor++

	return e.analyze(model.ModeAuto, features, day)
}

// AnalyzeManual scores caller-supplied what-if features. History and cursor
// are untouched, and the confidence penalty for manual entry applies.
func (e *Engine) AnalyzeManual(ctx context.Context, features model.FeatureVector) (*model.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.analyze(model.ModeManual, features, model.ManualDayIndex)
}

// analyze runs one inference pass. Callers hold the mutex.
func (e *Engine) analyze(mode model.AnalysisMode, features model.FeatureVector, day int) (*model.Assessment, error) {
	raw := features.Values()
	scaled, err := e.pipe.Scaler.TransformOne(raw)
	if err != nil {
		return nil, fmt.Errorf("scaling input: %w", err)
	}

	probs := e.primary.PredictProba(scaled)
	confidence, labelIdx, err := classify.Calibrate(probs)
	if err != nil {
		return nil, fmt.Errorf("calibrating prediction: %w", err)
	}
	label, err := e.pipe.Encoder.InverseTransform(labelIdx)
	if err != nil {
		return nil, fmt.Errorf("decoding label: %w", err)
	}

	if mode == model.ModeManual {
		confidence = classify.ApplyManualPenalty(confidence)
	}

	trend := trendManual
	if mode == model.ModeAuto {
		e.tracker.Append(model.PredictionRecord{
			Label:         label,
			Confidence:    confidence,
			Probabilities: append([]float64(nil), probs...),
		})
		trend = e.tracker.Trend()
	}

	importances := e.primary.FeatureImportances()
	return &model.Assessment{
		Mode:           mode,
		DayIndex:       day,
		Input:          features,
		InputEcho:      raw,
		RiskLevel:      label,
		Confidence:     confidence,
		Probabilities:  probs,
		Trend:          trend,
		Explanation:    explain.Explanation(importances, scaled, e.pipe.FeatureNames, label, confidence),
		Counterfactual: explain.Counterfactual(importances, raw, e.pipe.FeatureNames, label),
		FeatureData:    e.featureWeights(importances),
	}, nil
}

// Reset clears the rolling history and rewinds the stream cursor to day 0.
// The trained models and the pre-generated stream are untouched.
func (e *Engine) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.tracker.Reset()
	e.cursor = 0
	slog.Info("Engine state reset")
	return nil
}

// Evaluation returns the held-out evaluation computed at construction.
func (e *Engine) Evaluation() classify.Evaluation {
	return e.eval
}

// StreamLen returns the pre-generated stream length in days.
func (e *Engine) StreamLen() int {
	return len(e.stream)
}

// HistoryLen returns the current rolling-history length.
func (e *Engine) HistoryLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Len()
}

func (e *Engine) featureWeights(importances []float64) []model.FeatureWeight {
	weights := make([]model.FeatureWeight, len(importances))
	for i, imp := range importances {
		weights[i] = model.FeatureWeight{Name: e.pipe.FeatureNames[i], Importance: imp}
	}
	return weights
}

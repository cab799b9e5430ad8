// Package model defines the core domain models used throughout the application.
package model

import "fmt"

// RiskLabel is a risk tier assigned to a digital phenotype.
type RiskLabel string

// Risk tiers, ordered by severity.
const (
	RiskLow      RiskLabel = "Low"
	RiskModerate RiskLabel = "Moderate"
	RiskElevated RiskLabel = "Elevated"
)

// Severity returns the ordinal position of the label (Low=0, Moderate=1,
// Elevated=2). Unknown labels map to 0.
func (r RiskLabel) Severity() int {
	switch r {
	case RiskModerate:
		return 1
	case RiskElevated:
		return 2
	default:
		return 0
	}
}

// NumFeatures is the fixed width of a feature vector.
const NumFeatures = 6

// FeatureNames lists the signal names in canonical column order. The order
// must match FeatureVector.Values and the fitted scaler's column order.
var FeatureNames = []string{
	"avg_daily_screen_time",
	"night_usage_ratio",
	"app_usage_diversity",
	"typing_speed_variance",
	"sleep_irregularity_score",
	"social_app_withdrawal_score",
}

// FeatureVector holds one day of passive digital-behavior signals.
type FeatureVector struct {
	// ScreenTime is average daily screen time in hours.
	ScreenTime float64
	// NightUsageRatio is the share of usage between midnight and 5am, in [0,1].
	NightUsageRatio float64
	// AppUsageDiversity counts distinct apps used.
	AppUsageDiversity float64
	// TypingSpeedVariance is inter-keystroke variance in milliseconds.
	TypingSpeedVariance float64
	// SleepIrregularity scores sleep schedule consistency, in [0,1].
	SleepIrregularity float64
	// SocialWithdrawal scores disengagement from social apps, in [0,1].
	SocialWithdrawal float64
}

// Values returns the vector in canonical column order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.ScreenTime,
		f.NightUsageRatio,
		f.AppUsageDiversity,
		f.TypingSpeedVariance,
		f.SleepIrregularity,
		f.SocialWithdrawal,
	}
}

// FeaturesFromValues builds a FeatureVector from a canonical-order slice.
func FeaturesFromValues(values []float64) (FeatureVector, error) {
	if len(values) != NumFeatures {
		return FeatureVector{}, fmt.Errorf("expected %d feature values, got %d", NumFeatures, len(values))
	}
	return FeatureVector{
		ScreenTime:          values[0],
		NightUsageRatio:     values[1],
		AppUsageDiversity:   values[2],
		TypingSpeedVariance: values[3],
		SleepIrregularity:   values[4],
		SocialWithdrawal:    values[5],
	}, nil
}

// LabeledSample pairs a feature vector with its ground-truth risk tier.
// Labeled samples exist only for training and evaluation.
type LabeledSample struct {
	Features FeatureVector
	Label    RiskLabel
}

// PredictionRecord is one prediction appended to the rolling history.
// Records are immutable once created.
type PredictionRecord struct {
	Label         RiskLabel
	Confidence    float64
	Probabilities []float64
}

// Scenario names a drift rule for longitudinal stream generation.
type Scenario string

// Supported drift scenarios.
const (
	ScenarioStable         Scenario = "stable"
	ScenarioIncreasingRisk Scenario = "increasing_risk"
	ScenarioImproving      Scenario = "improving"
)

// ParseScenario validates a scenario name.
func ParseScenario(name string) (Scenario, error) {
	switch Scenario(name) {
	case ScenarioStable, ScenarioIncreasingRisk, ScenarioImproving:
		return Scenario(name), nil
	default:
		return "", fmt.Errorf("unknown scenario %q", name)
	}
}

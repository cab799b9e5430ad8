// Package simulate generates synthetic passive digital-behavior signals. No
// real user data is involved anywhere: the package only models what a passive
// sensing system would report, as privacy-preserving aggregate features.
package simulate

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quietsignal/phenoscope/internal/common"
	"github.com/quietsignal/phenoscope/internal/model"
)

// Marginal distribution parameters for the training population. These are
// design constants drawn from digital-phenotyping literature correlations;
// changing them changes the ground truth the classifier learns.
const (
	screenMean   = 6.0
	screenStdDev = 2.5
	screenMin    = 0.5
	screenMax    = 18.0

	nightAlpha = 2.0
	nightBeta  = 5.0

	diversityLambda = 12.0

	typingShape = 2.0
	typingScale = 30.0

	withdrawalAlpha = 1.5
	withdrawalBeta  = 1.5

	scoreNoiseStdDev = 0.08
)

// Percentile thresholds for tier assignment. Recomputed against each generated
// population, so tier proportions stay near 50/30/20 regardless of the
// absolute score distribution.
const (
	lowQuantile      = 0.50
	moderateQuantile = 0.80
)

// GeneratePopulation draws n independent labeled samples for model training.
// The same seed always yields the same population.
func GeneratePopulation(n int, seed uint64) ([]model.LabeledSample, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n=%d", common.ErrEmptyPopulation, n)
	}

	src := rand.NewSource(seed)
	screen := distuv.Normal{Mu: screenMean, Sigma: screenStdDev, Src: src}
	night := distuv.Beta{Alpha: nightAlpha, Beta: nightBeta, Src: src}
	diversity := distuv.Poisson{Lambda: diversityLambda, Src: src}
	typing := distuv.Gamma{Alpha: typingShape, Beta: 1.0 / typingScale, Src: src}
	sleep := distuv.Uniform{Min: 0, Max: 1, Src: src}
	withdrawal := distuv.Beta{Alpha: withdrawalAlpha, Beta: withdrawalBeta, Src: src}
	noise := distuv.Normal{Mu: 0, Sigma: scoreNoiseStdDev, Src: src}

	vectors := make([]model.FeatureVector, n)
	scores := make([]float64, n)
	for i := range vectors {
		vectors[i] = model.FeatureVector{
			ScreenTime:          clamp(screen.Rand(), screenMin, screenMax),
			NightUsageRatio:     night.Rand(),
			AppUsageDiversity:   diversity.Rand(),
			TypingSpeedVariance: typing.Rand(),
			SleepIrregularity:   sleep.Rand(),
			SocialWithdrawal:    withdrawal.Rand(),
		}
		scores[i] = riskScore(vectors[i]) + noise.Rand()
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	lowCut := stat.Quantile(lowQuantile, stat.Empirical, sorted, nil)
	moderateCut := stat.Quantile(moderateQuantile, stat.Empirical, sorted, nil)

	samples := make([]model.LabeledSample, n)
	for i := range samples {
		samples[i] = model.LabeledSample{
			Features: vectors[i],
			Label:    labelForScore(scores[i], lowCut, moderateCut),
		}
	}
	return samples, nil
}

// riskScore is the hidden ground-truth linear combination of the six signals.
func riskScore(f model.FeatureVector) float64 {
	return 0.35*f.NightUsageRatio +
		0.30*f.SleepIrregularity +
		0.25*f.SocialWithdrawal +
		0.15*(f.TypingSpeedVariance/200.0) -
		0.10*(f.AppUsageDiversity/30.0)
}

func labelForScore(score, lowCut, moderateCut float64) model.RiskLabel {
	switch {
	case score < lowCut:
		return model.RiskLow
	case score < moderateCut:
		return model.RiskModerate
	default:
		return model.RiskElevated
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package simulate

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quietsignal/phenoscope/internal/common"
	"github.com/quietsignal/phenoscope/internal/model"
)

// Drift magnitudes for longitudinal stream generation. A subject's scalar
// risk factor shifts each day's sampling parameters linearly: higher risk
// means more night usage, more erratic sleep, less app diversity.
const (
	maxRiskFactor = 0.8

	baselineScreenMean   = 5.0
	baselineScreenStdDev = 1.0
	streamScreenMax      = 17.0

	baselineSleep      = 0.2
	baselineWithdrawal = 0.2
)

// GenerateStream simulates one subject's signals over nDays of drift governed
// by scenario. The returned stream is indexed by day and is meant to be
// replayed cyclically by the serving layer.
func GenerateStream(nDays int, scenario model.Scenario, seed uint64) ([]model.FeatureVector, error) {
	switch scenario {
	case model.ScenarioStable, model.ScenarioIncreasingRisk, model.ScenarioImproving:
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownScenario, scenario)
	}
	if nDays <= 0 {
		return nil, fmt.Errorf("%w: nDays=%d", common.ErrEmptyStream, nDays)
	}

	src := rand.NewSource(seed)

	// Per-subject baseline, sampled once per stream.
	baselineScreen := distuv.Normal{Mu: baselineScreenMean, Sigma: baselineScreenStdDev, Src: src}.Rand()

	days := make([]model.FeatureVector, nDays)
	riskFactor := 0.0
	for day := 0; day < nDays; day++ {
		switch scenario {
		case model.ScenarioIncreasingRisk:
			riskFactor += maxRiskFactor / float64(nDays)
		case model.ScenarioImproving:
			riskFactor = math.Max(0, maxRiskFactor-float64(day)*(maxRiskFactor/float64(nDays)))
		}
		riskFactor = math.Min(riskFactor, 1.0)

		days[day] = sampleDay(src, baselineScreen, riskFactor)
	}
	return days, nil
}

// sampleDay draws one day of signals with marginal parameters shifted by the
// current risk factor.
func sampleDay(src rand.Source, baselineScreen, riskFactor float64) model.FeatureVector {
	screen := distuv.Normal{Mu: baselineScreen + 2.0*riskFactor, Sigma: 1.0, Src: src}.Rand()
	night := distuv.Beta{Alpha: nightAlpha + 5.0*riskFactor, Beta: nightBeta, Src: src}.Rand()
	sleep := distuv.Normal{Mu: baselineSleep + 0.5*riskFactor, Sigma: 0.1, Src: src}.Rand()
	typing := distuv.Gamma{Alpha: typingShape, Beta: 1.0 / (typingScale + typingScale*riskFactor), Src: src}.Rand()
	withdrawal := distuv.Normal{Mu: baselineWithdrawal + 0.6*riskFactor, Sigma: 0.15, Src: src}.Rand()
	diversity := math.Floor(distuv.Poisson{Lambda: diversityLambda - 5.0*riskFactor, Src: src}.Rand())

	return model.FeatureVector{
		ScreenTime:          clamp(screen, screenMin, streamScreenMax),
		NightUsageRatio:     night,
		AppUsageDiversity:   math.Max(1, diversity),
		TypingSpeedVariance: typing,
		SleepIrregularity:   clamp(sleep, 0, 1),
		SocialWithdrawal:    clamp(withdrawal, 0, 1),
	}
}

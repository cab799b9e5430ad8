package classify

import (
	"fmt"
	"math"

	"github.com/quietsignal/phenoscope/internal/common"
)

// Manual-entry confidence adjustment. Manually entered what-if values do not
// respect the generator's joint feature correlations, so their confidence is
// penalized by a fixed amount and floored.
const (
	ManualPenalty   = 0.15
	ConfidenceFloor = 0.4
)

// Calibrate derives scalar confidence and the predicted class index from a
// raw probability distribution. Confidence is the maximum probability; ties
// resolve to the lowest index.
//
// Known limitation: there is no out-of-distribution detection here.
// Physiologically impossible inputs should ideally force confidence toward
// zero, but that check is deliberately deferred.
func Calibrate(distribution []float64) (confidence float64, labelIdx int, err error) {
	if len(distribution) == 0 {
		return 0, 0, fmt.Errorf("%w: cannot calibrate", common.ErrEmptyDistribution)
	}
	labelIdx = argmax(distribution)
	return distribution[labelIdx], labelIdx, nil
}

// ApplyManualPenalty adjusts confidence for manually entered input.
func ApplyManualPenalty(confidence float64) float64 {
	return math.Max(ConfidenceFloor, confidence-ManualPenalty)
}

// argmax returns the index of the largest value, lowest index on ties.
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

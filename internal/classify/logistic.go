package classify

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/quietsignal/phenoscope/internal/common"
)

// LogisticConfig controls softmax-regression training.
type LogisticConfig struct {
	LearningRate float64
	L2           float64
	Epochs       int
}

// DefaultLogisticConfig returns settings that converge comfortably on
// standardized features.
func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{
		LearningRate: 0.1,
		L2:           1e-4,
		Epochs:       500,
	}
}

// Logistic is a multinomial logistic (softmax) classifier. It serves as the
// interpretable baseline alongside the forest: its weights are directly
// readable as per-feature log-odds contributions.
type Logistic struct {
	weights    [][]float64 // [class][feature]
	bias       []float64
	numClasses int
}

// TrainLogistic fits the model with full-batch gradient descent on the
// softmax cross-entropy loss.
func TrainLogistic(x [][]float64, y []int, numClasses int, cfg LogisticConfig) (*Logistic, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", common.ErrEmptyPopulation, len(x), len(y))
	}

	numFeatures := len(x[0])
	m := &Logistic{
		weights:    make([][]float64, numClasses),
		bias:       make([]float64, numClasses),
		numClasses: numClasses,
	}
	for c := range m.weights {
		m.weights[c] = make([]float64, numFeatures)
	}

	gradW := make([][]float64, numClasses)
	for c := range gradW {
		gradW[c] = make([]float64, numFeatures)
	}
	gradB := make([]float64, numClasses)

	n := float64(len(x))
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for c := range gradW {
			for f := range gradW[c] {
				gradW[c][f] = 0
			}
			gradB[c] = 0
		}

		for i, row := range x {
			probs := m.PredictProba(row)
			for c := 0; c < numClasses; c++ {
				delta := probs[c]
				if c == y[i] {
					delta--
				}
				for f, v := range row {
					gradW[c][f] += delta * v
				}
				gradB[c] += delta
			}
		}

		for c := 0; c < numClasses; c++ {
			for f := 0; f < numFeatures; f++ {
				m.weights[c][f] -= cfg.LearningRate * (gradW[c][f]/n + cfg.L2*m.weights[c][f])
			}
			m.bias[c] -= cfg.LearningRate * gradB[c] / n
		}
	}
	return m, nil
}

// PredictProba returns the softmax distribution over classes.
func (m *Logistic) PredictProba(row []float64) []float64 {
	logits := make([]float64, m.numClasses)
	for c := 0; c < m.numClasses; c++ {
		logits[c] = m.bias[c] + floats.Dot(m.weights[c], row)
	}

	// Shift by the max logit for numerical stability.
	maxLogit := floats.Max(logits)
	sum := 0.0
	for c, l := range logits {
		logits[c] = math.Exp(l - maxLogit)
		sum += logits[c]
	}
	floats.Scale(1/sum, logits)
	return logits
}

// Predict returns the most probable class index.
func (m *Logistic) Predict(row []float64) int {
	return argmax(m.PredictProba(row))
}

// Weights returns the fitted coefficients, indexed [class][feature].
func (m *Logistic) Weights() [][]float64 {
	out := make([][]float64, len(m.weights))
	for c, w := range m.weights {
		out[c] = append([]float64(nil), w...)
	}
	return out
}

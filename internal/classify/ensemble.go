package classify

import (
	"fmt"

	"github.com/quietsignal/phenoscope/internal/model"
)

// Ensemble holds the two classifiers trained on the same split. The forest
// is the primary serving model; the logistic model is the interpretable
// baseline.
type Ensemble struct {
	Logistic *Logistic
	Forest   *Forest
}

// TrainEnsemble fits both classifiers on the scaled training rows. The
// progress callback, if set, fires once per trained forest tree.
func TrainEnsemble(x [][]float64, y []int, numClasses int, seed uint64, progress func()) (*Ensemble, error) {
	logistic, err := TrainLogistic(x, y, numClasses, DefaultLogisticConfig())
	if err != nil {
		return nil, fmt.Errorf("training logistic baseline: %w", err)
	}
	forest, err := TrainForest(x, y, numClasses, DefaultForestConfig(), seed, progress)
	if err != nil {
		return nil, fmt.Errorf("training forest: %w", err)
	}
	return &Ensemble{Logistic: logistic, Forest: forest}, nil
}

// Primary returns the model used for serving.
func (e *Ensemble) Primary() *Forest {
	return e.Forest
}

// ClassMetrics is the per-class evaluation breakdown.
type ClassMetrics struct {
	Label     model.RiskLabel
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Evaluation reports held-out performance for the primary model, plus the
// baseline's accuracy for comparison.
type Evaluation struct {
	Accuracy         float64
	BaselineAccuracy float64
	PerClass         []ClassMetrics
	MacroPrecision   float64
	MacroRecall      float64
	MacroF1          float64
}

// predictor is any trained model producing a class index per row.
type predictor interface {
	Predict(row []float64) int
}

// Evaluate scores the ensemble on the held-out split. The full per-class
// breakdown covers the primary model only.
func (e *Ensemble) Evaluate(xTest [][]float64, yTest []int, classes []model.RiskLabel) Evaluation {
	primary := predictions(e.Forest, xTest)

	eval := Evaluation{
		Accuracy:         accuracy(primary, yTest),
		BaselineAccuracy: accuracy(predictions(e.Logistic, xTest), yTest),
		PerClass:         make([]ClassMetrics, len(classes)),
	}

	for c, label := range classes {
		var truePos, falsePos, falseNeg int
		for i, pred := range primary {
			switch {
			case pred == c && yTest[i] == c:
				truePos++
			case pred == c:
				falsePos++
			case yTest[i] == c:
				falseNeg++
			}
		}

		m := ClassMetrics{Label: label, Support: truePos + falseNeg}
		if truePos+falsePos > 0 {
			m.Precision = float64(truePos) / float64(truePos+falsePos)
		}
		if truePos+falseNeg > 0 {
			m.Recall = float64(truePos) / float64(truePos+falseNeg)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		eval.PerClass[c] = m

		eval.MacroPrecision += m.Precision / float64(len(classes))
		eval.MacroRecall += m.Recall / float64(len(classes))
		eval.MacroF1 += m.F1 / float64(len(classes))
	}
	return eval
}

func predictions(m predictor, x [][]float64) []int {
	out := make([]int, len(x))
	for i, row := range x {
		out[i] = m.Predict(row)
	}
	return out
}

func accuracy(pred, want []int) float64 {
	if len(want) == 0 {
		return 0
	}
	correct := 0
	for i, p := range pred {
		if p == want[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(want))
}

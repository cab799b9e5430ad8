// Package pipeline standardizes features and encodes risk labels for
// training, and exposes the fitted transforms for single-sample serving.
package pipeline

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/quietsignal/phenoscope/internal/common"
)

// Scaler is a fitted z-score standardizer (zero mean, unit variance per
// column). Fit on the training split only; the same fitted transform is
// applied everywhere else so the test split never leaks into the fit.
type Scaler struct {
	means   []float64
	stdDevs []float64
}

// FitScaler computes per-column mean and standard deviation from rows.
func FitScaler(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to fit scaler", common.ErrEmptyPopulation)
	}

	cols := len(rows[0])
	column := make([]float64, len(rows))
	s := &Scaler{
		means:   make([]float64, cols),
		stdDevs: make([]float64, cols),
	}
	for c := 0; c < cols; c++ {
		for r, row := range rows {
			column[r] = row[c]
		}
		s.means[c] = stat.Mean(column, nil)
		s.stdDevs[c] = stat.PopStdDev(column, nil)
		if s.stdDevs[c] == 0 {
			// Constant column; leave it centered instead of dividing by zero.
			s.stdDevs[c] = 1
		}
	}
	return s, nil
}

// Transform standardizes every row with the fitted parameters.
func (s *Scaler) Transform(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.TransformOne(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

// TransformOne standardizes a single sample for inference.
func (s *Scaler) TransformOne(row []float64) ([]float64, error) {
	if len(row) != len(s.means) {
		return nil, fmt.Errorf("%w: expected %d columns, got %d", common.ErrInvalidInput, len(s.means), len(row))
	}
	out := make([]float64, len(row))
	for c, v := range row {
		out[c] = (v - s.means[c]) / s.stdDevs[c]
	}
	return out, nil
}

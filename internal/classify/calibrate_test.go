package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietsignal/phenoscope/internal/common"
)

func TestCalibrate(t *testing.T) {
	tests := []struct {
		name           string
		distribution   []float64
		wantConfidence float64
		wantIndex      int
	}{
		{
			name:           "clear winner",
			distribution:   []float64{0.2, 0.5, 0.3},
			wantConfidence: 0.5,
			wantIndex:      1,
		},
		{
			name:           "tie resolves to lowest index",
			distribution:   []float64{0.4, 0.4, 0.2},
			wantConfidence: 0.4,
			wantIndex:      0,
		},
		{
			name:           "certain prediction",
			distribution:   []float64{0, 0, 1},
			wantConfidence: 1.0,
			wantIndex:      2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confidence, idx, err := Calibrate(tt.distribution)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantConfidence, confidence, 1e-9)
			assert.Equal(t, tt.wantIndex, idx)
		})
	}
}

func TestCalibrateEmptyDistribution(t *testing.T) {
	_, _, err := Calibrate(nil)
	require.ErrorIs(t, err, common.ErrEmptyDistribution)
}

func TestApplyManualPenalty(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "high confidence takes full penalty", in: 0.9, want: 0.75},
		{name: "floor applies", in: 0.5, want: 0.4},
		{name: "already at floor", in: 0.4, want: 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ApplyManualPenalty(tt.in), 1e-9)
		})
	}
}

package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietsignal/phenoscope/internal/model"
)

func record(label model.RiskLabel) model.PredictionRecord {
	return model.PredictionRecord{
		Label:         label,
		Confidence:    0.8,
		Probabilities: []float64{0.1, 0.1, 0.8},
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name   string
		labels []model.RiskLabel
		want   string
	}{
		{
			name:   "no records",
			labels: nil,
			want:   TrendInsufficient,
		},
		{
			name:   "single record",
			labels: []model.RiskLabel{model.RiskModerate},
			want:   TrendInsufficient,
		},
		{
			name:   "two equal records",
			labels: []model.RiskLabel{model.RiskLow, model.RiskLow},
			want:   TrendStable,
		},
		{
			name:   "rising severity",
			labels: []model.RiskLabel{model.RiskLow, model.RiskLow, model.RiskModerate},
			want:   TrendIncreasing,
		},
		{
			name:   "falling severity",
			labels: []model.RiskLabel{model.RiskElevated, model.RiskModerate, model.RiskLow},
			want:   TrendImproving,
		},
		{
			name:   "reversal with equal endpoints",
			labels: []model.RiskLabel{model.RiskLow, model.RiskElevated, model.RiskLow},
			want:   TrendFluctuating,
		},
		{
			name:   "only last three considered",
			labels: []model.RiskLabel{model.RiskElevated, model.RiskLow, model.RiskLow, model.RiskModerate},
			want:   TrendIncreasing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(10)
			for _, label := range tt.labels {
				tr.Append(record(label))
			}
			assert.Equal(t, tt.want, tr.Trend())
		})
	}
}

func TestAppendEvictsOldestFirst(t *testing.T) {
	tr := New(3)
	tr.Append(record(model.RiskElevated))
	tr.Append(record(model.RiskLow))
	tr.Append(record(model.RiskLow))
	require.Equal(t, 3, tr.Len())

	// The Elevated record is evicted; the remaining window is all Low.
	tr.Append(record(model.RiskLow))
	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, TrendStable, tr.Trend())
}

func TestReset(t *testing.T) {
	tr := New(5)
	tr.Append(record(model.RiskLow))
	tr.Append(record(model.RiskModerate))
	require.Equal(t, TrendIncreasing, tr.Trend())

	tr.Reset()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, TrendInsufficient, tr.Trend())

	// Full capacity is available again after reset.
	for i := 0; i < 5; i++ {
		tr.Append(record(model.RiskLow))
	}
	assert.Equal(t, 5, tr.Len())
}

func TestNewDefaultsCapacity(t *testing.T) {
	tr := New(0)
	for i := 0; i < DefaultHistorySize+3; i++ {
		tr.Append(record(model.RiskLow))
	}
	assert.Equal(t, DefaultHistorySize, tr.Len())
}

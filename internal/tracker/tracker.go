// Package tracker maintains a bounded rolling history of risk predictions
// and derives a qualitative trend from recent severity.
package tracker

import "github.com/quietsignal/phenoscope/internal/model"

// Trend labels returned by Trend.
const (
	TrendInsufficient = "Insufficient Data"
	TrendStable       = "Stable"
	TrendIncreasing   = "Increasing Trend"
	TrendImproving    = "Improving Trend"
	TrendFluctuating  = "Fluctuating"
)

// DefaultHistorySize is the rolling window capacity used when none is given.
const DefaultHistorySize = 10

// recentWindow is how many trailing records the trend examines.
const recentWindow = 3

// RiskTracker is a FIFO bounded history of prediction records. It is not
// safe for concurrent use; the serving boundary serializes access.
type RiskTracker struct {
	history  []model.PredictionRecord
	capacity int
}

// New creates a tracker with the given capacity. Non-positive capacities
// fall back to DefaultHistorySize.
func New(capacity int) *RiskTracker {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &RiskTracker{
		history:  make([]model.PredictionRecord, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a record, evicting the oldest when at capacity.
func (t *RiskTracker) Append(record model.PredictionRecord) {
	if len(t.history) == t.capacity {
		copy(t.history, t.history[1:])
		t.history = t.history[:len(t.history)-1]
	}
	t.history = append(t.history, record)
}

// Len returns the current history length.
func (t *RiskTracker) Len() int {
	return len(t.history)
}

// Trend inspects the last few records' severities. With all of them equal
// the trend is stable; otherwise only the endpoints of the window decide the
// direction, and a reversing path with equal endpoints reads as fluctuating.
func (t *RiskTracker) Trend() string {
	if len(t.history) < 2 {
		return TrendInsufficient
	}

	start := len(t.history) - recentWindow
	if start < 0 {
		start = 0
	}
	recent := t.history[start:]

	severities := make([]int, len(recent))
	for i, r := range recent {
		severities[i] = r.Label.Severity()
	}

	allEqual := true
	for _, s := range severities {
		if s != severities[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return TrendStable
	}

	first, last := severities[0], severities[len(severities)-1]
	switch {
	case last > first:
		return TrendIncreasing
	case last < first:
		return TrendImproving
	default:
		return TrendFluctuating
	}
}

// Reset clears the history; the full capacity is available again.
func (t *RiskTracker) Reset() {
	t.history = t.history[:0]
}

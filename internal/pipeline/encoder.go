package pipeline

import (
	"fmt"
	"sort"

	"github.com/quietsignal/phenoscope/internal/common"
	"github.com/quietsignal/phenoscope/internal/model"
)

// LabelEncoder maps risk labels to contiguous integers. Classes are indexed
// in sorted order so the mapping is deterministic across runs; the fitted
// mapping is kept for inverse lookups at serving time.
type LabelEncoder struct {
	classes []model.RiskLabel
	index   map[model.RiskLabel]int
}

// FitLabelEncoder derives the class set from the observed labels.
func FitLabelEncoder(labels []model.RiskLabel) (*LabelEncoder, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels to encode", common.ErrEmptyPopulation)
	}

	seen := make(map[model.RiskLabel]bool)
	for _, l := range labels {
		seen[l] = true
	}
	classes := make([]model.RiskLabel, 0, len(seen))
	for l := range seen {
		classes = append(classes, l)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	index := make(map[model.RiskLabel]int, len(classes))
	for i, l := range classes {
		index[l] = i
	}
	return &LabelEncoder{classes: classes, index: index}, nil
}

// Transform returns the integer class for a label.
func (e *LabelEncoder) Transform(label model.RiskLabel) (int, error) {
	idx, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", common.ErrUnknownLabel, label)
	}
	return idx, nil
}

// InverseTransform returns the label for an integer class.
func (e *LabelEncoder) InverseTransform(idx int) (model.RiskLabel, error) {
	if idx < 0 || idx >= len(e.classes) {
		return "", fmt.Errorf("%w: class index %d out of range", common.ErrUnknownLabel, idx)
	}
	return e.classes[idx], nil
}

// Classes returns the fitted labels in index order.
func (e *LabelEncoder) Classes() []model.RiskLabel {
	out := make([]model.RiskLabel, len(e.classes))
	copy(out, e.classes)
	return out
}

// NumClasses returns the number of fitted classes.
func (e *LabelEncoder) NumClasses() int {
	return len(e.classes)
}

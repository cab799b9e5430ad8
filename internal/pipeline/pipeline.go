package pipeline

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"

	"github.com/quietsignal/phenoscope/internal/common"
	"github.com/quietsignal/phenoscope/internal/model"
)

// testFraction is the share of each class held out for evaluation.
const testFraction = 0.2

// Fitted bundles the preprocessed splits and the fitted transforms. The
// transforms are reused for every later single-sample inference.
type Fitted struct {
	XTrain [][]float64
	XTest  [][]float64
	YTrain []int
	YTest  []int

	Scaler       *Scaler
	Encoder      *LabelEncoder
	FeatureNames []string
}

// FitTransform splits the population 80/20 stratified by label, fits the
// scaler on the training split only, and fits the label encoder. The split
// fails if any class has fewer than 2 members.
func FitTransform(population []model.LabeledSample, seed uint64) (*Fitted, error) {
	if len(population) == 0 {
		return nil, fmt.Errorf("%w: cannot preprocess", common.ErrEmptyPopulation)
	}

	labels := make([]model.RiskLabel, len(population))
	for i, s := range population {
		labels[i] = s.Label
	}
	encoder, err := FitLabelEncoder(labels)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := stratifiedSplit(labels, seed)
	if err != nil {
		return nil, err
	}

	rawTrain := make([][]float64, len(trainIdx))
	yTrain := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		rawTrain[i] = population[idx].Features.Values()
		if yTrain[i], err = encoder.Transform(population[idx].Label); err != nil {
			return nil, err
		}
	}
	rawTest := make([][]float64, len(testIdx))
	yTest := make([]int, len(testIdx))
	for i, idx := range testIdx {
		rawTest[i] = population[idx].Features.Values()
		if yTest[i], err = encoder.Transform(population[idx].Label); err != nil {
			return nil, err
		}
	}

	scaler, err := FitScaler(rawTrain)
	if err != nil {
		return nil, err
	}
	xTrain, err := scaler.Transform(rawTrain)
	if err != nil {
		return nil, err
	}
	xTest, err := scaler.Transform(rawTest)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(model.FeatureNames))
	copy(names, model.FeatureNames)

	return &Fitted{
		XTrain:       xTrain,
		XTest:        xTest,
		YTrain:       yTrain,
		YTest:        yTest,
		Scaler:       scaler,
		Encoder:      encoder,
		FeatureNames: names,
	}, nil
}

// stratifiedSplit partitions sample indices so class proportions are
// preserved in both splits.
func stratifiedSplit(labels []model.RiskLabel, seed uint64) (train, test []int, err error) {
	groups := make(map[model.RiskLabel][]int)
	for i, l := range labels {
		groups[l] = append(groups[l], i)
	}

	ordered := make([]model.RiskLabel, 0, len(groups))
	for l := range groups {
		ordered = append(ordered, l)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	rng := rand.New(rand.NewSource(seed))
	for _, label := range ordered {
		indices := groups[label]
		if len(indices) < 2 {
			return nil, nil, fmt.Errorf("%w: class %q has %d sample(s), need at least 2",
				common.ErrPopulationTooSmall, label, len(indices))
		}
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTest := int(math.Round(testFraction * float64(len(indices))))
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= len(indices) {
			nTest = len(indices) - 1
		}
		test = append(test, indices[:nTest]...)
		train = append(train, indices[nTest:]...)
	}
	return train, test, nil
}

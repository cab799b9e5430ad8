package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietsignal/phenoscope/internal/common"
	"github.com/quietsignal/phenoscope/internal/model"
	"github.com/quietsignal/phenoscope/internal/simulate"
)

func TestFitTransform(t *testing.T) {
	population, err := simulate.GeneratePopulation(500, 42)
	require.NoError(t, err)

	fitted, err := FitTransform(population, 42)
	require.NoError(t, err)

	assert.Len(t, fitted.XTrain, len(fitted.YTrain))
	assert.Len(t, fitted.XTest, len(fitted.YTest))
	assert.Equal(t, len(population), len(fitted.XTrain)+len(fitted.XTest))
	assert.Equal(t, model.FeatureNames, fitted.FeatureNames)

	// Roughly 20% held out.
	testShare := float64(len(fitted.XTest)) / float64(len(population))
	assert.InDelta(t, 0.2, testShare, 0.02)

	// Stratification preserves class proportions across splits.
	trainCounts := make([]int, fitted.Encoder.NumClasses())
	for _, y := range fitted.YTrain {
		trainCounts[y]++
	}
	testCounts := make([]int, fitted.Encoder.NumClasses())
	for _, y := range fitted.YTest {
		testCounts[y]++
	}
	for c := range trainCounts {
		trainShare := float64(trainCounts[c]) / float64(len(fitted.YTrain))
		testShare := float64(testCounts[c]) / float64(len(fitted.YTest))
		assert.InDelta(t, trainShare, testShare, 0.03, "class %d proportions should match across splits", c)
	}

	// The scaler was fit on the training split: its columns are standardized.
	for c := 0; c < model.NumFeatures; c++ {
		var sum, sumSq float64
		for _, row := range fitted.XTrain {
			sum += row[c]
			sumSq += row[c] * row[c]
		}
		n := float64(len(fitted.XTrain))
		mean := sum / n
		variance := sumSq/n - mean*mean
		assert.InDelta(t, 0.0, mean, 1e-9)
		assert.InDelta(t, 1.0, variance, 1e-9)
	}
}

func TestFitTransformUndersizedClass(t *testing.T) {
	population := []model.LabeledSample{
		{Features: model.FeatureVector{ScreenTime: 3}, Label: model.RiskLow},
		{Features: model.FeatureVector{ScreenTime: 4}, Label: model.RiskLow},
		{Features: model.FeatureVector{ScreenTime: 9}, Label: model.RiskElevated},
	}
	_, err := FitTransform(population, 42)
	require.ErrorIs(t, err, common.ErrPopulationTooSmall)
}

func TestFitTransformEmpty(t *testing.T) {
	_, err := FitTransform(nil, 42)
	require.ErrorIs(t, err, common.ErrEmptyPopulation)
}

func TestLabelEncoderRoundTrip(t *testing.T) {
	labels := []model.RiskLabel{model.RiskModerate, model.RiskLow, model.RiskElevated, model.RiskLow}
	encoder, err := FitLabelEncoder(labels)
	require.NoError(t, err)
	require.Equal(t, 3, encoder.NumClasses())

	// Sorted order keeps the mapping deterministic across runs.
	assert.Equal(t, []model.RiskLabel{model.RiskElevated, model.RiskLow, model.RiskModerate}, encoder.Classes())

	for _, label := range []model.RiskLabel{model.RiskLow, model.RiskModerate, model.RiskElevated} {
		idx, err := encoder.Transform(label)
		require.NoError(t, err)
		back, err := encoder.InverseTransform(idx)
		require.NoError(t, err)
		assert.Equal(t, label, back)
	}
}

func TestLabelEncoderUnknown(t *testing.T) {
	encoder, err := FitLabelEncoder([]model.RiskLabel{model.RiskLow, model.RiskLow})
	require.NoError(t, err)

	_, err = encoder.Transform(model.RiskElevated)
	assert.ErrorIs(t, err, common.ErrUnknownLabel)

	_, err = encoder.InverseTransform(5)
	assert.ErrorIs(t, err, common.ErrUnknownLabel)
}

func TestScalerTransformOne(t *testing.T) {
	rows := [][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
	}
	scaler, err := FitScaler(rows)
	require.NoError(t, err)

	scaled, err := scaler.TransformOne([]float64{2, 20})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, scaled[0], 1e-9)
	assert.InDelta(t, 0.0, scaled[1], 1e-9)

	_, err = scaler.TransformOne([]float64{1})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestFitTransformDeterministic(t *testing.T) {
	population, err := simulate.GeneratePopulation(200, 11)
	require.NoError(t, err)

	a, err := FitTransform(population, 11)
	require.NoError(t, err)
	b, err := FitTransform(population, 11)
	require.NoError(t, err)
	assert.Equal(t, a.YTrain, b.YTrain)
	assert.Equal(t, a.XTest, b.XTest)
}

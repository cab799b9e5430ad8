package classify

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"github.com/quietsignal/phenoscope/internal/common"
)

// ForestConfig bounds the bagged-tree ensemble. The depth and leaf-size
// limits keep individual trees from memorizing synthetic noise.
type ForestConfig struct {
	NumTrees    int
	MaxDepth    int
	MinLeaf     int
	MaxFeatures int
}

// DefaultForestConfig returns the serving defaults: 100 trees, depth at most
// 6, at least 4 samples per leaf, sqrt(features) candidates per split.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees: 100,
		MaxDepth: 6,
		MinLeaf:  4,
	}
}

// Forest is a bagged ensemble of CART trees. It is the primary serving model
// because it natively exposes both class probabilities and ranked per-feature
// importances.
type Forest struct {
	trees       []*treeNode
	importances []float64
	numClasses  int
}

// TrainForest fits the ensemble on scaled training rows. Each tree sees a
// bootstrap resample of the rows. The optional progress callback fires once
// per trained tree.
func TrainForest(x [][]float64, y []int, numClasses int, cfg ForestConfig, seed uint64, progress func()) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", common.ErrEmptyPopulation, len(x), len(y))
	}

	numFeatures := len(x[0])
	maxFeatures := cfg.MaxFeatures
	if maxFeatures <= 0 || maxFeatures > numFeatures {
		maxFeatures = int(math.Ceil(math.Sqrt(float64(numFeatures))))
	}
	params := treeParams{
		maxDepth:    cfg.MaxDepth,
		minLeaf:     cfg.MinLeaf,
		maxFeatures: maxFeatures,
		numClasses:  numClasses,
	}

	rng := rand.New(rand.NewSource(seed))
	f := &Forest{
		trees:       make([]*treeNode, cfg.NumTrees),
		importances: make([]float64, numFeatures),
		numClasses:  numClasses,
	}

	indices := make([]int, len(x))
	for t := range f.trees {
		for i := range indices {
			indices[i] = rng.Intn(len(x))
		}
		f.trees[t] = buildTree(x, y, indices, 0, params, rng, f.importances, len(x))
		if progress != nil {
			progress()
		}
	}

	if total := floats.Sum(f.importances); total > 0 {
		floats.Scale(1/total, f.importances)
	}
	return f, nil
}

// PredictProba averages the leaf distributions of all trees. Entries are
// non-negative and sum to 1.
func (f *Forest) PredictProba(row []float64) []float64 {
	probs := make([]float64, f.numClasses)
	for _, tree := range f.trees {
		floats.Add(probs, tree.predictProba(row))
	}
	floats.Scale(1/float64(len(f.trees)), probs)
	return probs
}

// Predict returns the most probable class index.
func (f *Forest) Predict(row []float64) int {
	return argmax(f.PredictProba(row))
}

// FeatureImportances returns per-feature weights, non-negative and summing
// to 1, ordered by the canonical feature columns.
func (f *Forest) FeatureImportances() []float64 {
	out := make([]float64, len(f.importances))
	copy(out, f.importances)
	return out
}

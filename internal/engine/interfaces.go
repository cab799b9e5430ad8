package engine

// Classifier is the capability the engine needs from a trained model: a
// class-probability distribution plus ranked per-feature importances. Any
// probabilistic classifier exposing both satisfies the contract; the
// training algorithm behind it is not the engine's concern.
type Classifier interface {
	PredictProba(row []float64) []float64
	FeatureImportances() []float64
}

package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer is the interface for models that can compute a score.
// Regressors return R², classifiers return mean accuracy.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor combines interfaces for regression models.
type Regressor interface {
	Estimator
	Scorer
}

// Classifier combines interfaces for classification models.
type Classifier interface {
	Estimator
	Scorer

	// Classes returns the distinct labels seen during fitting, sorted ascending.
	Classes() []float64
}

// ProbabilisticClassifier is a Classifier that also exposes probability estimates.
type ProbabilisticClassifier interface {
	Classifier

	// PredictProba returns probability estimates, one row per sample.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter is the interface for models that expose their hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

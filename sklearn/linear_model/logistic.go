package linear_model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

// probEpsilon は確率を (0,1) の内側に保つためのクリップ幅
const probEpsilon = 1e-15

// LogisticRegression は {0,1} ラベルの二値分類を交差エントロピーの
// 全バッチ勾配降下法で学習するロジスティック回帰
type LogisticRegression struct {
	state  *model.StateManager // State management (composition)
	logger log.Logger

	params params

	// Model parameters
	coef_      []float64
	intercept_ float64
	nIter_     int
	lossCurve_ []float64 // 反復ごとの二値交差エントロピー
}

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...Option) (*LogisticRegression, error) {
	p := defaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &LogisticRegression{
		state:  model.NewStateManager(),
		logger: newLogger("LogisticRegression"),
		params: p,
	}, nil
}

// Fit trains the model. y must contain only 0 and 1.
// Weights and intercept start at zero; each iteration applies
// dw = Xᵀ(p-y)/n and db = mean(p-y).
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	const op = "LogisticRegression.Fit"
	nSamples, nFeatures, err := checkXY(op, X, y)
	if err != nil {
		return err
	}

	yVec := mat.NewVecDense(nSamples, mat.Col(nil, 0, y))
	for i := 0; i < nSamples; i++ {
		if v := yVec.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, fmt.Sprintf("labels must be 0 or 1, got %g at row %d", v, i))
		}
	}

	d := &descent{
		op:     op,
		params: lr.params,
		logger: lr.logger,
		link:   sigmoid,
		loss:   metrics.BinaryLogLoss,
	}
	res, err := d.run(X, yVec, make([]float64, nFeatures), 0)
	if err != nil {
		lr.logger.Error("fit failed", err, log.OperationKey, log.OperationFit)
		return err
	}
	if lr.params.tol > 0 && !res.converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", res.nIter, ""))
	}

	lr.coef_ = res.weights
	lr.intercept_ = res.bias
	lr.nIter_ = res.nIter
	lr.lossCurve_ = res.lossCurve
	lr.state.SetFitted(nFeatures, nSamples)

	lr.logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.IterationKey, res.nIter,
		log.LossKey, res.lossCurve[len(res.lossCurve)-1],
	)
	return nil
}

// DecisionFunction returns Xw + b as an m×1 column.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	return lr.decision("DecisionFunction", X)
}

func (lr *LogisticRegression) decision(method string, X mat.Matrix) (*mat.Dense, error) {
	if err := lr.state.RequireFitted("LogisticRegression", method); err != nil {
		return nil, err
	}
	if _, err := checkX("LogisticRegression."+method, X, lr.state.NFeatures()); err != nil {
		return nil, err
	}
	return decision(X, lr.coef_, lr.intercept_), nil
}

// PredictProba returns P(y=1|x) as an m×1 column, strictly inside (0,1).
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	z, err := lr.decision("PredictProba", X)
	if err != nil {
		return nil, err
	}
	z.Apply(func(_, _ int, v float64) float64 { return sigmoid(v) }, z)
	return z, nil
}

// Predict returns hard labels: 1 where P(y=1|x) > 0.5, else 0.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	z, err := lr.decision("Predict", X)
	if err != nil {
		return nil, err
	}
	z.Apply(func(_, _ int, v float64) float64 {
		if sigmoid(v) > 0.5 {
			return 1
		}
		return 0
	}, z)

	lr.logger.Debug("predict completed",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, z.RawMatrix().Rows,
		log.ThresholdKey, 0.5,
	)
	return z, nil
}

// PredictWithProbability returns probabilities when returnProbability is true
// and hard labels otherwise.
func (lr *LogisticRegression) PredictWithProbability(X mat.Matrix, returnProbability bool) (mat.Matrix, error) {
	if returnProbability {
		return lr.PredictProba(X)
	}
	return lr.Predict(X)
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, predictions)
}

// Classes returns the label set, always {0, 1}.
func (lr *LogisticRegression) Classes() []float64 {
	return []float64{0, 1}
}

// Coef returns a copy of the learned weights.
func (lr *LogisticRegression) Coef() []float64 {
	return copyFloats(lr.coef_)
}

// Intercept returns the learned bias.
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept_
}

// NIter returns the number of iterations run by the last Fit.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter_
}

// LossCurve returns the binary log loss before each update.
func (lr *LogisticRegression) LossCurve() []float64 {
	return copyFloats(lr.lossCurve_)
}

// IsFitted returns whether the model has been fitted
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	p := lr.params.asMap()
	delete(p, "random_state")
	return p
}

// String returns the string representation of the model
func (lr *LogisticRegression) String() string {
	return fmt.Sprintf("LogisticRegression(learning_rate=%g, max_iter=%d, tol=%g)",
		lr.params.learningRate, lr.params.maxIter, lr.params.tol)
}

// sigmoid computes the sigmoid function, clipped to [eps, 1-eps]
func sigmoid(z float64) float64 {
	var p float64
	if z >= 0 {
		p = 1.0 / (1.0 + math.Exp(-z))
	} else {
		e := math.Exp(z)
		p = e / (1.0 + e)
	}
	return errors.ClipValue(p, probEpsilon, 1-probEpsilon)
}

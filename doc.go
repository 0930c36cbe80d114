// Package mlkit provides classical machine learning estimators for Go,
// built on gonum matrices.
//
// mlkit offers a scikit-learn-like API: every estimator is configured with
// functional options, trained with Fit and queried with Predict or Transform.
// Inputs are gonum mat.Matrix values with one sample per row; targets and
// predictions are n×1 column matrices.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/mlkit/sklearn/neighbors"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 5, 5, 5, 6})
//	    y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
//
//	    knn, err := neighbors.NewKNeighborsClassifier(neighbors.WithK(1))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := knn.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    pred, err := knn.Predict(mat.NewDense(1, 2, []float64{4.5, 5}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(pred.At(0, 0)) // 1
//	}
//
// # Packages
//
//   - sklearn/neighbors: k-nearest-neighbor classifier and regressor with L1/L2 distances
//   - sklearn/naive_bayes: Gaussian and multinomial naive Bayes
//   - sklearn/linear_model: gradient-descent linear and logistic regression
//   - sklearn/decomposition: principal component analysis
//   - metrics: regression and classification metrics (MSE, R², accuracy, log loss)
//   - core/model: estimator interfaces and fitted-state management
//   - core/parallel: row-parallel helpers used by the neighbor search
//   - pkg/errors: typed errors and warnings built on cockroachdb/errors
//   - pkg/log: structured logging on log/slog with a zerolog adapter
//
// # Errors
//
// Estimators return typed errors that can be inspected with errors.As:
//
//	var dimErr *errors.DimensionError
//	if errors.As(err, &dimErr) {
//	    fmt.Println(dimErr.Expected, dimErr.Got)
//	}
//
// # License
//
// mlkit is released under the MIT License.
package mlkit

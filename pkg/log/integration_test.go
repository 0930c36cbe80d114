package log_test

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlkit/pkg/log"
	"github.com/YuminosukeSato/mlkit/sklearn/decomposition"
	"github.com/YuminosukeSato/mlkit/sklearn/linear_model"
	"github.com/YuminosukeSato/mlkit/sklearn/naive_bayes"
	"github.com/YuminosukeSato/mlkit/sklearn/neighbors"
)

// installTestLogger routes the package-wide logger to a TestLogger until the test ends.
func installTestLogger(t *testing.T, level log.Level) *log.TestLogger {
	t.Helper()
	logger, _ := log.NewTestLogger(level)
	log.SetLogger(logger)
	t.Cleanup(func() { log.SetLogger(nil) })
	return logger
}

func twoClusters() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		9, 9,
		9, 10,
		10, 9,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

func TestEstimatorsLogFitAndPredict(t *testing.T) {
	logger := installTestLogger(t, log.LevelDebug)
	X, y := twoClusters()

	knn, err := neighbors.NewKNeighborsClassifier(neighbors.WithK(3))
	if err != nil {
		t.Fatal(err)
	}
	gnb, err := naive_bayes.NewGaussianNB()
	if err != nil {
		t.Fatal(err)
	}

	for _, est := range []interface {
		Fit(X, y mat.Matrix) error
		Predict(X mat.Matrix) (mat.Matrix, error)
	}{knn, gnb} {
		if err := est.Fit(X, y); err != nil {
			t.Fatalf("Fit() error: %v", err)
		}
		if _, err := est.Predict(X); err != nil {
			t.Fatalf("Predict() error: %v", err)
		}
	}

	entries, err := logger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries() error: %v", err)
	}

	type key struct{ component, model, operation string }
	seen := map[key]bool{}
	ids := map[string]bool{}
	for _, e := range entries {
		component, _ := e[log.ComponentKey].(string)
		model, _ := e[log.ModelNameKey].(string)
		operation, _ := e[log.OperationKey].(string)
		seen[key{component, model, operation}] = true
		if id, ok := e[log.EstimatorIDKey].(string); ok {
			ids[id] = true
		}
	}

	for _, want := range []key{
		{"neighbors", "KNeighborsClassifier", log.OperationFit},
		{"neighbors", "KNeighborsClassifier", log.OperationPredict},
		{"naive_bayes", "GaussianNB", log.OperationFit},
		{"naive_bayes", "GaussianNB", log.OperationPredict},
	} {
		if !seen[want] {
			t.Errorf("no record for %+v in %v", want, entries)
		}
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 distinct estimator ids, got %d", len(ids))
	}
}

func TestTransformerLogsComponents(t *testing.T) {
	logger := installTestLogger(t, log.LevelDebug)
	X, _ := twoClusters()

	pca, err := decomposition.NewPCA(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pca.FitTransform(X); err != nil {
		t.Fatalf("FitTransform() error: %v", err)
	}

	if !logger.ContainsField(log.ComponentsKey, 1.0) {
		t.Error("fit record should carry the number of components")
	}
	if !logger.ContainsField(log.OperationKey, log.OperationTransform) {
		t.Error("transform record not found")
	}
	if !logger.ContainsField(log.ModelNameKey, "PCA") {
		t.Error("model name not found")
	}
}

func TestFailedFitLogsError(t *testing.T) {
	logger := installTestLogger(t, log.LevelError)

	lr, err := linear_model.NewLinearRegression(linear_model.WithLearningRate(1000))
	if err != nil {
		t.Fatal(err)
	}
	X := mat.NewDense(2, 1, []float64{1000, 2000})
	y := mat.NewDense(2, 1, []float64{1, 2})
	if err := lr.Fit(X, y); err == nil {
		t.Fatal("expected divergence error")
	}

	entries, err := logger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 error record at Error level, got %d", len(entries))
	}
	e := entries[0]
	if e["level"] != "ERROR" || e[log.ModelNameKey] != "LinearRegression" {
		t.Errorf("unexpected record: %v", e)
	}
	if _, ok := e[log.ErrAttrKey]; !ok {
		t.Errorf("record should carry the error under %q", log.ErrAttrKey)
	}
}

func TestDebugRecordsSuppressedAtInfo(t *testing.T) {
	logger := installTestLogger(t, log.LevelInfo)
	X, y := twoClusters()

	gnb, err := naive_bayes.NewGaussianNB()
	if err != nil {
		t.Fatal(err)
	}
	if err := gnb.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if logger.GetBuffer().Len() != 0 {
		t.Errorf("expected no output at Info level, got %q", logger.GetBuffer().String())
	}
}

package errors

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "KNeighbors.Fit",
			kind:    "empty data",
			err:     ErrEmptyData,
			wantMsg: "mlkit: KNeighbors.Fit: empty data: empty data",
		},
		{
			name:    "without original error",
			op:      "PCA.Fit",
			kind:    "eigen decomposition failed",
			err:     nil,
			wantMsg: "mlkit: PCA.Fit: eigen decomposition failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}

			if tt.err != nil && !Is(err, tt.err) {
				t.Errorf("Expected Is(err, %v) to be true", tt.err)
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	tests := []struct {
		name string
		axis int
		want string
	}{
		{name: "rows", axis: 0, want: "mlkit: GaussianNB.Fit: dimension mismatch on axis 0 (rows). Expected 10, got 9"},
		{name: "features", axis: 1, want: "mlkit: GaussianNB.Fit: dimension mismatch on axis 1 (features). Expected 10, got 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDimensionError("GaussianNB.Fit", 10, 9, tt.axis)
			if err.Error() != tt.want {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.want)
			}

			var dimErr *DimensionError
			if !As(err, &dimErr) {
				t.Fatal("Error should be castable to *DimensionError")
			}
			if dimErr.Axis != tt.axis {
				t.Errorf("Axis = %d, want %d", dimErr.Axis, tt.axis)
			}
		})
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("PCA", "Transform")

	want := "mlkit: PCA: this model is not fitted yet. Call Fit() before using Transform()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("metric", "must be one of l1, l2", "cosine")

	want := "mlkit: validation failed for parameter 'metric': must be one of l1, l2 (got: cosine)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var valErr *ValidationError
	if !As(err, &valErr) {
		t.Fatal("Error should be castable to *ValidationError")
	}
	if valErr.ParamName != "metric" {
		t.Errorf("ParamName = %q, want %q", valErr.ParamName, "metric")
	}
}

func TestNewValueError(t *testing.T) {
	err := NewValueError("LogisticRegression.Fit", "labels must be 0 or 1, got 2")

	want := "mlkit: LogisticRegression.Fit: labels must be 0 or 1, got 2"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var valErr *ValueError
	if !As(err, &valErr) {
		t.Error("Error should be castable to *ValueError")
	}
}

func TestNumericalInstabilityError(t *testing.T) {
	err := NewNumericalInstabilityError("gradient_update", []float64{1, 2, 3, 4, 5, 6, 7}, 12)

	msg := err.Error()
	if !strings.Contains(msg, "gradient_update at iteration 12") {
		t.Errorf("unexpected message: %s", msg)
	}
	// 5件を超える値は省略される
	if !strings.Contains(msg, "...") || strings.Contains(msg, "7") {
		t.Errorf("expected truncated values in message: %s", msg)
	}

	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatal("Error should be castable to *NumericalInstabilityError")
	}
	if numErr.Iteration != 12 {
		t.Errorf("Iteration = %d, want 12", numErr.Iteration)
	}
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("LinearRegression", 1000, "gradient norm 0.2 above tol 1e-06")

	want := "LinearRegression failed to converge after 1000 iterations: gradient norm 0.2 above tol 1e-06"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}

	var convWarn *ConvergenceWarning
	if !As(warn, &convWarn) {
		t.Error("Warning should be castable to *ConvergenceWarning")
	}
}

func TestWarnRouting(t *testing.T) {
	var (
		mu       sync.Mutex
		received []error
	)
	SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, w)
	})
	defer SetWarningHandler(nil)

	Warn(NewConvergenceWarning("LogisticRegression", 10, ""))
	if len(received) != 1 {
		t.Fatalf("expected 1 warning through handler, got %d", len(received))
	}

	// zerologフックが設定されている場合はそちらが優先される
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	SetZerologWarnFunc(func(w error) {
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			logger.Warn().EmbedObject(m).Msg(w.Error())
			return
		}
		logger.Warn().Msg(w.Error())
	})
	defer SetZerologWarnFunc(nil)

	Warn(NewConvergenceWarning("LogisticRegression", 10, ""))
	if len(received) != 1 {
		t.Errorf("handler should not be called when zerolog hook is set, got %d calls", len(received))
	}
	if !strings.Contains(buf.String(), `"type":"ConvergenceWarning"`) {
		t.Errorf("expected structured warning in zerolog output, got %s", buf.String())
	}
}

func TestMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var dimErr *DimensionError
	err := NewDimensionError("PCA.Transform", 3, 2, 1)
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	logger.Error().EmbedObject(dimErr).Msg("transform failed")

	out := buf.String()
	for _, want := range []string{`"operation":"PCA.Transform"`, `"axis_name":"features"`, `"type":"DimensionError"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrEmptyData, "in KNeighbors.Fit")

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in KNeighbors.Fit") {
		t.Error("Expected wrapped error to contain wrapping message")
	}

	wrappedf := Wrapf(ErrDecompositionFailed, "in %s: %d features", "PCA.Fit", 4)
	if !Is(wrappedf, ErrDecompositionFailed) {
		t.Error("Expected Is(wrappedf, ErrDecompositionFailed) to be true")
	}
	if !strings.Contains(wrappedf.Error(), "in PCA.Fit: 4 features") {
		t.Errorf("unexpected message: %s", wrappedf.Error())
	}
}

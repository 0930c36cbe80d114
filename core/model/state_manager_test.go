package model

import (
	"testing"

	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

func TestStateManagerLifecycle(t *testing.T) {
	s := NewStateManager()

	if s.IsFitted() {
		t.Fatal("new state must not be fitted")
	}

	err := s.RequireFitted("GaussianNB", "Predict")
	var nfe *errors.NotFittedError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFittedError, got %v", err)
	}
	if nfe.ModelName != "GaussianNB" || nfe.Method != "Predict" {
		t.Errorf("unexpected error fields: %+v", nfe)
	}

	s.SetFitted(4, 150)
	if err := s.RequireFitted("GaussianNB", "Predict"); err != nil {
		t.Fatalf("fitted state returned error: %v", err)
	}
	if got := s.NFeatures(); got != 4 {
		t.Errorf("NFeatures = %d, want 4", got)
	}
	if f, n := s.GetDimensions(); f != 4 || n != 150 {
		t.Errorf("GetDimensions = (%d, %d), want (4, 150)", f, n)
	}
	if st := s.GetState(); !st.Fitted || st.NSamples != 150 {
		t.Errorf("unexpected state snapshot: %+v", st)
	}

	s.Reset()
	if s.IsFitted() || s.NFeatures() != 0 {
		t.Error("Reset must clear fitted state and dimensions")
	}
}

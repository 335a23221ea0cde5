package model

import (
	"testing"

	"github.com/YuminosukeSato/rtguard/pkg/errors"
)

func TestStateManagerLifecycle(t *testing.T) {
	s := NewStateManager()
	if s.IsFitted() {
		t.Fatal("new StateManager should not be fitted")
	}

	err := s.RequireFitted("RidgeCV", "Predict")
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFittedError, got %v", err)
	}
	if nf.ModelName != "RidgeCV" || nf.Method != "Predict" {
		t.Errorf("unexpected error fields: %+v", nf)
	}

	s.SetFitted(3, 12)
	if err := s.RequireFitted("RidgeCV", "Predict"); err != nil {
		t.Errorf("RequireFitted after SetFitted: %v", err)
	}
	if f, n := s.GetDimensions(); f != 3 || n != 12 {
		t.Errorf("GetDimensions() = (%d, %d), want (3, 12)", f, n)
	}

	s.Reset()
	if s.IsFitted() {
		t.Error("Reset should clear the fitted flag")
	}
	if f, n := s.GetDimensions(); f != 0 || n != 0 {
		t.Errorf("Reset should clear dimensions, got (%d, %d)", f, n)
	}
}

package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestEntityErrorIs(t *testing.T) {
	err := New("mesh surface", "surface", 3, ErrUnmeshedDependency, "curve %d is not meshed", 7)
	if !errors.Is(err, ErrUnmeshedDependency) {
		t.Fatalf("expected ErrUnmeshedDependency, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("unexpected ErrNotFound match")
	}
	want := "mesh surface: surface 3: unmeshed dependency: curve 7 is not meshed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapKeepsKind(t *testing.T) {
	cause := Errorf(ErrInvalidParameter, "intervals must be > 0, got %d", 0)
	err := Wrap("mesh curve", "curve", 1, nil, cause)
	if err.Kind != ErrInvalidParameter {
		t.Fatalf("Kind = %v, want ErrInvalidParameter", err.Kind)
	}
	if !errors.Is(err, ErrInvalidParameter) {
		t.Error("wrapped error lost its kind")
	}
	want := "mesh curve: curve 1: invalid parameter: intervals must be > 0, got 0"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"plain", errors.New("boom"), nil},
		{"sentinel", ErrNotFound, ErrNotFound},
		{"wrapped", fmt.Errorf("model: %w", ErrDegenerateGeometry), ErrDegenerateGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

package services_test

import (
	"errors"
	"testing"

	"platepipe/internal/services"
)

func TestWrapPreservesMarkerAndDetail(t *testing.T) {
	inner := errors.New("boom")
	err := services.Wrap(services.ErrValidation, "correction-apply", "join", "no coarse group", inner)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
	want := "validation error: correction-apply: join: no coarse group: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message: got %q want %q", err.Error(), want)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestNeedsReview(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", services.Wrap(services.ErrValidation, "s", "op", "", nil), true},
		{"configuration", services.Wrap(services.ErrConfiguration, "s", "op", "", nil), true},
		{"not found", services.Wrap(services.ErrNotFound, "s", "op", "", nil), true},
		{"ambiguous", services.Wrap(services.ErrAmbiguous, "s", "op", "", nil), true},
		{"external tool", services.Wrap(services.ErrExternalTool, "s", "op", "", nil), false},
		{"transient", services.Wrap(services.ErrTransient, "s", "op", "", nil), false},
		{"plain", errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := services.NeedsReview(tc.err); got != tc.want {
			t.Errorf("%s: NeedsReview = %v, want %v", tc.name, got, tc.want)
		}
	}
}

package faults

import (
	"errors"
	"testing"
)

func TestWrapTagsWithMarker(t *testing.T) {
	cause := errors.New("disk gone")
	err := Wrap(ErrResolution, "provider", "request", "probe source", cause)

	if !errors.Is(err, ErrResolution) {
		t.Fatal("wrapped error should match its marker")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should match its cause")
	}
	want := "resolution failure: provider: request: probe source: disk gone"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrState, "queue", "pause", "nothing to pause", nil)
	want := "invalid state: queue: pause: nothing to pause"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaultsEmptyDetail(t *testing.T) {
	err := Wrap(ErrTranscode, "", "", "", nil)
	if err.Error() != "transcode failure: component failure" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestRecoverable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrResolution, "p", "r", "m", nil), true},
		{Wrap(ErrTranscode, "q", "e", "m", nil), true},
		{Wrap(ErrRelocation, "p", "r", "m", nil), false},
		{Wrap(ErrState, "q", "s", "m", nil), false},
		{errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := Recoverable(tc.err); got != tc.want {
			t.Errorf("Recoverable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

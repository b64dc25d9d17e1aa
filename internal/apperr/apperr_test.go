package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(EventFull, "event %s is full", "abc")

	kind, ok := KindOf(err)
	if !ok || kind != EventFull {
		t.Fatalf("KindOf = %q, %v, want %q, true", kind, ok, EventFull)
	}
	if err.Error() != "event_full: event abc is full" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("create reservation: %w", New(InsufficientFunds, "balance too low"))

	if !Is(err, InsufficientFunds) {
		t.Error("wrapped error should still match its kind")
	}
	if Is(err, EventFull) {
		t.Error("kind should not match a different kind")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if _, ok := KindOf(errors.New("boom")); ok {
		t.Error("plain error should have no kind")
	}
}

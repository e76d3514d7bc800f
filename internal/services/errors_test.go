package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection reset")
	err := Wrap(ErrTransient, "scrape", "fetch details", "origin unreachable", base)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient classification, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
	if !strings.Contains(err.Error(), "scrape: fetch details: origin unreachable") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %v", err)
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrNotFound, "feed", "read record", "", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not-found classification, got %v", err)
	}
}

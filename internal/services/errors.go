package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks navigation or fetch failures that abort the current
	// run only; the next scheduled run retries naturally.
	ErrTransient = errors.New("transient failure")
	// ErrSessionLost marks an unexpected browser session death. The session
	// manager recovers from it internally; callers normally never see it.
	ErrSessionLost = errors.New("session lost")
	// ErrNotFound marks a missing record or artifact on read.
	ErrNotFound = errors.New("not found")
	// ErrMalformed marks an unexpected origin payload shape.
	ErrMalformed = errors.New("malformed payload")
	// ErrFilesystem marks a write or unlink failure in the content store.
	ErrFilesystem = errors.New("filesystem error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

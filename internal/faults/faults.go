// Package faults defines the error taxonomy shared across montage components.
//
// Sentinel markers classify failures for recovery decisions: resolution and
// transcode failures may be recovered through the relocation protocol before
// being surfaced, while state and duplicate errors are synchronous rejections
// that never propagate as events.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrResolution marks a failure to turn an identifier into a usable handle.
	ErrResolution = errors.New("resolution failure")
	// ErrRelocation marks exhaustion of the relocation protocol for an identifier.
	ErrRelocation = errors.New("relocation failure")
	// ErrTranscode marks a transcode engine failure mid-job.
	ErrTranscode = errors.New("transcode failure")
	// ErrState marks an operation invalid for the current queue or job state.
	ErrState = errors.New("invalid state")
	// ErrDuplicate marks creation of an identifier or proxy that already exists.
	ErrDuplicate = errors.New("duplicate")
	// ErrNotFound marks a lookup miss that callers may treat as expected.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrResolution
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether the relocation protocol may still apply to err.
func Recoverable(err error) bool {
	return errors.Is(err, ErrResolution) || errors.Is(err, ErrTranscode)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "component failure"
	}
	return strings.Join(parts, ": ")
}

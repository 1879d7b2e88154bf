// Package logging assembles structured slog loggers and helpers shared by
// montage components.
//
// It centralizes level and output plumbing, standardized field names, and
// context-aware helpers so asset and proxy code tags log lines the same way
// everywhere. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
package logging

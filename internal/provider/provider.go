// Package provider defines the resolution backends the project delegates to.
// A provider turns an identifier into a usable asset asynchronously; a
// provider that also implements Relocator can propose replacement
// identifiers when resolution fails.
package provider

import (
	"context"

	"montage/internal/asset"
)

// Result is the outcome of one resolution request. Exactly one of Handle and
// Err is set.
type Result struct {
	Handle *asset.Handle
	Err    error
}

// Provider resolves identifiers into assets. Request returns immediately;
// the channel delivers exactly one Result and is then closed. Implementations
// must honor ctx cancellation.
type Provider interface {
	Request(ctx context.Context, id string, kind asset.Kind) <-chan Result
}

// Relocator is an optional capability: given a failed identifier, propose a
// replacement. Returning an empty identifier with a nil error means the
// provider has no proposal and the caller should consult its fallback
// handlers. Returning an error declines relocation outright and makes the
// failure terminal.
type Relocator interface {
	RequestRelocation(ctx context.Context, id string, kind asset.Kind, cause error) (string, error)
}

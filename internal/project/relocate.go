package project

import (
	"context"
	"errors"

	"montage/internal/asset"
	"montage/internal/faults"
	"montage/internal/fileutil"
	"montage/internal/logging"
	"montage/internal/provider"
)

// handleResolutionFailure runs the relocation protocol for an identifier
// whose resolution failed. The provider gets first refusal: a proposal is
// followed, a decline ends the protocol immediately, and silence passes the
// decision to the registered missing-URI handlers in order. When nothing
// produces a replacement the failure is terminal.
func (p *Project) handleResolutionFailure(ctx context.Context, id string, kind asset.Kind, cause error) {
	log := logging.WithContext(ctx, p.logger)
	if relocator, ok := p.provider.(provider.Relocator); ok {
		replacement, err := relocator.RequestRelocation(ctx, id, kind, cause)
		if err != nil {
			log.Warn("relocation declined", logging.Error(err))
			p.failTerminally(id, kind, CauseResolution, cause)
			return
		}
		if replacement != "" {
			p.acceptRelocation(ctx, id, kind, replacement, cause)
			return
		}
	}

	p.mu.Lock()
	handlers := make([]MissingURIHandler, len(p.missingHandlers))
	copy(handlers, p.missingHandlers)
	p.mu.Unlock()

	for _, handler := range handlers {
		proposal := handler(id, kind, cause)
		if proposal == "" {
			continue
		}
		if !fileutil.IsURI(proposal) {
			log.Warn("ignoring relocation proposal that is not a URI",
				logging.String("proposal", proposal))
			continue
		}
		p.acceptRelocation(ctx, id, kind, proposal, cause)
		return
	}

	p.failTerminally(id, kind, CauseRelocation, cause)
}

// acceptRelocation redirects a failed resolution to a replacement
// identifier. The original leaves the loading set, its waiters follow the
// replacement, and the replacement resolves through the normal path.
func (p *Project) acceptRelocation(ctx context.Context, id string, kind asset.Kind, replacement string, cause error) {
	if replacement == id {
		p.failTerminally(id, kind, CauseRelocation,
			faults.Wrap(faults.ErrRelocation, "project", "relocate", "proposal names the failed identifier", cause))
		return
	}

	p.mu.Lock()
	depth := p.chainDepth[id] + 1
	delete(p.chainDepth, id)
	if depth > maxRelocationDepth {
		p.mu.Unlock()
		p.failTerminally(id, kind, CauseRelocation,
			faults.Wrap(faults.ErrRelocation, "project", "relocate", "relocation chain too deep", cause))
		return
	}
	p.chainDepth[replacement] = depth
	p.mu.Unlock()

	p.metrics.RelocationAccepted()
	p.logger.Info("relocating asset",
		logging.String(logging.FieldAssetID, id),
		logging.String("replacement", replacement))

	original := p.registry.ClearLoading(id)
	p.updateAssetMetrics()

	// The replacement may already be part of the project.
	if existing := p.registry.Get(replacement, kind); existing != nil {
		p.aliasOriginal(original, id, replacement)
		p.transferWaiters(id, replacement)
		p.notifyWaiters(replacement, waitResult{handle: existing})
		return
	}

	// Waiters stay under the original identifier until the relocation is
	// known to proceed, so terminal branches still reach them.
	switch p.registry.State(replacement) {
	case asset.StateLoading:
		// Waiters ride along with the in-flight resolution.
		p.aliasOriginal(original, id, replacement)
		p.transferWaiters(id, replacement)
		return
	case asset.StateFailed:
		failure, _ := p.registry.FailureCause(replacement)
		p.failTerminally(id, kind, CauseRelocation,
			faults.Wrap(faults.ErrRelocation, "project", "relocate", "replacement already failed", failure))
		return
	}

	placeholder := asset.New(replacement, kind)
	if !p.registry.BeginLoading(placeholder) {
		p.failTerminally(id, kind, CauseRelocation,
			faults.Wrap(faults.ErrRelocation, "project", "relocate", "replacement unavailable", cause))
		return
	}
	p.aliasOriginal(original, id, replacement)
	p.transferWaiters(id, replacement)
	p.events.emitLoading(placeholder)
	go p.resolve(logging.ContextWithAsset(ctx, replacement), replacement, kind)
}

// aliasOriginal records the replacement on the relocated asset, so holders
// of the stale identifier can follow the redirect. The original is usually
// the placeholder just cleared from the loading set; a loaded handle under
// the old identifier is covered as a fallback.
func (p *Project) aliasOriginal(original *asset.Handle, id, replacement string) {
	if original == nil {
		original = p.registry.Get(id, asset.KindAny)
	}
	if original != nil {
		original.SetProxyID(replacement)
	}
}

// failTerminally records a terminal failure and notifies every observer.
func (p *Project) failTerminally(id string, kind asset.Kind, cause FailureCause, err error) {
	wrapped := err
	if cause == CauseRelocation && !errors.Is(err, faults.ErrRelocation) {
		wrapped = faults.Wrap(faults.ErrRelocation, "project", "resolve", id, err)
	}
	p.registry.MarkFailed(id, wrapped)
	p.clearChainDepth(id)
	p.updateAssetMetrics()
	p.logger.Error("asset failed",
		logging.String(logging.FieldAssetID, id),
		logging.String(logging.FieldEventType, cause.String()),
		logging.Error(err))
	p.notifyWaiters(id, waitResult{err: wrapped})
	p.events.emitError(AssetError{ID: id, Kind: kind, Cause: cause, Err: wrapped})
}

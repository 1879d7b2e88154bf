package project

import (
	"context"

	"montage/internal/asset"
	"montage/internal/faults"
	"montage/internal/logging"
)

// CreateAsset requests asynchronous resolution of an identifier. It returns
// an error when the identifier is already loading, loaded, or failed; the
// outcome of an accepted request arrives through events.
func (p *Project) CreateAsset(ctx context.Context, id string, kind asset.Kind) error {
	if p.provider == nil {
		return faults.Wrap(faults.ErrConfiguration, "project", "create-asset", "no provider configured", nil)
	}
	placeholder := asset.New(id, kind)
	if placeholder.ID() == "" {
		return faults.Wrap(faults.ErrResolution, "project", "create-asset", "empty identifier", nil)
	}
	if !p.registry.BeginLoading(placeholder) {
		return faults.Wrap(faults.ErrDuplicate, "project", "create-asset", id, nil)
	}
	p.updateAssetMetrics()
	p.logger.Debug("asset resolution started",
		logging.String(logging.FieldAssetID, id),
		logging.String(logging.FieldAssetKind, kind.String()))
	p.events.emitLoading(placeholder)

	ctx = logging.ContextWithAsset(logging.ContextWithProject(ctx, p.id), id)
	go p.resolve(ctx, id, kind)
	return nil
}

// CreateAssetSync resolves an identifier and blocks until it is usable or
// terminally failed. An identifier already loading joins the in-flight
// request instead of issuing a second one.
func (p *Project) CreateAssetSync(ctx context.Context, id string, kind asset.Kind) (*asset.Handle, error) {
	return p.createAndWait(ctx, id, kind)
}

// AddAsset inserts an externally resolved asset directly. It reports false
// when the identifier is already present.
func (p *Project) AddAsset(h *asset.Handle) bool {
	if h == nil || !p.registry.Add(h) {
		return false
	}
	p.updateAssetMetrics()
	p.events.emitAdded(h)
	return true
}

// RemoveAsset removes an asset. The removal event fires whether or not the
// asset was present, so observers can treat removal as idempotent cleanup.
func (p *Project) RemoveAsset(h *asset.Handle) bool {
	if h == nil {
		return false
	}
	present := p.registry.Remove(h)
	if present {
		p.updateAssetMetrics()
	}
	p.events.emitRemoved(h)
	return present
}

// Asset returns the loaded asset for id when its kind matches the filter.
func (p *Project) Asset(id string, filter asset.Kind) *asset.Handle {
	return p.registry.Get(id, filter)
}

// Assets lists the loaded assets matching the filter.
func (p *Project) Assets(filter asset.Kind) []*asset.Handle {
	return p.registry.List(filter)
}

// LoadingAssets lists the identifiers still resolving.
func (p *Project) LoadingAssets() []*asset.Handle {
	return p.registry.Loading()
}

// AssetState reports where an identifier sits in the lifecycle.
func (p *Project) AssetState(id string) asset.LoadState {
	return p.registry.State(id)
}

func (p *Project) resolve(ctx context.Context, id string, kind asset.Kind) {
	result := <-p.provider.Request(ctx, id, kind)
	if result.Err != nil {
		p.handleResolutionFailure(ctx, id, kind, result.Err)
		return
	}
	p.onResolved(result.Handle)
}

func (p *Project) onResolved(h *asset.Handle) {
	p.registry.Add(h)
	p.clearChainDepth(h.ID())
	p.updateAssetMetrics()
	p.logger.Info("asset loaded", logging.String(logging.FieldAssetID, h.ID()))
	p.notifyWaiters(h.ID(), waitResult{handle: h})
	p.events.emitAdded(h)
}

// createAndWait resolves id, reusing a loaded handle or joining an in-flight
// resolution when possible.
func (p *Project) createAndWait(ctx context.Context, id string, kind asset.Kind) (*asset.Handle, error) {
	if h := p.registry.Get(id, kind); h != nil {
		return h, nil
	}

	ch := p.addWaiter(id)
	err := p.CreateAsset(ctx, id, kind)
	if err != nil {
		switch p.registry.State(id) {
		case asset.StateLoading:
			// Joined the in-flight resolution.
		case asset.StateLoaded:
			p.dropWaiter(id, ch)
			if h := p.registry.Get(id, kind); h != nil {
				return h, nil
			}
			return nil, faults.Wrap(faults.ErrResolution, "project", "create-asset",
				"loaded under a different kind", nil)
		case asset.StateFailed:
			p.dropWaiter(id, ch)
			if cause, ok := p.registry.FailureCause(id); ok {
				return nil, cause
			}
			return nil, err
		default:
			p.dropWaiter(id, ch)
			return nil, err
		}
	}

	select {
	case res := <-ch:
		return res.handle, res.err
	case <-ctx.Done():
		p.dropWaiter(id, ch)
		return nil, ctx.Err()
	}
}

func (p *Project) addWaiter(id string) chan waitResult {
	ch := make(chan waitResult, 1)
	p.mu.Lock()
	p.waiters[id] = append(p.waiters[id], ch)
	p.mu.Unlock()
	return ch
}

func (p *Project) dropWaiter(id string, ch chan waitResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.waiters[id]
	for i, candidate := range list {
		if candidate == ch {
			p.waiters[id] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(p.waiters[id]) == 0 {
		delete(p.waiters, id)
	}
}

func (p *Project) notifyWaiters(id string, res waitResult) {
	p.mu.Lock()
	list := p.waiters[id]
	delete(p.waiters, id)
	p.mu.Unlock()
	for _, ch := range list {
		ch <- res
	}
}

// transferWaiters moves pending waiters from a relocated identifier to its
// replacement, so callers blocked on the original observe the outcome of the
// replacement's resolution.
func (p *Project) transferWaiters(from, to string) {
	p.mu.Lock()
	list := p.waiters[from]
	delete(p.waiters, from)
	p.waiters[to] = append(p.waiters[to], list...)
	p.mu.Unlock()
}

func (p *Project) clearChainDepth(id string) {
	p.mu.Lock()
	delete(p.chainDepth, id)
	p.mu.Unlock()
}

package timeline

import (
	"sync"

	"montage/internal/logging"
)

// Binder tracks which timelines opted into automatic proxy substitution and
// applies completed proxies to them. A timeline is bound at most once; Bind
// and Unbind report whether they changed anything so callers can skip
// redundant work.
type Binder struct {
	logger *logging.Logger

	mu    sync.Mutex
	bound map[*Timeline]struct{}
}

// NewBinder constructs a binder.
func NewBinder(logger *logging.Logger) *Binder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Binder{logger: logger, bound: make(map[*Timeline]struct{})}
}

// Bind registers a timeline for proxy substitution. It returns false when the
// timeline is already bound.
func (b *Binder) Bind(t *Timeline) bool {
	if t == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.bound[t]; ok {
		return false
	}
	b.bound[t] = struct{}{}
	return true
}

// Unbind removes a timeline from substitution. It returns false when the
// timeline was not bound.
func (b *Binder) Unbind(t *Timeline) bool {
	if t == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.bound[t]; !ok {
		return false
	}
	delete(b.bound, t)
	return true
}

// Bound reports whether the timeline currently participates in substitution.
func (b *Binder) Bound(t *Timeline) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.bound[t]
	return ok
}

// Apply rewrites every clip referencing sourceID to reference proxyID across
// all bound timelines, committing each timeline it touched. It returns the
// number of clips rewritten.
func (b *Binder) Apply(sourceID, proxyID string) int {
	if sourceID == "" || proxyID == "" || sourceID == proxyID {
		return 0
	}
	b.mu.Lock()
	timelines := make([]*Timeline, 0, len(b.bound))
	for t := range b.bound {
		timelines = append(timelines, t)
	}
	b.mu.Unlock()

	total := 0
	for _, t := range timelines {
		n := rewrite(t, sourceID, proxyID)
		if n > 0 {
			t.Commit()
			total += n
		}
	}
	if total > 0 {
		b.logger.Debug("rebound clips to proxy",
			logging.String(logging.FieldAssetID, sourceID),
			logging.Int("clips", total))
	}
	return total
}

// Revert rewrites clips back from proxyID to sourceID, undoing Apply.
func (b *Binder) Revert(sourceID, proxyID string) int {
	return b.Apply(proxyID, sourceID)
}

func rewrite(t *Timeline, from, to string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, layer := range t.layers {
		for _, clip := range layer.Clips {
			if clip.AssetID == from {
				clip.AssetID = to
				n++
			}
		}
	}
	return n
}

// Package testsupport provides scripted fakes and fixtures shared by tests.
package testsupport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"montage/internal/asset"
	"montage/internal/fileutil"
	"montage/internal/provider"
	"montage/internal/transcode"
)

// WriteFile creates a file with contents under dir, creating parents.
func WriteFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// FakeProvider resolves identifiers from a scripted table and counts how
// often each identifier is requested. Unscripted identifiers fail.
type FakeProvider struct {
	mu        sync.Mutex
	succeed   map[string]bool
	relocate  map[string]string
	declines  map[string]bool
	requested map[string]int
}

// NewFakeProvider constructs an empty scripted provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		succeed:   make(map[string]bool),
		relocate:  make(map[string]string),
		declines:  make(map[string]bool),
		requested: make(map[string]int),
	}
}

// Allow scripts id to resolve successfully.
func (p *FakeProvider) Allow(ids ...string) *FakeProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		p.succeed[id] = true
	}
	return p
}

// RelocateTo scripts a relocation proposal: when from fails, propose to.
func (p *FakeProvider) RelocateTo(from, to string) *FakeProvider {
	p.mu.Lock()
	p.relocate[from] = to
	p.mu.Unlock()
	return p
}

// Decline scripts an outright relocation refusal for id.
func (p *FakeProvider) Decline(id string) *FakeProvider {
	p.mu.Lock()
	p.declines[id] = true
	p.mu.Unlock()
	return p
}

// Requests returns how many resolution requests id received.
func (p *FakeProvider) Requests(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requested[id]
}

// Request implements provider.Provider.
func (p *FakeProvider) Request(ctx context.Context, id string, kind asset.Kind) <-chan provider.Result {
	out := make(chan provider.Result, 1)
	p.mu.Lock()
	p.requested[id]++
	ok := p.succeed[id]
	p.mu.Unlock()
	go func() {
		defer close(out)
		if ok {
			out <- provider.Result{Handle: asset.New(id, kind)}
			return
		}
		out <- provider.Result{Err: errors.New("scripted resolution failure")}
	}()
	return out
}

// RequestRelocation implements provider.Relocator from the scripted tables.
func (p *FakeProvider) RequestRelocation(ctx context.Context, id string, kind asset.Kind, cause error) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.declines[id] {
		return "", errors.New("scripted relocation refusal")
	}
	return p.relocate[id], nil
}

var (
	_ provider.Provider  = (*FakeProvider)(nil)
	_ provider.Relocator = (*FakeProvider)(nil)
)

// FakeEngine produces scripted encodes. Each started encode writes its
// working output file so the queue's final rename has something to move,
// then delivers the scripted events.
type FakeEngine struct {
	mu       sync.Mutex
	failFor  map[string]error
	started  []string
	paused   int
	resumed  int
	blocking map[string]chan struct{}
}

// NewFakeEngine constructs an engine whose encodes succeed immediately.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		failFor:  make(map[string]error),
		blocking: make(map[string]chan struct{}),
	}
}

// FailFor scripts sourceID's encode to fail with err.
func (e *FakeEngine) FailFor(sourceID string, err error) *FakeEngine {
	e.mu.Lock()
	e.failFor[sourceID] = err
	e.mu.Unlock()
	return e
}

// Block makes sourceID's encode wait until the returned release function is
// called before delivering its terminal event.
func (e *FakeEngine) Block(sourceID string) (release func()) {
	gate := make(chan struct{})
	e.mu.Lock()
	e.blocking[sourceID] = gate
	e.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Started returns the source identifiers encoded so far, in order.
func (e *FakeEngine) Started() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.started))
	copy(out, e.started)
	return out
}

// PauseCount returns how many times encodes were paused.
func (e *FakeEngine) PauseCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// ResumeCount returns how many times encodes were resumed.
func (e *FakeEngine) ResumeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resumed
}

// Start implements transcode.Engine.
func (e *FakeEngine) Start(ctx context.Context, sourceID, outputID string, profile transcode.Profile) (transcode.Handle, error) {
	path, err := fileutil.PathFromURI(outputID)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte("proxy data"), 0o644); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.started = append(e.started, sourceID)
	failure := e.failFor[sourceID]
	gate := e.blocking[sourceID]
	e.mu.Unlock()

	h := &fakeHandle{engine: e, events: make(chan transcode.Event, 4), closed: make(chan struct{})}
	go func() {
		defer close(h.events)
		if gate != nil {
			select {
			case <-gate:
			case <-h.closed:
				return
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-h.closed:
			return
		default:
		}
		h.events <- transcode.Event{Type: transcode.EventProgress, Percent: 50}
		if failure != nil {
			h.events <- transcode.Event{Type: transcode.EventError, Err: failure}
			return
		}
		h.events <- transcode.Event{Type: transcode.EventEOS, Percent: 100}
	}()
	return h, nil
}

type fakeHandle struct {
	engine *FakeEngine
	events chan transcode.Event
	once   sync.Once
	closed chan struct{}
}

func (h *fakeHandle) Events() <-chan transcode.Event { return h.events }

func (h *fakeHandle) Pause() error {
	h.engine.mu.Lock()
	h.engine.paused++
	h.engine.mu.Unlock()
	return nil
}

func (h *fakeHandle) Resume() error {
	h.engine.mu.Lock()
	h.engine.resumed++
	h.engine.mu.Unlock()
	return nil
}

func (h *fakeHandle) Close() error {
	h.once.Do(func() { close(h.closed) })
	return nil
}

var _ transcode.Engine = (*FakeEngine)(nil)

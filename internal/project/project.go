package project

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"montage/internal/asset"
	"montage/internal/ledger"
	"montage/internal/logging"
	"montage/internal/metrics"
	"montage/internal/provider"
	"montage/internal/proxy"
	"montage/internal/timeline"
	"montage/internal/transcode"
)

// maxRelocationDepth caps how many times one resolution may be redirected
// before the failure becomes terminal.
const maxRelocationDepth = 32

// Options configure a project. Provider is required; everything else has a
// working default.
type Options struct {
	Logger   *logging.Logger
	Provider provider.Provider
	Engine   transcode.Engine
	Metrics  *metrics.Metrics
	Ledger   *ledger.Store
	Events   Events

	// AutoStartProxies begins proxy generation when SetLoaded runs,
	// provided a default profile is configured.
	AutoStartProxies bool
	// UseProxies substitutes completed proxies into bound timelines.
	UseProxies bool
	// ProxiesLocation overrides where proxy files are written. Empty keeps
	// proxies next to their sources.
	ProxiesLocation string
}

type waitResult struct {
	handle *asset.Handle
	err    error
}

// Project is one editing project: its assets, proxies, and timelines.
type Project struct {
	id       string
	logger   *logging.Logger
	provider provider.Provider
	registry *asset.Registry
	catalog  *proxy.Catalog
	binder   *timeline.Binder
	queue    *proxy.Queue
	events   Events
	metrics  *metrics.Metrics
	ledger   *ledger.Store

	autoStart  bool
	useProxies bool

	mu              sync.Mutex
	uri             string
	loaded          bool
	ledgerSeeded    bool
	proxiesLocation string
	missingHandlers []MissingURIHandler
	chainDepth      map[string]int
	waiters         map[string][]chan waitResult
	owned           map[*timeline.Timeline]struct{}
}

// New constructs a project.
func New(opts Options) *Project {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Project{
		id:              uuid.NewString(),
		logger:          logging.NewComponentLogger(logger, "project"),
		provider:        opts.Provider,
		registry:        asset.NewRegistry(),
		catalog:         proxy.NewCatalog(logger),
		binder:          timeline.NewBinder(logger),
		events:          opts.Events,
		metrics:         opts.Metrics,
		ledger:          opts.Ledger,
		autoStart:       opts.AutoStartProxies,
		useProxies:      opts.UseProxies,
		proxiesLocation: opts.ProxiesLocation,
		chainDepth:      make(map[string]int),
		waiters:         make(map[string][]chan waitResult),
		owned:           make(map[*timeline.Timeline]struct{}),
	}
	p.queue = proxy.NewQueue(opts.Engine, logger, proxy.Hooks{
		Started:   func() { p.onQueueState("running"); p.events.emit(p.events.ProxyStarted) },
		Paused:    func() { p.onQueueState("paused"); p.events.emit(p.events.ProxyPaused) },
		Cancelled: func() { p.onQueueState("cancelled"); p.events.emit(p.events.ProxyCancelled) },
		Completed: func() { p.onQueueState("completed"); p.events.emit(p.events.ProxyCompleted) },
		JobDone:   p.onProxyJobDone,
		JobFailed: p.onProxyJobFailed,
	})
	return p
}

// ID returns the project's unique identifier.
func (p *Project) ID() string { return p.id }

// URI returns the project's own location, if it has been loaded or saved.
func (p *Project) URI() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uri
}

// Loaded reports whether SetLoaded has run.
func (p *Project) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// AddMissingURIHandler appends a relocation handler. Handlers run in
// registration order; the first to return a usable identifier wins.
func (p *Project) AddMissingURIHandler(fn MissingURIHandler) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	p.missingHandlers = append(p.missingHandlers, fn)
	p.mu.Unlock()
}

// SetLoaded marks the project's content as fully loaded, committing the
// timeline and kicking off proxy generation when configured.
func (p *Project) SetLoaded(tl *timeline.Timeline) {
	if tl != nil {
		tl.Commit()
		p.adoptTimeline(tl)
	}
	p.mu.Lock()
	already := p.loaded
	p.loaded = true
	p.mu.Unlock()
	if already {
		return
	}
	p.logger.Info("project loaded", logging.String(logging.FieldProjectID, p.id))
	p.events.emitLoaded()

	if !p.autoStart {
		return
	}
	if _, ok := p.catalog.DefaultProfile(); !ok {
		p.logger.Debug("skipping proxy auto-start, no default profile")
		return
	}
	if err := p.StartProxyCreation(context.Background()); err != nil {
		p.logger.Warn("proxy auto-start refused", logging.Error(err))
	}
}

func (p *Project) adoptTimeline(tl *timeline.Timeline) {
	p.mu.Lock()
	p.owned[tl] = struct{}{}
	p.mu.Unlock()
}

func (p *Project) ownsTimeline(tl *timeline.Timeline) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.owned[tl]
	return ok
}

func (p *Project) onQueueState(state string) {
	p.metrics.SetQueueState(state)
}

func (p *Project) updateAssetMetrics() {
	p.metrics.SetAssetCounts(p.registry.Counts())
}

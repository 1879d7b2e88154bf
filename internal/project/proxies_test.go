package project_test

import (
	"context"
	"errors"
	"testing"

	"montage/internal/asset"
	"montage/internal/faults"
	"montage/internal/fileutil"
	"montage/internal/ledger"
	"montage/internal/project"
	"montage/internal/proxy"
	"montage/internal/testsupport"
	"montage/internal/transcode"
)

// loadedProject builds a project with the given clip sources resolved.
func loadedProject(t *testing.T, opts project.Options, sources ...string) *project.Project {
	t.Helper()
	p := project.New(opts)
	for _, src := range sources {
		if _, err := p.CreateAssetSync(context.Background(), src, asset.KindClipSource); err != nil {
			t.Fatalf("resolve %s: %v", src, err)
		}
	}
	return p
}

func sourceURI(t *testing.T, dir, name string) string {
	t.Helper()
	return fileutil.URIFromPath(testsupport.WriteFile(t, dir, name, "source media"))
}

func TestStartProxyCreationGeneratesForEveryClipSource(t *testing.T) {
	dir := t.TempDir()
	srcA := sourceURI(t, dir, "a.mov")
	srcB := sourceURI(t, dir, "b.mov")
	prov := testsupport.NewFakeProvider().Allow(srcA, srcB, srcA+".proxy", srcB+".proxy")
	engine := testsupport.NewFakeEngine()
	log := newEventLog()

	p := loadedProject(t, project.Options{
		Provider: prov, Engine: engine, Events: log.events(), UseProxies: true,
	}, srcA, srcB)
	p.SetProxyProfile(transcode.DefaultProxyProfile())

	tl := p.NewTimeline()
	layer := tl.AppendLayer()
	layer.AddClip("a", srcA, 0, 0)
	if !p.UseProxiesForTimeline(tl) {
		t.Fatal("UseProxiesForTimeline should succeed")
	}

	if err := p.StartProxyCreation(context.Background()); err != nil {
		t.Fatalf("StartProxyCreation: %v", err)
	}
	waitString(t, log.queueCh, "started")
	waitAny(t, log.proxyCh)
	waitAny(t, log.proxyCh)
	waitString(t, log.queueCh, "completed")

	for _, src := range []string{srcA, srcB} {
		entry, ok := p.ProxyFor(src)
		if !ok || entry.ProxyID != src+".proxy" {
			t.Fatalf("ProxyFor(%s) = %+v, %v", src, entry, ok)
		}
		if got := p.AssetState(entry.ProxyID); got != asset.StateLoaded {
			t.Fatalf("proxy %s state = %v, want loaded", entry.ProxyID, got)
		}
		source := p.Asset(src, asset.KindAny)
		if source == nil || source.ProxyID() != entry.ProxyID {
			t.Fatalf("source %s not aliased to its proxy", src)
		}
		final, _ := fileutil.PathFromURI(entry.ProxyID)
		if !fileutil.Exists(final) {
			t.Fatalf("proxy file %s missing", final)
		}
	}
	if got := tl.Layers()[0].Clips[0].AssetID; got != srcA+".proxy" {
		t.Fatalf("bound timeline clip references %q, want the proxy", got)
	}
	if got := p.ProxyState(); got != proxy.StateCompleted {
		t.Fatalf("queue state = %v, want completed", got)
	}
}

func TestStartProxyCreationRefusedWhileAssetsLoading(t *testing.T) {
	dir := t.TempDir()
	src := sourceURI(t, dir, "a.mov")
	prov := testsupport.NewFakeProvider() // never resolves successfully
	p := project.New(project.Options{Provider: prov, Engine: testsupport.NewFakeEngine()})
	p.SetProxyProfile(transcode.DefaultProxyProfile())

	// Hold the identifier in the loading state with a handler that blocks
	// resolution from finishing before the assertion runs.
	gate := make(chan struct{})
	p.AddMissingURIHandler(func(id string, kind asset.Kind, cause error) string {
		<-gate
		return ""
	})
	if err := p.CreateAsset(context.Background(), src, asset.KindClipSource); err != nil {
		t.Fatal(err)
	}

	err := p.StartProxyCreation(context.Background())
	if !errors.Is(err, faults.ErrState) {
		t.Fatalf("err = %v, want ErrState", err)
	}
	close(gate)
}

func TestStartProxyCreationWithoutProfileFails(t *testing.T) {
	p := project.New(project.Options{
		Provider: testsupport.NewFakeProvider(),
		Engine:   testsupport.NewFakeEngine(),
	})
	err := p.StartProxyCreation(context.Background())
	if !errors.Is(err, faults.ErrState) {
		t.Fatalf("err = %v, want ErrState", err)
	}
}

func TestPerAssetProfileOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	src := sourceURI(t, dir, "a.mov")
	prov := testsupport.NewFakeProvider().Allow(src, src+".proxy")
	log := newEventLog()
	p := loadedProject(t, project.Options{
		Provider: prov, Engine: testsupport.NewFakeEngine(), Events: log.events(),
	}, src)

	p.SetProxyProfile(transcode.DefaultProxyProfile())
	override := transcode.Profile{Name: "full-res", VideoCodec: "libx265"}
	p.SetAssetProxyProfile(src, override)

	got, ok := p.ProxyProfileFor(src)
	if !ok || got.Name != "full-res" {
		t.Fatalf("ProxyProfileFor = %+v, %v; want the override", got, ok)
	}

	if err := p.StartProxyCreation(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitAny(t, log.proxyCh)
	waitString(t, log.queueCh, "started")
	waitString(t, log.queueCh, "completed")

	entry, _ := p.ProxyFor(src)
	if entry.Profile != "full-res" {
		t.Fatalf("recorded profile = %q, want full-res", entry.Profile)
	}
}

func TestProxiesLocationRedirectsOutput(t *testing.T) {
	dir := t.TempDir()
	proxyDir := t.TempDir()
	src := sourceURI(t, dir, "clip.mov")
	wantProxy := proxy.OutputID(src, proxyDir)
	prov := testsupport.NewFakeProvider().Allow(src, wantProxy)
	log := newEventLog()
	p := loadedProject(t, project.Options{
		Provider: prov, Engine: testsupport.NewFakeEngine(),
		Events: log.events(), ProxiesLocation: proxyDir,
	}, src)
	p.SetProxyProfile(transcode.DefaultProxyProfile())

	if err := p.StartProxyCreation(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := waitAny(t, log.proxyCh); got != wantProxy {
		t.Fatalf("proxy id = %q, want %q", got, wantProxy)
	}
	final, _ := fileutil.PathFromURI(wantProxy)
	if !fileutil.Exists(final) {
		t.Fatalf("proxy file %s missing", final)
	}
}

func TestStartAssetProxyForSingleSource(t *testing.T) {
	dir := t.TempDir()
	srcA := sourceURI(t, dir, "a.mov")
	srcB := sourceURI(t, dir, "b.mov")
	prov := testsupport.NewFakeProvider().Allow(srcA, srcB, srcA+".proxy")
	log := newEventLog()
	p := loadedProject(t, project.Options{
		Provider: prov, Engine: testsupport.NewFakeEngine(), Events: log.events(),
	}, srcA, srcB)
	p.SetProxyProfile(transcode.DefaultProxyProfile())

	if err := p.StartAssetProxy(context.Background(), srcA); err != nil {
		t.Fatalf("StartAssetProxy: %v", err)
	}
	waitAny(t, log.proxyCh)
	waitString(t, log.queueCh, "started")
	waitString(t, log.queueCh, "completed")

	if _, ok := p.ProxyFor(srcA); !ok {
		t.Fatal("proxy for the requested source missing")
	}
	if _, ok := p.ProxyFor(srcB); ok {
		t.Fatal("unrequested source should have no proxy")
	}

	if err := p.StartAssetProxy(context.Background(), "file:///nope.mov"); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("unknown source err = %v, want ErrNotFound", err)
	}
	if err := p.StartAssetProxy(context.Background(), srcA); !errors.Is(err, faults.ErrState) {
		t.Fatalf("already-proxied source err = %v, want ErrState", err)
	}
}

func TestTranscodeFailureWithoutRelocationKeepsSourceLoaded(t *testing.T) {
	dir := t.TempDir()
	src := sourceURI(t, dir, "a.mov")
	prov := testsupport.NewFakeProvider().Allow(src)
	engine := testsupport.NewFakeEngine().FailFor(src, errors.New("bitstream corrupt"))
	log := newEventLog()
	p := loadedProject(t, project.Options{
		Provider: prov, Engine: engine, Events: log.events(),
	}, src)
	p.SetProxyProfile(transcode.DefaultProxyProfile())

	if err := p.StartProxyCreation(context.Background()); err != nil {
		t.Fatal(err)
	}
	ae := waitError(t, log.errorCh)
	if ae.Cause != project.CauseTranscode || ae.ID != src {
		t.Fatalf("error event = %+v, want transcode cause for the source", ae)
	}
	waitString(t, log.failedCh, src)

	if got := p.AssetState(src); got != asset.StateLoaded {
		t.Fatalf("source state = %v, want loaded after transcode failure", got)
	}
}

func TestTranscodeFailureReroutesThroughRelocation(t *testing.T) {
	dir := t.TempDir()
	src := sourceURI(t, dir, "a.mov")
	replacement := sourceURI(t, dir, "b.mov")
	prov := testsupport.NewFakeProvider().Allow(src, replacement).RelocateTo(src, replacement)
	engine := testsupport.NewFakeEngine().FailFor(src, errors.New("bitstream corrupt"))
	log := newEventLog()
	p := loadedProject(t, project.Options{
		Provider: prov, Engine: engine, Events: log.events(),
	}, src)
	p.SetProxyProfile(transcode.DefaultProxyProfile())

	if err := p.StartProxyCreation(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitStringEventually(t, log.addedCh, replacement)

	if got := p.AssetState(src); got != asset.StateUnknown {
		t.Fatalf("failed source state = %v, want removed", got)
	}
	if got := p.AssetState(replacement); got != asset.StateLoaded {
		t.Fatalf("replacement state = %v, want loaded", got)
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.failures) != 0 {
		t.Fatalf("rerouted failure should not raise error events, got %v", log.failures)
	}
}

func TestProxyLedgerRecordsCompletions(t *testing.T) {
	dir := t.TempDir()
	src := sourceURI(t, dir, "a.mov")
	store, err := ledger.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	prov := testsupport.NewFakeProvider().Allow(src, src+".proxy")
	log := newEventLog()
	p := loadedProject(t, project.Options{
		Provider: prov, Engine: testsupport.NewFakeEngine(),
		Events: log.events(), Ledger: store,
	}, src)
	p.SetProxyProfile(transcode.DefaultProxyProfile())

	if err := p.StartProxyCreation(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitAny(t, log.proxyCh)

	rec, err := store.Get(context.Background(), src)
	if err != nil {
		t.Fatalf("ledger get: %v", err)
	}
	if rec.ProxyID != src+".proxy" {
		t.Fatalf("ledger proxy = %q", rec.ProxyID)
	}
}

func TestTranscodeFailureReroutesThroughHandlerChain(t *testing.T) {
	dir := t.TempDir()
	src := sourceURI(t, dir, "a.mov")
	replacement := sourceURI(t, dir, "b.mov")
	prov := testsupport.NewFakeProvider().Allow(src, replacement)
	engine := testsupport.NewFakeEngine().FailFor(src, errors.New("bitstream corrupt"))
	log := newEventLog()
	p := loadedProject(t, project.Options{
		Provider: prov, Engine: engine, Events: log.events(),
	}, src)
	p.SetProxyProfile(transcode.DefaultProxyProfile())
	p.AddMissingURIHandler(func(id string, kind asset.Kind, cause error) string {
		if id == src {
			return replacement
		}
		return ""
	})

	if err := p.StartProxyCreation(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitStringEventually(t, log.addedCh, replacement)

	if got := p.AssetState(src); got != asset.StateUnknown {
		t.Fatalf("failed source state = %v, want removed", got)
	}
	if got := p.AssetState(replacement); got != asset.StateLoaded {
		t.Fatalf("replacement state = %v, want loaded", got)
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.failures) != 0 {
		t.Fatalf("handler-rescued failure should not raise error events, got %v", log.failures)
	}
}

func TestLedgerSeedsCatalogAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	srcDone := sourceURI(t, dir, "done.mov")
	srcStale := sourceURI(t, dir, "stale.mov")
	ledgerDir := t.TempDir()

	// A prior run recorded both proxies, but only one output file survived.
	testsupport.WriteFile(t, dir, "done.mov.proxy", "proxy data")
	store, err := ledger.Open(ledgerDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, src := range []string{srcDone, srcStale} {
		rec := ledger.Record{SourceID: src, ProxyID: src + ".proxy", Profile: "proxy-h264-half"}
		if err := store.Put(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
	store.Close()

	store, err = ledger.Open(ledgerDir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	engine := testsupport.NewFakeEngine()
	prov := testsupport.NewFakeProvider().Allow(srcDone, srcStale, srcStale+".proxy")
	log := newEventLog()
	p := loadedProject(t, project.Options{
		Provider: prov, Engine: engine, Events: log.events(), Ledger: store,
	}, srcDone, srcStale)
	p.SetProxyProfile(transcode.DefaultProxyProfile())

	if err := p.StartProxyCreation(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitStringEventually(t, log.queueCh, "completed")

	for _, started := range engine.Started() {
		if started == srcDone {
			t.Fatal("already-ledgered source was re-encoded")
		}
	}
	if got := engine.Started(); len(got) != 1 || got[0] != srcStale {
		t.Fatalf("encoded sources = %v, want just the one missing its output", got)
	}
	entry, ok := p.ProxyFor(srcDone)
	if !ok || entry.ProxyID != srcDone+".proxy" {
		t.Fatalf("seeded proxy entry = %+v, %v", entry, ok)
	}
}

func TestAutoStartOnSetLoaded(t *testing.T) {
	dir := t.TempDir()
	src := sourceURI(t, dir, "a.mov")
	prov := testsupport.NewFakeProvider().Allow(src, src+".proxy")
	log := newEventLog()
	p := loadedProject(t, project.Options{
		Provider: prov, Engine: testsupport.NewFakeEngine(),
		Events: log.events(), AutoStartProxies: true,
	}, src)
	p.SetProxyProfile(transcode.DefaultProxyProfile())

	p.SetLoaded(p.NewTimeline())
	waitString(t, log.queueCh, "started")
	waitAny(t, log.proxyCh)
	waitString(t, log.queueCh, "completed")
}

func TestStopUsingProxiesRestoresSources(t *testing.T) {
	dir := t.TempDir()
	src := sourceURI(t, dir, "a.mov")
	prov := testsupport.NewFakeProvider().Allow(src, src+".proxy")
	log := newEventLog()
	p := loadedProject(t, project.Options{
		Provider: prov, Engine: testsupport.NewFakeEngine(),
		Events: log.events(), UseProxies: true,
	}, src)
	p.SetProxyProfile(transcode.DefaultProxyProfile())

	tl := p.NewTimeline()
	tl.AppendLayer().AddClip("a", src, 0, 0)
	p.UseProxiesForTimeline(tl)

	if err := p.StartProxyCreation(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitAny(t, log.proxyCh)
	if got := tl.Layers()[0].Clips[0].AssetID; got != src+".proxy" {
		t.Fatalf("clip = %q, want the proxy", got)
	}

	if !p.StopUsingProxiesForTimeline(tl) {
		t.Fatal("StopUsingProxiesForTimeline should succeed")
	}
	if p.StopUsingProxiesForTimeline(tl) {
		t.Fatal("second opt-out should report no change")
	}
	if got := tl.Layers()[0].Clips[0].AssetID; got != src {
		t.Fatalf("clip = %q, want the source restored", got)
	}
}

func TestUseProxiesAppliesExistingEntriesOnBind(t *testing.T) {
	dir := t.TempDir()
	src := sourceURI(t, dir, "a.mov")
	prov := testsupport.NewFakeProvider().Allow(src, src+".proxy")
	log := newEventLog()
	p := loadedProject(t, project.Options{
		Provider: prov, Engine: testsupport.NewFakeEngine(),
		Events: log.events(), UseProxies: true,
	}, src)
	p.SetProxyProfile(transcode.DefaultProxyProfile())

	if err := p.StartProxyCreation(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitAny(t, log.proxyCh)

	tl := p.NewTimeline()
	tl.AppendLayer().AddClip("a", src, 0, 0)
	if !p.UseProxiesForTimeline(tl) {
		t.Fatal("bind should succeed")
	}
	if p.UseProxiesForTimeline(tl) {
		t.Fatal("second bind should report no change")
	}
	if got := tl.Layers()[0].Clips[0].AssetID; got != src+".proxy" {
		t.Fatalf("existing proxy not applied on bind, clip = %q", got)
	}
}

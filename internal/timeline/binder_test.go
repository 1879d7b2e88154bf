package timeline_test

import (
	"testing"
	"time"

	"montage/internal/timeline"
)

func buildTimeline(assetID string, clips int) *timeline.Timeline {
	t := timeline.New()
	layer := t.AppendLayer()
	for i := 0; i < clips; i++ {
		layer.AddClip("clip", assetID, time.Duration(i)*time.Second, time.Second)
	}
	return t
}

func TestBindIsIdempotencyChecked(t *testing.T) {
	b := timeline.NewBinder(nil)
	tl := timeline.New()

	if !b.Bind(tl) {
		t.Fatal("first Bind should succeed")
	}
	if b.Bind(tl) {
		t.Fatal("second Bind should report no change")
	}
	if !b.Unbind(tl) {
		t.Fatal("Unbind of a bound timeline should succeed")
	}
	if b.Unbind(tl) {
		t.Fatal("second Unbind should report no change")
	}
}

func TestApplyRewritesOnlyMatchingClips(t *testing.T) {
	b := timeline.NewBinder(nil)
	tl := buildTimeline("file:///media/a.mov", 2)
	other := tl.Layers()[0].AddClip("other", "file:///media/b.mov", 0, time.Second)
	b.Bind(tl)

	n := b.Apply("file:///media/a.mov", "file:///proxies/a.mov.proxy")
	if n != 2 {
		t.Fatalf("Apply rewrote %d clips, want 2", n)
	}
	if other.AssetID != "file:///media/b.mov" {
		t.Errorf("unrelated clip was rewritten to %q", other.AssetID)
	}
	for _, clip := range tl.Layers()[0].Clips[:2] {
		if clip.AssetID != "file:///proxies/a.mov.proxy" {
			t.Errorf("clip still references %q", clip.AssetID)
		}
	}
	if tl.CommitCount() != 1 {
		t.Errorf("commit count = %d, want 1", tl.CommitCount())
	}
}

func TestApplySkipsUnboundTimelines(t *testing.T) {
	b := timeline.NewBinder(nil)
	tl := buildTimeline("file:///media/a.mov", 1)

	if n := b.Apply("file:///media/a.mov", "file:///proxies/a.mov.proxy"); n != 0 {
		t.Fatalf("Apply touched %d clips on an unbound timeline", n)
	}
	if tl.CommitCount() != 0 {
		t.Errorf("unbound timeline was committed %d times", tl.CommitCount())
	}
}

func TestApplyDoesNotCommitWithoutMatches(t *testing.T) {
	b := timeline.NewBinder(nil)
	tl := buildTimeline("file:///media/a.mov", 1)
	b.Bind(tl)

	if n := b.Apply("file:///media/zzz.mov", "file:///proxies/zzz.proxy"); n != 0 {
		t.Fatalf("Apply rewrote %d clips, want 0", n)
	}
	if tl.CommitCount() != 0 {
		t.Errorf("timeline committed %d times without changes", tl.CommitCount())
	}
}

func TestRevertRestoresOriginalReferences(t *testing.T) {
	b := timeline.NewBinder(nil)
	tl := buildTimeline("file:///media/a.mov", 1)
	b.Bind(tl)

	b.Apply("file:///media/a.mov", "file:///proxies/a.mov.proxy")
	n := b.Revert("file:///media/a.mov", "file:///proxies/a.mov.proxy")
	if n != 1 {
		t.Fatalf("Revert rewrote %d clips, want 1", n)
	}
	if got := tl.Layers()[0].Clips[0].AssetID; got != "file:///media/a.mov" {
		t.Errorf("clip references %q after revert", got)
	}
}

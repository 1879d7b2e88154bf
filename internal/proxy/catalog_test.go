package proxy

import (
	"testing"

	"montage/internal/transcode"
)

func TestProfileForFallsBackToDefault(t *testing.T) {
	c := NewCatalog(nil)

	if _, ok := c.ProfileFor("file:///media/a.mov"); ok {
		t.Fatal("empty catalog should report no profile")
	}

	def := transcode.DefaultProxyProfile()
	if !c.SetDefaultProfile(def) {
		t.Fatal("SetDefaultProfile should accept a valid profile")
	}
	got, ok := c.ProfileFor("file:///media/a.mov")
	if !ok || !got.Equal(def) {
		t.Fatalf("ProfileFor without override = %v, %v; want default", got, ok)
	}

	override := transcode.Profile{Name: "full-res", VideoCodec: "libx264"}
	c.SetAssetProfile("file:///media/a.mov", override)
	got, ok = c.ProfileFor("file:///media/a.mov")
	if !ok || !got.Equal(override) {
		t.Fatalf("ProfileFor with override = %v, %v; want override", got, ok)
	}
	got, _ = c.ProfileFor("file:///media/b.mov")
	if !got.Equal(def) {
		t.Fatal("other assets should keep the default profile")
	}
}

func TestSetDefaultProfileRejectsInvalid(t *testing.T) {
	c := NewCatalog(nil)
	if c.SetDefaultProfile(transcode.Profile{}) {
		t.Fatal("invalid profile should be rejected")
	}
}

func TestAddProxyIsIdempotentOnEitherKey(t *testing.T) {
	c := NewCatalog(nil)

	if !c.AddProxy("file:///a.mov", "file:///a.mov.proxy", "p") {
		t.Fatal("first AddProxy should succeed")
	}
	if c.AddProxy("file:///a.mov", "file:///other.proxy", "p") {
		t.Fatal("AddProxy should refuse a source that already has a proxy")
	}
	if c.AddProxy("file:///b.mov", "file:///a.mov.proxy", "p") {
		t.Fatal("AddProxy should refuse a proxy already recorded")
	}
	if c.AddProxy("file:///x.mov", "file:///x.mov", "p") {
		t.Fatal("AddProxy should refuse a self-mapping")
	}

	entry, ok := c.ProxyFor("file:///a.mov")
	if !ok || entry.ProxyID != "file:///a.mov.proxy" {
		t.Fatalf("ProxyFor = %+v, %v", entry, ok)
	}
	entry, ok = c.SourceOf("file:///a.mov.proxy")
	if !ok || entry.SourceID != "file:///a.mov" {
		t.Fatalf("SourceOf = %+v, %v", entry, ok)
	}
}

func TestRemoveProxyDropsBothKeys(t *testing.T) {
	c := NewCatalog(nil)
	c.AddProxy("file:///a.mov", "file:///a.mov.proxy", "p")

	if !c.RemoveProxy("file:///a.mov") {
		t.Fatal("RemoveProxy should report the entry existed")
	}
	if c.RemoveProxy("file:///a.mov") {
		t.Fatal("second RemoveProxy should report absence")
	}
	if _, ok := c.SourceOf("file:///a.mov.proxy"); ok {
		t.Fatal("proxy key should be gone after removal")
	}
	if !c.AddProxy("file:///a.mov", "file:///a.mov.proxy", "p") {
		t.Fatal("the mapping should be addable again after removal")
	}
}

func TestAddRenderProfileNewestFirstReplaceByName(t *testing.T) {
	c := NewCatalog(nil)

	if !c.AddRenderProfile(transcode.Profile{Name: "delivery", VideoCodec: "libx265"}) {
		t.Fatal("first AddRenderProfile should succeed")
	}
	if !c.AddRenderProfile(transcode.Profile{Name: "preview", VideoCodec: "libx264"}) {
		t.Fatal("second AddRenderProfile should succeed")
	}
	got := c.RenderProfiles()
	if len(got) != 2 || got[0].Name != "preview" || got[1].Name != "delivery" {
		t.Fatalf("RenderProfiles order = %v, want newest first", got)
	}

	// Same name replaces in place rather than appending.
	if !c.AddRenderProfile(transcode.Profile{Name: "delivery", VideoCodec: "libaom-av1"}) {
		t.Fatal("replacement by name should succeed")
	}
	got = c.RenderProfiles()
	if len(got) != 2 || got[1].VideoCodec != "libaom-av1" {
		t.Fatalf("RenderProfiles after replace = %v", got)
	}
	if c.AddRenderProfile(transcode.Profile{}) {
		t.Fatal("invalid render profile should be refused")
	}
}

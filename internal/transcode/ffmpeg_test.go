package transcode

import (
	"strings"
	"testing"
)

func TestBuildArgsIncludesProfileSettings(t *testing.T) {
	profile := Profile{
		Name:       "proxy-h264-half",
		VideoCodec: "libx264",
		AudioCodec: "aac",
		ScaleWidth: 960,
		CRF:        23,
		Container:  "matroska",
	}
	args := buildArgs("/media/clip.mov", "/media/clip.mov.proxy.part", profile)
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-i /media/clip.mov",
		"-c:v libx264",
		"-crf 23",
		"-vf scale=960:-2",
		"-c:a aac",
		"-f matroska",
		"-progress pipe:1",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "/media/clip.mov.proxy.part" {
		t.Errorf("output path should be the final argument, got %q", args[len(args)-1])
	}
}

func TestBuildArgsOmitsUnsetFields(t *testing.T) {
	profile := Profile{Name: "passthrough", VideoCodec: "copy"}
	args := buildArgs("in.mov", "out.mkv", profile)
	joined := strings.Join(args, " ")

	for _, banned := range []string{"-crf", "-vf", "-c:a", "-f "} {
		if strings.Contains(joined, banned) {
			t.Errorf("args should omit %q when unset: %s", banned, joined)
		}
	}
}

func TestProfileValid(t *testing.T) {
	if (Profile{}).Valid() {
		t.Error("zero profile should be invalid")
	}
	if (Profile{Name: "x"}).Valid() {
		t.Error("profile without a codec should be invalid")
	}
	if !(Profile{Name: "x", VideoCodec: "libx264"}).Valid() {
		t.Error("named profile with a codec should be valid")
	}
}

func TestProfileEqual(t *testing.T) {
	a := DefaultProxyProfile()
	b := DefaultProxyProfile()
	if !a.Equal(b) {
		t.Error("identical profiles should compare equal")
	}
	b.CRF++
	if a.Equal(b) {
		t.Error("profiles differing in CRF should not compare equal")
	}
	c := DefaultProxyProfile()
	c.ExtraArgs = []string{"-tune", "fastdecode"}
	if a.Equal(c) {
		t.Error("profiles differing in extra args should not compare equal")
	}
}

func TestHandlePercentClamps(t *testing.T) {
	h := &ffmpegHandle{duration: 10e9}
	if got := h.percent(5e9); got != 50 {
		t.Errorf("percent = %v, want 50", got)
	}
	if got := h.percent(20e9); got != 100 {
		t.Errorf("percent should clamp to 100, got %v", got)
	}
	h.duration = 0
	if got := h.percent(5e9); got != 0 {
		t.Errorf("unknown duration should yield 0, got %v", got)
	}
}

package transcode

import "strings"

// Profile describes one encoding configuration. The zero value is not usable;
// a profile needs at least a name and a video codec.
type Profile struct {
	Name       string `toml:"name"`
	VideoCodec string `toml:"video_codec"`
	AudioCodec string `toml:"audio_codec"`
	// ScaleWidth of 0 keeps the source resolution. Height follows the
	// source aspect ratio.
	ScaleWidth int `toml:"scale_width"`
	// CRF is the constant rate factor; 0 falls back to the codec default.
	CRF int `toml:"crf"`
	// Container is the output container format, e.g. "matroska".
	Container string `toml:"container"`
	// ExtraArgs are appended verbatim to the encoder invocation.
	ExtraArgs []string `toml:"extra_args"`
}

// Valid reports whether the profile carries enough to drive an encode.
func (p Profile) Valid() bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.VideoCodec) != ""
}

// Equal compares two profiles field by field.
func (p Profile) Equal(other Profile) bool {
	if p.Name != other.Name ||
		p.VideoCodec != other.VideoCodec ||
		p.AudioCodec != other.AudioCodec ||
		p.ScaleWidth != other.ScaleWidth ||
		p.CRF != other.CRF ||
		p.Container != other.Container {
		return false
	}
	if len(p.ExtraArgs) != len(other.ExtraArgs) {
		return false
	}
	for i := range p.ExtraArgs {
		if p.ExtraArgs[i] != other.ExtraArgs[i] {
			return false
		}
	}
	return true
}

// DefaultProxyProfile is a conservative edit-friendly profile used when the
// configuration does not supply one.
func DefaultProxyProfile() Profile {
	return Profile{
		Name:       "proxy-h264-half",
		VideoCodec: "libx264",
		AudioCodec: "aac",
		ScaleWidth: 960,
		CRF:        23,
		Container:  "matroska",
	}
}

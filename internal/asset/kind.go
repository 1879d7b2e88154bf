package asset

import "strings"

// Kind is the extractable type of an asset: what it yields when materialized.
// The set is closed; kinds are checked at construction time rather than via
// runtime type queries.
type Kind int

const (
	// KindAny matches every kind when used as a list filter.
	KindAny Kind = iota
	// KindClipSource is a URI-backed media source usable by timeline clips.
	// Only clip sources are eligible for proxy generation.
	KindClipSource
	// KindTimeline is a timeline extracted from a project.
	KindTimeline
	// KindFormatter is a project serialization formatter.
	KindFormatter
)

var kindNames = map[Kind]string{
	KindAny:        "any",
	KindClipSource: "clip-source",
	KindTimeline:   "timeline",
	KindFormatter:  "formatter",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Matches reports whether k satisfies the given filter. KindAny acts as the
// root of the kind hierarchy and matches everything.
func (k Kind) Matches(filter Kind) bool {
	return filter == KindAny || k == filter
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for kind, name := range kindNames {
		if name == normalized {
			return kind, true
		}
	}
	return KindAny, false
}

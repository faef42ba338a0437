package model

// ChildKind tags the three derived children revealed when a topic node is
// expanded.
type ChildKind int

const (
	ChildSummary ChildKind = iota
	ChildKeyphrase
	ChildEmoji
)

// ChildKinds lists every kind in rendering order.
var ChildKinds = [...]ChildKind{ChildSummary, ChildKeyphrase, ChildEmoji}

func (k ChildKind) String() string {
	switch k {
	case ChildSummary:
		return "summary"
	case ChildKeyphrase:
		return "keyphrase"
	case ChildEmoji:
		return "emoji"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the three known kinds.
func (k ChildKind) Valid() bool {
	return k >= ChildSummary && k <= ChildEmoji
}

// ParseChildKind maps a wire name back onto a ChildKind.
func ParseChildKind(s string) (ChildKind, bool) {
	for _, k := range ChildKinds {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

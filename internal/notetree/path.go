package notetree

import "strings"

const (
	// Separator splits a note base name into hierarchy segments.
	Separator = "."
	// RootName is the reserved name of the tree root. A file whose base name is
	// exactly "root" backs the root node itself.
	RootName = "root"
)

// SplitName splits a base name into its segments. No segment is dropped, so
// "a..b" yields ["a", "", "b"] and "" yields [""].
func SplitName(baseName string) []string {
	return strings.Split(baseName, Separator)
}

// JoinPath is the inverse of SplitName.
func JoinPath(segments []string) string {
	return strings.Join(segments, Separator)
}

// IsRootPath reports whether segments address the root node.
func IsRootPath(segments []string) bool {
	return len(segments) == 1 && segments[0] == RootName
}

// ValidName reports whether baseName maps onto a node: it must be non-empty and
// contain no empty segment.
func ValidName(baseName string) bool {
	return validSegments(SplitName(baseName))
}

func validSegments(segments []string) bool {
	for _, s := range segments {
		if s == "" {
			return false
		}
	}
	return len(segments) > 0
}

package names

import (
	"path/filepath"
	"strings"
)

// MatchGlob reports whether a suite path matches a glob pattern.
// Both sides are normalized segment by segment, so matching ignores case.
// Supports *, ? and ** (any number of segments).
func MatchGlob(pattern, path string) bool {
	return matchParts(normalizedSegments(pattern), normalizedSegments(path))
}

func normalizedSegments(path string) []string {
	segments := SplitPath(path)
	for i, seg := range segments {
		if seg != "**" {
			segments[i] = Normalize(seg)
		}
	}
	return segments
}

func matchParts(patternParts, pathParts []string) bool {
	if len(patternParts) == 0 {
		return len(pathParts) == 0
	}

	if len(pathParts) == 0 {
		for _, p := range patternParts {
			if p != "**" {
				return false
			}
		}
		return true
	}

	if patternParts[0] == "**" {
		return matchParts(patternParts[1:], pathParts) ||
			matchParts(patternParts, pathParts[1:])
	}

	matched, err := filepath.Match(patternParts[0], pathParts[0])
	if err != nil || !matched {
		return false
	}
	return matchParts(patternParts[1:], pathParts[1:])
}

// IsGlobPattern checks if a string contains glob characters
func IsGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

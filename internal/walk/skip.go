package walk

import (
	"strings"

	"github.com/TFMV/flash/internal/policy"
)

// skipMarkers are directory names that are never descended into while
// resolving glob watch specs.
var skipMarkers = []string{".git", "node_modules", "target", ".svn", ".hg"}

// SkipPolicy decides which directories a glob resolution walk prunes.
type SkipPolicy struct {
	patterns []policy.Pattern
}

// NewSkipPolicy compiles the user ignore globs. Invalid globs are dropped;
// configuration validation reports them before a walk ever starts.
func NewSkipPolicy(ignorePatterns []string) *SkipPolicy {
	s := &SkipPolicy{}
	for _, raw := range ignorePatterns {
		p, err := policy.Compile(raw)
		if err != nil {
			continue
		}
		s.patterns = append(s.patterns, p)
	}
	return s
}

// Skip reports whether the directory at path should be pruned.
func (s *SkipPolicy) Skip(path string) bool {
	for _, marker := range skipMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	for _, p := range s.patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// ShouldSkipDir reports whether path contains a built-in marker such as
// ".git" or "node_modules", or matches one of the ignore globs.
func ShouldSkipDir(path string, ignorePatterns []string) bool {
	return NewSkipPolicy(ignorePatterns).Skip(path)
}

package policy

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"
)

// Pattern is a compiled glob. Callers only ask whether a path matches; the
// matching engine is doublestar.
type Pattern struct {
	raw      string
	baseOnly bool // no separator in the pattern: also try the final path element
}

// Compile validates a glob pattern and returns its compiled form.
func Compile(pattern string) (Pattern, error) {
	p := normalize(pattern)
	if !doublestar.ValidatePattern(p) {
		return Pattern{}, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	return Pattern{
		raw:      p,
		baseOnly: !strings.Contains(p, "/"),
	}, nil
}

// MustCompile is like Compile but panics on an invalid pattern.
func MustCompile(pattern string) Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// CompileAll compiles every pattern, failing on the first invalid one.
func CompileAll(patterns []string) ([]Pattern, error) {
	compiled := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		c, err := Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}
	return compiled, nil
}

// String returns the normalised source of the pattern.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether the path matches the pattern.
func (p Pattern) Match(name string) bool {
	return p.match(normalize(name))
}

// match expects an already normalised path.
func (p Pattern) match(name string) bool {
	if p.raw == "" {
		return name == ""
	}
	if ok, _ := doublestar.Match(p.raw, name); ok {
		return true
	}
	if p.baseOnly && strings.Contains(name, "/") {
		ok, _ := doublestar.Match(p.raw, path.Base(name))
		return ok
	}
	return false
}

// normalize converts a filesystem path to the form patterns are matched
// against: forward slashes, no leading "./", Unicode NFC.
func normalize(name string) string {
	name = filepath.ToSlash(name)
	for strings.HasPrefix(name, "./") {
		name = name[2:]
	}
	if name != "/" {
		name = strings.TrimSuffix(name, "/")
	}
	return norm.NFC.String(name)
}

// Package policy decides whether a changed path should trigger the command.
//
// The evaluation order is fixed: ignore patterns (checked against the path and
// every ancestor directory) always win, then include patterns, then the
// extension filter.
package policy

import (
	"path"
	"strings"
)

// Policy holds the immutable filters built once at startup.
type Policy struct {
	Ext     string // comma-separated extension list, empty for no filter
	Include []Pattern
	Ignore  []Pattern
}

// New compiles include and ignore globs into a Policy.
func New(ext string, include, ignore []string) (*Policy, error) {
	inc, err := CompileAll(include)
	if err != nil {
		return nil, err
	}
	ign, err := CompileAll(ignore)
	if err != nil {
		return nil, err
	}
	return &Policy{Ext: ext, Include: inc, Ignore: ign}, nil
}

// ShouldProcess applies the policy to a path.
func (p *Policy) ShouldProcess(name string) bool {
	return ShouldProcess(name, p.Ext, p.Include, p.Ignore)
}

// ShouldProcessAny applies the policy to several spellings of one path, such
// as the path a backend reported and its form relative to the working
// directory. An ignore match on any spelling rejects, an include match on any
// spelling is enough, and the extension is taken from the first.
func (p *Policy) ShouldProcessAny(names ...string) bool {
	if len(names) == 0 {
		return false
	}
	normalized := make([]string, len(names))
	for i, name := range names {
		normalized[i] = normalize(name)
	}

	for _, name := range normalized {
		if ignored(name, p.Ignore) {
			return false
		}
	}

	if len(p.Include) > 0 {
		matched := false
		for _, name := range normalized {
			if included(name, p.Include) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return hasExtension(normalized[0], p.Ext)
}

// ShouldProcess reports whether a changed path passes the ignore, include and
// extension filters.
func ShouldProcess(name, ext string, include, ignore []Pattern) bool {
	name = normalize(name)

	if ignored(name, ignore) {
		return false
	}
	if len(include) > 0 && !included(name, include) {
		return false
	}
	return hasExtension(name, ext)
}

func ignored(name string, ignore []Pattern) bool {
	for _, pattern := range ignore {
		if pattern.match(name) || matchesAncestor(pattern, name) {
			return true
		}
	}
	return false
}

func included(name string, include []Pattern) bool {
	for _, pattern := range include {
		if pattern.match(name) {
			return true
		}
	}
	return false
}

// hasExtension checks name against a comma-separated extension list. An
// empty list accepts everything.
func hasExtension(name, ext string) bool {
	if ext == "" {
		return true
	}
	fileExt, ok := extension(name)
	if !ok {
		return false
	}
	for _, token := range strings.Split(ext, ",") {
		if strings.TrimSpace(token) == fileExt {
			return true
		}
	}
	return false
}

// matchesAncestor walks up the parent directories of name.
func matchesAncestor(pattern Pattern, name string) bool {
	dir := name
	for {
		parent := path.Dir(dir)
		if parent == dir || parent == "." {
			return false
		}
		if pattern.match(parent) {
			return true
		}
		dir = parent
	}
}

// extension returns the text after the last dot of the final path element.
// Dotfiles such as ".gitignore" have no extension.
func extension(name string) (string, bool) {
	base := path.Base(name)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return "", false
	}
	return base[i+1:], true
}

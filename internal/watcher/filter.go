package watcher

import (
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

var sourceExts = map[string]struct{}{
	".ts":   {},
	".tsx":  {},
	".scss": {},
}

// SourceFilter accepts component sources and stylesheets.
func SourceFilter(path string) bool {
	_, ok := sourceExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// PathFilter accepts exactly the given file, e.g. the declaration JSON.
func PathFilter(target string) FileFilter {
	clean := filepath.Clean(target)
	return func(path string) bool {
		return filepath.Clean(path) == clean
	}
}

// AnyFilter accepts a path accepted by at least one of filters.
func AnyFilter(filters ...FileFilter) FileFilter {
	return func(path string) bool {
		for _, f := range filters {
			if f(path) {
				return true
			}
		}
		return false
	}
}

// NoTestFilter rejects test and story files.
func NoTestFilter(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range []string{"*.test.ts", "*.test.tsx", "*.stories.tsx", "*.spec.tsx"} {
		if matched, _ := filepath.Match(pattern, base); matched {
			return false
		}
	}
	return true
}

// Ignorer decides which paths under a root are ignored, combining the root's
// .gitignore with extra patterns in gitignore syntax.
type Ignorer struct {
	root    string
	matcher *ignore.GitIgnore
}

// NewIgnorer reads root/.gitignore if present and appends extra patterns.
func NewIgnorer(root string, extra ...string) *Ignorer {
	lines := append([]string{}, extra...)
	if gi, err := ignore.CompileIgnoreFileAndLines(filepath.Join(root, ".gitignore"), lines...); err == nil {
		return &Ignorer{root: root, matcher: gi}
	}
	return &Ignorer{root: root, matcher: ignore.CompileIgnoreLines(lines...)}
}

// Ignored reports whether path, absolute or relative to the working
// directory, is ignored. Paths outside root are never ignored.
func (i *Ignorer) Ignored(path string) bool {
	rel, err := filepath.Rel(i.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return i.matcher.MatchesPath(filepath.ToSlash(rel))
}

// IgnoredDir is Ignored for a directory, so that patterns with a trailing
// slash match the directory itself.
func (i *Ignorer) IgnoredDir(path string) bool {
	if i.Ignored(path) {
		return true
	}
	rel, err := filepath.Rel(i.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return i.matcher.MatchesPath(filepath.ToSlash(rel) + "/")
}

// Filter returns a FileFilter accepting the paths that are not ignored.
func (i *Ignorer) Filter() FileFilter {
	return func(path string) bool {
		return !i.Ignored(path)
	}
}

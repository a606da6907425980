package crawler

import (
	"path/filepath"
	"strings"

	"github.com/nao1215/maxtract/internal/model"
)

// PathFilter selects children by their URL path.
//
// A path matching any ignore pattern is rejected. When follow patterns are
// set, a path must also match at least one of them.
type PathFilter struct {
	ignore []string
	follow []string
}

// NewPathFilter creates a PathFilter. Patterns use glob syntax
// ("/admin/*", "*.pdf", "/api/v?").
func NewPathFilter(ignore, follow []string) *PathFilter {
	return &PathFilter{ignore: ignore, follow: follow}
}

// Allows reports whether address passes the filter. A nil filter allows everything.
func (f *PathFilter) Allows(address model.Address) bool {
	if f == nil {
		return true
	}

	path := address.URL().Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range f.ignore {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(f.follow) == 0 {
		return true
	}
	for _, pattern := range f.follow {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a glob pattern.
//
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path ending in ".pdf"
//   - other patterns go through filepath.Match, and patterns without a
//     slash are also tried against the last path element
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}

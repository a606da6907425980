package crawler

import (
	"testing"

	"github.com/nao1215/maxtract/internal/model"
)

// TestMatchPattern tests glob matching against URL paths.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/admin/*", "/admin", true},
		{"/admin/*", "/admin/users", true},
		{"/admin/*", "/admin/users/1", true},
		{"/admin/*", "/administrator", false},
		{"*.pdf", "/docs/file.pdf", true},
		{"*.pdf", "/docs/file.html", false},
		{"/api/v?", "/api/v1", true},
		{"/api/v?", "/api/v10", false},
		{"logout*", "/account/logout-now", true},
		{"/exact", "/exact", true},
		{"[", "/broken", false},
	}

	for _, tt := range tests {
		if got := matchPattern(tt.pattern, tt.path); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

// TestPathFilter tests ignore and follow patterns together.
func TestPathFilter(t *testing.T) {
	t.Parallel()

	allows := func(f *PathFilter, raw string) bool {
		return f.Allows(model.MustParseAddress(raw))
	}

	t.Run("nil filter allows everything", func(t *testing.T) {
		t.Parallel()

		var f *PathFilter
		if !allows(f, "http://example.com/anything") {
			t.Error("expected nil filter to allow")
		}
	})

	t.Run("ignore wins over follow", func(t *testing.T) {
		t.Parallel()

		f := NewPathFilter([]string{"/docs/private/*"}, []string{"/docs/*"})
		if !allows(f, "http://example.com/docs/intro") {
			t.Error("expected /docs/intro to be followed")
		}
		if allows(f, "http://example.com/docs/private/key") {
			t.Error("expected /docs/private/key to be ignored")
		}
		if allows(f, "http://example.com/blog") {
			t.Error("expected /blog to be outside follow patterns")
		}
	})

	t.Run("root path is slash", func(t *testing.T) {
		t.Parallel()

		f := NewPathFilter(nil, []string{"/"})
		if !allows(f, "http://example.com") {
			t.Error("expected root to match /")
		}
	})
}

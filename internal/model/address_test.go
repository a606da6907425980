package model

import (
	"errors"
	"testing"
)

// TestParseAddress tests parsing and normalization of root addresses.
func TestParseAddress(t *testing.T) {
	t.Parallel()

	t.Run("lowercases scheme and host and adds root path", func(t *testing.T) {
		t.Parallel()

		got, err := ParseAddress("HTTPS://Example.COM")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "https://example.com/" {
			t.Errorf("got %q, expected %q", got, "https://example.com/")
		}
	})

	t.Run("strips fragment and keeps query", func(t *testing.T) {
		t.Parallel()

		got, err := ParseAddress("https://example.com/a?x=1#top")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "https://example.com/a?x=1" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("removes dot segments like Resolve", func(t *testing.T) {
		t.Parallel()

		got, err := ParseAddress("http://h/a/../b")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resolved, err := Resolve("/b", got)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "http://h/b" || got != resolved {
			t.Errorf("got %q, Resolve gave %q, expected both %q", got, resolved, "http://h/b")
		}

		got, err = ParseAddress("https://example.com/x/./y/..?q=1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "https://example.com/x/?q=1" {
			t.Errorf("got %q, expected %q", got, "https://example.com/x/?q=1")
		}
	})

	t.Run("file address is accepted", func(t *testing.T) {
		t.Parallel()

		got, err := ParseAddress("file:///tmp/pages/index.html")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "file:///tmp/pages/index.html" {
			t.Errorf("got %q", got)
		}
		if got.Domain() != "" {
			t.Errorf("expected empty domain, got %q", got.Domain())
		}
	})

	t.Run("missing scheme returns ErrRelativeAddress", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAddress("missing_scheme")
		if !errors.Is(err, ErrRelativeAddress) {
			t.Errorf("expected ErrRelativeAddress, got %v", err)
		}
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError, got %T", err)
		}
		if parseErr.Raw != "missing_scheme" {
			t.Errorf("expected raw input in error, got %q", parseErr.Raw)
		}
	})

	t.Run("empty input returns ErrEmptyAddress", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAddress("   ")
		if !errors.Is(err, ErrEmptyAddress) {
			t.Errorf("expected ErrEmptyAddress, got %v", err)
		}
	})

	t.Run("http without host is rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := ParseAddress("https::www.google.com"); err == nil {
			t.Error("expected error for malformed address")
		}
	})

	t.Run("unsupported scheme is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAddress("ftp://example.com/file")
		if !errors.Is(err, ErrUnsupportedScheme) {
			t.Errorf("expected ErrUnsupportedScheme, got %v", err)
		}
	})
}

// TestResolve tests resolution of hyperlinks against a base address.
func TestResolve(t *testing.T) {
	t.Parallel()

	base := MustParseAddress("https://example.com/dir/page.html")

	tests := []struct {
		name     string
		raw      string
		expected Address
	}{
		{"relative path", "other.html", "https://example.com/dir/other.html"},
		{"absolute path", "/root.html", "https://example.com/root.html"},
		{"parent directory", "../up.html", "https://example.com/up.html"},
		{"query is preserved", "list?page=2", "https://example.com/dir/list?page=2"},
		{"fragment is stripped", "other.html#section", "https://example.com/dir/other.html"},
		{"fragment only resolves to base", "#top", "https://example.com/dir/page.html"},
		{"absolute url", "https://other.example/x", "https://other.example/x"},
		{"scheme relative", "//cdn.example.com/lib", "https://cdn.example.com/lib"},
		{"surrounding whitespace", "  other.html  ", "https://example.com/dir/other.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(tt.raw, base)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %q, expected %q", got, tt.expected)
			}
		})
	}

	t.Run("fragments never change identity", func(t *testing.T) {
		t.Parallel()

		a, errA := Resolve("path#frag1", base)
		b, errB := Resolve("path#frag2", base)
		c, errC := Resolve("path", base)
		if errA != nil || errB != nil || errC != nil {
			t.Fatalf("unexpected errors: %v %v %v", errA, errB, errC)
		}
		if a != b || b != c {
			t.Errorf("expected identical addresses, got %q %q %q", a, b, c)
		}
	})

	t.Run("mailto and javascript links are rejected", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"mailto:info@example.com", "javascript:void(0)", "tel:+15555550100"} {
			if _, err := Resolve(raw, base); !errors.Is(err, ErrUnsupportedScheme) {
				t.Errorf("%s: expected ErrUnsupportedScheme, got %v", raw, err)
			}
		}
	})

	t.Run("unparsable link returns ParseError", func(t *testing.T) {
		t.Parallel()

		_, err := Resolve("http://[::1", base)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("expected *ParseError, got %v", err)
		}
	})

	t.Run("relative link on file page stays on disk", func(t *testing.T) {
		t.Parallel()

		fileBase := MustParseAddress("file:///srv/pages/index.html")
		got, err := Resolve("child_00.html", fileBase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "file:///srv/pages/child_00.html" {
			t.Errorf("got %q", got)
		}
	})
}

// TestAddressDomain tests domain extraction.
func TestAddressDomain(t *testing.T) {
	t.Parallel()

	addr := MustParseAddress("http://Example.com:8080/a")
	if addr.Domain() != "example.com" {
		t.Errorf("got %q, expected example.com", addr.Domain())
	}
	if addr.Scheme() != SchemeHTTP {
		t.Errorf("got %q, expected http", addr.Scheme())
	}
}

package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/maxtract/internal/config"
	"github.com/nao1215/maxtract/internal/crawler"
	"github.com/nao1215/maxtract/internal/model"
	"github.com/nao1215/maxtract/internal/pattern"
	"github.com/nao1215/maxtract/internal/report"
)

// newTestSite serves three linked pages. The contact page links to a page
// that does not exist, two levels below the root.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>Call 555-123-4567</p>
<a href="/about">About</a> <a href="/contact#team">Contact</a>
<a href="mailto:info@example.com">Mail</a></body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>Write to info@example.com</p><a href="/">Home</a></body></html>`)
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>Call 555-987-6543 or 555-123-4567</p>
<a href="/missing">Old page</a></body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// emptyConfigFile keeps tests independent of any .maxtract in the
// developer's home directory.
func emptyConfigFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	flags := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"max-depth", "d", "-1"},
		{"phone", "p", "false"},
		{"email", "e", "false"},
		{"pattern", "", "[]"},
		{"regex", "r", ""},
		{"full", "f", "false"},
		{"data-only", "o", "false"},
		{"json", "j", "false"},
		{"pretty-json", "J", "false"},
		{"markdown", "m", "false"},
		{"workers", "w", "1"},
		{"timeout", "t", "30s"},
		{"config", "c", ""},
		{"on-error", "", "abort"},
		{"scope", "", "page"},
		{"max-pages", "", "0"},
		{"proxy", "", ""},
		{"save", "", "false"},
		{"db-dir", "", ""},
		{"output-file", "", ""},
	}
	for _, tt := range flags {
		t.Run("has "+tt.name+" flag", func(t *testing.T) {
			t.Parallel()

			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}

	t.Run("requires exactly one argument", func(t *testing.T) {
		t.Parallel()
		if err := cmd.Args(cmd, nil); err == nil {
			t.Error("expected error without arguments")
		}
		if err := cmd.Args(cmd, []string{"a", "b"}); err == nil {
			t.Error("expected error with two arguments")
		}
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	siteFile := filepath.Join(t.TempDir(), "sites.yaml")
	content := `defaults:
  userAgent: default-agent
sites:
  example.com:
    depth: 2
    scope: site
    cookie: "session=abc"
`
	if err := os.WriteFile(siteFile, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	parse := func(t *testing.T, args ...string) (*config.Config, error) {
		t.Helper()
		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		return buildConfig(cmd, cmd.Flags().Args())
	}

	t.Run("uses defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := parse(t, "-c", emptyConfigFile(t), "-p", "https://example.org/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Root != "https://example.org/" || !cfg.Phone {
			t.Errorf("unexpected config: %+v", cfg)
		}
		if cfg.MaxDepth != config.DefaultMaxDepth || cfg.Workers != config.DefaultWorkers {
			t.Errorf("expected default depth and workers, got %d and %d", cfg.MaxDepth, cfg.Workers)
		}
		if cfg.Scope != config.DefaultScope || cfg.OnError != config.DefaultOnError {
			t.Errorf("expected default policies, got %s/%s", cfg.Scope, cfg.OnError)
		}
		if cfg.SiteConfigs == nil {
			t.Error("expected non-nil SiteConfigs")
		}
	})

	t.Run("reads every flag", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		cfg, err := parse(t, "-c", emptyConfigFile(t),
			"-e", "--pattern", "phone", "-r", `child_\d+`, "-d", "3", "-w", "4", "--max-pages", "10",
			"--on-error", "skip", "--scope", "any", "-t", "5s", "--proxy", "127.0.0.1:9050",
			"--user-agent", "test-agent", "--max-body-size", "2048", "-J",
			"--output-file", "out.json", "--save", "--db-dir", dbDir,
			"https://example.org/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Email || cfg.Regex != `child_\d+` || cfg.MaxDepth != 3 || cfg.Workers != 4 || cfg.MaxPages != 10 {
			t.Errorf("unexpected crawl settings: %+v", cfg)
		}
		if len(cfg.Patterns) != 1 || cfg.Patterns[0] != "phone" {
			t.Errorf("unexpected patterns %v", cfg.Patterns)
		}
		if cfg.OnError != "skip" || cfg.Scope != "any" || cfg.Timeout.String() != "5s" {
			t.Errorf("unexpected policies: %+v", cfg)
		}
		if cfg.ProxyAddress != "127.0.0.1:9050" || cfg.UserAgent != "test-agent" || cfg.MaxBodySize != 2048 {
			t.Errorf("unexpected request settings: %+v", cfg)
		}
		if !cfg.PrettyJSON || cfg.ReportFile != "out.json" || !cfg.SaveToDB || cfg.DBDir != dbDir {
			t.Errorf("unexpected output settings: %+v", cfg)
		}
	})

	t.Run("applies site config for the root host", func(t *testing.T) {
		t.Parallel()

		cfg, err := parse(t, "-c", siteFile, "-p", "https://EXAMPLE.com/start")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxDepth != 2 {
			t.Errorf("expected site depth 2, got %d", cfg.MaxDepth)
		}
		if cfg.Scope != "site" {
			t.Errorf("expected site scope, got %q", cfg.Scope)
		}
		if cfg.UserAgent != "default-agent" {
			t.Errorf("expected default user agent from file, got %q", cfg.UserAgent)
		}
	})

	t.Run("flags take precedence over site config", func(t *testing.T) {
		t.Parallel()

		cfg, err := parse(t, "-c", siteFile, "-p", "-d", "0", "--scope", "root", "https://example.com/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxDepth != 0 || cfg.Scope != "root" {
			t.Errorf("expected flag values, got depth %d scope %q", cfg.MaxDepth, cfg.Scope)
		}
	})

	t.Run("other hosts only get defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := parse(t, "-c", siteFile, "-p", "https://example.org/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxDepth != config.DefaultMaxDepth || cfg.Scope != config.DefaultScope {
			t.Errorf("site config leaked to another host: %+v", cfg)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		_, err := parse(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "-p", "https://example.org/")
		if err == nil || !strings.Contains(err.Error(), "configuration file not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("invalid config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("defaults:\n  unknownKey: 1\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := parse(t, "-c", path, "-p", "https://example.org/"); err == nil {
			t.Error("expected error for unknown key")
		}
	})

	t.Run("relative root", func(t *testing.T) {
		t.Parallel()

		_, err := parse(t, "-c", emptyConfigFile(t), "-p", "example.org/page")
		var parseErr *model.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("expected ParseError, got %v", err)
		}
	})
}

func TestOutputFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.Config
		want report.Format
	}{
		{"default", config.Config{}, report.FormatFull},
		{"full", config.Config{Full: true}, report.FormatFull},
		{"data-only", config.Config{DataOnly: true}, report.FormatDataOnly},
		{"json", config.Config{JSON: true}, report.FormatJSON},
		{"pretty-json", config.Config{PrettyJSON: true}, report.FormatPrettyJSON},
		{"markdown", config.Config{Markdown: true}, report.FormatMarkdown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := outputFormat(&tt.cfg); got != tt.want {
				t.Errorf("outputFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCrawlCommand(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	base := srv.URL + "/"

	t.Run("full output with depth limit", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, "crawl", srv.URL, "-p", "-d", "1", "-c", emptyConfigFile(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := base + "\n" +
			"├─ 555-123-4567\n" +
			base + "about\n" +
			base + "contact\n" +
			"├─ 555-123-4567\n" +
			"├─ 555-987-6543\n"
		if stdout != want {
			t.Errorf("unexpected output\n got: %q\nwant: %q", stdout, want)
		}
	})

	t.Run("data-only output with several workers", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, "crawl", srv.URL, "-p", "-e", "-d", "1", "-o", "-w", "3", "-c", emptyConfigFile(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "555-123-4567\ninfo@example.com\n555-987-6543\n"
		if stdout != want {
			t.Errorf("unexpected output\n got: %q\nwant: %q", stdout, want)
		}
	})

	t.Run("built-in patterns by name", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, "crawl", srv.URL, "--pattern", "PHONE,email", "-d", "1", "-o", "-c", emptyConfigFile(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "555-123-4567\ninfo@example.com\n555-987-6543\n"
		if stdout != want {
			t.Errorf("unexpected output\n got: %q\nwant: %q", stdout, want)
		}
	})

	t.Run("patterns from the configuration file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("defaults:\n  patterns: [email]\n"), 0600); err != nil {
			t.Fatal(err)
		}

		stdout, _, err := execute(t, "crawl", srv.URL, "-d", "1", "-o", "-c", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout != "info@example.com\n" {
			t.Errorf("unexpected output %q", stdout)
		}

		stdout, _, err = execute(t, "crawl", srv.URL, "-p", "-d", "0", "-o", "-c", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout != "555-123-4567\n" {
			t.Errorf("expected the phone flag to replace the file patterns, got %q", stdout)
		}
	})

	t.Run("abort on broken link", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, "crawl", srv.URL, "-p", "-c", emptyConfigFile(t))
		var fetchErr *crawler.FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected FetchError, got %v", err)
		}
		if fetchErr.Address.String() != base+"missing" || fetchErr.Status != http.StatusNotFound {
			t.Errorf("unexpected fetch error: %v", fetchErr)
		}
		if stdout != "" {
			t.Errorf("expected no output on failure, got %q", stdout)
		}
	})

	t.Run("skip broken link", func(t *testing.T) {
		t.Parallel()

		stdout, stderr, err := execute(t, "crawl", srv.URL, "-p", "-j", "--on-error", "skip", "-c", emptyConfigFile(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(stdout, `"`+base+`missing":`) {
			t.Errorf("skipped page became a node: %s", stdout)
		}
		if !strings.Contains(stdout, `"`+base+`missing"]`) {
			t.Errorf("expected skipped page to stay a child of contact: %s", stdout)
		}
		if !strings.Contains(stdout, `"`+base+`contact"`) {
			t.Errorf("expected contact page in output: %s", stdout)
		}
		if !strings.Contains(stderr, "fetch skipped") {
			t.Errorf("expected warning on stderr, got %q", stderr)
		}
	})

	t.Run("markdown to file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "reports", "site.md")
		stdout, _, err := execute(t, "crawl", srv.URL, "-p", "-d", "1", "-m", "--output-file", path, "-c", emptyConfigFile(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout != "" {
			t.Errorf("expected empty stdout, got %q", stdout)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("report not written: %v", err)
		}
		if !strings.Contains(string(content), "# maxtract Report") {
			t.Errorf("unexpected report:\n%s", content)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}
	})

	t.Run("file pages", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		pages := map[string]string{
			"index.html": `<a href="page2.html">next</a> child_1`,
			"page2.html": `<a href="index.html">back</a> child_2 child_1`,
		}
		for name, body := range pages {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0600); err != nil {
				t.Fatal(err)
			}
		}

		root := "file://" + filepath.ToSlash(filepath.Join(dir, "index.html"))
		stdout, _, err := execute(t, "crawl", root, "-r", `child_\d+`, "-o", "-c", emptyConfigFile(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout != "child_1\nchild_2\n" {
			t.Errorf("unexpected output %q", stdout)
		}
	})
}

func TestCrawlCommandErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		args  []string
		check func(error) bool
	}{
		{
			name:  "no pattern",
			args:  []string{"https://example.org/"},
			check: func(err error) bool { return errors.Is(err, config.ErrNoPattern) },
		},
		{
			name:  "unknown built-in pattern",
			args:  []string{"https://example.org/", "--pattern", "ssn"},
			check: func(err error) bool { return errors.Is(err, pattern.ErrUnknownBuiltin) },
		},
		{
			name:  "conflicting output formats",
			args:  []string{"https://example.org/", "-p", "-j", "-m"},
			check: func(err error) bool { return errors.Is(err, config.ErrConflictingOutputFormats) },
		},
		{
			name:  "invalid workers",
			args:  []string{"https://example.org/", "-p", "-w", "0"},
			check: func(err error) bool { return errors.Is(err, config.ErrInvalidWorkers) },
		},
		{
			name:  "invalid scope",
			args:  []string{"https://example.org/", "-p", "--scope", "galaxy"},
			check: func(err error) bool { return errors.Is(err, crawler.ErrInvalidScopePolicy) },
		},
		{
			name:  "invalid failure policy",
			args:  []string{"https://example.org/", "-p", "--on-error", "retry"},
			check: func(err error) bool { return errors.Is(err, crawler.ErrInvalidFailurePolicy) },
		},
		{
			name: "invalid regex",
			args: []string{"https://example.org/", "-r", "(unclosed"},
			check: func(err error) bool {
				var patErr *pattern.Error
				return errors.As(err, &patErr) && patErr.Expr == "(unclosed"
			},
		},
		{
			name: "unsupported scheme",
			args: []string{"ftp://example.org/", "-p"},
			check: func(err error) bool {
				var parseErr *model.ParseError
				return errors.As(err, &parseErr)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"crawl", "-c", emptyConfigFile(t)}, tt.args...)
			stdout, _, err := execute(t, args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if stdout != "" {
				t.Errorf("expected no output, got %q", stdout)
			}
		})
	}
}

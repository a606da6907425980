package config

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/maxtract/internal/fetch"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "maxtract"

	// DefaultMaxDepth crawls without a depth limit. Any negative value
	// means the same.
	DefaultMaxDepth = -1

	// DefaultWorkers fetches one page at a time.
	DefaultWorkers = 1

	// DefaultMaxPages of 0 places no cap on fetched pages.
	DefaultMaxPages = 0

	// DefaultTimeout bounds each page fetch, including reading the body.
	DefaultTimeout = fetch.DefaultTimeout

	// DefaultOnError aborts the crawl at the first page that cannot be fetched.
	DefaultOnError = "abort"

	// DefaultScope follows only links on the referencing page's host.
	DefaultScope = "page"

	// DefaultUserAgent identifies maxtract in HTTP requests.
	DefaultUserAgent = fetch.DefaultUserAgent

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = fetch.DefaultMaxBodySize
)

// Config holds all options of one maxtract invocation.
// It is populated from CLI flags and the optional configuration file and
// passed explicitly rather than kept in global state.
type Config struct {
	// Root is the address the crawl starts from.
	Root string

	// MaxDepth is the deepest link level fetched; the root is level 0.
	// A negative value means unlimited.
	MaxDepth int

	// Phone, Email, Patterns and Regex select the extraction patterns.
	// At least one must be set; several are combined with logical OR.
	Phone    bool
	Email    bool
	Patterns []string
	Regex    string

	// Output format flags. At most one may be set; none means Full.
	Full       bool
	DataOnly   bool
	JSON       bool
	PrettyJSON bool
	Markdown   bool

	// ReportFile is written instead of stdout when set. Parent directories
	// are created as needed.
	ReportFile string

	// Workers is the number of pages fetched concurrently.
	Workers int

	// MaxPages caps the number of fetched pages. 0 means no cap.
	MaxPages int

	// OnError is the fetch failure policy: "abort" or "skip".
	OnError string

	// Scope is the link scope policy: "page", "root", "site" or "any".
	Scope string

	// Timeout bounds each page fetch.
	Timeout time.Duration

	// ProxyAddress routes HTTP fetches through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// ConfigFilePath is the explicit configuration file path. When empty,
	// .maxtract is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds the loaded configuration file, never nil after
	// the CLI has resolved it.
	SiteConfigs *File

	// SaveToDB stores a successful crawl in the run history.
	SaveToDB bool

	// DBDir is the directory holding the run history database.
	// Defaults to the XDG data directory (~/.local/share/maxtract on Linux).
	DBDir string

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxDepth:    DefaultMaxDepth,
		Workers:     DefaultWorkers,
		MaxPages:    DefaultMaxPages,
		OnError:     DefaultOnError,
		Scope:       DefaultScope,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for maxtract.
// On Linux: ~/.local/share/maxtract
// On macOS: ~/Library/Application Support/maxtract
// On Windows: %LOCALAPPDATA%\maxtract
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for maxtract.
// On Linux: ~/.config/maxtract
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// HasPattern reports whether at least one extraction pattern is selected.
func (c *Config) HasPattern() bool {
	return c.Phone || c.Email || len(c.Patterns) > 0 || c.Regex != ""
}

// outputFlags counts the output format flags that are set.
func (c *Config) outputFlags() int {
	n := 0
	for _, set := range []bool{c.Full, c.DataOnly, c.JSON, c.PrettyJSON, c.Markdown} {
		if set {
			n++
		}
	}
	return n
}

// Validate checks the configuration before any network activity and
// returns the first problem found.
func (c *Config) Validate() error {
	if c.Root == "" {
		return ErrNoRoot
	}

	if !c.HasPattern() {
		return ErrNoPattern
	}

	if err := c.ValidateOutput(); err != nil {
		return err
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// ValidateOutput checks that at most one output format is selected.
func (c *Config) ValidateOutput() error {
	if c.outputFlags() > 1 {
		return ErrConflictingOutputFormats
	}
	return nil
}

// ApplySite overlays the site settings onto c. Values already changed from
// their defaults on the command line take precedence, which the caller
// signals through flagSet.
func (c *Config) ApplySite(site SiteConfig, flagSet func(name string) bool) {
	if site.Depth != nil && !flagSet("max-depth") {
		c.MaxDepth = *site.Depth
	}
	if site.UserAgent != "" && !flagSet("user-agent") {
		c.UserAgent = site.UserAgent
	}
	if site.Scope != "" && !flagSet("scope") {
		c.Scope = site.Scope
	}
	if len(site.Patterns) > 0 && !slices.ContainsFunc(patternFlags, flagSet) {
		c.Patterns = site.Patterns
	}
}

// patternFlags are the flags that select extraction patterns. Setting any
// of them replaces the patterns of the configuration file.
var patternFlags = []string{"phone", "email", "pattern", "regex"}

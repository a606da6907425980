package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/maxtract/internal/config"
	"github.com/nao1215/maxtract/internal/crawler"
	"github.com/nao1215/maxtract/internal/database"
	"github.com/nao1215/maxtract/internal/fetch"
	"github.com/nao1215/maxtract/internal/model"
	"github.com/nao1215/maxtract/internal/pattern"
	"github.com/nao1215/maxtract/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <root-url>",
		Short: "Crawl a website and extract matches from every page",
		Long: `Crawl fetches the root page, extracts every match of the selected patterns
and follows its links breadth-first, level by level, until the maximum depth
is reached or no unvisited links remain.

At least one of --phone, --email, --pattern or --regex must be given, unless
the configuration file lists patterns for the site. Several patterns are
combined: a string matching any of them is extracted.

Examples:
  # Extract phone numbers and e-mail addresses from a whole site
  maxtract crawl https://example.com -p -e

  # Only the root page and the pages it links to
  maxtract crawl https://example.com -p -d 1

  # Custom pattern, print only the matches
  maxtract crawl https://example.com -r 'child_\d+' -o

  # Pretty JSON with eight concurrent fetches, skipping broken links
  maxtract crawl https://example.com -e -J --workers 8 --on-error skip

  # Follow subdomains and store the result in the history
  maxtract crawl https://example.com -e --scope site --save

  # Crawl local HTML files
  maxtract crawl file:///srv/www/index.html -r 'TODO: .*'`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Pattern flags
	cmd.Flags().BoolP("phone", "p", false, "Extract phone numbers")
	cmd.Flags().BoolP("email", "e", false, "Extract e-mail addresses")
	cmd.Flags().StringSlice("pattern", nil, "Extract built-in patterns by name (phone, email)")
	cmd.Flags().StringP("regex", "r", "", "Extract matches of a custom regular expression")

	// Crawl behavior flags
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth,
		"Maximum link depth to follow, the root is depth 0 (-1 for unlimited)")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of pages fetched concurrently")
	cmd.Flags().Int("max-pages", config.DefaultMaxPages,
		"Maximum number of pages to fetch (0 for unlimited)")
	cmd.Flags().String("on-error", config.DefaultOnError,
		"What to do when a page cannot be fetched: abort or skip")
	cmd.Flags().String("scope", config.DefaultScope,
		"Which links to follow: page, root, site or any")

	// Request flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page fetch")
	cmd.Flags().String("proxy", "",
		"Route HTTP requests through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with each request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum number of bytes read from each page")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .maxtract in current or home directory)")

	addOutputFlags(cmd)

	// History flags
	cmd.Flags().Bool("save", false, "Store the crawl in the run history")
	addDBDirFlag(cmd)

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildConfig creates a Config from cobra command flags and the
// configuration file. Site settings for the root's host are applied to
// every value not set explicitly on the command line.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if len(args) > 0 {
		cfg.Root = args[0]
	}

	if cfg.Phone, err = flags.GetBool("phone"); err != nil {
		return nil, err
	}
	if cfg.Email, err = flags.GetBool("email"); err != nil {
		return nil, err
	}
	if cfg.Patterns, err = flags.GetStringSlice("pattern"); err != nil {
		return nil, err
	}
	if cfg.Regex, err = flags.GetString("regex"); err != nil {
		return nil, err
	}

	if cfg.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
		return nil, err
	}
	if cfg.Workers, err = flags.GetInt("workers"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.OnError, err = flags.GetString("on-error"); err != nil {
		return nil, err
	}
	if cfg.Scope, err = flags.GetString("scope"); err != nil {
		return nil, err
	}

	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}

	if err := readOutputFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}
	if err := readDBDirFlag(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Verbose = boolFlag(cmd, "verbose")

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	if cfg.Root != "" {
		root, err := model.ParseAddress(cfg.Root)
		if err != nil {
			return nil, err
		}
		cfg.ApplySite(cfg.SiteConfigs.GetSiteConfig(root.Domain()), flags.Changed)
	}

	return cfg, nil
}

// loadSiteConfigs loads the configuration file. A file named explicitly
// must exist; otherwise a missing file yields an empty configuration.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return file, nil
}

// newFetcher builds the fetcher for http, https and file addresses.
func newFetcher(cfg *config.Config, site config.SiteConfig) (fetch.Fetcher, error) {
	opts := []fetch.HTTPOption{
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	}
	if site.Cookie != "" {
		opts = append(opts, fetch.WithCookie(site.Cookie))
	}
	if len(site.Headers) > 0 {
		opts = append(opts, fetch.WithHeaders(site.Headers))
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, fetch.WithProxy(cfg.ProxyAddress))
	}

	web, err := fetch.NewHTTPFetcher(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP fetcher: %w", err)
	}
	return fetch.NewRouter(web, fetch.NewFileFetcher(cfg.MaxBodySize)), nil
}

// runCrawl builds the graph for cfg.Root and renders it to out. Nothing is
// rendered when the crawl fails.
func runCrawl(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	root, err := model.ParseAddress(cfg.Root)
	if err != nil {
		return err
	}

	scope, err := crawler.ParseScopePolicy(cfg.Scope)
	if err != nil {
		return err
	}
	failure, err := crawler.ParseFailurePolicy(cfg.OnError)
	if err != nil {
		return err
	}

	patterns := pattern.Options{
		Phone:    cfg.Phone,
		Email:    cfg.Email,
		Builtins: cfg.Patterns,
		Custom:   cfg.Regex,
	}
	re, err := pattern.Compile(patterns)
	if err != nil {
		return err
	}

	site := cfg.SiteConfigs.GetSiteConfig(root.Domain())
	fetcher, err := newFetcher(cfg, site)
	if err != nil {
		return err
	}

	builder := crawler.NewBuilder(fetcher,
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithWorkers(cfg.Workers),
		crawler.WithFailurePolicy(failure),
		crawler.WithScope(scope),
		crawler.WithPathFilter(crawler.NewPathFilter(site.IgnorePatterns, site.FollowPatterns)),
		crawler.WithLogger(logger),
	)

	logger.Info("starting crawl",
		"root", root.String(),
		"pattern", patterns.Names(),
		"maxDepth", cfg.MaxDepth,
		"workers", cfg.Workers,
		"scope", string(scope),
		"userAgent", cfg.UserAgent,
		"cookie", site.Cookie,
	)

	startTime := time.Now()
	graph, err := builder.Build(ctx, root, re)
	if err != nil {
		return err
	}
	logger.Info("crawl finished",
		"pages", graph.Len(),
		"matches", graph.MatchCount(),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	meta := report.Meta{
		Root:      root,
		Pattern:   patterns.Names(),
		MaxDepth:  cfg.MaxDepth,
		CrawledAt: startTime,
	}
	if err := outputReport(out, cfg.ReportFile, outputFormat(cfg), meta, graph); err != nil {
		return err
	}

	if cfg.SaveToDB {
		return saveRun(ctx, cfg.DBDir, meta, graph, logger)
	}
	return nil
}

// saveRun stores graph in the run history under dbDir.
func saveRun(ctx context.Context, dbDir string, meta report.Meta, graph *model.Graph, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	previous, seen, err := db.LatestRun(ctx, meta.Root.String())
	if err != nil {
		return err
	}

	run, err := db.SaveRun(ctx, database.Run{
		Root:      meta.Root.String(),
		Pattern:   meta.Pattern,
		MaxDepth:  meta.MaxDepth,
		Timestamp: meta.CrawledAt,
	}, graph)
	if err != nil {
		return err
	}

	if seen && previous.Digest == run.Digest {
		logger.Info("graph unchanged since previous run", "run", run.ID, "previous", previous.ID)
	}
	logger.Info("run saved", "run", run.ID, "path", db.Path(), "digest", run.Digest)
	return nil
}

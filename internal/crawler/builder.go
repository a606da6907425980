package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/nao1215/maxtract/internal/fetch"
	"github.com/nao1215/maxtract/internal/model"
	"golang.org/x/sync/errgroup"
)

// FailurePolicy decides what a fetch failure does to the crawl.
type FailurePolicy string

const (
	// FailAbort stops the crawl at the first failed page and returns its FetchError.
	FailAbort FailurePolicy = "abort"
	// FailSkip logs the failed page and carries on without it.
	FailSkip FailurePolicy = "skip"
)

// ParseFailurePolicy parses a policy name.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FailAbort, FailSkip:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (want abort or skip)", ErrInvalidFailurePolicy, s)
	}
}

// Unlimited disables the depth limit.
const Unlimited = -1

// Builder crawls a site breadth-first and assembles its Graph.
type Builder struct {
	fetcher fetch.Fetcher
	links   LinkExtractor

	// maxDepth is the deepest level fetched. The root is level 0.
	maxDepth int

	// maxPages caps the number of dispatched fetches. 0 means no cap.
	maxPages int

	workers int
	failure FailurePolicy
	scope   ScopePolicy
	filter  *PathFilter
	logger  *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithMaxDepth sets the maximum crawl depth. A negative depth means Unlimited.
func WithMaxDepth(depth int) Option {
	return func(b *Builder) {
		if depth < 0 {
			depth = Unlimited
		}
		b.maxDepth = depth
	}
}

// WithMaxPages caps how many pages are fetched. 0 means no cap.
func WithMaxPages(n int) Option {
	return func(b *Builder) {
		if n >= 0 {
			b.maxPages = n
		}
	}
}

// WithWorkers sets how many fetches may run at once.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithFailurePolicy sets what happens when a page cannot be fetched.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(b *Builder) {
		b.failure = p
	}
}

// WithScope sets which discovered links are followed.
func WithScope(p ScopePolicy) Option {
	return func(b *Builder) {
		b.scope = p
	}
}

// WithPathFilter drops children whose path fails f.
func WithPathFilter(f *PathFilter) Option {
	return func(b *Builder) {
		b.filter = f
	}
}

// WithLinkExtractor replaces the HTML anchor extractor.
func WithLinkExtractor(l LinkExtractor) Option {
	return func(b *Builder) {
		if l != nil {
			b.links = l
		}
	}
}

// WithLogger sets the logger for crawl progress.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder that retrieves pages with fetcher.
// By default it crawls to unlimited depth with one worker, aborts on the
// first failure and stays on the referencing page's host.
func NewBuilder(fetcher fetch.Fetcher, opts ...Option) *Builder {
	b := &Builder{
		fetcher:  fetcher,
		links:    HTMLLinkExtractor{},
		maxDepth: Unlimited,
		workers:  1,
		failure:  FailAbort,
		scope:    ScopePage,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// job asks a worker to fetch the frontier entry with sequence number seq.
type job struct {
	seq     int
	address model.Address
}

// result is a worker's answer to a job.
type result struct {
	seq  int
	node *model.Node
	err  error
}

// Build crawls from root and returns the Graph of every settled page whose
// pattern matches were extracted with re.
//
// Under FailAbort the first failure, in frontier order, is returned as a
// *FetchError and no Graph is returned. Cancelling ctx stops the crawl with
// ctx.Err().
func (b *Builder) Build(ctx context.Context, root model.Address, re *regexp.Regexp) (*model.Graph, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	extractor := NewExtractor(b.fetcher, b.links, NewScope(b.scope, root), b.filter)

	jobs := make(chan job)
	// Never more than b.workers jobs are outstanding, so workers never block
	// on send even after the owner stops receiving.
	results := make(chan result, b.workers)

	g, gctx := errgroup.WithContext(ctx)
	for range b.workers {
		g.Go(func() error {
			for j := range jobs {
				node, err := extractor.FetchAndExtract(gctx, j.address, re)
				results <- result{seq: j.seq, node: node, err: err}
			}
			return nil
		})
	}

	graph, err := b.run(ctx, root, jobs, results)

	// Abandon in-flight fetches; their results are discarded.
	close(jobs)
	cancel()
	if waitErr := g.Wait(); waitErr != nil && err == nil {
		err = waitErr
	}
	if err != nil {
		return nil, err
	}
	return graph, nil
}

// run is the single owner of the Graph and the frontier. It hands entries to
// workers in FIFO order and settles their results in the same order.
func (b *Builder) run(ctx context.Context, root model.Address, jobs chan<- job, results <-chan result) (*model.Graph, error) {
	graph := model.NewGraph()
	queue := newFrontier()
	queue.push(root, 0)

	var (
		depth    = 0
		boundary = 1 // settled count at which depth advances
		settled  = 0
		inflight = 0
		pending  = make(map[int]result)
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for inflight < b.workers {
			seq, e, ok := queue.peekDispatch()
			if !ok || !b.dispatchable(seq, e) {
				break
			}
			b.logger.Debug("fetching", "address", e.address.String(), "depth", e.level)
			select {
			case jobs <- job{seq: seq, address: e.address}:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			queue.markDispatched()
			inflight++
		}

		if inflight == 0 {
			return graph, nil
		}

		select {
		case r := <-results:
			inflight--
			pending[r.seq] = r
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		for {
			r, ok := pending[queue.headSeq()]
			if !ok {
				break
			}
			delete(pending, r.seq)
			_, e := queue.pop()

			if r.err != nil {
				if b.failure != FailSkip {
					return nil, r.err
				}
				b.logger.Warn("fetch skipped", "address", e.address.String(), "depth", e.level, "error", r.err)
			} else {
				graph.Add(r.node)
				queued := 0
				for _, child := range r.node.Children() {
					if queue.push(child, e.level+1) {
						queued++
					}
				}
				b.logger.Debug("node added",
					"address", e.address.String(),
					"matches", r.node.MatchCount(),
					"children", queued,
				)
			}

			settled++
			if settled == boundary {
				depth++
				boundary = settled + queue.len()
				b.logger.Debug("depth advanced", "depth", depth, "queued", queue.len())
			}
			if b.maxDepth != Unlimited && depth > b.maxDepth {
				return graph, nil
			}
		}
	}
}

// dispatchable reports whether the frontier entry seq may be fetched.
// Frontier levels never decrease, so once an entry is refused every later
// entry is refused too.
func (b *Builder) dispatchable(seq int, e entry) bool {
	if b.maxDepth != Unlimited && e.level > b.maxDepth {
		return false
	}
	if b.maxPages > 0 && seq >= b.maxPages {
		return false
	}
	return true
}

// Package crawler builds the link graph of a web site.
//
// # Architecture
//
// The Builder drives a breadth-first traversal starting at a root address.
// For every dispatched address an Extractor fetches the page body, collects
// the substrings matching the active pattern and resolves the page's anchors
// into child addresses. Children outside the crawl scope, or rejected by the
// path filter, are discarded before they reach the frontier.
//
// # Concurrency
//
// Fetching runs on a bounded pool of workers. Only the goroutine that called
// Build mutates the Graph and the frontier: results are committed in frontier
// order, so the resulting Graph and depth accounting do not depend on the
// number of workers.
//
// # Depth
//
// Depth is counted in link hops from the root. The root is depth 0. When a
// maximum depth is set, pages beyond it are never fetched.
//
// # Usage
//
//	builder := crawler.NewBuilder(fetcher, crawler.WithMaxDepth(2), crawler.WithWorkers(4))
//	graph, err := builder.Build(ctx, root, re)
package crawler

// Package report renders a crawl Graph.
//
// This package contains writers for different output formats:
//   - TextWriter: per-address listing of matches, or the matches alone
//   - JSONWriter: the serialized Graph, compact or indented
//   - MarkdownWriter: a summary document with a matches-per-page chart
//
// Every writer walks the Graph in ascending address order, so output is
// stable across runs over the same site.
package report

package report

import (
	"cmp"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/maxtract/internal/model"
)

// maxChartSlices bounds the pie chart; smaller pages are folded into "other".
const maxChartSlices = 8

// Meta describes the crawl that produced a Graph.
type Meta struct {
	// Root is the address the crawl started from.
	Root model.Address

	// Pattern names the active patterns, e.g. "phone|email".
	Pattern string

	// MaxDepth is the depth limit, or a negative value for unlimited.
	MaxDepth int

	// CrawledAt is when the crawl started.
	CrawledAt time.Time
}

// MarkdownWriter outputs a Markdown document for sharing crawl results.
type MarkdownWriter struct {
	baseWriter
	meta Meta
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, meta Meta) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		meta:       meta,
	}
}

// Write outputs graph in Markdown format.
func (w *MarkdownWriter) Write(graph *model.Graph) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, graph)
	w.writeDistribution(md, graph)
	w.writePages(md, graph)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the crawl information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, graph *model.Graph) {
	md.H1("maxtract Report")
	md.PlainText("")

	depth := "unlimited"
	if w.meta.MaxDepth >= 0 {
		depth = strconv.Itoa(w.meta.MaxDepth)
	}
	crawledAt := "-"
	if !w.meta.CrawledAt.IsZero() {
		crawledAt = w.meta.CrawledAt.Format("2006-01-02 15:04:05 MST")
	}
	pattern := w.meta.Pattern
	if pattern == "" {
		pattern = "-"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Root", "`" + w.meta.Root.String() + "`"},
			{"Pattern", "`" + pattern + "`"},
			{"Max Depth", depth},
			{"Crawled At", crawledAt},
			{"Pages", strconv.Itoa(graph.Len())},
			{"Matches", strconv.Itoa(graph.MatchCount())},
		},
	})
	md.PlainText("")
}

// writeDistribution writes a mermaid pie chart of matches per page.
func (w *MarkdownWriter) writeDistribution(md *markdown.Markdown, graph *model.Graph) {
	md.H2("Match Distribution")
	md.PlainText("")

	type slice struct {
		label string
		count int
	}
	var pages []slice
	for address, node := range graph.All() {
		if n := node.MatchCount(); n > 0 {
			pages = append(pages, slice{label: address.String(), count: n})
		}
	}

	if len(pages) == 0 {
		md.Tip("No matches found on any crawled page.")
		md.PlainText("")
		return
	}

	// Largest first; equal counts keep address order.
	slices.SortStableFunc(pages, func(a, b slice) int {
		return cmp.Compare(b.count, a.count)
	})

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Matches per Page"),
		piechart.WithShowData(true),
	)
	other := 0
	for i, s := range pages {
		if i < maxChartSlices {
			chart.LabelAndIntValue(s.label, uint64(s.count)) //nolint:gosec // count is non-negative
			continue
		}
		other += s.count
	}
	if other > 0 {
		chart.LabelAndIntValue("other", uint64(other)) //nolint:gosec // count is non-negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
	md.Note(strconv.Itoa(len(pages)) + " of " + strconv.Itoa(graph.Len()) + " pages contain matches.")
	md.PlainText("")
}

// writePages writes one section per crawled address.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, graph *model.Graph) {
	md.H2("Pages")
	md.PlainText("")

	for address, node := range graph.All() {
		md.PlainText("### " + address.String())
		md.PlainText("")

		if node.MatchCount() == 0 {
			md.PlainText("No matches.")
		} else {
			md.BulletList(quoteAll(node.Matches())...)
		}
		md.PlainText("")

		if children := node.Children(); len(children) > 0 {
			links := make([]string, 0, len(children))
			for _, child := range children {
				links = append(links, "- "+child.String())
			}
			md.Details("Links ("+strconv.Itoa(len(children))+")", strings.Join(links, "\n"))
			md.PlainText("")
		}
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [maxtract](https://github.com/nao1215/maxtract)*")
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = "`" + s + "`"
	}
	return out
}

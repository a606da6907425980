package report

import (
	"io"
	"strings"

	"github.com/nao1215/maxtract/internal/model"
)

// matchPrefix introduces each match below its address in full output.
const matchPrefix = "├─ "

// TextWriter outputs plain text for terminal display and piping.
type TextWriter struct {
	baseWriter

	// dataOnly omits addresses and prints each distinct match once.
	dataOnly bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithDataOnly prints only the matches, without the source addresses.
// A match found on several pages is printed once, at its first occurrence.
func WithDataOnly() TextWriterOption {
	return func(w *TextWriter) {
		w.dataOnly = true
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs graph one line per address or match.
func (w *TextWriter) Write(graph *model.Graph) (int, error) {
	var sb strings.Builder
	if w.dataOnly {
		w.writeData(&sb, graph)
	} else {
		w.writeFull(&sb, graph)
	}
	return io.WriteString(w.output, sb.String())
}

func (w *TextWriter) writeFull(sb *strings.Builder, graph *model.Graph) {
	for address, node := range graph.All() {
		sb.WriteString(address.String())
		sb.WriteString("\n")
		for _, match := range node.Matches() {
			sb.WriteString(matchPrefix)
			sb.WriteString(match)
			sb.WriteString("\n")
		}
	}
}

func (w *TextWriter) writeData(sb *strings.Builder, graph *model.Graph) {
	seen := make(map[string]struct{})
	for _, node := range graph.All() {
		for _, match := range node.Matches() {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			sb.WriteString(match)
			sb.WriteString("\n")
		}
	}
}

package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/maxtract/internal/model"
)

// Writer renders a Graph to an output destination.
type Writer interface {
	// Write renders graph and returns the number of bytes written.
	Write(graph *model.Graph) (int, error)
}

// Format selects an output format.
type Format string

const (
	// FormatFull lists every address followed by its matches.
	FormatFull Format = "full"
	// FormatDataOnly lists the matches without addresses.
	FormatDataOnly Format = "data-only"
	// FormatJSON writes the Graph as single-line JSON.
	FormatJSON Format = "json"
	// FormatPrettyJSON writes the Graph as indented JSON.
	FormatPrettyJSON Format = "pretty-json"
	// FormatMarkdown writes a Markdown report.
	FormatMarkdown Format = "markdown"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported Format.
var ErrUnknownFormat = errors.New("unknown output format")

// NewWriter returns the Writer for format. meta is only used by FormatMarkdown.
func NewWriter(format Format, output io.Writer, meta Meta) (Writer, error) {
	switch format {
	case FormatFull, "":
		return NewTextWriter(output), nil
	case FormatDataOnly:
		return NewTextWriter(output, WithDataOnly()), nil
	case FormatJSON:
		return NewJSONWriter(output), nil
	case FormatPrettyJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output, meta), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

package fetch

import (
	"context"
	"fmt"

	"github.com/nao1215/maxtract/internal/model"
)

// Fetcher retrieves the raw body of a page.
type Fetcher interface {
	Fetch(ctx context.Context, address model.Address) ([]byte, error)
}

// Router dispatches each fetch to the fetcher registered for its scheme.
type Router struct {
	fetchers map[string]Fetcher
}

// NewRouter creates a Router serving http and https with web and file
// addresses with files. Either may be nil to leave that scheme unsupported.
func NewRouter(web, files Fetcher) *Router {
	r := &Router{fetchers: make(map[string]Fetcher)}
	if web != nil {
		r.fetchers[model.SchemeHTTP] = web
		r.fetchers[model.SchemeHTTPS] = web
	}
	if files != nil {
		r.fetchers[model.SchemeFile] = files
	}
	return r
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, address model.Address) ([]byte, error) {
	f, ok := r.fetchers[address.Scheme()]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, address.Scheme())
	}
	return f.Fetch(ctx, address)
}

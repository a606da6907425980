package crawler

import (
	"context"
	"errors"
	"regexp"

	"github.com/nao1215/maxtract/internal/fetch"
	"github.com/nao1215/maxtract/internal/model"
)

// Extractor turns one address into a Node.
type Extractor struct {
	fetcher fetch.Fetcher
	links   LinkExtractor
	scope   Scope
	filter  *PathFilter
}

// NewExtractor creates an Extractor. A nil links uses HTMLLinkExtractor and a
// nil filter allows every path.
func NewExtractor(fetcher fetch.Fetcher, links LinkExtractor, scope Scope, filter *PathFilter) *Extractor {
	if links == nil {
		links = HTMLLinkExtractor{}
	}
	return &Extractor{
		fetcher: fetcher,
		links:   links,
		scope:   scope,
		filter:  filter,
	}
}

// FetchAndExtract fetches address and builds its Node: every substring of
// the body matching re, and the in-scope children in document order.
// Links that cannot be resolved against address are dropped silently.
func (e *Extractor) FetchAndExtract(ctx context.Context, address model.Address, re *regexp.Regexp) (*model.Node, error) {
	body, err := e.fetcher.Fetch(ctx, address)
	if err != nil {
		fetchErr := &FetchError{Address: address, Err: err}
		var statusErr *fetch.StatusError
		if errors.As(err, &statusErr) {
			fetchErr.Status = statusErr.Code
		}
		return nil, fetchErr
	}

	hrefs, err := e.links.ExtractHrefs(body)
	if err != nil {
		return nil, &FetchError{Address: address, Err: err}
	}

	children := make([]model.Address, 0, len(hrefs))
	for _, href := range hrefs {
		child, err := model.Resolve(href, address)
		if err != nil {
			continue
		}
		if !e.scope.Allows(address, child) || !e.filter.Allows(child) {
			continue
		}
		children = append(children, child)
	}

	var matches []string
	if re != nil {
		matches = re.FindAllString(string(body), -1)
	}
	return model.NewNode(address, matches, children), nil
}

package crawler

import (
	"fmt"
	"net"
	"strings"

	"github.com/nao1215/maxtract/internal/model"
	"golang.org/x/net/publicsuffix"
)

// ScopePolicy decides which discovered links stay in the crawl.
type ScopePolicy string

const (
	// ScopePage keeps links whose host equals the referencing page's host.
	ScopePage ScopePolicy = "page"
	// ScopeRoot keeps links whose host equals the crawl root's host.
	ScopeRoot ScopePolicy = "root"
	// ScopeSite keeps links sharing the root's registrable domain, subdomains included.
	ScopeSite ScopePolicy = "site"
	// ScopeAny keeps every link.
	ScopeAny ScopePolicy = "any"
)

// ParseScopePolicy parses a policy name.
func ParseScopePolicy(s string) (ScopePolicy, error) {
	switch p := ScopePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ScopePage, ScopeRoot, ScopeSite, ScopeAny:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (want page, root, site or any)", ErrInvalidScopePolicy, s)
	}
}

// Scope applies a ScopePolicy relative to a crawl root.
type Scope struct {
	policy   ScopePolicy
	rootHost string
	rootSite string
}

// NewScope returns the Scope of policy for a crawl starting at root.
// An empty policy means ScopePage.
func NewScope(policy ScopePolicy, root model.Address) Scope {
	if policy == "" {
		policy = ScopePage
	}
	host := root.Domain()
	return Scope{
		policy:   policy,
		rootHost: host,
		rootSite: registrableDomain(host),
	}
}

// Allows reports whether child, discovered on page, belongs to the crawl.
func (s Scope) Allows(page, child model.Address) bool {
	switch s.policy {
	case ScopeAny:
		return true
	case ScopeRoot:
		return child.Domain() == s.rootHost
	case ScopeSite:
		return registrableDomain(child.Domain()) == s.rootSite
	default:
		return child.Domain() == page.Domain()
	}
}

// registrableDomain returns the eTLD+1 of host, or host itself when it has
// none (IP addresses, localhost, empty host of file addresses).
func registrableDomain(host string) string {
	if net.ParseIP(host) != nil {
		return host
	}
	site, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return site
}

package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Address resolution errors.
var (
	// ErrEmptyAddress is returned when the raw address is empty.
	ErrEmptyAddress = errors.New("address cannot be empty")
	// ErrRelativeAddress is returned when a root address has no scheme.
	ErrRelativeAddress = errors.New("relative URL without a base")
	// ErrUnsupportedScheme is returned for schemes that cannot be fetched
	// (mailto, javascript, tel, data, ...).
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// Schemes that can be fetched.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeFile  = "file"
)

// ParseError is returned when a raw hyperlink or root address cannot be
// resolved into an Address.
type ParseError struct {
	// Raw is the input that failed to resolve.
	Raw string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse address %q: %v", e.Raw, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Address is an absolute, fragment-free resource locator in normalized
// string form. Two addresses are equal iff their strings are equal, so an
// Address can be used directly as a map key and sorts by plain string order.
type Address string

// ParseAddress parses an absolute address such as a crawl root.
// Relative input is rejected with ErrRelativeAddress.
func ParseAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ParseError{Raw: raw, Err: ErrEmptyAddress}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", &ParseError{Raw: raw, Err: err}
	}
	if !u.IsAbs() {
		return "", &ParseError{Raw: raw, Err: ErrRelativeAddress}
	}

	// Resolving the empty reference removes dot segments the same way
	// Resolve does for discovered links.
	return normalize(raw, u.ResolveReference(&url.URL{}))
}

// Resolve resolves raw against base following standard URL reference
// resolution. The fragment is always stripped; the query is kept because
// different query strings can render different content.
func Resolve(raw string, base Address) (Address, error) {
	trimmed := strings.TrimSpace(raw)

	baseURL, err := url.Parse(string(base))
	if err != nil {
		return "", &ParseError{Raw: string(base), Err: err}
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		return "", &ParseError{Raw: raw, Err: err}
	}

	return normalize(raw, baseURL.ResolveReference(ref))
}

// MustParseAddress is like ParseAddress but panics on error.
// Use only for known-valid addresses in tests or initialization.
func MustParseAddress(raw string) Address {
	addr, err := ParseAddress(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

// normalize applies the canonical form shared by every Address:
// lower-case scheme and host, no fragment, and "/" for an empty http(s) path.
func normalize(raw string, u *url.URL) (Address, error) {
	u.Scheme = strings.ToLower(u.Scheme)
	switch u.Scheme {
	case SchemeHTTP, SchemeHTTPS:
		if u.Host == "" {
			return "", &ParseError{Raw: raw, Err: errors.New("missing host")}
		}
		if u.Path == "" && u.Opaque == "" {
			u.Path = "/"
		}
	case SchemeFile:
	default:
		return "", &ParseError{Raw: raw, Err: fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)}
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	return Address(u.String()), nil
}

// String returns the canonical string form.
func (a Address) String() string {
	return string(a)
}

// URL returns the parsed form of the address.
func (a Address) URL() *url.URL {
	u, err := url.Parse(string(a))
	if err != nil {
		return &url.URL{}
	}
	return u
}

// Scheme returns the address scheme (http, https or file).
func (a Address) Scheme() string {
	return a.URL().Scheme
}

// Domain returns the host name without port. File addresses have an
// empty domain.
func (a Address) Domain() string {
	return a.URL().Hostname()
}

// Package fetch retrieves the raw body of a page.
//
// Three implementations are provided:
//   - HTTPFetcher: http and https addresses, optionally through a SOCKS5 proxy
//   - FileFetcher: file addresses, read from the local filesystem
//   - Router: dispatches to one of the above by address scheme
//
// Every fetcher bounds the size of the body it reads. A response outside the
// 2xx range is reported as a *StatusError so callers can surface the status.
package fetch

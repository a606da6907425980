// Package model defines the data structures produced by a crawl.
//
// This package contains the following main types:
//   - Address: a normalized, fragment-free absolute URL used as the key of every page
//   - Node: one fetched page with its pattern matches and in-scope children
//   - Graph: the read-only collection of Nodes produced by one crawl run
//
// The crawler, report and database packages all share these types.
package model

// Package database keeps a history of completed crawls in SQLite.
//
// Each saved run stores its metadata in the runs table and one row per
// graph node in the nodes table. A SHA3-256 digest of the graph's JSON form
// is recorded with every run, so an unchanged re-crawl can be recognised
// and a graph loaded back from disk can be verified.
//
// The driver is modernc.org/sqlite, which needs no cgo and keeps the whole
// history in one file under the XDG data directory.
package database

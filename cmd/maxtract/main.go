// Package main provides the entry point for the maxtract CLI.
//
// maxtract crawls a website breadth-first from a root address and extracts
// phone numbers, e-mail addresses or arbitrary regular expression matches
// from every page it visits.
//
// Usage:
//
//	maxtract crawl <root-url> --phone --email
//	maxtract crawl <root-url> --regex 'child_\d+' --json
//
// See --help for all available options.
package main

func main() {
	Execute()
}

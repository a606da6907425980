package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoRoot is returned when no root address is given.
	ErrNoRoot = errors.New("no root address specified")

	// ErrNoPattern is returned when no extraction pattern is selected by a
	// flag or the configuration file.
	ErrNoPattern = errors.New("no pattern specified: use at least one of --phone, --email, --pattern or --regex")

	// ErrConflictingOutputFormats is returned when more than one output format is requested.
	ErrConflictingOutputFormats = errors.New("conflicting output formats: only one of --full, --data-only, --json, --pretty-json and --markdown may be specified")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidMaxPages is returned when the page cap is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)

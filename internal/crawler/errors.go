package crawler

import (
	"errors"
	"fmt"

	"github.com/nao1215/maxtract/internal/model"
)

// ErrInvalidScopePolicy is returned by ParseScopePolicy for unknown names.
var ErrInvalidScopePolicy = errors.New("invalid scope policy")

// ErrInvalidFailurePolicy is returned by ParseFailurePolicy for unknown names.
var ErrInvalidFailurePolicy = errors.New("invalid failure policy")

// FetchError reports that one page could not be retrieved or parsed.
type FetchError struct {
	// Address is the page that failed.
	Address model.Address

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to fetch %s (status %d): %v", e.Address, e.Status, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.Address, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

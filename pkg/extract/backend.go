// Package extract provides store extraction backends that turn a store's
// search or product page into raw price observations, abstracted behind
// interfaces for testability.
package extract

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// Extraction failures. Callers classify with errors.Is.
var (
	// ErrTimeout is returned when the extraction did not finish before its deadline.
	ErrTimeout = errors.New("extraction timeout")
	// ErrNotFound is returned when the product page no longer exists.
	ErrNotFound = errors.New("product not found")
	// ErrBlocked is returned when the store refused the request (bot wall, captcha, quota).
	ErrBlocked = errors.New("extraction blocked")
)

// ParseError reports content that could not be read. An element-level error
// skips one record; a page-level error fails the whole extraction.
type ParseError struct {
	Store string
	Index int // element index within the page, -1 for page-level
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("parsing %s page: %v", e.Store, e.Err)
	}
	return fmt.Sprintf("parsing %s element %d (%s): %v", e.Store, e.Index, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PageLevel reports whether the error invalidated the whole page.
func (e *ParseError) PageLevel() bool { return e.Index < 0 }

// Target describes what to extract. URL refreshes a single known product;
// otherwise Query (and optionally Category) runs a store search.
type Target struct {
	Query    string
	Category string
	URL      string
}

// Result is the outcome of a single extraction.
type Result struct {
	Observations []domain.RawObservation
	Skipped      []*ParseError
}

// Extractor retrieves raw observations from one store. Implementations must
// honor ctx cancellation and be safe to retry.
type Extractor interface {
	Extract(ctx context.Context, target Target, maxResults int) (*Result, error)
	Store() string
}

// Prober is implemented by extractors that can cheaply check whether the
// store is reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// Retryable reports whether a failed extraction may succeed if attempted
// again within the same job.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var pe *ParseError
	switch {
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrBlocked), errors.Is(err, ErrNotFound):
		return false
	case errors.As(err, &pe):
		return false
	default:
		// ErrTimeout and unknown errors.
		return true
	}
}

// StoreFailure reports whether err counts against the store's health.
// ErrNotFound is a product problem and cancellation is neither.
func StoreFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNotFound) {
		return false
	}
	return true
}

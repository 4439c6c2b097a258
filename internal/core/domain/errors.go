package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSite marks a record that misses required fields. Such records are
	// dropped individually; they never fail a whole batch.
	ErrMalformedSite = errors.New("malformed site")

	// ErrUnknownFacet is returned for facet names outside the fixed set.
	ErrUnknownFacet = errors.New("unknown facet")

	// ErrFacetDisabled is returned when a page profile does not offer the facet.
	ErrFacetDisabled = errors.New("facet not enabled for this page")

	// ErrStaleResponse marks a fetch completion superseded by a newer request.
	ErrStaleResponse = errors.New("stale response")

	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")
)

// FetchError wraps a failure to retrieve data from an external source.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err came from a data-fetch boundary.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")
)

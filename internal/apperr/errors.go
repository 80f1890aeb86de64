// Package apperr defines sentinel errors shared by the service and API layers.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrBadInput        = errors.New("bad input")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Package pkg holds small utilities shared by every layer: domain errors
// and the JSON response envelope.
package pkg

import "errors"

// Domain errors. Services return them wrapped with a short reason
// (fmt.Errorf("%w: name is required", pkg.ErrBadRequest)) and the HTTP layer
// maps them to status codes.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyExists    = errors.New("already exists")
	ErrBadRequest       = errors.New("bad request")
	ErrTooManyRequests  = errors.New("too many requests")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrUnavailable      = errors.New("service unavailable")
	ErrInternal         = errors.New("internal error")
)

// Package provider implements the external artwork provider clients and the
// error classification the resolver builds its caching decisions on.
//
// Classification rules:
//   - a response with status 500-599 is a server-side failure: it is never
//     cached as a negative result and it feeds the outage notifier
//   - 404 or an empty result set is a definitive not-found: cacheable
//   - a malformed response is treated as not-found for caching purposes but
//     carries DecodeError so it can be logged distinctly
//   - a transport error (no response at all) is non-cacheable like a
//     server-side failure, but does not feed the notifier
package provider

import (
	"fmt"

	"github.com/fennecbyte/covercache/internal/errors"
)

// ErrNoArtwork is returned when a provider definitively has no artwork for
// the requested entity.
var ErrNoArtwork = errors.NewStd("no artwork found")

// StatusError reports a non-success HTTP status from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Provider, e.StatusCode)
}

// ServerSide reports whether the status is in the 5xx range.
func (e *StatusError) ServerSide() bool {
	return e.StatusCode >= 500 && e.StatusCode <= 599
}

// DecodeError reports an unexpected response shape from a provider.
type DecodeError struct {
	Provider string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s response malformed: %v", e.Provider, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a definitive negative result (the
// provider answered and has no artwork). Decode errors count as not-found
// for caching purposes, conservatively avoiding repeat hits on a
// persistently malformed endpoint.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNoArtwork) {
		return true
	}
	var de *DecodeError
	return errors.As(err, &de)
}

// IsDecode reports whether err is a malformed-response error, so callers can
// log it distinctly from a plain not-found.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsServerSide reports whether err is a provider-side (5xx) failure that
// should surface through the outage notifier.
func IsServerSide(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.ServerSide()
}

// StatusCode extracts the provider HTTP status from err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}

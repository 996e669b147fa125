package usecase

import crerr "github.com/cockroachdb/errors"

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrUnauthorized          = crerr.New("unauthorized")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")

	// ErrTransientFetch marks timeouts, non-2xx responses and unparsable
	// bodies. Providers log it and return an empty result.
	ErrTransientFetch = crerr.New("transient fetch failure")
	// ErrMalformedRecord marks one upstream record that failed validation;
	// only that record is skipped.
	ErrMalformedRecord = crerr.New("malformed provider record")
	// ErrDelivery marks a failed per-recipient send.
	ErrDelivery = crerr.New("delivery failed")
)

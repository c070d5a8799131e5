package utils

import (
	"context"
	"errors"
)

var (
	// ErrTimeout is returned when a protocol branch exceeds its budget.
	ErrTimeout = errors.New("lookup timed out")
	// ErrNotFound is returned when the registry holds no such object.
	ErrNotFound = errors.New("resource not found")
	// ErrTransport wraps network and protocol failures.
	ErrTransport = errors.New("transport error")
	// ErrUnsupportedRegistry is returned when no RDAP server and only the IANA root WHOIS answer.
	ErrUnsupportedRegistry = errors.New("no WHOIS/RDAP server available for this TLD")
	// ErrQueryRequired is returned for an empty query.
	ErrQueryRequired = errors.New("query is required")
)

// ErrorKind classifies err for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnsupportedRegistry):
		return "unsupported"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}

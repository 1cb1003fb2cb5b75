package scrape

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind categorises transport-level fetch failures. Markup-shape
// problems never surface here; those parse to empty statements.
type ErrorKind string

const (
	// ErrKindNetwork covers DNS failures, refused connections and the like.
	ErrKindNetwork ErrorKind = "network"
	// ErrKindTimeout means the request exceeded its deadline.
	ErrKindTimeout ErrorKind = "timeout"
	// ErrKindNotFound means the company page does not exist on the site.
	ErrKindNotFound ErrorKind = "not_found"
	// ErrKindBlocked means the site rejected the request (403/429).
	ErrKindBlocked ErrorKind = "blocked"
	// ErrKindStatus covers any other non-2xx response.
	ErrKindStatus ErrorKind = "status"
)

// FetchError is a transport-level failure of a company page fetch.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	URL        string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

// Unwrap supports errors.Is and errors.As.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// classifyTransportError wraps a client-side request error.
func classifyTransportError(url string, err error) *FetchError {
	kind := ErrKindNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = ErrKindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = ErrKindTimeout
	}
	return &FetchError{Kind: kind, URL: url, Cause: err}
}

// classifyStatus maps a non-2xx response to an error kind.
func classifyStatus(url string, status int) *FetchError {
	kind := ErrKindStatus
	switch {
	case status == 404:
		kind = ErrKindNotFound
	case status == 403 || status == 429:
		kind = ErrKindBlocked
	}
	return &FetchError{Kind: kind, StatusCode: status, URL: url}
}

// IsNotFound reports whether err means the company has no page on the site.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == ErrKindNotFound
}

// IsBlocked reports whether err means the site refused to serve us.
func IsBlocked(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == ErrKindBlocked
}

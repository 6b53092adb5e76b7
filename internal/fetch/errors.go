package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotScript is returned when a bundle body is not plain script text.
	ErrNotScript = errors.New("response body is not script text")
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid fetch URL")
)

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether the status points at a remote-side failure.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// countsAgainstHost decides whether an error should feed the host's breaker.
// A 404 for a probed extension says nothing about the health of the host.
func countsAgainstHost(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return !errors.Is(err, ErrNotScript)
}

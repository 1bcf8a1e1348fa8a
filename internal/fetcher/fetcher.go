// Package fetcher defines the outbound page fetch contract shared by the
// robots cache and the listing tools.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
)

// Fetcher retrieves a single URL. Implementations never retry.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Page is a successfully fetched (2xx) document.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// ErrorKind separates upstream HTTP failures from transport failures.
type ErrorKind string

// Fetch failure kinds.
const (
	KindStatus  ErrorKind = "status"
	KindNetwork ErrorKind = "network"
)

// Error is returned for any non-2xx response or network failure.
type Error struct {
	URL        string
	StatusCode int
	Kind       ErrorKind
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

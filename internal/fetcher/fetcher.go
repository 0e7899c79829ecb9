// Package fetcher executes single-shot HTTP requests against the NSI service
// and streams archive downloads to disk.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
)

// Fetcher defines the interface for executing remote requests.
type Fetcher interface {
	// Do executes req and returns the fully read response. Any non-2xx status
	// is returned as a *StatusError.
	Do(ctx context.Context, req *http.Request) (*Response, error)

	// DownloadToFile streams the URL to path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Response is a completed, fully read HTTP response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string // first bytes of the body, for diagnostics
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("http %d from %s: %s", e.StatusCode, e.URL, e.Body)
	}
	return fmt.Sprintf("http %d from %s", e.StatusCode, e.URL)
}

package fetcher

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ChunkSize is the buffer size used when streaming downloads to disk.
const ChunkSize = 8192

// maxErrorBody caps how much of a failed response body is kept on a StatusError.
const maxErrorBody = 512

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration // 0 means no client timeout
	Client    *http.Client  // overrides Timeout when set
}

// HTTPFetcher implements Fetcher using net/http. Requests are sent as soon as
// they are made and are never retried.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = "nsi-cli/1.0"
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &HTTPFetcher{client: client, opts: opts}
}

// send executes req and returns the response when the status is 2xx. On any
// other status the body is drained into a StatusError and closed.
func (f *HTTPFetcher) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: %s %s", req.Method, req.URL.Redacted())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close() //nolint:errcheck
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		zap.L().Debug("fetcher: non-2xx response",
			zap.String("url", req.URL.Redacted()),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        req.URL.Redacted(),
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	return resp, nil
}

// Do executes req and reads the whole body.
func (f *HTTPFetcher) Do(ctx context.Context, req *http.Request) (*Response, error) {
	resp, err := f.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read body")
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// DownloadToFile streams rawURL to path in ChunkSize chunks. The body is
// written to a temporary file next to path and renamed into place only after
// the last chunk is flushed, so a failed download never leaves a file at path.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	log := zap.L().With(
		zap.String("component", "fetcher.download"),
		zap.String("url", rawURL),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create request")
	}

	resp, err := f.send(ctx, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create temp file")
	}
	tmpPath := tmp.Name()

	// CreateTemp uses 0600; archives are ordinary data files.
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return 0, eris.Wrap(err, "fetcher: set file mode")
	}

	n, copyErr := copyChunks(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = eris.Wrap(closeErr, "fetcher: close temp file")
	}
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		log.Warn("download failed, partial file removed", zap.Int64("bytes", n), zap.Error(copyErr))
		return n, copyErr
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return n, eris.Wrapf(err, "fetcher: move download to %s", path)
	}

	log.Debug("download complete", zap.String("path", path), zap.Int64("bytes", n))
	return n, nil
}

// copyChunks copies src to dst one ChunkSize read at a time.
func copyChunks(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, ChunkSize)
	var written int64
	for {
		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, err := dst.Write(buf[:nr])
			written += int64(nw)
			if err != nil {
				return written, eris.Wrap(err, "fetcher: write chunk")
			}
			if nw != nr {
				return written, eris.Wrap(io.ErrShortWrite, "fetcher: write chunk")
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, eris.Wrap(readErr, "fetcher: read chunk")
		}
	}
}

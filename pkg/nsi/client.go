// Package nsi is a client for the USACE National Structure Inventory API.
// Area, polygon and bounding-box queries return geospatial tables; whole
// states are downloaded as GeoPackage archives.
package nsi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/nsi-cli/internal/fetcher"
	"github.com/sells-group/nsi-cli/pkg/geoframe"
)

// Result holds the outcome of a bounding-box query. Exactly one field is set.
type Result struct {
	Features *geoframe.GeoTable
	Stats    *geoframe.Table
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpOpts.Client = hc
	}
}

// WithBaseURL overrides the structures API base.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.endpoints.API = u
	}
}

// WithDownloadsURL overrides the archive download base.
func WithDownloadsURL(u string) Option {
	return func(c *Client) {
		c.endpoints.Downloads = u
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.httpOpts.UserAgent = ua
	}
}

// WithTimeout sets the per-request timeout. Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpOpts.Timeout = d
	}
}

// WithLogger sets the logger. Defaults to the global zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithFetcher replaces the HTTP layer entirely.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Client) {
		c.fetcher = f
	}
}

// Client executes NSI queries. It holds no mutable state after construction
// and is safe for concurrent use.
type Client struct {
	endpoints Endpoints
	httpOpts  fetcher.HTTPOptions
	fetcher   fetcher.Fetcher
	log       *zap.Logger
}

// NewClient creates a Client against the public NSI endpoints.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoints: DefaultEndpoints(),
		httpOpts:  fetcher.HTTPOptions{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = fetcher.NewHTTPFetcher(c.httpOpts)
	}
	if c.log == nil {
		c.log = zap.L()
	}
	c.log = c.log.With(zap.String("component", "nsi"))
	return c
}

// Endpoints returns the hosts the client talks to.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// FetchByAreaID returns the structures inside a Census area. geoid may be a
// string or an integer; see NormalizeGEOID.
func (c *Client) FetchByAreaID(ctx context.Context, geoid any) (*geoframe.GeoTable, error) {
	req, err := c.endpoints.AreaRequest(geoid)
	if err != nil {
		return nil, err
	}
	if req.Advisory != "" {
		c.log.Info(req.Advisory, zap.Any("geoid", geoid))
	}
	return c.fetchFeatures(ctx, "fetch by area", req)
}

// FetchByPolygon returns the structures inside the union of the layer's
// polygons.
func (c *Client) FetchByPolygon(ctx context.Context, layer *geoframe.GeoTable) (*geoframe.GeoTable, error) {
	req, err := c.endpoints.PolygonRequest(layer)
	if err != nil {
		return nil, err
	}
	return c.fetchFeatures(ctx, "fetch by polygon", req)
}

// FetchByBoundingBox returns the structures inside b, or their summary
// statistics when statsOnly is set.
func (c *Client) FetchByBoundingBox(ctx context.Context, b BBox, statsOnly bool) (*Result, error) {
	req := c.endpoints.BBoxRequest(b, statsOnly)
	if !statsOnly {
		features, err := c.fetchFeatures(ctx, "fetch by bounding box", req)
		if err != nil {
			return nil, err
		}
		return &Result{Features: features}, nil
	}

	resp, err := c.execute(ctx, "fetch stats", req)
	if err != nil {
		return nil, err
	}
	stats, err := ParseStats(resp.ContentType, resp.Body)
	if err != nil {
		return nil, withURL(err, req.URL)
	}
	c.log.Debug("stats fetched", zap.Int("rows", stats.Len()), zap.Strings("columns", stats.Columns))
	return &Result{Stats: stats}, nil
}

// FetchStats is FetchByBoundingBox with statsOnly set.
func (c *Client) FetchStats(ctx context.Context, b BBox) (*geoframe.Table, error) {
	res, err := c.FetchByBoundingBox(ctx, b, true)
	if err != nil {
		return nil, err
	}
	return res.Stats, nil
}

func (c *Client) fetchFeatures(ctx context.Context, op string, req *Request) (*geoframe.GeoTable, error) {
	resp, err := c.execute(ctx, op, req)
	if err != nil {
		return nil, err
	}
	table, err := ParseFeatures(resp.ContentType, resp.Body)
	if err != nil {
		return nil, withURL(err, req.URL)
	}
	c.log.Debug("structures fetched", zap.String("op", op), zap.Int("rows", table.Len()))
	return table, nil
}

func (c *Client) execute(ctx context.Context, op string, req *Request) (*fetcher.Response, error) {
	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, &Error{Kind: KindInvalidArgument, Op: op, URL: req.URL, Err: err}
	}

	c.log.Debug("sending request", zap.String("method", req.Method), zap.String("url", req.URL))

	resp, err := c.fetcher.Do(ctx, httpReq)
	if err != nil {
		return nil, transportError(op, req.URL, err)
	}
	return resp, nil
}

// transportError classifies a fetcher failure. Non-2xx statuses keep their
// code; network and context failures have StatusCode 0.
func transportError(op, url string, err error) *Error {
	e := &Error{Kind: KindTransport, Op: op, URL: url, Err: err}
	var se *fetcher.StatusError
	if errors.As(err, &se) {
		e.StatusCode = se.StatusCode
	}
	return e
}

func withURL(err error, url string) error {
	var e *Error
	if errors.As(err, &e) && e.URL == "" {
		e.URL = url
	}
	return err
}

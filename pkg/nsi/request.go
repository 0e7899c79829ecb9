package nsi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"

	"github.com/sells-group/nsi-cli/pkg/geoframe"
)

const (
	// DefaultBaseURL is the NSI structures API.
	DefaultBaseURL = "https://nsi.sec.usace.army.mil/nsiapi/"
	// DefaultDownloadsURL hosts the statewide archives.
	DefaultDownloadsURL = "https://nsi.sec.usace.army.mil/downloads/"

	// Dataset is the published inventory vintage served by the downloads host.
	Dataset = "nsi_2022"
	// ArchiveSuffix is appended to every state archive path.
	ArchiveSuffix = ".gpkg.zip"
)

// Request is a fully built NSI request.
type Request struct {
	Method      string
	URL         string
	Body        []byte
	ContentType string

	// Stream marks archive downloads whose body goes straight to SavePath.
	Stream   bool
	SavePath string

	// Advisory is an informational note about the request. It never
	// affects whether the request is sent.
	Advisory string
}

// HTTPRequest converts r to an *http.Request bound to ctx.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, eris.Wrap(err, "nsi: build http request")
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	return req, nil
}

// Endpoints holds the two NSI hosts.
type Endpoints struct {
	API       string
	Downloads string
}

// DefaultEndpoints returns the public NSI endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{API: DefaultBaseURL, Downloads: DefaultDownloadsURL}
}

// apiURL joins path and an already-encoded query onto the API base. Query
// values are digits, signs, dots and commas only, so they are sent verbatim.
func (e Endpoints) apiURL(path, rawQuery string) string {
	return strings.TrimRight(e.API, "/") + "/" + path + "?" + rawQuery
}

// AreaRequest builds GET /structures?fips=<geoid>.
func (e Endpoints) AreaRequest(geoid any) (*Request, error) {
	g, err := NormalizeGEOID(geoid)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method: http.MethodGet,
		URL:    e.apiURL("structures", "fips="+string(g)),
	}
	if g.Level() == LevelState {
		req.Advisory = "a state-level GEOID was requested; DownloadStateArchive fetches the statewide dataset as a single archive"
	}
	return req, nil
}

// PolygonRequest builds POST /structures?fmt=fc with the dissolved layer as a
// GeoJSON FeatureCollection body. The layer is not validated beyond what
// encoding requires.
func (e Endpoints) PolygonRequest(layer *geoframe.GeoTable) (*Request, error) {
	body, err := geoframe.Dissolve(layer).MarshalJSON()
	if err != nil {
		return nil, &Error{
			Kind: KindInvalidArgument,
			Op:   "build polygon request",
			Msg:  "polygon layer cannot be encoded as GeoJSON",
			Err:  eris.Wrap(err, "encode dissolved layer"),
		}
	}

	return &Request{
		Method:      http.MethodPost,
		URL:         e.apiURL("structures", "fmt=fc"),
		Body:        body,
		ContentType: "application/json",
	}, nil
}

// BBoxRequest builds GET /stats?bbox=<ring>&fmt=fc when statsOnly is set and
// GET /structures?bbox=<ring>&fmt=fc otherwise.
func (e Endpoints) BBoxRequest(b BBox, statsOnly bool) *Request {
	path := "structures"
	if statsOnly {
		path = "stats"
	}
	return &Request{
		Method: http.MethodGet,
		URL:    e.apiURL(path, "bbox="+b.Ring()+"&fmt=fc"),
	}
}

// StateDownloadRequest builds the streamed archive request for state and
// resolves where it will be saved.
func (e Endpoints) StateDownloadRequest(state, savePath string) (*Request, error) {
	st, err := NormalizeState(state)
	if err != nil {
		return nil, err
	}

	dest, err := ResolveSavePath(st, savePath)
	if err != nil {
		return nil, err
	}

	return &Request{
		Method:   http.MethodGet,
		URL:      fmt.Sprintf("%s/%s/%s", strings.TrimRight(e.Downloads, "/"), Dataset, ArchiveName(st)),
		Stream:   true,
		SavePath: dest,
	}, nil
}

// ArchiveName returns the file name of a state's archive, e.g.
// "nsi_2022_06.gpkg.zip". state must already be normalized.
func ArchiveName(state string) string {
	return Dataset + "_" + state + ArchiveSuffix
}

// ResolveSavePath picks the destination of a state archive. An empty
// savePath means <cwd>/nsi_2022_<state>.gpkg.zip. A path naming an existing
// directory is rejected; otherwise ArchiveSuffix is appended when missing.
func ResolveSavePath(state, savePath string) (string, error) {
	const op = "resolve save path"

	if savePath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", &Error{Kind: KindInvalidArgument, Op: op, Msg: "no save path and working directory unavailable", Err: err}
		}
		savePath = filepath.Join(cwd, ArchiveName(state))
	}

	if err := rejectDirectory(op, savePath); err != nil {
		return "", err
	}

	if !strings.HasSuffix(savePath, ArchiveSuffix) {
		savePath += ArchiveSuffix
		if err := rejectDirectory(op, savePath); err != nil {
			return "", err
		}
	}

	return savePath, nil
}

func rejectDirectory(op, path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil
	}
	return &Error{
		Kind: KindIsADirectory,
		Op:   op,
		Msg:  "save path must name a file, not a directory",
		Err:  &fs.PathError{Op: "save", Path: path, Err: syscall.EISDIR},
	}
}

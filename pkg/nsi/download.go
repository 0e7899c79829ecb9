package nsi

import (
	"context"

	"go.uber.org/zap"
)

// DownloadStateArchive saves the statewide GeoPackage archive for state and
// returns the final path. An empty savePath means the working directory. A
// failed download leaves nothing at the destination.
func (c *Client) DownloadStateArchive(ctx context.Context, state, savePath string) (string, error) {
	const op = "download state archive"

	req, err := c.endpoints.StateDownloadRequest(state, savePath)
	if err != nil {
		return "", err
	}

	log := c.log.With(zap.String("url", req.URL), zap.String("path", req.SavePath))
	log.Info("downloading state archive")

	n, err := c.fetcher.DownloadToFile(ctx, req.URL, req.SavePath)
	if err != nil {
		return "", transportError(op, req.URL, err)
	}

	log.Info("state archive saved", zap.Int64("bytes", n))
	return req.SavePath, nil
}

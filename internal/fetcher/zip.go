package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractZIPByExt extracts every file in the archive whose name ends in ext
// (case-insensitive) into destDir and returns their paths. It is an error if
// no entry matches.
func ExtractZIPByExt(zipPath, ext, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "zip: create destination")
	}

	ext = strings.ToLower(ext)
	var extracted []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ext) {
			continue
		}
		path, err := extractZIPEntry(f, destDir)
		if err != nil {
			return extracted, err
		}
		extracted = append(extracted, path)
	}

	if len(extracted) == 0 {
		return nil, eris.Errorf("zip: no %s entry in %s", ext, zipPath)
	}
	return extracted, nil
}

// extractZIPEntry extracts a single zip.File to the destination directory.
func extractZIPEntry(f *zip.File, destDir string) (string, error) {
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("zip: illegal path %q (zip slip attempt)", f.Name)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: create file")
	}

	if _, err := copyChunks(out, rc); err != nil {
		_ = out.Close()
		_ = os.Remove(destPath)
		return "", eris.Wrapf(err, "zip: extract %s", f.Name)
	}
	if err := out.Close(); err != nil {
		return "", eris.Wrapf(err, "zip: close %s", destPath)
	}

	return destPath, nil
}

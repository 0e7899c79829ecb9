package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/nsi-cli/pkg/geoframe"
)

// writeFeatures writes t to out, picking the format from the extension. An
// empty out writes GeoJSON to w.
func writeFeatures(w io.Writer, out string, t *geoframe.GeoTable) error {
	switch ext := strings.ToLower(filepath.Ext(out)); {
	case out == "":
		return geoframe.WriteGeoJSON(w, t)
	case ext == ".geojson" || ext == ".json":
		return toFile(out, func(f io.Writer) error { return geoframe.WriteGeoJSON(f, t) })
	case ext == ".csv":
		return toFile(out, func(f io.Writer) error { return geoframe.WriteGeoCSV(f, t) })
	default:
		return eris.Errorf("output: unsupported feature format %q (use .geojson, .json or .csv)", ext)
	}
}

// writeStats writes t to out, picking the format from the extension. An
// empty out writes YAML to w.
func writeStats(w io.Writer, out string, t *geoframe.Table) error {
	switch ext := strings.ToLower(filepath.Ext(out)); {
	case out == "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records(t)); err != nil {
			return eris.Wrap(err, "output: encode yaml")
		}
		return eris.Wrap(enc.Close(), "output: flush yaml")
	case ext == ".json":
		return toFile(out, func(f io.Writer) error {
			data, err := json.MarshalIndent(records(t), "", "  ")
			if err != nil {
				return eris.Wrap(err, "output: encode json")
			}
			_, err = f.Write(append(data, '\n'))
			return err
		})
	case ext == ".csv":
		return toFile(out, func(f io.Writer) error { return geoframe.WriteCSV(f, t) })
	case ext == ".xlsx":
		return geoframe.WriteXLSX(out, "stats", t)
	default:
		return eris.Errorf("output: unsupported stats format %q (use .json, .csv or .xlsx)", ext)
	}
}

// records turns a table into one map per row, dropping nil cells.
func records(t *geoframe.Table) []map[string]any {
	out := make([]map[string]any, 0, t.Len())
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(row) && row[i] != nil {
				rec[c] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

func toFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "output: create %s", path)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "output: close %s", path)
}

var printer = message.NewPrinter(language.English)

// printFeatureSummary reports the row count and extent of t.
func printFeatureSummary(w io.Writer, label string, t *geoframe.GeoTable) {
	b := t.Bounds()
	if t.Len() == 0 || b.IsEmpty() {
		printer.Fprintf(w, "%s: %d structures\n", label, t.Len())
		return
	}
	printer.Fprintf(w, "%s: %d structures within [%.5f, %.5f, %.5f, %.5f]\n",
		label, t.Len(), b.Min(0), b.Min(1), b.Max(0), b.Max(1))
}

// printBytes reports a saved file and its size.
func printBytes(w io.Writer, path string, size int64) {
	printer.Fprintf(w, "%s (%d bytes)\n", path, size)
}

package main

import (
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/nsi-cli/internal/shapefile"
	"github.com/sells-group/nsi-cli/pkg/geoframe"
)

var polygonCmd = &cobra.Command{
	Use:   "polygon <layer>",
	Short: "Fetch structures inside a polygon layer",
	Long: `Reads a polygon layer from an ESRI shapefile (.shp) or a GeoJSON file
(.geojson, .json), dissolves it into one geometry and fetches every structure
inside it. Coordinates must be WGS84 longitude/latitude.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out, _ := cmd.Flags().GetString("output")

		layer, err := loadLayer(args[0])
		if err != nil {
			return err
		}

		table, err := newClient().FetchByPolygon(ctx, layer)
		if err != nil {
			return err
		}

		if err := writeFeatures(cmd.OutOrStdout(), out, table); err != nil {
			return err
		}
		printFeatureSummary(cmd.ErrOrStderr(), filepath.Base(args[0]), table)
		return nil
	},
}

// loadLayer reads a polygon layer, choosing the reader by extension.
func loadLayer(path string) (*geoframe.GeoTable, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".shp":
		return shapefile.ReadLayer(path)
	case ".geojson", ".json":
		return geoframe.ReadGeoJSON(path)
	default:
		return nil, eris.Errorf("polygon: unsupported layer format %q (use .shp, .geojson or .json)", ext)
	}
}

func init() {
	polygonCmd.Flags().StringP("output", "o", "", "output file (.geojson, .json, .csv); default GeoJSON on stdout")
	rootCmd.AddCommand(polygonCmd)
}

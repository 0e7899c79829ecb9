package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/nsi-cli/pkg/nsi"
)

var bboxCmd = &cobra.Command{
	Use:   "bbox",
	Short: "Fetch structures or statistics inside a bounding box",
	Long: `Fetches every structure inside the box given by --west, --east, --south and
--north (WGS84 degrees). With --stats only the summary statistics are fetched.
Coordinates are sent as given, without range checks.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		west, _ := cmd.Flags().GetFloat64("west")
		east, _ := cmd.Flags().GetFloat64("east")
		south, _ := cmd.Flags().GetFloat64("south")
		north, _ := cmd.Flags().GetFloat64("north")
		statsOnly, _ := cmd.Flags().GetBool("stats")
		out, _ := cmd.Flags().GetString("output")

		box := nsi.NewBBox(west, east, south, north)
		res, err := newClient().FetchByBoundingBox(ctx, box, statsOnly)
		if err != nil {
			return err
		}

		if statsOnly {
			if err := writeStats(cmd.OutOrStdout(), out, res.Stats); err != nil {
				return err
			}
			printer.Fprintf(cmd.ErrOrStderr(), "bbox %s: %d statistics rows\n", box.Ring(), res.Stats.Len())
			return nil
		}

		if err := writeFeatures(cmd.OutOrStdout(), out, res.Features); err != nil {
			return err
		}
		printFeatureSummary(cmd.ErrOrStderr(), fmt.Sprintf("bbox %s", box.Ring()), res.Features)
		return nil
	},
}

func init() {
	bboxCmd.Flags().Float64("west", 0, "western longitude")
	bboxCmd.Flags().Float64("east", 0, "eastern longitude")
	bboxCmd.Flags().Float64("south", 0, "southern latitude")
	bboxCmd.Flags().Float64("north", 0, "northern latitude")
	for _, name := range []string{"west", "east", "south", "north"} {
		_ = bboxCmd.MarkFlagRequired(name)
	}
	bboxCmd.Flags().Bool("stats", false, "fetch summary statistics instead of structures")
	bboxCmd.Flags().StringP("output", "o", "", "output file (.geojson, .json, .csv; stats also .xlsx); default stdout")
	rootCmd.AddCommand(bboxCmd)
}

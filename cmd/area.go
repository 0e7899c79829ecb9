package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var areaCmd = &cobra.Command{
	Use:   "area <geoid>",
	Short: "Fetch structures inside a Census area",
	Long: `Fetches every structure inside a state, county, tract, block group or block
identified by its GEOID (2, 5, 11, 12 or 15 digits). A single digit is padded
to a state code. Statewide queries are large; "nsi state" downloads the same
data as one archive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out, _ := cmd.Flags().GetString("output")

		table, err := newClient().FetchByAreaID(ctx, args[0])
		if err != nil {
			return err
		}

		if err := writeFeatures(cmd.OutOrStdout(), out, table); err != nil {
			return err
		}
		printFeatureSummary(cmd.ErrOrStderr(), "area "+args[0], table)
		return nil
	},
}

func init() {
	areaCmd.Flags().StringP("output", "o", "", "output file (.geojson, .json, .csv); default GeoJSON on stdout")
	rootCmd.AddCommand(areaCmd)
}

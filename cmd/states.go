package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/nsi-cli/pkg/nsi"
)

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "List state codes with a downloadable archive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, st := range nsi.ValidStates() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", st, nsi.ArchiveName(st))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statesCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/nsi-cli/internal/config"
	"github.com/sells-group/nsi-cli/pkg/nsi"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "nsi",
	Short: "Query the National Structure Inventory",
	Long: `Fetches structure points from the USACE National Structure Inventory by Census
area, polygon or bounding box, fetches bounding-box statistics, and downloads
statewide GeoPackage archives.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newClient builds an NSI client from the loaded configuration.
func newClient() *nsi.Client {
	return nsi.NewClient(
		nsi.WithBaseURL(cfg.NSI.BaseURL),
		nsi.WithDownloadsURL(cfg.NSI.DownloadsURL),
		nsi.WithUserAgent(cfg.HTTP.UserAgent),
		nsi.WithTimeout(cfg.HTTP.Timeout()),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

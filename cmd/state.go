package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/nsi-cli/internal/fetcher"
	"github.com/sells-group/nsi-cli/pkg/nsi"
)

var stateCmd = &cobra.Command{
	Use:   "state <code>...",
	Short: "Download statewide GeoPackage archives",
	Long: `Downloads the statewide NSI archive (nsi_2022_<code>.gpkg.zip) for each state
FIPS code. Several states are downloaded concurrently. Use --extract to unpack
the .gpkg next to each archive. Run "nsi states" for the valid codes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out, _ := cmd.Flags().GetString("output")
		dir, _ := cmd.Flags().GetString("dir")
		extract, _ := cmd.Flags().GetBool("extract")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		if out != "" && len(args) > 1 {
			return eris.New("state: --output can only be used with a single state")
		}
		if dir == "" {
			dir = cfg.Download.Dir
		}
		if concurrency <= 0 {
			concurrency = cfg.Download.Concurrency
		}

		jobs, err := planDownloads(args, out, dir)
		if err != nil {
			return err
		}

		results, err := downloadStates(ctx, newClient(), jobs, concurrency, extract)
		if err != nil {
			return err
		}

		for _, r := range results {
			printBytes(cmd.OutOrStdout(), r.Archive, r.Size)
			if r.GeoPackage != "" {
				printBytes(cmd.OutOrStdout(), r.GeoPackage, r.GeoPackageSize)
			}
		}
		return nil
	},
}

type stateJob struct {
	State    string
	SavePath string // empty means the working directory
}

type stateResult struct {
	State          string
	Archive        string
	Size           int64
	GeoPackage     string
	GeoPackageSize int64
}

// planDownloads validates every state up front so that a typo fails before
// any download starts.
func planDownloads(states []string, out, dir string) ([]stateJob, error) {
	jobs := make([]stateJob, 0, len(states))
	for _, s := range states {
		st, err := nsi.NormalizeState(s)
		if err != nil {
			return nil, err
		}
		job := stateJob{State: st, SavePath: out}
		if out == "" && dir != "" {
			job.SavePath = filepath.Join(dir, nsi.ArchiveName(st))
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// downloadStates runs the jobs with at most concurrency in flight. The first
// failure cancels the rest.
func downloadStates(ctx context.Context, client *nsi.Client, jobs []stateJob, concurrency int, extract bool) ([]stateResult, error) {
	log := zap.L().With(zap.String("command", "state"))
	results := make([]stateResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			path, err := client.DownloadStateArchive(gctx, job.State, job.SavePath)
			if err != nil {
				return err
			}
			res := stateResult{State: job.State, Archive: path}
			if info, err := os.Stat(path); err == nil {
				res.Size = info.Size()
			}

			if extract {
				files, err := fetcher.ExtractZIPByExt(path, ".gpkg", filepath.Dir(path))
				if err != nil {
					return eris.Wrapf(err, "state %s: extract", job.State)
				}
				res.GeoPackage = files[0]
				if info, err := os.Stat(files[0]); err == nil {
					res.GeoPackageSize = info.Size()
				}
			}

			log.Info("state archive ready", zap.String("state", job.State), zap.String("path", path))
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func init() {
	stateCmd.Flags().StringP("output", "o", "", "archive path for a single state; .gpkg.zip is appended if missing")
	stateCmd.Flags().String("dir", "", "directory for archives (default: download.dir or the working directory)")
	stateCmd.Flags().Bool("extract", false, "extract the .gpkg from each archive")
	stateCmd.Flags().Int("concurrency", 0, "parallel downloads (default: download.concurrency)")
	rootCmd.AddCommand(stateCmd)
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikogura/profile-highlights/pkg/config"
	"github.com/nikogura/profile-highlights/pkg/document"
	"github.com/nikogura/profile-highlights/pkg/scheduler"
	"github.com/nikogura/profile-highlights/pkg/source"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scheduleInterval time.Duration

//nolint:gochecknoglobals // Cobra boilerplate
var scheduleWatch bool

//nolint:gochecknoglobals // Cobra boilerplate
var scheduleSnapshot string

//nolint:gochecknoglobals // Cobra boilerplate
var scheduleReadme string

//nolint:gochecknoglobals // Cobra boilerplate
var scheduleMarker string

//nolint:gochecknoglobals // Cobra boilerplate
var scheduleNoInitial bool

// runTimeout bounds a single scheduled update.
const runTimeout = 2 * time.Minute

//nolint:gochecknoglobals // Cobra boilerplate
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Keep the README updated on a recurring schedule",
	Long: `Run update on a fixed interval until interrupted. At most one update is in
flight at a time; triggers that arrive during a run are skipped. With --watch,
changes to a local snapshot file also trigger an update.

Example:
  profile-highlights schedule
  profile-highlights schedule --interval 6h
  profile-highlights schedule --snapshot ./snapshot.json --watch`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().DurationVar(&scheduleInterval, "interval", 0, "Update interval (default from config, 24h)")
	scheduleCmd.Flags().BoolVar(&scheduleWatch, "watch", false, "Also update when the local snapshot file changes")
	scheduleCmd.Flags().StringVar(&scheduleSnapshot, "snapshot", "", "Snapshot file or URL (default from config)")
	scheduleCmd.Flags().StringVar(&scheduleReadme, "readme", "", "README to update (default from config)")
	scheduleCmd.Flags().StringVar(&scheduleMarker, "marker", "", "Region marker name (default HIGHLIGHTS)")
	scheduleCmd.Flags().BoolVar(&scheduleNoInitial, "no-initial", false, "Wait for the first interval instead of updating at startup")
}

func runSchedule(cmd *cobra.Command, args []string) (err error) {
	var cfg config.Config
	cfg, err = loadSettings(overrides{
		readme:   scheduleReadme,
		marker:   scheduleMarker,
		snapshot: scheduleSnapshot,
	}, true)
	if err != nil {
		return err
	}

	if cfg.SnapshotLocation == "" {
		err = errors.New("schedule requires a snapshot location (set snapshot_location, HIGHLIGHTS_SNAPSHOT or --snapshot)")
		return err
	}

	// Fail fast on a README the updater could never write.
	_, err = document.Check(cfg.ReadmePath, cfg.GetMarker())
	if err != nil {
		return err
	}

	interval := scheduleInterval
	if interval == 0 {
		interval, err = cfg.GetInterval()
		if err != nil {
			return err
		}
	}

	opts := scheduler.Options{
		Interval:   interval,
		RunOnStart: !scheduleNoInitial,
		Logger:     getLogger(),
	}

	watch := scheduleWatch || cfg.Schedule.Watch
	if watch {
		if !source.IsLocal(cfg.SnapshotLocation) {
			err = errors.Errorf("--watch needs a local snapshot file, got %s", cfg.SnapshotLocation)
			return err
		}
		opts.WatchPath = cfg.SnapshotLocation
	}

	var s *scheduler.Scheduler
	s, err = scheduler.New(updateJob(cfg), opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = s.Run(ctx)
	if err != nil {
		return err
	}

	stats := s.Stats()
	getLogger().Info("Scheduler stopped",
		zap.Int("runs", stats.Runs),
		zap.Int("failures", stats.Failures),
		zap.Int("skipped", stats.Skipped))

	return err
}

// updateJob performs one scheduled whole-region update.
func updateJob(cfg config.Config) (job scheduler.Job) {
	job = func(ctx context.Context) (err error) {
		ctx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()

		var result document.Result
		result, err = applyUpdate(ctx, cfg, false, false)
		if err != nil {
			return err
		}

		getLogger().Info("Highlights region refreshed",
			zap.String("readme", result.Path),
			zap.Bool("written", result.Written))
		return err
	}
	return job
}

package cmd

import (
	"context"

	"github.com/nikogura/profile-highlights/pkg/config"
	"github.com/nikogura/profile-highlights/pkg/document"
	"github.com/nikogura/profile-highlights/pkg/renderer"
	"github.com/nikogura/profile-highlights/pkg/snapshot"
	"github.com/nikogura/profile-highlights/pkg/source"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// overrides are per-command flag values that take precedence over the config file.
type overrides struct {
	readme   string
	marker   string
	snapshot string
	template string
}

// loadSettings merges the config file, environment and flags. A missing
// default config file is tolerated so that flags alone are enough.
func loadSettings(o overrides, requireReadme bool) (cfg config.Config, err error) {
	cfg, err = config.Read(getConfigFile())
	if err != nil {
		if !errors.Is(err, config.ErrNotFound) || getConfigFile() != "" {
			err = errors.Wrap(err, "failed to load config")
			return cfg, err
		}
		getLogger().Debug("No config file, using flags and environment", zap.Error(err))
		cfg = config.Config{}
		cfg.ApplyEnv()
		err = nil
	}

	if o.readme != "" {
		cfg.ReadmePath = o.readme
	}
	if o.marker != "" {
		cfg.Marker = o.marker
	}
	if o.snapshot != "" {
		cfg.SnapshotLocation = o.snapshot
	}
	if o.template != "" {
		cfg.TemplatePath = o.template
	}

	if requireReadme {
		err = cfg.Validate()
	} else {
		err = cfg.ValidateRendering()
	}
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

// resolveSnapshot returns the pending snapshot or fetches the configured one.
func resolveSnapshot(ctx context.Context, cfg config.Config, pending bool) (s snapshot.Snapshot, err error) {
	if pending {
		s = snapshot.Pending()
		return s, err
	}

	if cfg.SnapshotLocation == "" {
		err = errors.New("no snapshot location (set snapshot_location, HIGHLIGHTS_SNAPSHOT, --snapshot, or use --pending)")
		return s, err
	}

	getLogger().Debug("Fetching snapshot", zap.String("location", cfg.SnapshotLocation))

	s, err = source.FetchWithContext(ctx, cfg.SnapshotLocation)
	if err != nil {
		err = errors.Wrap(err, "failed to fetch snapshot")
		return s, err
	}

	return s, err
}

// renderPayload fetches the snapshot and renders the region payload.
func renderPayload(ctx context.Context, cfg config.Config, pending bool) (payload string, err error) {
	var s snapshot.Snapshot
	s, err = resolveSnapshot(ctx, cfg, pending)
	if err != nil {
		return payload, err
	}

	payload, err = renderer.Render(s, cfg.TemplatePath)
	if err != nil {
		err = errors.Wrap(err, "failed to render highlights")
		return payload, err
	}

	return payload, err
}

// applyUpdate renders the snapshot and substitutes it into the README.
func applyUpdate(ctx context.Context, cfg config.Config, pending, dryRun bool) (result document.Result, err error) {
	var payload string
	payload, err = renderPayload(ctx, cfg, pending)
	if err != nil {
		return result, err
	}

	result, err = document.Update(cfg.ReadmePath, cfg.GetMarker(), payload, document.Options{DryRun: dryRun})
	if err != nil {
		return result, err
	}

	getLogger().Debug("Region substituted",
		zap.String("readme", result.Path),
		zap.String("marker", cfg.GetMarker()),
		zap.Bool("changed", result.Changed),
		zap.Bool("written", result.Written),
		zap.Int("start_line", result.Span.StartLine),
		zap.Int("end_line", result.Span.EndLine))

	return result, err
}

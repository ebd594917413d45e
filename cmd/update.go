package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nikogura/profile-highlights/pkg/config"
	"github.com/nikogura/profile-highlights/pkg/document"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var updatePending bool

//nolint:gochecknoglobals // Cobra boilerplate
var updateSnapshot string

//nolint:gochecknoglobals // Cobra boilerplate
var updateReadme string

//nolint:gochecknoglobals // Cobra boilerplate
var updateMarker string

//nolint:gochecknoglobals // Cobra boilerplate
var updateTemplate string

//nolint:gochecknoglobals // Cobra boilerplate
var updateDryRun bool

//nolint:gochecknoglobals // Cobra boilerplate
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace the highlights region of the README",
	Long: `Render a snapshot and substitute it into the README between the marker's
START and END sentinel lines. Text outside the region is preserved byte for byte.

The update is all-or-nothing: a missing or malformed region aborts without
writing, and the README is replaced atomically otherwise.

Example:
  profile-highlights update --snapshot snapshot.json
  profile-highlights update --readme ./README.md --pending
  profile-highlights update --snapshot https://example.com/highlights.json --dry-run`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&updatePending, "pending", false, "Write the pending placeholder instead of a snapshot")
	updateCmd.Flags().StringVar(&updateSnapshot, "snapshot", "", "Snapshot file or URL (default from config)")
	updateCmd.Flags().StringVar(&updateReadme, "readme", "", "README to update (default from config)")
	updateCmd.Flags().StringVar(&updateMarker, "marker", "", "Region marker name (default HIGHLIGHTS)")
	updateCmd.Flags().StringVar(&updateTemplate, "template", "", "Custom payload template (default built-in)")
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "Print the updated README instead of writing it")
}

func runUpdate(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	var cfg config.Config
	cfg, err = loadSettings(overrides{
		readme:   updateReadme,
		marker:   updateMarker,
		snapshot: updateSnapshot,
		template: updateTemplate,
	}, true)
	if err != nil {
		return err
	}

	if getVerbose() {
		fmt.Printf("Updating %s (marker %s)\n", cfg.ReadmePath, cfg.GetMarker())
	}

	var result document.Result
	result, err = applyUpdate(ctx, cfg, updatePending, updateDryRun)
	if err != nil {
		return err
	}

	reportUpdate(result, updateDryRun)
	return err
}

func reportUpdate(result document.Result, dryRun bool) {
	switch {
	case dryRun:
		fmt.Print(result.Content)
	case result.Written:
		fmt.Printf("Updated highlights in %s (lines %d-%d)\n", result.Path, result.Span.StartLine, result.Span.EndLine)
	default:
		fmt.Printf("Highlights in %s already up to date\n", result.Path)
	}
}

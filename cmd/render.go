package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nikogura/profile-highlights/pkg/config"
	"github.com/nikogura/profile-highlights/pkg/renderer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var renderPending bool

//nolint:gochecknoglobals // Cobra boilerplate
var renderSnapshot string

//nolint:gochecknoglobals // Cobra boilerplate
var renderTemplate string

//nolint:gochecknoglobals // Cobra boilerplate
var renderPreview bool

//nolint:gochecknoglobals // Cobra boilerplate
var renderWidth int

//nolint:gochecknoglobals // Cobra boilerplate
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the highlights payload for a snapshot",
	Long: `Render a snapshot into the Markdown payload that update would place inside
the highlights region, and print it to stdout. The README is not touched.

Example:
  profile-highlights render --snapshot snapshot.json
  profile-highlights render --pending
  profile-highlights render --snapshot https://example.com/highlights.json --preview`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().BoolVar(&renderPending, "pending", false, "Render the pending placeholder instead of a snapshot")
	renderCmd.Flags().StringVar(&renderSnapshot, "snapshot", "", "Snapshot file or URL (default from config)")
	renderCmd.Flags().StringVar(&renderTemplate, "template", "", "Custom payload template (default built-in)")
	renderCmd.Flags().BoolVar(&renderPreview, "preview", false, "Render the payload for the terminal")
	renderCmd.Flags().IntVar(&renderWidth, "width", renderer.DefaultPreviewWidth, "Word-wrap width for --preview")
}

func runRender(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	var cfg config.Config
	cfg, err = loadSettings(overrides{snapshot: renderSnapshot, template: renderTemplate}, false)
	if err != nil {
		return err
	}

	var payload string
	payload, err = renderPayload(ctx, cfg, renderPending)
	if err != nil {
		return err
	}

	if !renderPreview {
		fmt.Print(payload)
		return err
	}

	var out string
	out, err = renderer.Preview(payload, "", renderWidth)
	if err != nil {
		err = errors.Wrap(err, "failed to preview highlights")
		return err
	}

	fmt.Print(out)
	return err
}

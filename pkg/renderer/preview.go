package renderer

import (
	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
)

// DefaultPreviewWidth is the word-wrap width of terminal previews.
const DefaultPreviewWidth = 80

// Preview renders Markdown for display in a terminal. An empty style picks
// one from the terminal background.
func Preview(markdown, style string, width int) (out string, err error) {
	if width <= 0 {
		width = DefaultPreviewWidth
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}

	var r *glamour.TermRenderer
	r, err = glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		err = errors.Wrap(err, "failed to create terminal renderer")
		return out, err
	}

	out, err = r.Render(markdown)
	if err != nil {
		err = errors.Wrap(err, "failed to render preview")
		return out, err
	}

	return out, err
}

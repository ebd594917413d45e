package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nikogura/profile-highlights/pkg/config"
	"github.com/nikogura/profile-highlights/pkg/region"
	"github.com/nikogura/profile-highlights/pkg/renderer"
	"github.com/nikogura/profile-highlights/pkg/snapshot"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReadme = `# Profile

<!-- HIGHLIGHTS:START -->
<!-- HIGHLIGHTS:END -->

Bye.
`

const testSnapshot = `{
  "state": "populated",
  "generated_at": "2026-10-18T06:00:00Z",
  "contributions_30d": 1500,
  "star_count": 12,
  "language_mix": [{"label": "Go", "percentage": 100}]
}`

// withConfigFile points the --config flag at path for the duration of the test.
func withConfigFile(t *testing.T, path string) {
	t.Helper()

	previous := configFile
	configFile = path
	t.Cleanup(func() { configFile = previous })
}

func writeTestFiles(t *testing.T) (readme, snap string) {
	t.Helper()

	dir := t.TempDir()
	readme = filepath.Join(dir, "README.md")
	snap = filepath.Join(dir, "snapshot.json")

	require.NoError(t, os.WriteFile(readme, []byte(testReadme), 0600))
	require.NoError(t, os.WriteFile(snap, []byte(testSnapshot), 0600))

	return readme, snap
}

func TestLoadSettingsFromConfig(t *testing.T) {
	readme, snap := writeTestFiles(t)
	configPath := filepath.Join(t.TempDir(), "config.json")
	content := `{"readme_path": "` + readme + `", "snapshot_location": "` + snap + `", "marker": "WORK"}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))
	withConfigFile(t, configPath)

	cfg, err := loadSettings(overrides{}, true)
	require.NoError(t, err)
	assert.Equal(t, readme, cfg.ReadmePath)
	assert.Equal(t, "WORK", cfg.GetMarker())

	cfg, err = loadSettings(overrides{marker: "OTHER", snapshot: "https://example.com/s.json"}, true)
	require.NoError(t, err)
	assert.Equal(t, "OTHER", cfg.GetMarker())
	assert.Equal(t, "https://example.com/s.json", cfg.SnapshotLocation)
}

func TestLoadSettingsExplicitConfigMissing(t *testing.T) {
	withConfigFile(t, filepath.Join(t.TempDir(), "missing.json"))

	_, err := loadSettings(overrides{readme: "README.md"}, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrNotFound))
}

func TestLoadSettingsWithoutConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HIGHLIGHTS_README", "")
	t.Setenv("HIGHLIGHTS_SNAPSHOT", "")
	withConfigFile(t, "")

	cfg, err := loadSettings(overrides{readme: "README.md"}, true)
	require.NoError(t, err)
	assert.Equal(t, "README.md", cfg.ReadmePath)

	_, err = loadSettings(overrides{}, true)
	assert.Error(t, err, "readme is required for updates")

	_, err = loadSettings(overrides{}, false)
	assert.NoError(t, err, "rendering does not need a readme")
}

func TestApplyUpdate(t *testing.T) {
	readme, snap := writeTestFiles(t)
	cfg := config.Config{ReadmePath: readme, SnapshotLocation: snap}

	result, err := applyUpdate(context.Background(), cfg, false, false)
	require.NoError(t, err)
	assert.True(t, result.Written)

	data, err := os.ReadFile(readme)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, "# Profile\n\n<!-- HIGHLIGHTS:START -->\n"))
	assert.True(t, strings.HasSuffix(content, "<!-- HIGHLIGHTS:END -->\n\nBye.\n"))
	assert.Contains(t, content, "| Contributions (last 30 days) | 1,500 |")
	assert.Contains(t, content, "Go 100.0%")

	// Same snapshot again leaves the file alone.
	result, err = applyUpdate(context.Background(), cfg, false, false)
	require.NoError(t, err)
	assert.False(t, result.Changed)
}

func TestApplyUpdatePendingDryRun(t *testing.T) {
	readme, _ := writeTestFiles(t)
	cfg := config.Config{ReadmePath: readme}

	result, err := applyUpdate(context.Background(), cfg, true, true)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.False(t, result.Written)
	assert.Contains(t, result.Content, renderer.PendingNotice)

	data, err := os.ReadFile(readme)
	require.NoError(t, err)
	assert.Equal(t, testReadme, string(data))
}

func TestApplyUpdateMissingRegion(t *testing.T) {
	dir := t.TempDir()
	readme := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("# No region\n"), 0600))

	_, err := applyUpdate(context.Background(), config.Config{ReadmePath: readme}, true, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, region.ErrMissingRegion))

	data, err := os.ReadFile(readme)
	require.NoError(t, err)
	assert.Equal(t, "# No region\n", string(data))
}

func TestResolveSnapshotRequiresLocation(t *testing.T) {
	_, err := resolveSnapshot(context.Background(), config.Config{}, false)
	assert.Error(t, err)

	s, err := resolveSnapshot(context.Background(), config.Config{}, true)
	require.NoError(t, err)
	assert.Equal(t, snapshot.StatePending, s.State)
}

func TestUpdateJob(t *testing.T) {
	readme, snap := writeTestFiles(t)
	job := updateJob(config.Config{ReadmePath: readme, SnapshotLocation: snap})

	require.NoError(t, job(context.Background()))

	data, err := os.ReadFile(readme)
	require.NoError(t, err)
	assert.Contains(t, string(data), "| Stars | 12 |")
}

func TestDescribeState(t *testing.T) {
	builtin, err := renderer.Render(snapshot.Pending(), "")
	require.NoError(t, err)

	assert.Equal(t, "empty", describeState("", builtin))
	assert.Equal(t, "empty", describeState("\n  \n", builtin))
	assert.Equal(t, "pending", describeState(builtin, builtin))
	assert.Equal(t, "pending", describeState("x\n"+renderer.PendingNotice+"\n", ""))
	assert.Equal(t, "populated", describeState("_Updated 2026-10-18 06:00 UTC._\n", builtin))
}

func TestDescribeStateCustomTemplate(t *testing.T) {
	templatePath := filepath.Join(t.TempDir(), "custom.tmpl")
	content := "Stars: {{if .Pending}}{{placeholder}}{{else}}{{.Stars}}{{end}}\n"
	require.NoError(t, os.WriteFile(templatePath, []byte(content), 0600))

	pending, err := renderer.Render(snapshot.Pending(), templatePath)
	require.NoError(t, err)

	populated, err := renderer.Render(snapshot.Snapshot{
		State:       snapshot.StatePopulated,
		GeneratedAt: time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC),
		StarCount:   12,
	}, templatePath)
	require.NoError(t, err)

	assert.Equal(t, "pending", describeState(pending, pending))
	assert.Equal(t, "populated", describeState(populated, pending))
}

package cmd

import (
	"fmt"
	"os"

	"github.com/nikogura/profile-highlights/pkg/config"
	"github.com/nikogura/profile-highlights/pkg/snapshot"
	"github.com/nikogura/profile-highlights/pkg/source"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Long: `Create a default configuration file and a pending snapshot next to it.

Example:
  profile-highlights init
  profile-highlights init --config ./highlights.json`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) (err error) {
	path := getConfigFile()
	if path == "" {
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	err = config.InitConfig(path)
	if err != nil {
		err = errors.Wrap(err, "failed to create config")
		return err
	}

	fmt.Printf("Config written to: %s\n", path)

	var cfg config.Config
	cfg, err = config.Read(path)
	if err != nil {
		return err
	}

	// Seed a pending snapshot so the first update has something to render.
	if !source.IsLocal(cfg.SnapshotLocation) {
		return err
	}

	_, statErr := os.Stat(cfg.SnapshotLocation)
	if !os.IsNotExist(statErr) {
		return err
	}

	err = snapshot.Save(cfg.SnapshotLocation, snapshot.Pending())
	if err != nil {
		err = errors.Wrap(err, "failed to write pending snapshot")
		return err
	}

	fmt.Printf("Pending snapshot written to: %s\n", cfg.SnapshotLocation)

	return err
}

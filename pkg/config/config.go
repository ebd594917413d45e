package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"github.com/nikogura/profile-highlights/pkg/region"
	"github.com/pkg/errors"
)

const (
	// DefaultMarker names the highlights region when none is configured.
	DefaultMarker = "HIGHLIGHTS"
	// DefaultInterval is the refresh cadence of the schedule command.
	DefaultInterval = "24h"
	// dirName is the per-user configuration directory under $HOME.
	dirName = ".profile-highlights"
)

// ErrNotFound is returned by Read when the config file does not exist.
//
//nolint:gochecknoglobals // Sentinel error
var ErrNotFound = errors.New("config file not found")

// Config represents the application configuration.
type Config struct {
	ReadmePath       string         `json:"readme_path"`
	Marker           string         `json:"marker,omitempty"`
	SnapshotLocation string         `json:"snapshot_location,omitempty"`
	TemplatePath     string         `json:"template_path,omitempty"`
	Schedule         ScheduleConfig `json:"schedule"`
}

// ScheduleConfig holds settings for the recurring updater.
type ScheduleConfig struct {
	Interval string `json:"interval,omitempty"`
	Watch    bool   `json:"watch,omitempty"`
}

// GetMarker returns the region marker or the default if not specified.
func (c *Config) GetMarker() (marker string) {
	if c.Marker != "" {
		marker = c.Marker
		return marker
	}
	marker = DefaultMarker
	return marker
}

// GetInterval returns the parsed schedule interval or the default if not specified.
func (c *Config) GetInterval() (interval time.Duration, err error) {
	raw := c.Schedule.Interval
	if raw == "" {
		raw = DefaultInterval
	}

	interval, err = time.ParseDuration(raw)
	if err != nil {
		err = errors.Wrapf(err, "invalid schedule.interval %q", raw)
		return interval, err
	}

	if interval <= 0 {
		err = errors.Errorf("schedule.interval must be positive, got %s", raw)
		return interval, err
	}

	return interval, err
}

// DefaultPath returns the default config file location.
func DefaultPath() (path string, err error) {
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return path, err
	}

	path = filepath.Join(homeDir, dirName, "config.json")
	return path, err
}

// Read reads configuration from file with environment variable overrides,
// without validating it. A missing file yields an error matching ErrNotFound.
func Read(configPath string) (cfg Config, err error) {
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = errors.Wrapf(ErrNotFound, "%s (run 'profile-highlights init' to create)", path)
			return cfg, err
		}
		err = errors.Wrapf(err, "failed to read config file: %s", path)
		return cfg, err
	}

	err = json.Unmarshal(data, &cfg)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse config file: %s", path)
		return cfg, err
	}

	cfg.ApplyEnv()

	return cfg, err
}

// Load reads configuration from file with environment variable overrides and validates it.
func Load(configPath string) (cfg Config, err error) {
	cfg, err = Read(configPath)
	if err != nil {
		return cfg, err
	}

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv() {
	if readme := os.Getenv("HIGHLIGHTS_README"); readme != "" {
		c.ReadmePath = readme
	}

	if snapshotLocation := os.Getenv("HIGHLIGHTS_SNAPSHOT"); snapshotLocation != "" {
		c.SnapshotLocation = snapshotLocation
	}
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() (err error) {
	if c.ReadmePath == "" {
		err = errors.New("readme_path is required (set in config or HIGHLIGHTS_README env var)")
		return err
	}

	err = c.ValidateRendering()
	return err
}

// ValidateRendering checks the settings needed to render a payload, which
// does not involve the README.
func (c *Config) ValidateRendering() (err error) {
	if !region.ValidName(c.GetMarker()) {
		err = errors.Errorf("marker %q may only contain letters, digits, '.', '_' and '-'", c.Marker)
		return err
	}

	_, err = c.GetInterval()
	if err != nil {
		return err
	}

	if c.TemplatePath != "" {
		_, err = os.Stat(c.TemplatePath)
		if os.IsNotExist(err) {
			err = errors.Errorf("template file not found: %s", c.TemplatePath)
			return err
		}
		err = nil
	}

	return err
}

// InitConfig creates a default configuration file.
func InitConfig(configPath string) (err error) {
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", dir)
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", path)
		return err
	}

	defaultConfig := Config{
		ReadmePath:       "README.md",
		Marker:           DefaultMarker,
		SnapshotLocation: filepath.Join(dir, "snapshot.json"),
		Schedule: ScheduleConfig{
			Interval: DefaultInterval,
		},
	}

	var data []byte
	data, err = json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return err
	}

	err = atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", path)
		return err
	}

	err = os.Chmod(path, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to set config file permissions: %s", path)
		return err
	}

	return err
}

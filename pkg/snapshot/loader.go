package snapshot

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is a snapshot file encoding.
type Format string

const (
	// FormatJSON is the default encoding.
	FormatJSON Format = "json"
	// FormatYAML is selected by a .yaml or .yml extension.
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file path or URL path extension.
func FormatFromPath(path string) (format Format) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		format = FormatJSON
	}
	return format
}

// Load reads and validates a snapshot file.
func Load(path string) (s Snapshot, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read snapshot file: %s", path)
		return s, err
	}

	s, err = Parse(data, FormatFromPath(path))
	if err != nil {
		err = errors.Wrapf(err, "failed to load snapshot: %s", path)
		return s, err
	}

	return s, err
}

// Parse decodes and validates a snapshot.
func Parse(data []byte, format Format) (s Snapshot, err error) {
	if len(bytes.TrimSpace(data)) == 0 {
		err = errors.New("snapshot is empty")
		return s, err
	}

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &s)
		if err != nil {
			err = errors.Wrap(err, "failed to parse snapshot YAML")
			return s, err
		}
	case FormatJSON:
		err = json.Unmarshal(data, &s)
		if err != nil {
			err = errors.Wrap(err, "failed to parse snapshot JSON")
			return s, err
		}
	default:
		err = errors.Errorf("unsupported snapshot format %q", format)
		return s, err
	}

	s.normalize()

	err = s.Validate()
	if err != nil {
		err = errors.Wrap(err, "snapshot validation failed")
		return s, err
	}

	return s, err
}

// Save writes a snapshot atomically in the encoding implied by path.
func Save(path string, s Snapshot) (err error) {
	s.normalize()

	err = s.Validate()
	if err != nil {
		err = errors.Wrap(err, "refusing to save invalid snapshot")
		return err
	}

	var data []byte
	switch FormatFromPath(path) {
	case FormatYAML:
		data, err = yaml.Marshal(s)
	default:
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		err = errors.Wrap(err, "failed to marshal snapshot")
		return err
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create snapshot directory: %s", dir)
		return err
	}

	err = atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		err = errors.Wrapf(err, "failed to write snapshot file: %s", path)
		return err
	}

	return err
}

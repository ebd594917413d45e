// Package document applies region updates to documents on disk.
package document

import (
	"os"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/nikogura/profile-highlights/pkg/region"
	"github.com/pkg/errors"
)

// Options controls an update.
type Options struct {
	DryRun bool
}

// Result describes the outcome of an update.
type Result struct {
	Path    string
	Changed bool
	Written bool
	Content string
	Span    region.Span
}

// Report describes the region found in a document.
type Report struct {
	Path  string
	Span  region.Span
	Inner string
	Lines int
}

// Read returns the content of the document at path.
func Read(path string) (content string, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read document: %s", path)
		return content, err
	}

	content = string(data)
	return content, err
}

// Update replaces the region called marker in the document at path with
// payload. The file is replaced atomically and only when its content changes.
// Region errors leave the file untouched.
func Update(path, marker, payload string, opts Options) (result Result, err error) {
	result.Path = path

	var original string
	original, err = Read(path)
	if err != nil {
		return result, err
	}

	var updated string
	updated, err = region.Replace(original, marker, payload)
	if err != nil {
		err = errors.Wrapf(err, "cannot update %s", path)
		return result, err
	}

	// Locate on the updated text so the span reflects the new payload.
	result.Span, err = region.Locate(updated, marker)
	if err != nil {
		err = errors.Wrapf(err, "updated document %s is no longer well formed", path)
		return result, err
	}

	result.Content = updated
	result.Changed = updated != original

	if !result.Changed || opts.DryRun {
		return result, err
	}

	err = atomic.WriteFile(path, strings.NewReader(updated))
	if err != nil {
		err = errors.Wrapf(err, "failed to write document: %s", path)
		return result, err
	}

	result.Written = true
	return result, err
}

// Check verifies that the document at path holds a well-formed region called marker.
func Check(path, marker string) (report Report, err error) {
	report.Path = path

	var content string
	content, err = Read(path)
	if err != nil {
		return report, err
	}

	report.Span, err = region.Locate(content, marker)
	if err != nil {
		err = errors.Wrapf(err, "check failed for %s", path)
		return report, err
	}

	report.Inner = content[report.Span.InnerStart:report.Span.InnerEnd]
	report.Lines = report.Span.EndLine - report.Span.StartLine - 1

	return report, err
}

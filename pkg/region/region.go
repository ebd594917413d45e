// Package region implements replacement of a marked region inside a text document.
//
// A region is delimited by two sentinel lines:
//
//	<!-- NAME:START -->
//	... replaceable content ...
//	<!-- NAME:END -->
//
// Only the bytes strictly between the two sentinel lines are ever rewritten.
package region

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//nolint:gochecknoglobals // Sentinel errors
var (
	// ErrMissingRegion is returned when the start or end sentinel is absent.
	ErrMissingRegion = errors.New("missing region")
	// ErrMalformedRegion is returned when sentinels are duplicated, misordered or nested.
	ErrMalformedRegion = errors.New("malformed region")
)

//nolint:gochecknoglobals // Compiled once
var sentinelPattern = regexp.MustCompile(`^<!--\s*([A-Za-z0-9_.-]+):(START|END)\s*-->$`)

//nolint:gochecknoglobals // Compiled once
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// byteOrderMark may precede the first line of a document saved by some editors.
const byteOrderMark = "\ufeff"

// Kind distinguishes start sentinels from end sentinels.
type Kind string

const (
	// KindStart opens a region.
	KindStart Kind = "START"
	// KindEnd closes a region.
	KindEnd Kind = "END"
)

// Sentinel is a single marker line found in a document.
type Sentinel struct {
	Name       string
	Kind       Kind
	Line       int    // 1-based line number
	Offset     int    // byte offset of the first byte of the line
	NextOffset int    // byte offset just past the line terminator
	Terminator string // "\n", "\r\n" or "" on an unterminated last line
}

// Span locates the replaceable content of a region.
type Span struct {
	Name       string
	StartLine  int
	EndLine    int
	InnerStart int // byte offset just past the start sentinel line
	InnerEnd   int // byte offset of the end sentinel line
	Terminator string
}

// Len returns the byte length of the inner content.
func (s Span) Len() (n int) {
	n = s.InnerEnd - s.InnerStart
	return n
}

// ValidName reports whether name can be used as a marker name.
func ValidName(name string) (ok bool) {
	ok = namePattern.MatchString(name)
	return ok
}

// Start returns the start sentinel line for name, without a terminator.
func Start(name string) (line string) {
	line = "<!-- " + name + ":START -->"
	return line
}

// End returns the end sentinel line for name, without a terminator.
func End(name string) (line string) {
	line = "<!-- " + name + ":END -->"
	return line
}

// Scan returns every sentinel line in doc, of any name, in document order.
func Scan(doc string) (sentinels []Sentinel) {
	sentinels = make([]Sentinel, 0)
	offset := 0
	lineNo := 0

	for offset < len(doc) {
		lineNo++

		next := len(doc)
		text := doc[offset:]
		terminator := ""

		idx := strings.IndexByte(doc[offset:], '\n')
		if idx >= 0 {
			next = offset + idx + 1
			text = doc[offset : offset+idx]
			terminator = "\n"
		}

		if strings.HasSuffix(text, "\r") && terminator != "" {
			terminator = "\r\n"
		}

		if lineNo == 1 {
			text = strings.TrimPrefix(text, byteOrderMark)
		}

		match := sentinelPattern.FindStringSubmatch(strings.TrimSpace(text))
		if match != nil {
			sentinels = append(sentinels, Sentinel{
				Name:       match[1],
				Kind:       Kind(match[2]),
				Line:       lineNo,
				Offset:     offset,
				NextOffset: next,
				Terminator: terminator,
			})
		}

		offset = next
	}

	return sentinels
}

// Locate finds the region called name and checks that it is well formed.
func Locate(doc, name string) (span Span, err error) {
	if !ValidName(name) {
		err = errors.Errorf("invalid marker name %q", name)
		return span, err
	}

	sentinels := Scan(doc)

	var starts, ends []Sentinel
	for _, s := range sentinels {
		if s.Name != name {
			continue
		}
		if s.Kind == KindStart {
			starts = append(starts, s)
		} else {
			ends = append(ends, s)
		}
	}

	if len(starts) > 1 {
		err = errors.Wrapf(ErrMalformedRegion, "marker %s: start sentinel appears %d times (lines %s)", name, len(starts), lineList(starts))
		return span, err
	}

	if len(ends) > 1 {
		err = errors.Wrapf(ErrMalformedRegion, "marker %s: end sentinel appears %d times (lines %s)", name, len(ends), lineList(ends))
		return span, err
	}

	if len(starts) == 0 {
		err = errors.Wrapf(ErrMissingRegion, "marker %s: start sentinel not found", name)
		return span, err
	}

	if len(ends) == 0 {
		err = errors.Wrapf(ErrMissingRegion, "marker %s: end sentinel not found", name)
		return span, err
	}

	start, end := starts[0], ends[0]
	if end.Line < start.Line {
		err = errors.Wrapf(ErrMalformedRegion, "marker %s: end sentinel on line %d precedes start sentinel on line %d", name, end.Line, start.Line)
		return span, err
	}

	err = checkNesting(sentinels, start, end)
	if err != nil {
		return span, err
	}

	span = Span{
		Name:       name,
		StartLine:  start.Line,
		EndLine:    end.Line,
		InnerStart: start.NextOffset,
		InnerEnd:   end.Offset,
		Terminator: start.Terminator,
	}

	return span, err
}

// checkNesting rejects regions that contain, or are contained by, another region.
func checkNesting(sentinels []Sentinel, start, end Sentinel) (err error) {
	openedBefore := make(map[string]int)
	closedAfter := make(map[string]int)

	for _, s := range sentinels {
		if s.Name == start.Name {
			continue
		}

		if s.Line > start.Line && s.Line < end.Line {
			err = errors.Wrapf(ErrMalformedRegion, "marker %s: sentinel %s:%s on line %d is nested inside lines %d-%d", start.Name, s.Name, s.Kind, s.Line, start.Line, end.Line)
			return err
		}

		if s.Kind == KindStart && s.Line < start.Line {
			if _, seen := openedBefore[s.Name]; !seen {
				openedBefore[s.Name] = s.Line
			}
		}

		if s.Kind == KindEnd && s.Line > end.Line {
			closedAfter[s.Name] = s.Line
		}
	}

	names := make([]string, 0, len(openedBefore))
	for other := range openedBefore {
		names = append(names, other)
	}
	sort.Strings(names)

	for _, other := range names {
		closeLine, ok := closedAfter[other]
		if !ok {
			continue
		}
		err = errors.Wrapf(ErrMalformedRegion, "marker %s: region is nested inside %s (lines %d-%d)", start.Name, other, openedBefore[other], closeLine)
		return err
	}

	return err
}

// Extract returns the current content of the region called name.
func Extract(doc, name string) (inner string, err error) {
	var span Span
	span, err = Locate(doc, name)
	if err != nil {
		return inner, err
	}

	inner = doc[span.InnerStart:span.InnerEnd]
	return inner, err
}

// Replace swaps the content of the region called name for payload.
//
// A non-empty payload without a trailing newline is terminated with the start
// sentinel's line ending. On error the original document is returned.
func Replace(doc, name, payload string) (result string, err error) {
	result = doc

	var span Span
	span, err = Locate(doc, name)
	if err != nil {
		return result, err
	}

	nested := Scan(payload)
	if len(nested) > 0 {
		err = errors.Wrapf(ErrMalformedRegion, "marker %s: payload contains sentinel %s:%s on line %d", name, nested[0].Name, nested[0].Kind, nested[0].Line)
		return result, err
	}

	if payload != "" && !strings.HasSuffix(payload, "\n") {
		payload += span.Terminator
	}

	result = doc[:span.InnerStart] + payload + doc[span.InnerEnd:]
	return result, err
}

func lineList(sentinels []Sentinel) (list string) {
	parts := make([]string, len(sentinels))
	for i, s := range sentinels {
		parts[i] = strconv.Itoa(s.Line)
	}
	list = strings.Join(parts, ", ")
	return list
}

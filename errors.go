package wikihistory

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ErrUnexpectedEndOfStream is returned when the dump ends while an
// element is still required.  It is usually wrapped with a note of
// what was expected, so match it with errors.Is.
var ErrUnexpectedEndOfStream = errors.New("unexpected end of dump stream")

// A MalformedDumpError reports a line that doesn't fit the dump
// grammar at the current position.
type MalformedDumpError struct {
	Expected string
	Actual   string
	Line     int
}

func (e *MalformedDumpError) Error() string {
	return fmt.Sprintf("line %d: expected %s, instead line was: %q",
		e.Line, e.Expected, e.Actual)
}

// A TrailingDataError reports content found after </mediawiki>.
type TrailingDataError struct {
	Line   int
	Actual string
}

func (e *TrailingDataError) Error() string {
	return fmt.Sprintf("line %d: expected end of dump, instead line was: %q",
		e.Line, e.Actual)
}

// A DecompressionError reports a decompressor that couldn't be
// started, exited non-zero, or wrote diagnostics.
type DecompressionError struct {
	Message  string
	ExitCode int
}

func (e *DecompressionError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("decompression failed (exit %d): %s",
			e.ExitCode, e.Message)
	}
	return "decompression failed: " + e.Message
}

func malformed(lr *LineReader, expected, actual string) error {
	return &MalformedDumpError{
		Expected: expected,
		Actual:   clip(actual),
		Line:     lr.Line(),
	}
}

func endOfStream(lr *LineReader, expected string) error {
	return errors.Wrapf(ErrUnexpectedEndOfStream, "after line %d, expected %s",
		lr.Line(), expected)
}

// clip keeps error messages readable when a whole revision body
// ends up as the offending line.
func clip(s string) string {
	const max = 200
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return truncate(s, max) + "..."
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

package wikihistory

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const lineBufferSize = 1 << 20

// A LineReader splits a dump stream into lines.
//
// The stream is decoded as UTF-8; invalid sequences come out as
// U+FFFD.  Lines may be arbitrarily long.
type LineReader struct {
	r    *bufio.Reader
	line int
	done bool
}

// NewLineReader gets a LineReader reading from r.
func NewLineReader(r io.Reader) *LineReader {
	d := transform.NewReader(r, unicode.UTF8.NewDecoder())
	return &LineReader{r: bufio.NewReaderSize(d, lineBufferSize)}
}

// Next gets the next line without its line terminator.
//
// At the end of the stream it returns io.EOF, and keeps doing so.
func (lr *LineReader) Next() (string, error) {
	if lr.done {
		return "", io.EOF
	}
	s, err := lr.r.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			return "", err
		}
		lr.done = true
		if s == "" {
			return "", io.EOF
		}
	}
	lr.line++
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

// Line is the number of the last line returned by Next.
func (lr *LineReader) Line() int {
	return lr.line
}

package wikihistory

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// An IndexEntry is one page listed in a multistream index.
type IndexEntry struct {
	// Byte offset of the compressed stream holding the page.
	StreamOffset int64
	PageID       int
	Title        string
}

func (e IndexEntry) String() string {
	return fmt.Sprintf("%v:%v:%v", e.StreamOffset, e.PageID, e.Title)
}

// An IndexReader reads the offset:pageid:title lines of a multistream
// index.
type IndexReader struct {
	s          *bufio.Scanner
	line       int
	base       int64
	prevOffset int64
}

// NewIndexReader gets an index reader for an already decompressed
// index stream.
func NewIndexReader(r io.Reader) *IndexReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64<<10), 1<<20)
	return &IndexReader{s: s}
}

// Next gets the next entry from the index, or io.EOF.
//
// Some old indexes wrote offsets as 32-bit signed numbers.  Offsets
// are assumed to only ever grow, so one that goes backwards is taken
// as a wraparound and corrected.
func (ir *IndexReader) Next() (IndexEntry, error) {
	if !ir.s.Scan() {
		if err := ir.s.Err(); err != nil {
			return IndexEntry{}, err
		}
		return IndexEntry{}, io.EOF
	}
	ir.line++
	text := ir.s.Text()

	parts := strings.SplitN(text, ":", 3)
	if len(parts) != 3 {
		return IndexEntry{}, ir.malformed(text)
	}
	offset, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return IndexEntry{}, ir.malformed(text)
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return IndexEntry{}, ir.malformed(text)
	}

	if offset < ir.prevOffset {
		ir.base += 1 << 32
	}
	ir.prevOffset = offset

	return IndexEntry{
		StreamOffset: offset + ir.base,
		PageID:       id,
		Title:        parts[2],
	}, nil
}

func (ir *IndexReader) malformed(text string) error {
	return &MalformedDumpError{
		Expected: "offset:pageid:title",
		Actual:   clip(text),
		Line:     ir.line,
	}
}

// An IndexChunk is one compressed stream of a multistream dump.
type IndexChunk struct {
	Offset int64
	Pages  int
}

// IndexSummaryReader groups index entries by stream, for when only
// where the streams are and how many pages each holds matters.
type IndexSummaryReader struct {
	index   *IndexReader
	current IndexChunk
	err     error
}

// NewIndexSummaryReader gets a summary of the given index stream.
func NewIndexSummaryReader(r io.Reader) *IndexSummaryReader {
	return &IndexSummaryReader{index: NewIndexReader(r)}
}

// Next gets the next stream, or io.EOF after the last one.
func (isr *IndexSummaryReader) Next() (IndexChunk, error) {
	for isr.err == nil {
		e, err := isr.index.Next()
		if err != nil {
			isr.err = err
			break
		}
		if isr.current.Pages > 0 && e.StreamOffset != isr.current.Offset {
			rv := isr.current
			isr.current = IndexChunk{Offset: e.StreamOffset, Pages: 1}
			return rv, nil
		}
		isr.current.Offset = e.StreamOffset
		isr.current.Pages++
	}
	if isr.err == io.EOF && isr.current.Pages > 0 {
		rv := isr.current
		isr.current = IndexChunk{}
		return rv, nil
	}
	return IndexChunk{}, isr.err
}

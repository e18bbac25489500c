package wikihistory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testPage(id int) string {
	return fmt.Sprintf(`  <page>
    <title>Page %d</title>
    <ns>0</ns>
    <id>%d</id>
    <revision>
      <id>%d</id>
      <timestamp>2001-01-01T00:00:00Z</timestamp>
      <contributor>
        <ip>127.0.0.1</ip>
      </contributor>
      <model>wikitext</model>
      <format>text/x-wiki</format>
      <text bytes="3">%d</text>
      <sha1 />
    </revision>
  </page>
`, id, id, id*10, id)
}

// buildMultistream lays out a multistream dump with one stream per
// element of chunks, which lists the page ids in each stream.
// Streams aren't compressed; see identity.
func buildMultistream(chunks [][]int) ([]byte, string) {
	var data bytes.Buffer
	var index strings.Builder
	data.WriteString(testHeader)
	for i, chunk := range chunks {
		offset := data.Len()
		for _, id := range chunk {
			fmt.Fprintf(&index, "%d:%d:Page %d\n", offset, id, id)
			data.WriteString(testPage(id))
		}
		if i == len(chunks)-1 {
			data.WriteString("</mediawiki>\n")
		}
	}
	return data.Bytes(), index.String()
}

func identity(r io.Reader) (io.Reader, error) {
	return r, nil
}

func runMultistream(t *testing.T, data []byte, index string, sink RevisionSink, opts ...Option) error {
	opts = append([]Option{WithChunkDecoder(identity), WithLogger(zaptest.NewLogger(t))}, opts...)
	return processMultistream(context.Background(), strings.NewReader(index),
		bytes.NewReader(data), int64(len(data)), sink, newOptions(opts))
}

func TestMultistream(t *testing.T) {
	data, index := buildMultistream([][]int{{1, 2, 3}, {4}, {5, 6}})

	var ids []int64
	c := &Counter{}
	sink := MultiSink{c, SinkFuncs{OnRevision: func(rev *Revision) error {
		ids = append(ids, rev.ID)
		return nil
	}}}
	require.NoError(t, runMultistream(t, data, index, sink))

	assert.Equal(t, []int64{10, 20, 30, 40, 50, 60}, ids)
	assert.True(t, c.Finished)
	assert.EqualValues(t, 6, c.Pages)
	assert.Equal(t, "enwiki", c.Site.DBName)
}

func TestMultistreamOrdering(t *testing.T) {
	var chunks [][]int
	var exp []int64
	for i := 1; i <= 200; i++ {
		chunks = append(chunks, []int{i})
		exp = append(exp, int64(i*10))
	}
	data, index := buildMultistream(chunks)

	for _, workers := range []int{1, 3, 16} {
		t.Run(fmt.Sprint(workers), func(t *testing.T) {
			var ids []int64
			err := runMultistream(t, data, index, SinkFuncs{OnRevision: func(rev *Revision) error {
				ids = append(ids, rev.ID)
				return nil
			}}, WithWorkers(workers))
			require.NoError(t, err)
			assert.Equal(t, exp, ids)
		})
	}
}

func TestMultistreamNoIndex(t *testing.T) {
	c := &Counter{}
	require.NoError(t, runMultistream(t, []byte(testDump), "", c))
	assert.True(t, c.Finished)
	assert.EqualValues(t, 3, c.Revisions)
}

func TestMultistreamPageCountMismatch(t *testing.T) {
	data, index := buildMultistream([][]int{{1, 2}, {3}})
	// Claim a page the stream doesn't have.
	index = strings.Replace(index, ":2:Page 2\n", ":2:Page 2\n"+index[:strings.IndexByte(index, ':')]+":9:Page 9\n", 1)

	c := &Counter{}
	err := runMultistream(t, data, index, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index lists 3 pages, found 2")
	assert.False(t, c.Finished)
}

func TestMultistreamMalformedStream(t *testing.T) {
	data, index := buildMultistream([][]int{{1}, {2}, {3}})
	data = bytes.Replace(data, []byte("<id>20</id>"), []byte("<id>twenty</id>"), 1)

	var ids []int64
	c := &Counter{}
	err := runMultistream(t, data, index, MultiSink{c, SinkFuncs{OnRevision: func(rev *Revision) error {
		ids = append(ids, rev.ID)
		return nil
	}}}, WithWorkers(1))

	var me *MalformedDumpError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "<id>twenty</id>", me.Actual)
	assert.Equal(t, []int64{10}, ids)
	assert.False(t, c.Finished)
}

func TestMultistreamEarlyDocumentEnd(t *testing.T) {
	var data bytes.Buffer
	data.WriteString(testHeader)
	first := data.Len()
	data.WriteString(testPage(1))
	data.WriteString("</mediawiki>\n")
	second := data.Len()
	data.WriteString(testPage(2))
	index := fmt.Sprintf("%d:1:Page 1\n%d:2:Page 2\n", first, second)

	var ids []int64
	c := &Counter{}
	err := runMultistream(t, data.Bytes(), index, MultiSink{c, SinkFuncs{OnRevision: func(rev *Revision) error {
		ids = append(ids, rev.ID)
		return nil
	}}}, WithWorkers(1))

	var me *MalformedDumpError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "</mediawiki>", me.Actual)
	assert.Empty(t, ids)
	assert.False(t, c.Finished)
}

func TestMultistreamSinkError(t *testing.T) {
	var chunks [][]int
	for i := 1; i <= 50; i++ {
		chunks = append(chunks, []int{i})
	}
	data, index := buildMultistream(chunks)

	boom := errors.New("boom")
	var seen int
	err := runMultistream(t, data, index, SinkFuncs{
		OnRevision: func(rev *Revision) error {
			seen++
			if rev.ID == 50 {
				return boom
			}
			return nil
		},
		OnFinish: func() error {
			t.Error("finish called after a sink failure")
			return nil
		},
	}, WithWorkers(4))
	assert.True(t, errors.Is(err, boom), "got %v", err)
	assert.Equal(t, 5, seen)
}

func TestMultistreamBadOffsets(t *testing.T) {
	data, _ := buildMultistream([][]int{{1}})
	tests := []struct {
		name, index string
	}{
		{"past end", fmt.Sprintf("%d:1:Page 1\n", len(data))},
		{"not increasing", fmt.Sprintf("%d:1:Page 1\n%d:2:Page 2\n%d:3:Page 3\n",
			len(testHeader), len(testHeader)+1, len(testHeader))},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := &Counter{}
			err := runMultistream(t, data, test.index, c)
			assert.Error(t, err)
			assert.Nil(t, c.Site)
		})
	}
}

func TestMultistreamCancelled(t *testing.T) {
	data, index := buildMultistream([][]int{{1}, {2}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newOptions([]Option{WithChunkDecoder(identity)})
	err := processMultistream(ctx, strings.NewReader(index), bytes.NewReader(data),
		int64(len(data)), &Counter{}, o)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestProcessMultistreamFiles(t *testing.T) {
	data, index := buildMultistream([][]int{{1, 2}, {3}})
	indexPath := writeFile(t, "enwiki-multistream-index.txt.gz", gzipped(t, index))
	dataPath := writeFile(t, "enwiki-multistream.xml", string(data))

	c := &Counter{}
	err := ProcessMultistream(context.Background(), indexPath, dataPath, c,
		WithChunkDecoder(identity), WithWorkers(2))
	require.NoError(t, err)
	assert.True(t, c.Finished)
	assert.EqualValues(t, 3, c.Revisions)
}

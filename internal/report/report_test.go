package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dustin/go-wikihistory"
)

func testDump(pages, revsPerPage int) string {
	var b strings.Builder
	b.WriteString(`<mediawiki>
  <siteinfo>
    <sitename>Wikipedia</sitename>
    <dbname>enwiki</dbname>
    <base>https://en.wikipedia.org/wiki/Main_Page</base>
    <generator>MediaWiki 1.29.0-wmf.12</generator>
    <case>first-letter</case>
    <namespaces>
      <namespace key="0" case="first-letter" />
    </namespaces>
  </siteinfo>
`)
	id := 0
	for p := 1; p <= pages; p++ {
		fmt.Fprintf(&b, "  <page>\n    <title>Page %d</title>\n    <ns>0</ns>\n    <id>%d</id>\n", p, p)
		for r := 0; r < revsPerPage; r++ {
			id++
			fmt.Fprintf(&b, `    <revision>
      <id>%d</id>
      <timestamp>2001-01-01T00:00:00Z</timestamp>
      <contributor>
        <ip>127.0.0.1</ip>
      </contributor>
      <model>wikitext</model>
      <format>text/x-wiki</format>
      <text bytes="4">text</text>
      <sha1 />
    </revision>
`, id)
		}
		b.WriteString("  </page>\n")
	}
	b.WriteString("</mediawiki>\n")
	return b.String()
}

func fakeClock() func() time.Time {
	t := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestReporter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := &wikihistory.Counter{}
	r := New(c, zap.New(core), 5)
	r.now = fakeClock()

	require.NoError(t, wikihistory.Process(strings.NewReader(testDump(4, 3)), r))
	assert.EqualValues(t, 12, r.Revisions())
	assert.True(t, c.Finished)

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "Got site info", entries[0].Message)
	assert.Equal(t, "enwiki", entries[0].ContextMap()["db"])

	assert.Equal(t, "Processed 5 revisions total", entries[1].Message)
	assert.Equal(t, "2", entries[1].ContextMap()["pages"])
	assert.Equal(t, "5/s", entries[1].ContextMap()["rate"])
	assert.Equal(t, "Processed 10 revisions total", entries[2].Message)

	end := entries[3]
	assert.True(t, strings.HasPrefix(end.Message, "Ended after "), end.Message)
	assert.Equal(t, "4", end.ContextMap()["pages"])
	assert.Equal(t, "12", end.ContextMap()["revisions"])
	assert.Equal(t, "48 B", end.ContextMap()["text"])
}

func TestReporterDefaultFrequency(t *testing.T) {
	r := New(&wikihistory.Counter{}, zap.NewNop(), 0)
	assert.EqualValues(t, 10000, r.every)
}

func TestReporterBar(t *testing.T) {
	var out bytes.Buffer
	r := New(&wikihistory.Counter{}, zap.NewNop(), 1000)
	r.ShowBar(&out, 6)

	require.NoError(t, wikihistory.Process(strings.NewReader(testDump(2, 3)), r))
	assert.EqualValues(t, 6, r.bar.Get())
	assert.NotEmpty(t, out.String())
}

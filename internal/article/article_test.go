package article

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dustin/go-wikihistory"
	"github.com/dustin/go-wikihistory/wikitext"
)

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }
func int64p(i int64) *int64 { return &i }

func TestFromRevision(t *testing.T) {
	rev := &wikihistory.Revision{
		PrefixedTitle: "Loch Ness",
		PageID:        42,
		ID:            1001,
		ParentID:      int64p(1000),
		Timestamp:     "2010-05-05T10:00:00Z",
		Contributor:   strp("Nessie"),
		ContributorID: intp(7),
		Minor:         true,
		Comment:       strp("coords"),
		SHA1:          strp("abc"),
		Text: "{{coord|57|18|22|N|4|27|32|W}} A [[lake]] in [[Scotland|the highlands]].\n" +
			"[[File:Loch Ness.jpg|thumb]]",
	}
	a := FromRevision(rev)

	assert.Equal(t, "Loch Ness", a.Title)
	assert.Equal(t, 42, a.PageID)
	assert.Equal(t, "", a.Redirect)
	assert.Equal(t, RevInfo{
		ID:            1001,
		ParentID:      int64p(1000),
		Timestamp:     "2010-05-05T10:00:00Z",
		Contributor:   "Nessie",
		ContributorID: intp(7),
		Comment:       "coords",
		Minor:         true,
		SHA1:          "abc",
	}, a.RevInfo)
	assert.Equal(t, []string{"lake", "Scotland", "File:Loch Ness.jpg"}, a.Links)
	assert.Equal(t, []string{"Loch Ness.jpg"}, a.Files)

	require.NotNil(t, a.Geo)
	assert.Equal(t, "Feature", a.Geo.Type)
	assert.Equal(t, "Point", a.Geo.Geometry.Type)
	require.Len(t, a.Geo.Geometry.Coordinates, 2)
	assert.InDelta(t, -4.458889, a.Geo.Geometry.Coordinates[0], 0.00001)
	assert.InDelta(t, 57.306111, a.Geo.Geometry.Coordinates[1], 0.00001)
}

func TestFromRevisionRedacted(t *testing.T) {
	rev := &wikihistory.Revision{
		PrefixedTitle: "Talk:Old",
		Namespace:     1,
		Redirect:      strp("Talk:New"),
		ID:            5,
		Timestamp:     "2001-01-01T00:00:00Z",
		Text:          "#REDIRECT [[Talk:New]]",
	}
	a := FromRevision(rev)
	assert.Equal(t, "Talk:New", a.Redirect)
	assert.Nil(t, a.Geo)

	data, err := json.Marshal(a)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.NotContains(t, m, "geo")
	info := m["revinfo"].(map[string]interface{})
	assert.NotContains(t, info, "contributor")
	assert.NotContains(t, info, "contributorid")
	assert.NotContains(t, info, "parentid")
	assert.NotContains(t, info, "comment")
}

func TestNewGeo(t *testing.T) {
	g := NewGeo(wikitext.Coord{Lat: 1, Lon: 2})
	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Feature","geometry":{"type":"Point","coordinates":[2,1]}}`, string(data))
}

func revision(page int, id int64, ts string) *wikihistory.Revision {
	return &wikihistory.Revision{PageID: page, ID: id, Timestamp: ts}
}

func TestLatest(t *testing.T) {
	var got []int64
	s := Latest(func(rev *wikihistory.Revision) error {
		got = append(got, rev.ID)
		return nil
	})

	require.NoError(t, s.Start(&wikihistory.SiteInfo{}))
	for _, rev := range []*wikihistory.Revision{
		revision(1, 10, "2001-01-01T00:00:00Z"),
		revision(1, 12, "2003-01-01T00:00:00Z"),
		revision(1, 11, "2002-01-01T00:00:00Z"),
		revision(2, 20, "2001-01-01T00:00:00Z"),
		revision(3, 30, "2001-01-01T00:00:00Z"),
		revision(3, 31, "2001-01-01T00:00:00Z"),
	} {
		require.NoError(t, s.Revision(rev))
	}
	assert.Equal(t, []int64{12, 20}, got)
	require.NoError(t, s.Finish())
	assert.Equal(t, []int64{12, 20, 31}, got)
}

func TestLatestEmpty(t *testing.T) {
	s := Latest(func(*wikihistory.Revision) error {
		t.Error("nothing to emit")
		return nil
	})
	require.NoError(t, s.Start(&wikihistory.SiteInfo{}))
	assert.NoError(t, s.Finish())
}

func TestLatestError(t *testing.T) {
	boom := errors.New("boom")
	s := Latest(func(*wikihistory.Revision) error { return boom })
	require.NoError(t, s.Start(&wikihistory.SiteInfo{}))
	require.NoError(t, s.Revision(revision(1, 1, "x")))
	assert.Equal(t, boom, s.Revision(revision(2, 2, "x")))
}

// Package article flattens revisions into the documents the loader
// tools store.
package article

import (
	"github.com/dustin/go-wikihistory"
	"github.com/dustin/go-wikihistory/wikitext"
)

// Geo is a GeoJSON point feature.
type Geo struct {
	Geometry struct {
		Type        string    `json:"type" bson:"type"`
		Coordinates []float64 `json:"coordinates" bson:"coordinates"`
	} `json:"geometry" bson:"geometry"`
	Type string `json:"type" bson:"type"`
}

// NewGeo makes a point feature.  GeoJSON wants longitude first.
func NewGeo(c wikitext.Coord) *Geo {
	g := &Geo{Type: "Feature"}
	g.Geometry.Type = "Point"
	g.Geometry.Coordinates = []float64{c.Lon, c.Lat}
	return g
}

// RevInfo describes the revision an Article was built from.
type RevInfo struct {
	ID            int64  `json:"id" bson:"id"`
	ParentID      *int64 `json:"parentid,omitempty" bson:"parentid,omitempty"`
	Timestamp     string `json:"timestamp" bson:"timestamp"`
	Contributor   string `json:"contributor,omitempty" bson:"contributor,omitempty"`
	ContributorID *int   `json:"contributorid,omitempty" bson:"contributorid,omitempty"`
	Comment       string `json:"comment,omitempty" bson:"comment,omitempty"`
	Minor         bool   `json:"minor,omitempty" bson:"minor,omitempty"`
	SHA1          string `json:"sha1,omitempty" bson:"sha1,omitempty"`
}

// An Article is the stored form of a page at one revision.
type Article struct {
	Title     string   `json:"title" bson:"title"`
	PageID    int      `json:"pageid" bson:"pageid"`
	Namespace int      `json:"ns" bson:"ns"`
	Redirect  string   `json:"redirect,omitempty" bson:"redirect,omitempty"`
	RevInfo   RevInfo  `json:"revinfo" bson:"revinfo"`
	Text      string   `json:"text" bson:"text"`
	Geo       *Geo     `json:"geo,omitempty" bson:"geo,omitempty"`
	Files     []string `json:"files,omitempty" bson:"files,omitempty"`
	Links     []string `json:"links,omitempty" bson:"links,omitempty"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FromRevision builds the Article for rev, pulling coordinates,
// files and links out of the text.
func FromRevision(rev *wikihistory.Revision) *Article {
	a := &Article{
		Title:     rev.PrefixedTitle,
		PageID:    rev.PageID,
		Namespace: rev.Namespace,
		Redirect:  deref(rev.Redirect),
		RevInfo: RevInfo{
			ID:            rev.ID,
			ParentID:      rev.ParentID,
			Timestamp:     rev.Timestamp,
			Contributor:   deref(rev.Contributor),
			ContributorID: rev.ContributorID,
			Comment:       deref(rev.Comment),
			Minor:         rev.Minor,
			SHA1:          deref(rev.SHA1),
		},
		Text:  rev.Text,
		Files: wikitext.FindFiles(rev.Text),
		Links: wikitext.FindLinks(rev.Text),
	}
	if c, err := wikitext.ParseCoords(rev.Text); err == nil {
		a.Geo = NewGeo(c)
	}
	return a
}

// Latest gets a sink calling fn with the newest revision of every
// page, by timestamp, once the page is done.
func Latest(fn func(*wikihistory.Revision) error) wikihistory.RevisionSink {
	return &latest{fn: fn}
}

type latest struct {
	fn  func(*wikihistory.Revision) error
	cur *wikihistory.Revision
}

func (l *latest) Start(*wikihistory.SiteInfo) error {
	l.cur = nil
	return nil
}

func (l *latest) Revision(rev *wikihistory.Revision) error {
	switch {
	case l.cur == nil:
		l.cur = rev
	case l.cur.PageID != rev.PageID:
		if err := l.flush(); err != nil {
			return err
		}
		l.cur = rev
	case rev.Timestamp >= l.cur.Timestamp:
		l.cur = rev
	}
	return nil
}

func (l *latest) flush() error {
	if l.cur == nil {
		return nil
	}
	rev := l.cur
	l.cur = nil
	return l.fn(rev)
}

func (l *latest) Finish() error {
	return l.flush()
}

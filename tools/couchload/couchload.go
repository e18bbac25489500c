// Load the latest revision of every page of a wikipedia dump into
// CouchDB.
package main

import (
	"os"
	"strings"

	"github.com/dustin/go-couch"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/dustin/go-wikihistory"
	"github.com/dustin/go-wikihistory/internal/article"
	"github.com/dustin/go-wikihistory/internal/cli"
)

var (
	app   = kingpin.New("couchload", "Load a wikipedia dump into CouchDB.")
	dburl = app.Arg("db", "CouchDB database URL").Required().String()
	files = app.Arg("files", "A dump, or a multistream index and data file").
		Required().ExistingFiles()
)

type doc struct {
	ID  string `json:"_id"`
	Rev string `json:"_rev,omitempty"`
	article.Article
}

func escapeTitle(in string) string {
	return strings.Replace(strings.Replace(in, "/", "%2f", -1),
		"+", "%2b", -1)
}

type loader struct {
	db  couch.Database
	log *zap.Logger
}

// resolveConflict keeps whichever of the stored document and d is
// newer.
func (l *loader) resolveConflict(d *doc) error {
	l.log.Debug("Resolving conflict", zap.String("id", d.ID))
	var prev doc
	if err := l.db.Retrieve(d.ID, &prev); err != nil {
		return errors.Wrapf(err, "retrieving existing %v", d.ID)
	}
	if prev.Rev == "" {
		return errors.Errorf("got no rev from %v", d.ID)
	}
	if d.RevInfo.Timestamp <= prev.RevInfo.Timestamp {
		return nil
	}
	l.log.Debug("Replacing older revision", zap.String("id", d.ID), zap.String("rev", prev.Rev))
	if _, err := l.db.EditWith(d, d.ID, prev.Rev); err != nil {
		return errors.Wrapf(err, "updating %v", d.ID)
	}
	return nil
}

func (l *loader) store(rev *wikihistory.Revision) error {
	d := &doc{ID: escapeTitle(rev.PrefixedTitle), Article: *article.FromRevision(rev)}
	_, _, err := l.db.Insert(d)
	httpe, isHTTPError := err.(*couch.HTTPError)
	switch {
	case err == nil:
		return nil
	case isHTTPError && httpe.Status == 409:
		return l.resolveConflict(d)
	default:
		return errors.Wrapf(err, "inserting %v", d.ID)
	}
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	env := cli.MustSetup()

	db, err := couch.Connect(*dburl)
	if err != nil {
		env.Log.Fatal("Error connecting to couchdb", zap.Error(err))
	}

	l := &loader{db: db, log: env.Log}
	cli.Run(env, *files, article.Latest(l.store))
}

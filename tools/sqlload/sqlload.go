// Load every revision of a wikipedia dump into a SQLite database.
package main

import (
	"database/sql"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"
	_ "modernc.org/sqlite"

	"github.com/dustin/go-wikihistory"
	"github.com/dustin/go-wikihistory/internal/cli"
)

var (
	app       = kingpin.New("sqlload", "Load the revisions of a wikipedia dump into SQLite.")
	dbpath    = app.Flag("db", "SQLite database to create or extend").Default("wikihistory.db").String()
	batchSize = app.Flag("batch", "Revisions per transaction").Default("5000").Int()
	files     = app.Arg("files", "A dump, or a multistream index and data file").
			Required().ExistingFiles()
)

const schema = `
create table if not exists sites (
	dbname text primary key,
	sitename text not null,
	base text not null
);
create table if not exists revisions (
	id integer primary key,
	parent_id integer,
	page_id integer not null,
	ns integer not null,
	title text not null,
	redirect text,
	timestamp text not null,
	contributor text,
	contributor_id integer,
	minor integer not null,
	comment text,
	model text not null,
	format text not null,
	sha1 text,
	text text not null
);
create index if not exists revisions_page on revisions (page_id, timestamp);
`

const insertRevision = `insert or replace into revisions
	(id, parent_id, page_id, ns, title, redirect, timestamp, contributor,
	 contributor_id, minor, comment, model, format, sha1, text)
	values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// sqlSink writes revisions in batched transactions.
type sqlSink struct {
	db      *sql.DB
	tx      *sql.Tx
	stmt    *sql.Stmt
	pending int
}

func (s *sqlSink) begin() error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	stmt, err := tx.Prepare(insertRevision)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "preparing insert")
	}
	s.tx, s.stmt, s.pending = tx, stmt, 0
	return nil
}

func (s *sqlSink) commit() error {
	if s.tx == nil {
		return nil
	}
	s.stmt.Close()
	err := s.tx.Commit()
	s.tx, s.stmt = nil, nil
	return errors.Wrap(err, "committing")
}

func (s *sqlSink) Start(site *wikihistory.SiteInfo) error {
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Wrap(err, "creating schema")
	}
	_, err := s.db.Exec(`insert or replace into sites (dbname, sitename, base) values (?, ?, ?)`,
		site.DBName, site.SiteName, site.Base)
	if err != nil {
		return errors.Wrap(err, "recording site")
	}
	return s.begin()
}

func (s *sqlSink) Revision(rev *wikihistory.Revision) error {
	_, err := s.stmt.Exec(rev.ID, rev.ParentID, rev.PageID, rev.Namespace,
		rev.PrefixedTitle, rev.Redirect, rev.Timestamp, rev.Contributor,
		rev.ContributorID, rev.Minor, rev.Comment, rev.Model, rev.Format,
		rev.SHA1, rev.Text)
	if err != nil {
		return errors.Wrapf(err, "inserting %v", rev)
	}
	s.pending++
	if s.pending >= *batchSize {
		if err := s.commit(); err != nil {
			return err
		}
		return s.begin()
	}
	return nil
}

func (s *sqlSink) Finish() error {
	return s.commit()
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	env := cli.MustSetup()

	db, err := sql.Open("sqlite", *dbpath)
	if err != nil {
		env.Log.Fatal("Error opening database", zap.String("path", *dbpath), zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	cli.Run(env, *files, &sqlSink{db: db})
}

// Load the latest revision of every page of a wikipedia dump into
// MongoDB.
package main

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/dustin/go-wikihistory"
	"github.com/dustin/go-wikihistory/internal/article"
	"github.com/dustin/go-wikihistory/internal/cli"
)

var (
	app        = kingpin.New("mgoload", "Load a wikipedia dump into MongoDB.")
	dburl      = app.Flag("dburl", "The dburl(s). I.e. localhost.").Default("localhost").String()
	dbname     = app.Flag("dbname", "The database name to use.").Default("wp").String()
	collection = app.Flag("collection", "The collection to store dumped articles in.").
			Default("articles").String()
	files = app.Arg("files", "A dump, or a multistream index and data file").
		Required().ExistingFiles()
)

// Titles are unique, being the URL path in mediawiki.
var titleIndex = mgo.Index{
	Key:        []string{"title"},
	Unique:     true,
	Background: true,
	Sparse:     true,
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	env := cli.MustSetup()

	session, err := mgo.Dial(*dburl)
	if err != nil {
		env.Log.Fatal("Error connecting to mongodb", zap.Error(err))
	}
	defer session.Close()

	c := session.DB(*dbname).C(*collection)
	if err := c.EnsureIndex(titleIndex); err != nil {
		env.Log.Fatal("Error creating title index", zap.Error(err))
	}

	cli.Run(env, *files, article.Latest(func(rev *wikihistory.Revision) error {
		a := article.FromRevision(rev)
		if _, err := c.Upsert(bson.M{"title": a.Title}, a); err != nil {
			return errors.Wrapf(err, "upserting %v", a.Title)
		}
		return nil
	}))
}

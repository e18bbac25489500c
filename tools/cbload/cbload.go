// Load the latest revision of every page of a wikipedia dump into
// Couchbase.
package main

import (
	"os"

	"github.com/couchbase/go-couchbase"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/dustin/go-wikihistory"
	"github.com/dustin/go-wikihistory/internal/article"
	"github.com/dustin/go-wikihistory/internal/cli"
)

var (
	app             = kingpin.New("cbload", "Load a wikipedia dump into Couchbase.")
	couchbaseServer = app.Flag("couchbase", "Couchbase URL").Default("http://localhost:8091/").String()
	couchbasePool   = app.Flag("pool", "Couchbase pool").Default("default").String()
	couchbaseBucket = app.Flag("bucket", "Couchbase bucket").Default("default").String()
	files           = app.Arg("files", "A dump, or a multistream index and data file").
			Required().ExistingFiles()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	env := cli.MustSetup()

	db, err := couchbase.GetBucket(*couchbaseServer, *couchbasePool, *couchbaseBucket)
	if err != nil {
		env.Log.Fatal("Error connecting to couchbase", zap.Error(err))
	}
	defer db.Close()

	cli.Run(env, *files, article.Latest(func(rev *wikihistory.Revision) error {
		a := article.FromRevision(rev)
		if err := db.Set(a.Title, 0, a); err != nil {
			return errors.Wrapf(err, "setting %v", a.Title)
		}
		return nil
	}))
}

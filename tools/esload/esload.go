// Load the latest revision of every page of a wikipedia dump into
// ElasticSearch.
package main

import (
	"os"

	"github.com/dustin/go-elasticsearch"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/dustin/go-wikihistory"
	"github.com/dustin/go-wikihistory/internal/article"
	"github.com/dustin/go-wikihistory/internal/cli"
)

var (
	app       = kingpin.New("esload", "Load a wikipedia dump into ElasticSearch.")
	esurl     = app.Flag("es", "ElasticSearch URL").Default("http://localhost:9200/").String()
	index     = app.Flag("index", "Index to load into").Default("wikipedia").String()
	batchSize = app.Flag("batch", "Updates per bulk request").Default("1000").Int()
	files     = app.Arg("files", "A dump, or a multistream index and data file").
			Required().ExistingFiles()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	env := cli.MustSetup()

	es := elasticsearch.ElasticSearch{URL: *esurl}
	bulk := es.Bulk()

	pending := 0
	latest := article.Latest(func(rev *wikihistory.Revision) error {
		a := article.FromRevision(rev)
		pending++
		if pending > *batchSize {
			bulk.SendBatch()
			pending = 0
		}
		bulk.Update(&elasticsearch.UpdateInstruction{
			Id:    a.Title,
			Index: *index,
			Type:  "article",
			Body: map[string]interface{}{
				"author":    a.RevInfo.Contributor,
				"text":      a.Text,
				"timestamp": a.RevInfo.Timestamp,
				"links":     a.Links,
				"files":     a.Files,
			},
		})
		return nil
	})

	cli.Run(env, *files, wikihistory.MultiSink{latest, wikihistory.SinkFuncs{
		OnFinish: func() error {
			bulk.Quit()
			return nil
		},
	}})
}

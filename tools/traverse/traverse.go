// Sample program that walks every revision of a dump, optionally
// looking for geo data along the way.
package main

import (
	"encoding/gob"
	"os"

	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/dustin/go-wikihistory"
	"github.com/dustin/go-wikihistory/internal/cli"
	"github.com/dustin/go-wikihistory/wikitext"
)

var (
	app         = kingpin.New("traverse", "Walk all the revisions in a wikipedia dump.")
	parseCoords = app.Flag("parseCoords", "Try to parse geo data while traversing").Bool()
	errorsFile  = app.Flag("errors", "Where to gob revisions with unparseable geo data").
			Default("errors.gob").String()
	files = app.Arg("files", "A dump, or a multistream index and data file").
		Required().ExistingFiles()
)

type coordChecker struct {
	log *zap.Logger
	f   *os.File
	enc *gob.Encoder
}

func (c *coordChecker) Start(*wikihistory.SiteInfo) error {
	f, err := os.Create(*errorsFile)
	if err != nil {
		return err
	}
	c.f = f
	c.enc = gob.NewEncoder(f)
	return nil
}

func (c *coordChecker) Revision(rev *wikihistory.Revision) error {
	_, err := wikitext.ParseCoords(rev.Text)
	if err == nil || err == wikitext.ErrNoCoords {
		return nil
	}
	c.log.Warn("Error parsing geo", zap.Stringer("rev", rev), zap.Error(err))
	return c.enc.Encode(rev)
}

func (c *coordChecker) Finish() error {
	return c.f.Close()
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	env := cli.MustSetup()

	counter := &wikihistory.Counter{}
	sinks := wikihistory.MultiSink{counter}
	if *parseCoords {
		sinks = append(sinks, &coordChecker{log: env.Log})
	}

	cli.Run(env, *files, sinks)
	env.Log.Info("Traversed dump",
		zap.String("site", counter.Site.SiteName),
		zap.Int64("pages", counter.Pages),
		zap.Int64("revisions", counter.Revisions),
		zap.Int64("textBytes", counter.TextBytes))
}

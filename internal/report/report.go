// Package report logs how a dump run is progressing.
package report

import (
	"io"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/dustin/go-wikihistory"
)

// A Reporter is a sink logging progress every so many revisions
// before passing everything on.
type Reporter struct {
	next  wikihistory.RevisionSink
	log   *zap.Logger
	every int64
	bar   *pb.ProgressBar
	now   func() time.Time

	start, prev time.Time
	revisions   int64
	pages       int64
	textBytes   uint64
	lastPage    int
}

// New gets a Reporter logging to log every `every` revisions.
func New(next wikihistory.RevisionSink, log *zap.Logger, every int64) *Reporter {
	if every <= 0 {
		every = 10000
	}
	return &Reporter{next: next, log: log, every: every, now: time.Now}
}

// ShowBar additionally draws a progress bar on w, counting revisions
// up to total (0 if unknown).
func (r *Reporter) ShowBar(w io.Writer, total int64) {
	r.bar = pb.New64(total)
	r.bar.Output = w
	r.bar.ShowSpeed = true
	if total <= 0 {
		r.bar.ShowPercent = false
		r.bar.ShowBar = false
		r.bar.ShowTimeLeft = false
	}
}

func (r *Reporter) Start(site *wikihistory.SiteInfo) error {
	r.start = r.now()
	r.prev = r.start
	r.log.Info("Got site info",
		zap.String("site", site.SiteName),
		zap.String("db", site.DBName),
		zap.String("base", site.Base),
		zap.String("generator", site.Generator),
		zap.Int("namespaces", len(site.Namespaces)))
	if r.bar != nil {
		r.bar.Start()
	}
	return r.next.Start(site)
}

func (r *Reporter) Revision(rev *wikihistory.Revision) error {
	if r.revisions == 0 || rev.PageID != r.lastPage {
		r.pages++
		r.lastPage = rev.PageID
	}
	r.revisions++
	r.textBytes += uint64(len(rev.Text))
	if r.bar != nil {
		r.bar.Increment()
	}
	if r.revisions%r.every == 0 {
		now := r.now()
		d := now.Sub(r.prev)
		r.log.Info("Processed "+humanize.Comma(r.revisions)+" revisions total",
			zap.String("pages", humanize.Comma(r.pages)),
			zap.String("rate", humanize.CommafWithDigits(float64(r.every)/d.Seconds(), 2)+"/s"),
			zap.String("text", humanize.Bytes(r.textBytes)))
		r.prev = now
	}
	return r.next.Revision(rev)
}

func (r *Reporter) Finish() error {
	if r.bar != nil {
		r.bar.Finish()
	}
	d := r.now().Sub(r.start)
	r.log.Info("Ended after "+d.String(),
		zap.String("pages", humanize.Comma(r.pages)),
		zap.String("revisions", humanize.Comma(r.revisions)),
		zap.String("text", humanize.Bytes(r.textBytes)),
		zap.Float64("revisionsPerSecond", float64(r.revisions)/d.Seconds()))
	return r.next.Finish()
}

// Revisions is how many revisions went by.
func (r *Reporter) Revisions() int64 {
	return r.revisions
}

// Package metrics exports what a dump run has seen as Prometheus
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dustin/go-wikihistory"
)

// Metrics holds the dump counters.
type Metrics struct {
	Pages                prometheus.Counter
	Revisions            prometheus.Counter
	TextBytes            prometheus.Counter
	RedirectRevisions    prometheus.Counter
	RedactedContributors prometheus.Counter
	Namespaces           prometheus.Gauge
	Finished             prometheus.Gauge
}

// New registers the dump metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Pages: f.NewCounter(prometheus.CounterOpts{
			Name: "wikihistory_pages_total",
			Help: "Total number of page blocks seen",
		}),
		Revisions: f.NewCounter(prometheus.CounterOpts{
			Name: "wikihistory_revisions_total",
			Help: "Total number of revisions parsed",
		}),
		TextBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "wikihistory_text_bytes_total",
			Help: "Total size of revision text, unescaped",
		}),
		RedirectRevisions: f.NewCounter(prometheus.CounterOpts{
			Name: "wikihistory_redirect_revisions_total",
			Help: "Revisions of pages declaring a redirect",
		}),
		RedactedContributors: f.NewCounter(prometheus.CounterOpts{
			Name: "wikihistory_redacted_contributors_total",
			Help: "Revisions whose contributor was redacted",
		}),
		Namespaces: f.NewGauge(prometheus.GaugeOpts{
			Name: "wikihistory_namespaces",
			Help: "Number of namespaces declared by the site info",
		}),
		Finished: f.NewGauge(prometheus.GaugeOpts{
			Name: "wikihistory_finished",
			Help: "1 once the dump was processed completely",
		}),
	}
}

// Wrap gets a sink that counts everything before passing it on.
func (m *Metrics) Wrap(next wikihistory.RevisionSink) wikihistory.RevisionSink {
	return &sink{m: m, next: next}
}

type sink struct {
	m        *Metrics
	next     wikihistory.RevisionSink
	lastPage int
	started  bool
}

func (s *sink) Start(site *wikihistory.SiteInfo) error {
	s.m.Namespaces.Set(float64(len(site.Namespaces)))
	s.m.Finished.Set(0)
	return s.next.Start(site)
}

func (s *sink) Revision(rev *wikihistory.Revision) error {
	if !s.started || rev.PageID != s.lastPage {
		s.m.Pages.Inc()
		s.lastPage = rev.PageID
		s.started = true
	}
	s.m.Revisions.Inc()
	s.m.TextBytes.Add(float64(len(rev.Text)))
	if rev.IsRedirect() {
		s.m.RedirectRevisions.Inc()
	}
	if rev.Contributor == nil {
		s.m.RedactedContributors.Inc()
	}
	return s.next.Revision(rev)
}

func (s *sink) Finish() error {
	if err := s.next.Finish(); err != nil {
		return err
	}
	s.m.Finished.Set(1)
	return nil
}

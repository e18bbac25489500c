package wikihistory

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// A RevisionSink consumes the output of a parse.
//
// Start is called exactly once before any revision, Revision once per
// parsed revision in dump order, and Finish once after the last
// revision, only if nothing failed.  Revisions belong to the sink
// once handed over.  Returning an error aborts the parse.
type RevisionSink interface {
	Start(site *SiteInfo) error
	Revision(rev *Revision) error
	Finish() error
}

// SinkFuncs adapts plain functions to a RevisionSink.  Nil functions
// are skipped.
type SinkFuncs struct {
	OnStart    func(site *SiteInfo) error
	OnRevision func(rev *Revision) error
	OnFinish   func() error
}

func (s SinkFuncs) Start(site *SiteInfo) error {
	if s.OnStart == nil {
		return nil
	}
	return s.OnStart(site)
}

func (s SinkFuncs) Revision(rev *Revision) error {
	if s.OnRevision == nil {
		return nil
	}
	return s.OnRevision(rev)
}

func (s SinkFuncs) Finish() error {
	if s.OnFinish == nil {
		return nil
	}
	return s.OnFinish()
}

// MultiSink hands everything to each of its sinks in turn.  The first
// failing sink stops the revision from reaching the rest.
type MultiSink []RevisionSink

func (m MultiSink) Start(site *SiteInfo) error {
	for _, s := range m {
		if err := s.Start(site); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Revision(rev *Revision) error {
	for _, s := range m {
		if err := s.Revision(rev); err != nil {
			return err
		}
	}
	return nil
}

// Finish finishes every sink, even when some fail.
func (m MultiSink) Finish() error {
	var err error
	for i, s := range m {
		if e := s.Finish(); e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "sink %d", i))
		}
	}
	return err
}

// Counter is a sink tallying what went by.
type Counter struct {
	Site      *SiteInfo
	Pages     int64
	Revisions int64
	TextBytes int64
	Finished  bool

	lastPage int
	started  bool
}

func (c *Counter) Start(site *SiteInfo) error {
	c.Site = site
	return nil
}

func (c *Counter) Revision(rev *Revision) error {
	if !c.started || rev.PageID != c.lastPage {
		c.Pages++
		c.lastPage = rev.PageID
		c.started = true
	}
	c.Revisions++
	c.TextBytes += int64(len(rev.Text))
	return nil
}

func (c *Counter) Finish() error {
	c.Finished = true
	return nil
}

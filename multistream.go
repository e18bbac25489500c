package wikihistory

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type span struct {
	IndexChunk
	length int64
	// Only the final stream may close the document.
	final bool
}

type chunkResult struct {
	revs []*Revision
	err  error
}

// ProcessMultistream parses a multistream dump into sink, decoding
// its streams in parallel (see WithWorkers).  The sink is only called
// from the calling goroutine, and in index order.
//
// indexPath is decompressed according to its extension like OpenDump
// does.  The streams of dataPath are bzip2 unless WithChunkDecoder
// says otherwise.
func ProcessMultistream(ctx context.Context, indexPath, dataPath string,
	sink RevisionSink, opts ...Option) error {

	o := newOptions(opts)

	idx, err := openDump(ctx, indexPath, o)
	if err != nil {
		return err
	}
	defer idx.Close()

	data, err := os.Open(dataPath)
	if err != nil {
		return errors.Wrap(err, "opening multistream data")
	}
	defer data.Close()
	fi, err := data.Stat()
	if err != nil {
		return errors.Wrap(err, "opening multistream data")
	}

	o.logger.Info("Processing multistream dump",
		zap.String("index", indexPath),
		zap.String("data", dataPath),
		zap.Int("workers", o.workers))
	return processMultistream(ctx, idx, data, fi.Size(), sink, o)
}

func processMultistream(ctx context.Context, index io.Reader, data io.ReaderAt,
	size int64, sink RevisionSink, o *options) error {

	spans, err := readSpans(index, size)
	if err != nil {
		return errors.Wrap(err, "reading multistream index")
	}

	// Everything before the first indexed stream is the document
	// header with the site info.
	headLen := size
	if len(spans) > 0 {
		headLen = spans[0].Offset
	}
	head, err := o.chunkDecoder(io.NewSectionReader(data, 0, headLen))
	if err != nil {
		return &DecompressionError{Message: err.Error()}
	}
	p, err := NewParser(&decodingReader{ctx: ctx, r: head})
	if err != nil {
		return err
	}
	if len(spans) == 0 {
		return p.Process(sink)
	}
	site := p.SiteInfo()

	if err := sink.Start(site); err != nil {
		return errors.Wrap(err, "starting sink")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	pending := make(chan chan chunkResult, o.workers)
	go func() {
		defer close(pending)
		for _, sp := range spans {
			sp := sp
			ch := make(chan chunkResult, 1)
			select {
			case pending <- ch:
			case <-gctx.Done():
				return
			}
			g.Go(func() error {
				revs, err := decodeSpan(gctx, data, sp, site, o)
				ch <- chunkResult{revs, err}
				return err
			})
		}
	}()

	err = deliver(pending, sink)
	if err != nil {
		cancel()
		for range pending {
		}
	}
	// A stream failing cancels the others, which may then be what
	// deliver saw first.
	if werr := g.Wait(); werr != nil && (err == nil || errors.Is(err, context.Canceled)) {
		err = werr
	}
	if err != nil {
		return err
	}
	if err := sink.Finish(); err != nil {
		return errors.Wrap(err, "finishing sink")
	}
	return nil
}

func deliver(pending <-chan chan chunkResult, sink RevisionSink) error {
	for ch := range pending {
		res := <-ch
		if res.err != nil {
			return res.err
		}
		for _, rev := range res.revs {
			if err := sink.Revision(rev); err != nil {
				return errors.Wrapf(err, "sink failed on revision %d", rev.ID)
			}
		}
	}
	return nil
}

func readSpans(index io.Reader, size int64) ([]span, error) {
	var spans []span
	isr := NewIndexSummaryReader(index)
	for {
		c, err := isr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n := len(spans); n > 0 {
			if c.Offset <= spans[n-1].Offset {
				return nil, errors.Errorf("stream offset %d follows %d",
					c.Offset, spans[n-1].Offset)
			}
			spans[n-1].length = c.Offset - spans[n-1].Offset
		}
		spans = append(spans, span{IndexChunk: c})
	}
	if n := len(spans); n > 0 {
		last := &spans[n-1]
		if last.Offset >= size {
			return nil, errors.Errorf("stream offset %d is past the end of the data (%d bytes)",
				last.Offset, size)
		}
		last.length = size - last.Offset
		last.final = true
	}
	return spans, nil
}

func decodeSpan(ctx context.Context, data io.ReaderAt, sp span,
	site *SiteInfo, o *options) ([]*Revision, error) {

	r, err := o.chunkDecoder(io.NewSectionReader(data, sp.Offset, sp.length))
	if err != nil {
		return nil, &DecompressionError{Message: err.Error()}
	}
	p := newFragmentParser(&decodingReader{ctx: ctx, r: r}, site, sp.final)

	var revs []*Revision
	for {
		rev, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "stream at offset %d", sp.Offset)
		}
		revs = append(revs, rev)
	}
	if err := p.ExpectEnd(); err != nil {
		return nil, errors.Wrapf(err, "stream at offset %d", sp.Offset)
	}
	if p.Pages() != int64(sp.Pages) {
		return nil, errors.Errorf("stream at offset %d: index lists %d pages, found %d",
			sp.Offset, sp.Pages, p.Pages())
	}
	return revs, nil
}

package wikihistory

import (
	"compress/bzip2"
	"io"
	"runtime"

	"go.uber.org/zap"
)

// An Option configures ProcessDumpFile, OpenDump and
// ProcessMultistream.
type Option func(*options)

type options struct {
	logger       *zap.Logger
	sevenZip     SevenZip
	workers      int
	chunkDecoder func(io.Reader) (io.Reader, error)
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:  zap.NewNop(),
		workers: runtime.GOMAXPROCS(0),
		chunkDecoder: func(r io.Reader) (io.Reader, error) {
			return bzip2.NewReader(r), nil
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.sevenZip.Logger == nil {
		o.sevenZip.Logger = o.logger
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}

// WithLogger logs through l instead of discarding everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSevenZip sets how .7z archives get decompressed.
func WithSevenZip(z SevenZip) Option {
	return func(o *options) {
		o.sevenZip = z
	}
}

// WithWorkers sets how many multistream chunks are decoded at once.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithChunkDecoder replaces the bzip2 decoding of multistream chunks.
func WithChunkDecoder(f func(io.Reader) (io.Reader, error)) Option {
	return func(o *options) {
		o.chunkDecoder = f
	}
}

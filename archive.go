package wikihistory

import (
	"bufio"
	"compress/bzip2"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// OpenDump opens a dump for reading, picking the decompression from
// the file extension: .7z goes through 7z (see SevenZip), .bz2, .gz
// and .zst are decoded in process, and anything else is read as is.
func OpenDump(ctx context.Context, path string, opts ...Option) (io.ReadCloser, error) {
	return openDump(ctx, path, newOptions(opts))
}

func openDump(ctx context.Context, path string, o *options) (io.ReadCloser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".7z" {
		return o.sevenZip.Open(ctx, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &DecompressionError{Message: err.Error()}
	}
	br := bufio.NewReaderSize(f, 1<<16)
	rc := &decodingReader{ctx: ctx, r: br, close: f.Close}

	switch ext {
	case ".bz2":
		rc.r = bzip2.NewReader(br)
	case ".gz":
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, &DecompressionError{Message: err.Error()}
		}
		rc.r = gz
		rc.close = func() error {
			return multierr.Append(gz.Close(), f.Close())
		}
	case ".zst":
		zr, err := zstd.NewReader(br)
		if err != nil {
			f.Close()
			return nil, &DecompressionError{Message: err.Error()}
		}
		rc.r = zr
		rc.close = func() error {
			zr.Close()
			return f.Close()
		}
	}
	return rc, nil
}

// decodingReader stops at context cancellation and reports decoder
// failures as decompression errors.
type decodingReader struct {
	ctx   context.Context
	r     io.Reader
	close func() error
}

func (d *decodingReader) Read(p []byte) (int, error) {
	if err := d.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := d.r.Read(p)
	if err != nil && err != io.EOF {
		err = &DecompressionError{Message: err.Error()}
	}
	return n, err
}

func (d *decodingReader) Close() error {
	if err := d.close(); err != nil {
		return err
	}
	return d.ctx.Err()
}

// ProcessDumpFile parses the dump at path into sink.
//
// The decompressor is always shut down and reaped before this
// returns.  Errors from parsing and from decompression are combined,
// so check them with errors.Is and errors.As.
func ProcessDumpFile(ctx context.Context, path string, sink RevisionSink, opts ...Option) error {
	o := newOptions(opts)
	r, err := openDump(ctx, path, o)
	if err != nil {
		return err
	}
	o.logger.Info("Processing dump", zap.String("path", path))

	perr := Process(r, sink)
	if perr != nil {
		perr = errors.Wrapf(perr, "processing %s", filepath.Base(path))
	}
	return multierr.Append(perr, r.Close())
}

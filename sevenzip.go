package wikihistory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SevenZip runs the 7z utility to decompress archives.  7z
// decompresses much faster than the Go bzip2 reader, which is why
// history dumps are best fetched as .7z.
type SevenZip struct {
	// Command defaults to "7z", looked up in $PATH.
	Command string
	// Args go before the archive path.  Defaults to "x -so", which
	// extracts to stdout.
	Args   []string
	Logger *zap.Logger
}

var defaultSevenZipArgs = []string{"x", "-so"}

// How long a dead decompressor's pipes may stay open before they're
// closed from our end.
const pipeWaitDelay = 5 * time.Second

// Cap on the diagnostics kept for the error message.  The rest is
// still read and thrown away.
const maxDiagnostics = 64 << 10

// A Stream is the decompressed output of a running 7z.
type Stream struct {
	ctx     context.Context
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	diag    *diagnostics
	log     *zap.Logger
	archive string

	eof    bool
	closed bool
	err    error
}

// Open starts decompressing archive, or just the named members of it.
//
// The caller must Close the stream, which reaps the process and
// reports whether decompression actually succeeded.
func (z SevenZip) Open(ctx context.Context, archive string, members ...string) (*Stream, error) {
	log := z.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := os.Stat(archive); err != nil {
		return nil, &DecompressionError{Message: err.Error()}
	}

	command := z.Command
	if command == "" {
		command = "7z"
	}
	args := z.Args
	if args == nil {
		args = defaultSevenZipArgs
	}
	argv := make([]string, 0, len(args)+1+len(members))
	argv = append(argv, args...)
	argv = append(argv, archive)
	argv = append(argv, members...)

	cmd := exec.CommandContext(ctx, command, argv...)
	cmd.WaitDelay = pipeWaitDelay
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &DecompressionError{Message: err.Error()}
	}
	diag := &diagnostics{}
	cmd.Stderr = diag
	if err := cmd.Start(); err != nil {
		return nil, &DecompressionError{
			Message: fmt.Sprintf("starting %s: %v", command, err),
		}
	}
	log.Debug("Started decompressor",
		zap.String("command", command),
		zap.Strings("args", argv),
		zap.Int("pid", cmd.Process.Pid))

	s := &Stream{
		ctx:     ctx,
		cmd:     cmd,
		stdout:  stdout,
		diag:    diag,
		log:     log,
		archive: archive,
	}
	return s, nil
}

// diagnostics collects the non-blank lines a decompressor writes to
// stderr.  exec keeps copying into it for the whole life of the
// process, so stderr never fills up.
type diagnostics struct {
	b       strings.Builder
	partial []byte
}

func (d *diagnostics) Write(p []byte) (int, error) {
	d.partial = append(d.partial, p...)
	start := 0
	for {
		i := bytes.IndexByte(d.partial[start:], '\n')
		if i < 0 {
			break
		}
		d.add(d.partial[start : start+i])
		start += i + 1
	}
	d.partial = append(d.partial[:0], d.partial[start:]...)
	if len(d.partial) > maxDiagnostics {
		d.add(d.partial)
		d.partial = d.partial[:0]
	}
	return len(p), nil
}

func (d *diagnostics) add(line []byte) {
	l := strings.TrimSpace(string(line))
	if l == "" || d.b.Len() >= maxDiagnostics {
		return
	}
	if d.b.Len() > 0 {
		d.b.WriteByte(' ')
	}
	d.b.WriteString(truncate(l, maxDiagnostics-d.b.Len()))
}

func (d *diagnostics) String() string {
	d.add(d.partial)
	d.partial = nil
	return d.b.String()
}

func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if err == io.EOF {
		s.eof = true
	}
	return n, err
}

// Close waits for the decompressor to exit.
//
// When the output was read to the end, a non-zero exit status or
// anything written to stderr is a *DecompressionError.  When it
// wasn't, the process is killed first and only its diagnostics, if
// any, are reported.  A cancelled context reports the context's
// error.
func (s *Stream) Close() error {
	if s.closed {
		return s.err
	}
	s.closed = true
	s.err = s.close()
	return s.err
}

func (s *Stream) close() error {
	if !s.eof {
		// Anything else still writing to stdout gets EPIPE.
		s.stdout.Close()
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.log.Warn("Error killing decompressor", zap.Error(err))
		}
	}

	werr := s.cmd.Wait()
	diag := s.diag.String()

	exitCode := 0
	if werr != nil {
		var ee *exec.ExitError
		if !errors.As(werr, &ee) {
			if err := s.ctx.Err(); err != nil {
				return err
			}
			return &DecompressionError{Message: werr.Error()}
		}
		exitCode = ee.ExitCode()
	}
	s.log.Debug("Decompressor exited",
		zap.String("archive", s.archive),
		zap.Int("status", exitCode),
		zap.Bool("consumed", s.eof))

	if err := s.ctx.Err(); err != nil {
		return err
	}
	if !s.eof {
		if diag != "" {
			return &DecompressionError{Message: diag}
		}
		return nil
	}
	if exitCode != 0 || diag != "" {
		if diag == "" {
			diag = fmt.Sprintf("%s exited with status %d",
				s.cmd.Path, exitCode)
		}
		return &DecompressionError{Message: diag, ExitCode: exitCode}
	}
	return nil
}

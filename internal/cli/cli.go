// Package cli holds what the tools under tools/ share: settings,
// logging, signal handling, and picking how a dump gets read.
package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dustin/go-wikihistory"
	"github.com/dustin/go-wikihistory/internal/config"
	"github.com/dustin/go-wikihistory/internal/logging"
	"github.com/dustin/go-wikihistory/internal/metrics"
	"github.com/dustin/go-wikihistory/internal/report"
)

// Env is the loaded settings and logger of a tool.
type Env struct {
	Config *config.Config
	Log    *zap.Logger
}

// Setup loads the settings and builds the logger.
func Setup() (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Logging())
	if err != nil {
		return nil, err
	}
	return &Env{Config: cfg, Log: log}, nil
}

// MustSetup is Setup, exiting on failure.
func MustSetup() *Env {
	env, err := Setup()
	if err != nil {
		os.Stderr.WriteString("Error setting up: " + err.Error() + "\n")
		os.Exit(1)
	}
	return env
}

// Options gets the library options the settings ask for.
func (e *Env) Options() []wikihistory.Option {
	return []wikihistory.Option{
		wikihistory.WithLogger(e.Log),
		wikihistory.WithSevenZip(wikihistory.SevenZip{Command: e.Config.SevenZip}),
		wikihistory.WithWorkers(e.Config.Workers),
	}
}

// Wrap decorates sink with progress reporting, plus metrics when a
// metrics address is configured.
func (e *Env) Wrap(sink wikihistory.RevisionSink) (wikihistory.RevisionSink, error) {
	if e.Config.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		sink = metrics.New(reg).Wrap(sink)
		if err := e.serveMetrics(reg); err != nil {
			return nil, err
		}
	}
	return report.New(sink, e.Log, e.Config.ReportEvery), nil
}

func (e *Env) serveMetrics(reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: e.Config.MetricsAddr, Handler: mux}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %v", srv.Addr)
	}
	e.Log.Info("Serving metrics", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			e.Log.Warn("Metrics server failed", zap.Error(err))
		}
	}()
	return nil
}

// Process feeds sink from a single dump file, or from a multistream
// index and data file pair.
func (e *Env) Process(ctx context.Context, files []string, sink wikihistory.RevisionSink) error {
	sink, err := e.Wrap(sink)
	if err != nil {
		return err
	}
	switch len(files) {
	case 1:
		return wikihistory.ProcessDumpFile(ctx, files[0], sink, e.Options()...)
	case 2:
		return wikihistory.ProcessMultistream(ctx, files[0], files[1], sink, e.Options()...)
	default:
		return errors.Errorf("need either a single dump, or index and multistream (got %d files)", len(files))
	}
}

// Context is cancelled on SIGINT or SIGTERM.
func Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Run sets up, processes files into sink, and exits non-zero on
// failure.
func Run(env *Env, files []string, sink wikihistory.RevisionSink) {
	ctx, cancel := Context()
	defer cancel()
	defer env.Log.Sync()

	if err := env.Process(ctx, files, sink); err != nil {
		env.Log.Error("Processing failed", zap.Strings("files", files), zap.Error(err))
		env.Log.Sync()
		os.Exit(1)
	}
}

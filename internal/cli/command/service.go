package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/chgrid-go/internal/channel"
	"github.com/yndnr/chgrid-go/internal/config"
	"github.com/yndnr/chgrid-go/internal/infra/confloader"
	"github.com/yndnr/chgrid-go/internal/infra/shutdown"
	"github.com/yndnr/chgrid-go/internal/server/httpserver"
	"github.com/yndnr/chgrid-go/internal/storage"
	"github.com/yndnr/chgrid-go/internal/telemetry/logger"
	"github.com/yndnr/chgrid-go/internal/telemetry/metric"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

// service is one running chgrid instance.
type service struct {
	mu  sync.Mutex
	cfg *config.Config
	log logger.Logger

	table    *grid.Table[channel.State]
	observer *logger.GridObserver
	metrics  *metric.Registry
	store    *storage.Store
	poller   *channel.Poller
	http     *httpserver.Server
	local    *httpserver.Server
	restored *storage.Checkpoint
}

// newService builds the grid and everything attached to it. The checkpoint,
// if any, is restored while the grid is initialized.
func newService(cfg *config.Config, log logger.Logger) (*service, error) {
	s := &service{
		cfg:      cfg,
		log:      log,
		observer: logger.NewGridObserver(log, cfg.Diagnostics),
		metrics:  metric.NewRegistry(),
	}

	if cfg.Storage.Enabled() {
		store, err := storage.Open(cfg.Storage, log)
		if err != nil {
			return nil, fmt.Errorf("open checkpoint store: %w", err)
		}
		s.store = store.RegisterMetrics(s.metrics.Registerer())
	}

	opts := []grid.Option{grid.WithObserver(grid.Observers{s.observer, s.metrics})}
	if !cfg.Grid.Locking {
		opts = append(opts, grid.WithLockingDisabled())
	}
	if _, err := channel.NewGrid(cfg.Layout, grid.KeyCount(cfg.Grid.Keys), s.seed, opts...); err != nil {
		s.closeStore()
		return nil, err
	}

	poller, err := channel.NewPoller(s.table, cfg.Layout, cfg.Poller, nil, log)
	if err != nil {
		s.closeStore()
		return nil, err
	}
	s.poller = poller.WithRecorder(s.metrics)

	if cfg.HTTP.Enabled || cfg.HTTP.Socket != "" {
		router := httpserver.NewRouter(&httpserver.RouterConfig{
			Table:       s.table,
			Layout:      cfg.Layout,
			Diagnostics: s.observer,
			Metrics:     s.metrics.Handler(),
			Timeout:     cfg.Access.DefaultTimeout,
			RateLimit:   cfg.HTTP.RateLimit,
			Logger:      log.With("component", "http"),
		})
		if cfg.HTTP.Enabled {
			s.http = httpserver.New(cfg.HTTP.Addr, router)
		}
		if cfg.HTTP.Socket != "" {
			s.local = httpserver.NewUnix(cfg.HTTP.Socket, router)
		}
	}
	return s, nil
}

// seed runs inside grid.Init: restore the checkpoint when one fits the
// layout, otherwise open every channel at the configured baud.
func (s *service) seed(g *grid.Grid) error {
	table, err := grid.NewTable[channel.State](g, channel.StateCodec{})
	if err != nil {
		return err
	}
	s.table = table

	if s.store != nil {
		cp, err := s.store.Restore(g)
		switch {
		case err == nil:
			s.restored = &cp
			return nil
		case errors.Is(err, storage.ErrNoCheckpoint):
			s.log.Info("no checkpoint found, starting fresh")
		case errors.Is(err, storage.ErrGeometryMismatch):
			s.log.Warn("checkpoint does not fit the layout, starting fresh", "error", err)
		default:
			return fmt.Errorf("restore checkpoint: %w", err)
		}
	}

	table.Seed(channel.OpenSeed(s.cfg.Grid.SeedBaud))
	return nil
}

// start launches the background tasks and registers their shutdown hooks.
// Hooks run in reverse: stop serving, stop tasks, save, close the store.
func (s *service) start(ctx context.Context, sd *shutdown.Handler) error {
	for i, srv := range s.servers() {
		if err := srv.Listen(); err != nil {
			for _, prev := range s.servers()[:i] {
				prev.Shutdown(ctx)
			}
			s.closeStore()
			return fmt.Errorf("listen %s: %w", srv.Addr(), err)
		}
	}

	if s.store != nil {
		sd.OnShutdown("checkpoint store", func(context.Context) error {
			return s.store.Close()
		})
		runID := logger.RunIDFromContext(ctx)
		sd.OnShutdown("final checkpoint", func(hookCtx context.Context) error {
			hookCtx = logger.WithRunID(hookCtx, runID)
			cp, err := s.store.Save(hookCtx, s.table.Grid(), s.cfg.Access.DefaultTimeout)
			if err == nil {
				s.log.Info("final checkpoint saved", "checkpoint", cp.ID, "records", cp.Records)
			}
			return err
		})
	}

	taskCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(taskCtx)
	background := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			err := fn(grid.WithTask(gctx, name))
			if err != nil && taskCtx.Err() == nil {
				s.log.Error("background task failed", "task", name, "error", err)
				sd.Trigger(name + " failed")
			}
			return err
		})
	}

	background("poller", s.poller.Run)
	if s.store != nil {
		background("checkpoint", func(ctx context.Context) error {
			return s.store.Run(ctx, s.table.Grid(), s.cfg.Access.DefaultTimeout)
		})
	}
	sd.OnShutdown("background tasks", func(context.Context) error {
		cancel()
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	for _, srv := range s.servers() {
		background("http "+srv.Addr(), func(context.Context) error { return srv.Serve() })
		sd.OnShutdown("http server "+srv.Addr(), srv.Shutdown)
		s.log.Info("admin endpoint listening", "addr", srv.Addr())
	}
	return nil
}

// servers returns the configured admin listeners.
func (s *service) servers() []*httpserver.Server {
	var out []*httpserver.Server
	if s.http != nil {
		out = append(out, s.http)
	}
	if s.local != nil {
		out = append(out, s.local)
	}
	return out
}

// watch reloads the runtime-adjustable settings whenever the configuration
// file changes.
func (s *service) watch(loader *confloader.Loader, sd *shutdown.Handler) error {
	if loader.FilePath() == "" {
		return nil
	}
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(s.log))
	if err != nil {
		return err
	}
	if err := w.Watch(loader.FilePath()); err != nil {
		w.Stop()
		return err
	}
	w.OnChange(func(string) { s.reload(loader) })
	w.StartAsync()
	sd.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
	return nil
}

// reload applies the reloadable sections of a fresh load. Other changes
// are reported and left for the next restart.
func (s *service) reload(loader *confloader.Loader) {
	next := config.Default()
	if err := loader.Load(next); err != nil {
		s.log.Warn("configuration reload failed", "error", err)
		return
	}
	if err := config.Verify(next); err != nil {
		s.log.Warn("reloaded configuration is invalid, keeping current", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, section := range config.Changed(s.cfg, next) {
		if !config.IsReloadable(section) {
			s.log.Warn("configuration change requires a restart", "section", section)
			continue
		}
		switch section {
		case "diagnostics":
			s.observer.SetDiagnostics(next.Diagnostics)
			s.cfg.Diagnostics = next.Diagnostics
		case "log.level":
			logger.SetLevel(next.Log.Level)
			s.cfg.Log.Level = next.Log.Level
		}
		s.log.Info("configuration reloaded", "section", section)
	}
}

func (s *service) closeStore() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn("close checkpoint store", "error", err)
	}
}

// summary reads the grid for the shutdown log line.
func (s *service) summary(ctx context.Context, timeout time.Duration) (channel.Summary, error) {
	return channel.Summarize(ctx, s.table, s.cfg.Layout, timeout)
}

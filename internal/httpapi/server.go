package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/riichinakano/forest-zaim-app/internal/analysis"
	"github.com/riichinakano/forest-zaim-app/internal/auditlog"
	"github.com/riichinakano/forest-zaim-app/internal/ledger"
	"github.com/riichinakano/forest-zaim-app/internal/logging"
	"github.com/riichinakano/forest-zaim-app/internal/metrics"
	"github.com/riichinakano/forest-zaim-app/internal/model"
)

var (
	// ErrUnknownStatement is returned for a statement the server was not
	// configured with.
	ErrUnknownStatement = errors.New("unknown statement")
	// ErrNotLoaded is returned when a statement has no snapshot yet.
	ErrNotLoaded = errors.New("snapshot not loaded")
)

const (
	reloadTimeout   = 2 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// Params groups the server's dependencies. Audit and Metrics are optional.
type Params struct {
	Loader             *ledger.Loader
	Sources            []ledger.Source
	Engine             *analysis.Engine
	Audit              *auditlog.Log
	Metrics            *metrics.Metrics
	Logger             *slog.Logger
	RateLimitPerMinute int
}

// Server holds the current snapshots and answers API requests. Each
// statement's snapshot is immutable; reloads swap in a fresh one, so a request
// sees one consistent snapshot from start to finish.
type Server struct {
	loader    *ledger.Loader
	sources   map[model.Statement]ledger.Source
	snapshots map[model.Statement]*atomic.Pointer[ledger.Snapshot]
	engine    *analysis.Engine
	audit     *auditlog.Log
	metrics   *metrics.Metrics
	logger    *slog.Logger
	rateLimit int
	reloads   singleflight.Group
}

// New creates a Server. No snapshot is loaded until LoadAll or Reload.
func New(p Params) *Server {
	s := &Server{
		loader:    p.Loader,
		sources:   make(map[model.Statement]ledger.Source, len(p.Sources)),
		snapshots: make(map[model.Statement]*atomic.Pointer[ledger.Snapshot], len(p.Sources)),
		engine:    p.Engine,
		audit:     p.Audit,
		metrics:   p.Metrics,
		logger:    logging.Component(p.Logger, logging.ComponentHTTP),
		rateLimit: p.RateLimitPerMinute,
	}
	for _, src := range p.Sources {
		s.sources[src.Statement] = src
		s.snapshots[src.Statement] = new(atomic.Pointer[ledger.Snapshot])
	}
	return s
}

// Snapshot returns the current snapshot for st.
func (s *Server) Snapshot(st model.Statement) (*ledger.Snapshot, error) {
	ptr, ok := s.snapshots[st]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownStatement, st)
	}
	snap := ptr.Load()
	if snap == nil {
		return nil, fmt.Errorf("%w for %s", ErrNotLoaded, st)
	}
	return snap, nil
}

// Reload loads st from disk and swaps the new snapshot in. Concurrent reloads
// of the same statement share one load, which runs to completion under
// reloadTimeout even if the caller that started it goes away. On failure the
// previous snapshot stays in place.
func (s *Server) Reload(ctx context.Context, st model.Statement) (*ledger.Snapshot, error) {
	src, ok := s.sources[st]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownStatement, st)
	}
	ch := s.reloads.DoChan(string(st), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reloadTimeout)
		defer cancel()

		snap, err := s.loader.Load(loadCtx, src)
		items := 0
		if snap != nil {
			items = len(snap.Items)
		}
		s.metrics.ObserveLoad(string(st), err, items)
		if err != nil {
			return nil, err
		}
		s.snapshots[st].Store(snap)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("reloading %s: %w", st, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, fmt.Errorf("reloading %s: %w", st, r.Err)
		}
		return r.Val.(*ledger.Snapshot), nil
	}
}

// LoadAll loads every configured statement concurrently. It fails only when
// no statement loads; other failures are logged and that statement answers
// 503 until a reload succeeds.
func (s *Server) LoadAll(ctx context.Context) error {
	var (
		mu     sync.Mutex
		merr   *multierror.Error
		loaded int
	)
	g, ctx := errgroup.WithContext(ctx)
	for st := range s.sources {
		g.Go(func() error {
			_, err := s.Reload(ctx, st)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				merr = multierror.Append(merr, err)
				return nil
			}
			loaded++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if loaded == 0 && len(s.sources) > 0 {
		return merr.ErrorOrNil()
	}
	if merr != nil {
		for _, err := range merr.Errors {
			s.logger.Warn("statement unavailable", logging.Err(err))
		}
	}
	return nil
}

// reloadAll reloads every statement and records each success in the audit
// log.
func (s *Server) reloadAll(ctx context.Context, source string) {
	for st := range s.sources {
		snap, err := s.Reload(ctx, st)
		if err != nil {
			s.logger.Error("scheduled reload failed",
				slog.String(logging.FieldStatement, string(st)), logging.Err(err))
			continue
		}
		s.record(auditlog.Entry{
			Source:    source,
			Action:    auditlog.ActionReload,
			Statement: string(st),
			Years:     snap.Years,
		})
	}
}

// Schedule reloads all statements on a standard cron spec. The caller stops
// the returned scheduler.
func (s *Server) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		s.reloadAll(ctx, auditlog.SourceSchedule)
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling reload %q: %w", spec, err)
	}
	c.Start()
	s.logger.Info("reload scheduled", slog.String("schedule", spec))
	return c, nil
}

// ListenOptions configures Run.
type ListenOptions struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, opts ListenOptions) error {
	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// record appends an audit entry. Audit failures are logged, not returned.
func (s *Server) record(e auditlog.Entry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(e); err != nil {
		logging.Component(s.logger, logging.ComponentAudit).Error("audit append failed", logging.Err(err))
	}
}

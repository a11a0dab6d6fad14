// Package worker runs background jobs that are not tied to a request.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"recipes/config"
	"recipes/internal/delivery"
	deliverycontext "recipes/internal/delivery/context"
	"recipes/internal/domain/lifecycle"
	"recipes/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// sessionSweeper periodically purges expired sessions.
type sessionSweeper struct {
	sessions usecase.SessionUsecase
	interval time.Duration
	logger   *slog.Logger

	running  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// ServerParams holds dependencies for the sweeper
type ServerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Cfg      *config.Config
	Logger   *slog.Logger
	Sessions usecase.SessionUsecase
}

// NewServer creates the expired-session sweeper. A zero session.sweepInterval disables it.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	if params.Cfg.Session.SweepInterval < 0 {
		return nil, errors.Errorf("session.sweepInterval must not be negative: %s", params.Cfg.Session.SweepInterval)
	}

	srv := &sessionSweeper{
		sessions: params.Sessions,
		interval: params.Cfg.Session.SweepInterval,
		logger:   params.Logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// Serve runs the sweep loop until the application stops.
func (s *sessionSweeper) Serve(ctx context.Context) error {
	s.running.Store(true)
	defer close(s.doneCh)

	if s.interval == 0 {
		s.logger.Info("Session sweeper disabled")

		return nil
	}

	s.logger.Info("Starting session sweeper", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *sessionSweeper) sweep(ctx context.Context) {
	runID := uuid.New().String()
	logger := s.logger.With(slog.String("sweep_id", runID))

	sweepCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()
	sweepCtx = deliverycontext.WithLogger(sweepCtx, logger)

	deleted, err := s.sessions.CleanupExpiredSessions(sweepCtx)
	if err != nil {
		logger.Error("Session sweep failed", slog.Any("error", err))

		return
	}

	if deleted > 0 {
		logger.Info("Expired sessions removed", slog.Int64("deleted_count", deleted))
	}
}

// stop signals the loop and waits for an in-flight sweep to finish.
func (s *sessionSweeper) stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })

	if !s.running.Load() {
		return nil
	}

	s.logger.Info("Shutting down session sweeper")

	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

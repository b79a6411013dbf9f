package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cvforge/auth-service/internal/metrics"
	"github.com/cvforge/auth-service/internal/repository"
)

const sweepTimeout = 30 * time.Second

// Sweeper removes expired token records. It is kicked opportunistically by
// verification traffic rather than run on a schedule: every read path
// checks expiry on its own, so the sweeper only exists to bound storage
// growth and missing a cycle is harmless.
type Sweeper struct {
	tokens   repository.TokenRepository
	logger   *slog.Logger
	inFlight atomic.Bool
}

func NewSweeper(tokens repository.TokenRepository, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		tokens: tokens,
		logger: logger.With("component", "sweeper"),
	}
}

// Kick starts one sweep in the background and returns immediately. The
// triggering request never waits on it and never sees its errors. At most
// one sweep runs at a time; kicks during a running sweep are dropped.
func (s *Sweeper) Kick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}

	// Keep context values (request_id) for logging, but detach from the
	// request's cancellation: the sweep outlives its trigger.
	detached := context.WithoutCancel(ctx)
	go func() {
		defer s.inFlight.Store(false)
		s.sweep(detached)
	}()
}

func (s *Sweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	start := time.Now()
	deleted, err := s.tokens.DeleteExpired(ctx, start)
	metrics.SweepDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.ErrorContext(ctx, "cleanup sweep", "error", err)
		return
	}
	if deleted > 0 {
		metrics.SweepDeletedTotal.Add(float64(deleted))
		s.logger.InfoContext(ctx, "cleanup sweep removed expired tokens", "count", deleted)
	}
}

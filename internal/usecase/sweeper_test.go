package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cvforge/auth-service/internal/usecase"
)

func TestSweeper_KickDeletesExpiredInBackground(t *testing.T) {
	done := make(chan time.Time, 1)
	repo := &fakeTokenRepo{
		deleteExpired: func(_ context.Context, now time.Time) (int64, error) {
			done <- now
			return 3, nil
		},
	}

	usecase.NewSweeper(repo, slog.Default()).Kick(context.Background())

	select {
	case now := <-done:
		if now.IsZero() {
			t.Error("sweep ran with a zero cutoff")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweep never ran")
	}
}

func TestSweeper_KickIsSingleFlight(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	repo := &fakeTokenRepo{
		deleteExpired: func(_ context.Context, _ time.Time) (int64, error) {
			calls.Add(1)
			close(started)
			<-release
			return 0, nil
		},
	}

	s := usecase.NewSweeper(repo, slog.Default())
	s.Kick(context.Background())
	<-started

	// While the first sweep is still running, further kicks are dropped.
	s.Kick(context.Background())
	s.Kick(context.Background())
	close(release)

	if got := calls.Load(); got != 1 {
		t.Errorf("sweep calls = %d, want 1", got)
	}
}

func TestSweeper_ErrorsStayInBackground(t *testing.T) {
	done := make(chan struct{})
	repo := &fakeTokenRepo{
		deleteExpired: func(_ context.Context, _ time.Time) (int64, error) {
			close(done)
			return 0, errors.New("storage offline")
		},
	}

	// Kick must not panic or surface anything; the error is only logged.
	usecase.NewSweeper(repo, slog.Default()).Kick(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep never ran")
	}
}

func TestSweeper_OutlivesCancelledRequest(t *testing.T) {
	done := make(chan error, 1)
	repo := &fakeTokenRepo{
		deleteExpired: func(ctx context.Context, _ time.Time) (int64, error) {
			done <- ctx.Err()
			return 0, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // the triggering request is already gone

	usecase.NewSweeper(repo, slog.Default()).Kick(ctx)

	select {
	case err := <-done:
		if errors.Is(err, context.Canceled) {
			t.Error("sweep inherited the request's cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweep never ran")
	}
}

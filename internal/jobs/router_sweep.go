package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"tweetrouter/internal/models"
)

// PendingRouter routes tweets that are still waiting for a decision.
type PendingRouter interface {
	RoutePending(ctx context.Context, limit int) ([]models.RouteResult, error)
}

// RouterSweep periodically routes pending tweets that no caller has batched.
type RouterSweep struct {
	router   PendingRouter
	interval time.Duration
	limit    int
	logger   *slog.Logger
}

// NewRouterSweep creates a new sweep job.
func NewRouterSweep(r PendingRouter, interval time.Duration, limit int, logger *slog.Logger) *RouterSweep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RouterSweep{
		router:   r,
		interval: interval,
		limit:    limit,
		logger:   logger,
	}
}

// Start begins the sweep loop. It blocks until ctx is cancelled.
func (s *RouterSweep) Start(ctx context.Context) {
	s.logger.Info("router sweep started", "interval", s.interval, "limit", s.limit)

	// Run immediately on start
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("router sweep stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// StartAsync runs Start in a new goroutine. The returned channel is closed
// once the loop has exited, including any sweep that was in flight.
func (s *RouterSweep) StartAsync(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Start(ctx)
	}()
	return done
}

// sweep routes one page of pending tweets.
func (s *RouterSweep) sweep(ctx context.Context) {
	results, err := s.router.RoutePending(ctx, s.limit)
	if err != nil {
		s.logger.Error("router sweep: failed to route pending tweets", "error", err)
		return
	}
	if len(results) == 0 {
		return
	}

	failed := lo.CountBy(results, func(r models.RouteResult) bool { return !r.Success })
	s.logger.Info("router sweep: routed pending tweets", "count", len(results), "failed", failed)
}

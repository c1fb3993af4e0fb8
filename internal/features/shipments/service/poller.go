package service

import (
	"context"
	"sync"
	"time"

	"leopards-connector/internal/core/logger"

	"github.com/juju/clock"
	"go.uber.org/zap"
)

// Jobs is the work the poller schedules.
type Jobs interface {
	RefreshDue(ctx context.Context) (RefreshStats, error)
	ProcessPending(ctx context.Context) (int, error)
}

// Poller runs the tracking refresh and the cancellation queue on fixed intervals.
type Poller struct {
	jobs            Jobs
	clock           clock.Clock
	refreshInterval time.Duration
	cancelInterval  time.Duration
	logger          *zap.Logger
}

// NewPoller creates a Poller. A non-positive interval disables that loop.
func NewPoller(jobs Jobs, clk clock.Clock, refreshInterval, cancelInterval time.Duration) *Poller {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Poller{
		jobs:            jobs,
		clock:           clk,
		refreshInterval: refreshInterval,
		cancelInterval:  cancelInterval,
		logger:          logger.Named("poller"),
	}
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	var wg sync.WaitGroup

	if p.refreshInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.loop(ctx, "tracking_refresh", p.refreshInterval, func(ctx context.Context) {
				stats, err := p.jobs.RefreshDue(ctx)
				if err != nil {
					p.logger.Error("Tracking refresh failed", zap.Error(err))
					return
				}
				p.logger.Info("Tracking refresh finished",
					zap.Int("checked", stats.Checked),
					zap.Int("updated", stats.Updated),
					zap.Int("failed", stats.Failed),
				)
			})
		}()
	}

	if p.cancelInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.loop(ctx, "cancel_queue", p.cancelInterval, func(ctx context.Context) {
				n, err := p.jobs.ProcessPending(ctx)
				if err != nil {
					p.logger.Error("Cancellation queue failed", zap.Error(err))
					return
				}
				if n > 0 {
					p.logger.Info("Cancellation queue finished", zap.Int("cancelled", n))
				}
			})
		}()
	}

	wg.Wait()
	p.logger.Info("Poller stopped")
}

func (p *Poller) loop(ctx context.Context, name string, interval time.Duration, run func(context.Context)) {
	p.logger.Info("Poller loop started", zap.String("job", name), zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.clock.After(interval):
			run(ctx)
		}
	}
}

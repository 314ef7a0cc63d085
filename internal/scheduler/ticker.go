// Package scheduler provides the periodic evaluation trigger. It is one of
// the two producers feeding the engine's evaluation queue; the other is the
// door event feed in internal/api.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"rainguard/internal/types"
)

// Enqueuer is the engine-facing contract: request an evaluation cycle.
type Enqueuer interface {
	Enqueue(src types.TriggerSource) bool
}

// Ticker enqueues a periodic evaluation at a fixed interval.
type Ticker struct {
	scheduler *gocron.Scheduler
	evaluator Enqueuer
	interval  time.Duration
	logger    *slog.Logger
}

// NewTicker creates a Ticker with the given interval.
func NewTicker(evaluator Enqueuer, interval time.Duration, logger *slog.Logger) *Ticker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{
		scheduler: gocron.NewScheduler(time.UTC),
		evaluator: evaluator,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first evaluation runs immediately so a restart does not wait a full
// interval before checking the sky.
func (t *Ticker) Start() error {
	_, err := t.scheduler.Every(t.interval).StartImmediately().Do(func() {
		t.evaluator.Enqueue(types.TriggerTick)
	})
	if err != nil {
		return err
	}

	t.scheduler.StartAsync()
	t.logger.Info("periodic evaluation scheduled",
		"interval", t.interval,
	)
	return nil
}

// Stop stops the scheduler and cancels any future ticks.
func (t *Ticker) Stop() {
	if t.scheduler != nil {
		t.scheduler.Stop()
	}
}

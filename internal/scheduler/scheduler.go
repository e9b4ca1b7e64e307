package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultInterval is the pause between two passes
const DefaultInterval = 5 * time.Second

// Loop runs a pass immediately and then again Interval after each pass
// finishes, until its context is cancelled. Passes never overlap.
type Loop struct {
	Clock    clockwork.Clock
	Interval time.Duration
	Run      func(ctx context.Context) error
	Logger   *slog.Logger
}

// Start blocks until ctx is cancelled. Pass errors are logged and the loop
// keeps going.
func (l *Loop) Start(ctx context.Context) error {
	if l.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", l.Interval)
	}
	clock := l.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for {
		if err := l.Run(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			logger.Error("Sync pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-clock.After(l.Interval):
		}
	}
}

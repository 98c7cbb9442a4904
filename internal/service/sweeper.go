package service

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper runs PresenceService.Sweep on a fixed period until its context ends.
type Sweeper struct {
	presence *PresenceService
	interval time.Duration
	log      *slog.Logger
}

func NewSweeper(presence *PresenceService, interval time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{presence: presence, interval: interval, log: log}
}

func (w *Sweeper) Run(ctx context.Context) error {
	w.log.Info("starting presence sweeper",
		slog.Duration("interval", w.interval),
		slog.Duration("stale_after", w.presence.opts.StaleAfter))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("presence sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.presence.Sweep(ctx)
			if err != nil {
				w.log.Error("sweep failed", slog.Any("err", err))
				continue
			}
			if n > 0 {
				w.log.Debug("participants evicted", slog.Int("count", n))
			}
		}
	}
}

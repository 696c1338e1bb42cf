package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SessionRegistry is the part of the live-session registry the sweeper needs.
type SessionRegistry interface {
	Sweep(now time.Time, idleTTL time.Duration) int
	Count() int
}

// SessionSweeper periodically evicts finished and idle exam sessions from the
// live registry so it does not grow without bound.
type SessionSweeper struct {
	registry SessionRegistry
	interval time.Duration
	idleTTL  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewSessionSweeper creates a new SessionSweeper.
func NewSessionSweeper(registry SessionRegistry, interval, idleTTL time.Duration, log zerolog.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionSweeper{
		registry: registry,
		interval: interval,
		idleTTL:  idleTTL,
		now:      time.Now,
		log:      log.With().Str("component", "session_sweeper").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled. Call in a goroutine.
func (w *SessionSweeper) Start(ctx context.Context) {
	w.log.Info().
		Dur("interval", w.interval).
		Dur("idle_ttl", w.idleTTL).
		Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweepOnce()
		}
	}
}

func (w *SessionSweeper) sweepOnce() int {
	removed := w.registry.Sweep(w.now(), w.idleTTL)
	if removed > 0 {
		w.log.Debug().
			Int("removed", removed).
			Int("live", w.registry.Count()).
			Msg("Swept exam sessions")
	}
	return removed
}

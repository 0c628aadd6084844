package session

import (
	"context"
	"time"

	"github.com/simphone/ussdd/internal/logging"
)

// SweepTarget is what a Sweeper periodically sweeps. The engine implements
// it so the sweep holds the same exclusion as request handling.
type SweepTarget interface {
	SweepExpired(now time.Time) int
}

// Sweeper runs expiry sweeps on a recurring timer until its context ends.
type Sweeper struct {
	target   SweepTarget
	interval time.Duration
	log      *logging.Logger
}

// NewSweeper creates a sweeper. Intervals below one second are clamped.
func NewSweeper(target SweepTarget, interval time.Duration, log *logging.Logger) *Sweeper {
	if interval < time.Second {
		interval = time.Second
	}
	return &Sweeper{target: target, interval: interval, log: log.Sub("sweeper")}
}

// Run blocks, sweeping every interval, until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Debug().Dur("interval", s.interval).Msg("expiry sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("expiry sweeper stopped")
			return
		case now := <-ticker.C:
			if removed := s.target.SweepExpired(now); removed > 0 {
				s.log.Info().Int("removed", removed).Msg("expired sessions swept")
			}
		}
	}
}

package session

import (
	"context"
	"log"
	"time"
)

// Run drives the simulation from a single control loop: one repeating timer
// at the active timeframe's cadence. Asset/timeframe switches re-arm the
// timer through resetCh, so the previous cycle never overlaps the next and
// the tick handler runs to completion synchronously — there is exactly one
// logical thread of mutation. Blocks until ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	cadence := s.Timeframe().TickCadence()
	timer := time.NewTimer(cadence)
	defer timer.Stop()

	log.Printf("[session] control loop started (cadence %s)", cadence)

	for {
		select {
		case <-ctx.Done():
			log.Println("[session] control loop stopped")
			return

		case <-s.resetCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			cadence = s.Timeframe().TickCadence()
			timer.Reset(cadence)

		case <-timer.C:
			start := time.Now()
			s.Tick()
			if s.OnTick != nil {
				s.OnTick(time.Since(start))
			}
			timer.Reset(cadence)
		}
	}
}

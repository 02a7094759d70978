// Package emitter watches the recomputed series for breakout events and
// turns them into transient Signal records: a capped most-recent-first
// feed, plus a rate-limited voice callout through the speech boundary.
package emitter

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"marketviz/internal/indicator"
	"marketviz/internal/model"
)

// VoiceCooldown is the process-wide minimum gap between forwarded voice
// alerts. Not per-asset, not per-kind: the emitter is either READY or
// COOLING, and the transition back to READY is checked lazily on the next
// detection rather than by a timer.
const VoiceCooldown = 20 * time.Second

// Announcer is the external voice boundary. Announce returns false when the
// utterance was rejected (e.g. a request already in flight); the emitter
// does not retry either way.
type Announcer interface {
	Announce(text string) bool
}

// Emitter converts breakout detections into signals.
type Emitter struct {
	mu      sync.Mutex
	recent  []model.Signal
	voice   Announcer
	lastOut time.Time

	// OnSignal is invoked (outside the lock) for every emitted signal —
	// wired to the event bus and metrics by the session.
	OnSignal func(model.Signal)

	now func() time.Time
}

// New creates an Emitter. voice may be nil, in which case callouts are
// skipped entirely.
func New(voice Announcer) *Emitter {
	return &Emitter{
		voice: voice,
		now:   time.Now,
	}
}

// Observe runs breakout detection over the updated window and, on a hit,
// records a signal and possibly forwards a voice alert. Returns the emitted
// signal or nil.
func (e *Emitter) Observe(symbol string, tf model.Timeframe, bars model.Series) *model.Signal {
	bo := indicator.DetectBreakout(bars, indicator.DefaultBreakoutPeriod)
	if bo == nil {
		return nil
	}

	strength := model.StrengthModerate
	if bo.VolumeRatio >= indicator.StrongRatio {
		strength = model.StrengthStrong
	}

	dirWord := "above"
	if bo.Kind == model.BreakoutDown {
		dirWord = "below"
	}
	sig := model.Signal{
		ID:       uuid.NewString(),
		Symbol:   symbol,
		Kind:     bo.Kind,
		Strength: strength,
		Price:    bo.Price,
		TS:       e.now().UTC(),
		Detail: fmt.Sprintf("%s close %.5f broke %s %.5f on %.1fx volume (%s)",
			symbol, bo.Price, dirWord, bo.Level, bo.VolumeRatio, tf),
	}

	e.mu.Lock()
	e.recent = append([]model.Signal{sig}, e.recent...)
	if len(e.recent) > model.MaxRecentSignals {
		e.recent = e.recent[:model.MaxRecentSignals]
	}
	shouldSpeak := e.now().Sub(e.lastOut) >= VoiceCooldown
	if shouldSpeak {
		// COOLING starts the moment an alert is attempted, regardless of
		// whether the speaker accepts it.
		e.lastOut = e.now()
	}
	e.mu.Unlock()

	if shouldSpeak && e.voice != nil {
		phrase := callout(sig)
		if !e.voice.Announce(phrase) {
			log.Printf("[emitter] voice busy, callout dropped: %s", phrase)
		}
	}

	if e.OnSignal != nil {
		e.OnSignal(sig)
	}
	return &sig
}

// Recent returns a copy of the recent-signals list, most recent first.
func (e *Emitter) Recent() []model.Signal {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make([]model.Signal, len(e.recent))
	copy(cp, e.recent)
	return cp
}

// Reset clears the signal list (used when switching assets).
// The voice cooldown is process-wide and deliberately survives a reset.
func (e *Emitter) Reset() {
	e.mu.Lock()
	e.recent = nil
	e.mu.Unlock()
}

// callout composes the direction-aware spoken phrase for a signal.
func callout(sig model.Signal) string {
	direction := "upside"
	if sig.Kind == model.BreakoutDown {
		direction = "downside"
	}
	return fmt.Sprintf("%s %s breakout to the %s at %.5f",
		sig.Symbol, sig.Strength, direction, sig.Price)
}

package voice

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Sink plays a decoded clip through an audio output. Implementations that
// have no audio device should degrade to a no-op, not an error.
type Sink interface {
	Play(clip *Clip) error
}

// NopSink discards clips. Used when no audio output is available.
type NopSink struct{}

func (NopSink) Play(*Clip) error { return nil }

// Speaker drives synthesis + playback with a single in-flight slot: while a
// request is outstanding, new announcements are rejected outright rather
// than queued. Synthesis failures are logged and the slot is reset.
type Speaker struct {
	synth   Synthesizer
	sink    Sink
	busy    atomic.Bool
	timeout time.Duration
}

// NewSpeaker creates a Speaker. A nil sink falls back to NopSink.
func NewSpeaker(synth Synthesizer, sink Sink) *Speaker {
	if sink == nil {
		sink = NopSink{}
	}
	return &Speaker{
		synth:   synth,
		sink:    sink,
		timeout: 30 * time.Second,
	}
}

// Announce starts a fire-and-forget synthesis+playback request. Returns
// false if a request is already in flight (the new one is dropped).
func (sp *Speaker) Announce(text string) bool {
	if sp.synth == nil {
		return false
	}
	if !sp.busy.CompareAndSwap(false, true) {
		return false
	}

	go func() {
		defer sp.busy.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), sp.timeout)
		defer cancel()

		clip, err := sp.synth.Synthesize(ctx, text)
		if err != nil {
			log.Printf("[voice] synthesis failed: %v", err)
			return
		}
		if err := sp.sink.Play(clip); err != nil {
			log.Printf("[voice] playback failed: %v", err)
		}
	}()
	return true
}

// Busy reports whether a request is currently in flight.
func (sp *Speaker) Busy() bool { return sp.busy.Load() }

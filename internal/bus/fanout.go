// Package bus broadcasts session events from the single control loop to N
// consumers (gateway hub, Redis mirror, notification forwarder). A slow
// consumer never blocks the tick path: its events are dropped.
package bus

import (
	"context"
	"log"
	"sync"

	"marketviz/internal/indicator"
	"marketviz/internal/model"
)

// EventType discriminates session events.
type EventType string

const (
	EventSeries   EventType = "series"   // window mutated by a tick or selection
	EventSignal   EventType = "signal"   // breakout signal emitted
	EventTarget   EventType = "target"   // projected price target updated
	EventAnalysis EventType = "analysis" // commentary result applied
)

// Event is one session update fanned out to consumers. Exactly one of the
// payload fields matching Type is set; Series is always a snapshot copy.
type Event struct {
	Type     EventType
	Symbol   string
	TF       model.Timeframe
	Series   model.Series
	Signal   *model.Signal
	Target   *indicator.Target
	Analysis *model.Analysis
}

// FanOut broadcasts events from a single input channel to N output channels.
type FanOut struct {
	mu      sync.RWMutex
	outputs []chan Event
	bufSize int

	// OnDrop is called when an event is dropped for a subscriber.
	// subscriberIdx is the 0-based index of the slow consumer.
	OnDrop func(subscriberIdx int)
}

// New creates a FanOut with the given buffer size for output channels.
func New(outputBufferSize int) *FanOut {
	return &FanOut{
		bufSize: outputBufferSize,
	}
}

// Subscribe creates and returns a new output channel.
func (f *FanOut) Subscribe() <-chan Event {
	ch := make(chan Event, f.bufSize)
	f.mu.Lock()
	f.outputs = append(f.outputs, ch)
	f.mu.Unlock()
	return ch
}

// Run reads from the input channel and fans out to all subscribers.
// Blocks until ctx is cancelled or input is closed.
func (f *FanOut) Run(ctx context.Context, input <-chan Event) {
	defer func() {
		f.mu.RLock()
		for _, ch := range f.outputs {
			close(ch)
		}
		f.mu.RUnlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-input:
			if !ok {
				return
			}
			f.mu.RLock()
			for i, ch := range f.outputs {
				select {
				case ch <- ev:
				default:
					if f.OnDrop != nil {
						f.OnDrop(i)
					} else {
						log.Printf("[bus] output channel %d full, dropping %s event for %s", i, ev.Type, ev.Symbol)
					}
				}
			}
			f.mu.RUnlock()
		}
	}
}

// ChannelStat reports (length, capacity) for a subscriber channel.
type ChannelStat struct {
	Len int
	Cap int
}

// ChannelStats returns saturation stats for each subscriber channel.
func (f *FanOut) ChannelStats() []ChannelStat {
	f.mu.RLock()
	defer f.mu.RUnlock()
	stats := make([]ChannelStat, len(f.outputs))
	for i, ch := range f.outputs {
		stats[i] = ChannelStat{Len: len(ch), Cap: cap(ch)}
	}
	return stats
}

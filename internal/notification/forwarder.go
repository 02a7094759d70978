package notification

import (
	"context"
	"log"

	"marketviz/internal/bus"
)

// Forwarder consumes signal events from the fan-out bus and delivers them
// through the configured notifier backends. Delivery failures are logged
// and dropped, never retried.
type Forwarder struct {
	notifiers []Notifier
}

// NewForwarder creates a forwarder over the given backends.
func NewForwarder(notifiers ...Notifier) *Forwarder {
	return &Forwarder{notifiers: notifiers}
}

// Run consumes events until ctx is cancelled or eventCh is closed.
// Only signal events are forwarded; everything else is ignored.
func (f *Forwarder) Run(ctx context.Context, eventCh <-chan bus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			if ev.Type != bus.EventSignal || ev.Signal == nil {
				continue
			}
			alert := FromSignal(*ev.Signal, ev.TF)
			for _, n := range f.notifiers {
				if err := n.Send(ctx, alert); err != nil {
					log.Printf("[notification] delivery failed: %v", err)
				}
			}
		}
	}
}

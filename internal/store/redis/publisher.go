// Package redis mirrors session events to Redis PubSub for external
// consumers. This is transport fan-out, not persistence: nothing is stored,
// and the service runs fine with Redis absent or down.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"marketviz/internal/bus"
	"marketviz/internal/model"
)

// PublisherConfig configures the mirror publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher publishes bar and signal JSON to PubSub channels:
//
//	pub:bar:{tf}:{symbol}    — latest bar after each tick
//	pub:signal:{symbol}      — emitted signals
//
// Every publish goes through a circuit breaker so a wedged Redis cannot
// slow the event consumers.
type Publisher struct {
	client  *goredis.Client
	breaker *CircuitBreaker

	// OnPublish is called with the publish latency (optional, metrics).
	OnPublish func(d time.Duration)
}

// NewPublisher creates a Publisher and pings the server.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{
		client:  client,
		breaker: NewCircuitBreaker(5, 10*time.Second),
	}, nil
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// Breaker returns the publish circuit breaker for metrics wiring.
func (p *Publisher) Breaker() *CircuitBreaker { return p.breaker }

// Run consumes session events and mirrors them to PubSub.
// Blocks until ctx is cancelled or eventCh is closed.
func (p *Publisher) Run(ctx context.Context, eventCh <-chan bus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			p.mirror(ctx, ev)
		}
	}
}

func (p *Publisher) mirror(ctx context.Context, ev bus.Event) {
	var channel string
	var payload []byte

	switch ev.Type {
	case bus.EventSeries:
		last := ev.Series.Last()
		if last == nil {
			return
		}
		channel = barChannel(ev.TF, ev.Symbol)
		payload = last.JSON()
	case bus.EventSignal:
		if ev.Signal == nil {
			return
		}
		channel = "pub:signal:" + ev.Symbol
		payload = ev.Signal.JSON()
	case bus.EventAnalysis:
		if ev.Analysis == nil {
			return
		}
		channel = "pub:analysis:" + ev.Symbol
		payload, _ = json.Marshal(ev.Analysis)
	default:
		return // targets are gateway-only overlay data
	}

	start := time.Now()
	err := p.breaker.Execute(func() error {
		pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return p.client.Publish(pubCtx, channel, payload).Err()
	})
	if err != nil {
		if err != ErrCircuitOpen {
			log.Printf("[redis] publish %s failed: %v", channel, err)
		}
		return
	}
	if p.OnPublish != nil {
		p.OnPublish(time.Since(start))
	}
}

// Close releases the underlying connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}

func barChannel(tf model.Timeframe, symbol string) string {
	return "pub:bar:" + string(tf) + ":" + symbol
}

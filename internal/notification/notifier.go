// Package notification delivers signal alerts to external channels
// (Telegram, webhooks) in addition to the in-app feed and voice callout.
package notification

import (
	"context"
	"log"
	"time"

	"marketviz/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert is a breakout notification carrying the signal fields each
// transport renders in its own format.
type Alert struct {
	Level    AlertLevel           `json:"level"`
	Symbol   string               `json:"symbol"`
	Kind     model.SignalKind     `json:"kind"`
	Strength model.SignalStrength `json:"strength"`
	Price    float64              `json:"price"`
	TF       model.Timeframe      `json:"tf"`
	Detail   string               `json:"detail"`
	TS       time.Time            `json:"ts"`
}

// Arrow returns the direction glyph for the alert's signal kind.
func (a Alert) Arrow() string {
	if a.Kind == model.BreakoutDown {
		return "▼"
	}
	return "▲"
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// FromSignal maps a market signal onto an alert. STRONG signals escalate
// to WARNING so channel-side filtering can separate them.
func FromSignal(sig model.Signal, tf model.Timeframe) Alert {
	level := AlertInfo
	if sig.Strength == model.StrengthStrong {
		level = AlertWarning
	}
	return Alert{
		Level:    level,
		Symbol:   sig.Symbol,
		Kind:     sig.Kind,
		Strength: sig.Strength,
		Price:    sig.Price,
		TF:       tf,
		Detail:   sig.Detail,
		TS:       sig.TS,
	}
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s %s %s %s at %.5f (%s): %s",
		alert.Level, alert.Arrow(), alert.Symbol, alert.Strength, alert.Kind,
		alert.Price, alert.TF, alert.Detail)
	return nil
}

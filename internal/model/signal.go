package model

import (
	"encoding/json"
	"time"
)

// SignalKind classifies a detected market event.
type SignalKind string

const (
	BreakoutUp   SignalKind = "BREAKOUT_UP"
	BreakoutDown SignalKind = "BREAKOUT_DOWN"
	TrendChange  SignalKind = "TREND_CHANGE"
)

// SignalStrength grades a signal by its volume confirmation.
type SignalStrength string

const (
	StrengthStrong   SignalStrength = "STRONG"
	StrengthModerate SignalStrength = "MODERATE"
	StrengthWeak     SignalStrength = "WEAK"
)

// MaxRecentSignals caps the most-recent-first signal list.
const MaxRecentSignals = 10

// Signal is a transient alert produced by the signal emitter.
// Signals are never mutated after creation; old entries are evicted
// implicitly when the recent list exceeds MaxRecentSignals.
type Signal struct {
	ID       string         `json:"id"`
	Symbol   string         `json:"symbol"`
	Kind     SignalKind     `json:"kind"`
	Strength SignalStrength `json:"strength"`
	Price    float64        `json:"price"`
	TS       time.Time      `json:"ts"`
	Detail   string         `json:"detail"`
}

// JSON returns the JSON-encoded signal.
func (s *Signal) JSON() []byte {
	raw, _ := json.Marshal(s)
	return raw
}

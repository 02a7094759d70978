package model

import (
	"encoding/json"
	"time"
)

// PriceBar represents one simulated OHLCV candle.
// Prices are float64: the feed walks fractional FX/crypto quotes and there
// is no exchange tick size to anchor an integer representation.
type PriceBar struct {
	Time   string    `json:"time"` // display label, e.g. "14:05"
	TS     time.Time `json:"ts"`   // bar timestamp (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`

	// Derived moving averages, recomputed over the whole window each tick.
	EMA10 float64 `json:"ema10,omitempty"`
	EMA20 float64 `json:"ema20,omitempty"`
	EMA50 float64 `json:"ema50,omitempty"`
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *PriceBar) JSON() []byte {
	raw, _ := json.Marshal(b)
	return raw
}

// SeriesCapacity is the fixed sliding-window size of a price series.
const SeriesCapacity = 60

// Series is an ordered sliding window of price bars. New bars append at the
// tail and the oldest bar is evicted from the head; length never exceeds
// SeriesCapacity. The window is rebuilt as a fresh slice on every tick
// rather than maintained as a ring, so holders of an old snapshot never see
// in-place mutation.
type Series []PriceBar

// Last returns the most recent bar, or nil if the series is empty.
func (s Series) Last() *PriceBar {
	if len(s) == 0 {
		return nil
	}
	return &s[len(s)-1]
}

// Clone returns a copy of the series safe to hand to other goroutines.
func (s Series) Clone() Series {
	cp := make(Series, len(s))
	copy(cp, s)
	return cp
}

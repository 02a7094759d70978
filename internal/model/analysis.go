package model

import "time"

// Trend is the directional read returned by the commentary service.
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

// Action is the commentary service's suggested stance.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionWait Action = "WAIT"
)

// Analysis is the structured narrative returned by the commentary boundary.
// Symbol records which asset the request was issued for: a request can
// resolve after the user has switched context, and the stale result is
// still applied (known limitation, preserved deliberately).
type Analysis struct {
	Symbol     string    `json:"symbol"`
	Trend      Trend     `json:"trend"`
	Confidence float64   `json:"confidence"` // [0,1]
	Reasoning  string    `json:"reasoning"`
	Signal     Action    `json:"signal"`
	TS         time.Time `json:"ts"`
}

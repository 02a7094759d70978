package model

import "time"

// Timeframe identifies the bar interval driving the simulation.
type Timeframe string

const (
	TF1M  Timeframe = "1M"
	TF5M  Timeframe = "5M"
	TF15M Timeframe = "15M"
)

// Valid reports whether tf is one of the supported timeframes.
func (tf Timeframe) Valid() bool {
	switch tf {
	case TF1M, TF5M, TF15M:
		return true
	}
	return false
}

// BarSpacing returns the nominal distance between bar timestamps.
func (tf Timeframe) BarSpacing() time.Duration {
	switch tf {
	case TF5M:
		return 5 * time.Minute
	case TF15M:
		return 15 * time.Minute
	default:
		return time.Minute
	}
}

// TickCadence returns the simulation timer period for this timeframe.
// This is a simulation-speed knob, not a statement about market cadence.
func (tf Timeframe) TickCadence() time.Duration {
	switch tf {
	case TF1M:
		return 3 * time.Second
	case TF5M:
		return 8 * time.Second
	default:
		return 15 * time.Second
	}
}

// Volatility returns the per-tick volatility multiplier applied to the
// previous close when generating the next bar.
func (tf Timeframe) Volatility() float64 {
	switch tf {
	case TF15M:
		return 0.0008
	case TF5M:
		return 0.0005
	default:
		return 0.0003
	}
}

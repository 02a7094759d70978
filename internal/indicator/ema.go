// Package indicator provides the pure analytics used by the simulated feed:
// exponential moving averages, a volume-confirmed breakout detector, and a
// heuristic effort-vs-result price target.
//
// All functions recompute from scratch over the full input. The window is
// small (60 bars) and full recompute avoids any incremental-state
// consistency concerns across asset/timeframe switches.
package indicator

// EMA computes an exponential moving average series over values.
// The result has the same length as the input.
//
// The seed is ema[0] = values[0] — not a true EMA warm-up, but the fixed
// starting condition this system is defined with; downstream consumers
// depend on it. k = 2/(period+1).
func EMA(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	k := 2.0 / (float64(period) + 1.0)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1.0-k)
	}
	return out
}

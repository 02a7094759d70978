// Package feed procedurally generates the OHLCV series that drives the
// dashboard. There is no market-data connection: bars are produced by a
// bounded random walk and mutated one bar per timer tick.
package feed

import (
	"math/rand"
	"time"

	"marketviz/internal/indicator"
	"marketviz/internal/model"
)

const (
	initDriftPct = 0.001  // ±0.1% of base price per step
	initWickPct  = 0.0005 // up to ±0.05% of base price above/below body
	wickFraction = 0.4    // tick wicks pad up to 40% of volatility
)

// Generator produces and mutates synthetic price series.
// Not safe for concurrent use — it is owned by the session control loop.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// New creates a Generator with its own seeded RNG.
func New() *Generator {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource creates a Generator from an explicit source, for
// deterministic tests.
func NewWithSource(src rand.Source) *Generator {
	return &Generator{
		rng: rand.New(src),
		now: time.Now,
	}
}

// Initialize produces a fresh series of count bars walking a random walk
// from basePrice. Bar timestamps are back-dated at the timeframe's bar
// spacing with the most recent bar stamped "now". EMA10/20/50 are computed
// once over the closed series and attached to every bar.
func (g *Generator) Initialize(basePrice float64, count int, tf model.Timeframe) model.Series {
	if count <= 0 {
		return nil
	}
	series := make(model.Series, 0, count)
	end := g.now().UTC()
	spacing := tf.BarSpacing()
	price := basePrice

	for i := 0; i < count; i++ {
		open := price
		change := (g.rng.Float64()*2 - 1) * initDriftPct * basePrice
		close := open + change
		hi := maxf(open, close) + g.rng.Float64()*initWickPct*basePrice
		lo := minf(open, close) - g.rng.Float64()*initWickPct*basePrice

		ts := end.Add(-time.Duration(count-1-i) * spacing)
		series = append(series, model.PriceBar{
			Time:   ts.Format("15:04"),
			TS:     ts,
			Open:   open,
			High:   hi,
			Low:    lo,
			Close:  close,
			Volume: 500 + int64(g.rng.Intn(1000)),
		})
		price = close
	}

	attachEMAs(series)
	return series
}

// Tick appends one new bar derived from the previous close and evicts the
// oldest bar, preserving the window size. EMAs are recomputed over the
// entire resulting window. An empty series is a no-op passthrough (callers
// guard this; Tick must not invent a first bar).
func (g *Generator) Tick(series model.Series, tf model.Timeframe) model.Series {
	if len(series) == 0 {
		return series
	}
	prev := series[len(series)-1]
	volatility := prev.Close * tf.Volatility()

	open := prev.Close
	close := prev.Close + (g.rng.Float64()-0.5)*volatility
	hi := maxf(open, close) + g.rng.Float64()*wickFraction*volatility
	lo := minf(open, close) - g.rng.Float64()*wickFraction*volatility

	ts := g.now().UTC()
	bar := model.PriceBar{
		Time:   ts.Format("15:04"),
		TS:     ts,
		Open:   open,
		High:   hi,
		Low:    lo,
		Close:  close,
		Volume: g.volume(),
	}

	next := make(model.Series, 0, len(series))
	next = append(next, series[1:]...)
	next = append(next, bar)
	attachEMAs(next)
	return next
}

// volume samples the base range [400,1400) and applies the spike ladder:
// ~5% of bars get exceptional volume (×4.5), the next ~15% elevated (×2.5),
// the rest are normal.
func (g *Generator) volume() int64 {
	base := 400 + g.rng.Float64()*1000
	switch r := g.rng.Float64(); {
	case r < 0.05:
		base *= 4.5
	case r < 0.20:
		base *= 2.5
	}
	return int64(base)
}

// attachEMAs recomputes EMA10/20/50 over the full window and writes them
// back onto every bar. Full recompute, not incremental — the window is
// small and this keeps bars self-contained after every mutation.
func attachEMAs(series model.Series) {
	if len(series) == 0 {
		return
	}
	closes := make([]float64, len(series))
	for i := range series {
		closes[i] = series[i].Close
	}
	e10 := indicator.EMA(closes, 10)
	e20 := indicator.EMA(closes, 20)
	e50 := indicator.EMA(closes, 50)
	for i := range series {
		series[i].EMA10 = e10[i]
		series[i].EMA20 = e20[i]
		series[i].EMA50 = e50[i]
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

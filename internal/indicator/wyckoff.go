package indicator

import "marketviz/internal/model"

const (
	// targetLookback is the number of trailing bars averaged for the
	// effort/result baseline.
	targetLookback = 5

	// TargetDamping scales how much excess effort (volume above baseline)
	// stretches the projected move. Fixed design constant.
	TargetDamping = 0.5
)

// Target is a heuristic price projection in the Wyckoff effort-vs-result
// style: volume is "effort", the high-low spread is "result". This is an
// extrapolation, not a statistically validated model.
type Target struct {
	Price       float64 // projected price
	Direction   int     // +1 up, -1 down
	EffortRatio float64 // latest volume / trailing mean volume
}

// ProjectTarget extrapolates a price target from the latest bar against the
// bars preceding it. Returns nil when fewer than targetLookback bars exist.
//
// Direction follows the sign of (close − open) on the latest bar, with a
// non-negative delta treated as up (fixed tie-break). The projected move is
// the trailing mean spread, stretched by excess volume:
//
//	target = close + dir × meanSpread × (1 + (ratio−1) × TargetDamping)
func ProjectTarget(bars []model.PriceBar) *Target {
	if len(bars) < targetLookback {
		return nil
	}

	latest := bars[len(bars)-1]
	start := len(bars) - 1 - targetLookback
	if start < 0 {
		start = 0
	}
	trailing := bars[start : len(bars)-1]

	var volSum, spreadSum float64
	for _, b := range trailing {
		volSum += float64(b.Volume)
		spreadSum += b.High - b.Low
	}
	n := float64(len(trailing))
	meanVol := volSum / n
	meanSpread := spreadSum / n

	ratio := 1.0
	if meanVol > 0 {
		ratio = float64(latest.Volume) / meanVol
	}

	dir := 1
	if latest.Close-latest.Open < 0 {
		dir = -1
	}

	move := meanSpread * (1.0 + (ratio-1.0)*TargetDamping)
	return &Target{
		Price:       latest.Close + float64(dir)*move,
		Direction:   dir,
		EffortRatio: ratio,
	}
}

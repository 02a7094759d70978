package indicator

import "marketviz/internal/model"

const (
	// DefaultBreakoutPeriod is the trailing-range lookback in bars.
	DefaultBreakoutPeriod = 20

	// VolumeRatioMin is the volume confirmation threshold: the latest bar's
	// volume must exceed the trailing mean by this factor for a range break
	// to count as a breakout. Tuning value, no cited derivation.
	VolumeRatioMin = 1.5

	// StrongRatio is the volume ratio at or above which a signal is graded
	// STRONG rather than MODERATE.
	StrongRatio = 3.0
)

// Breakout describes a close beyond the trailing trading range, confirmed
// by elevated volume.
type Breakout struct {
	Kind        model.SignalKind
	Price       float64 // latest close that triggered the break
	Level       float64 // breached range boundary (trailing max high / min low)
	VolumeRatio float64 // latest volume / trailing mean volume
}

// DetectBreakout inspects the latest bar against the trailing period bars
// immediately preceding it. Returns nil ("no signal") when the series is
// shorter than period+1 bars.
//
// BREAKOUT_UP requires the latest close above the trailing max high AND a
// volume ratio above VolumeRatioMin; BREAKOUT_DOWN is symmetric on the low
// side. The two are mutually exclusive by construction: a close cannot
// simultaneously exceed the max high and undercut the min low.
func DetectBreakout(bars []model.PriceBar, period int) *Breakout {
	if period <= 0 {
		period = DefaultBreakoutPeriod
	}
	if len(bars) < period+1 {
		return nil
	}

	latest := bars[len(bars)-1]
	trailing := bars[len(bars)-1-period : len(bars)-1]

	maxHigh := trailing[0].High
	minLow := trailing[0].Low
	var volSum float64
	for _, b := range trailing {
		if b.High > maxHigh {
			maxHigh = b.High
		}
		if b.Low < minLow {
			minLow = b.Low
		}
		volSum += float64(b.Volume)
	}
	meanVol := volSum / float64(len(trailing))
	if meanVol == 0 {
		return nil
	}
	ratio := float64(latest.Volume) / meanVol

	if latest.Close > maxHigh && ratio > VolumeRatioMin {
		return &Breakout{
			Kind:        model.BreakoutUp,
			Price:       latest.Close,
			Level:       maxHigh,
			VolumeRatio: ratio,
		}
	}
	if latest.Close < minLow && ratio > VolumeRatioMin {
		return &Breakout{
			Kind:        model.BreakoutDown,
			Price:       latest.Close,
			Level:       minLow,
			VolumeRatio: ratio,
		}
	}
	return nil
}

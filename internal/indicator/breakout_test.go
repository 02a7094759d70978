package indicator

import (
	"math"
	"testing"

	"marketviz/internal/model"
)

// rangeWindow builds period trailing bars confined to [low, high] with a
// uniform volume, followed by one latest bar.
func rangeWindow(period int, high, low float64, vol int64, latest model.PriceBar) []model.PriceBar {
	bars := make([]model.PriceBar, 0, period+1)
	for i := 0; i < period; i++ {
		bars = append(bars, model.PriceBar{
			Open:   (high + low) / 2,
			High:   high,
			Low:    low,
			Close:  (high + low) / 2,
			Volume: vol,
		})
	}
	return append(bars, latest)
}

func TestDetectBreakout_InsufficientHistory(t *testing.T) {
	bars := rangeWindow(19, 1.09, 1.08, 1000, model.PriceBar{Close: 1.0920, Volume: 1800})
	if got := DetectBreakout(bars, 20); got != nil {
		t.Fatalf("expected nil with %d bars, got %+v", len(bars), got)
	}
}

func TestDetectBreakout_Up(t *testing.T) {
	// Trailing 20 bars: max high 1.0900, mean volume 1000. The new bar
	// closes above the range on 1.8x volume.
	latest := model.PriceBar{Open: 1.0890, High: 1.0925, Low: 1.0885, Close: 1.0920, Volume: 1800}
	bars := rangeWindow(20, 1.0900, 1.0800, 1000, latest)

	bo := DetectBreakout(bars, 20)
	if bo == nil {
		t.Fatal("expected a breakout, got nil")
	}
	if bo.Kind != model.BreakoutUp {
		t.Errorf("expected BREAKOUT_UP, got %s", bo.Kind)
	}
	if bo.Price != 1.0920 {
		t.Errorf("expected price 1.0920, got %v", bo.Price)
	}
	if bo.Level != 1.0900 {
		t.Errorf("expected level 1.0900, got %v", bo.Level)
	}
	if math.Abs(bo.VolumeRatio-1.8) > 1e-9 {
		t.Errorf("expected ratio 1.8, got %v", bo.VolumeRatio)
	}
}

func TestDetectBreakout_Down(t *testing.T) {
	latest := model.PriceBar{Open: 1.0810, High: 1.0815, Low: 1.0780, Close: 1.0785, Volume: 3200}
	bars := rangeWindow(20, 1.0900, 1.0800, 1000, latest)

	bo := DetectBreakout(bars, 20)
	if bo == nil {
		t.Fatal("expected a breakout, got nil")
	}
	if bo.Kind != model.BreakoutDown {
		t.Errorf("expected BREAKOUT_DOWN, got %s", bo.Kind)
	}
	if bo.Level != 1.0800 {
		t.Errorf("expected level 1.0800, got %v", bo.Level)
	}
}

func TestDetectBreakout_VolumeBelowThreshold(t *testing.T) {
	// Price escapes the range but 1.2x volume is below the 1.5x gate.
	latest := model.PriceBar{Open: 1.0890, High: 1.0925, Low: 1.0885, Close: 1.0920, Volume: 1200}
	bars := rangeWindow(20, 1.0900, 1.0800, 1000, latest)

	if got := DetectBreakout(bars, 20); got != nil {
		t.Fatalf("expected nil at ratio 1.2, got %+v", got)
	}
}

func TestDetectBreakout_CloseInsideRange(t *testing.T) {
	// Huge volume alone is not a breakout.
	latest := model.PriceBar{Open: 1.0850, High: 1.0895, Low: 1.0820, Close: 1.0860, Volume: 5000}
	bars := rangeWindow(20, 1.0900, 1.0800, 1000, latest)

	if got := DetectBreakout(bars, 20); got != nil {
		t.Fatalf("expected nil inside the range, got %+v", got)
	}
}

func TestDetectBreakout_LatestBarExcludedFromRange(t *testing.T) {
	// The latest bar's own high must not extend the trailing range: a close
	// of 1.0920 above the trailing max of 1.0900 still breaks out even
	// though the latest high is 1.0930.
	latest := model.PriceBar{Open: 1.0890, High: 1.0930, Low: 1.0885, Close: 1.0920, Volume: 2000}
	bars := rangeWindow(20, 1.0900, 1.0800, 1000, latest)

	if got := DetectBreakout(bars, 20); got == nil {
		t.Fatal("expected a breakout; the latest bar leaked into the trailing range")
	}
}

func TestDetectBreakout_ZeroMeanVolume(t *testing.T) {
	latest := model.PriceBar{Close: 1.0920, Volume: 1800}
	bars := rangeWindow(20, 1.0900, 1.0800, 0, latest)

	if got := DetectBreakout(bars, 20); got != nil {
		t.Fatalf("expected nil with zero mean volume, got %+v", got)
	}
}

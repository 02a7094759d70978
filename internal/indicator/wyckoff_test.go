package indicator

import (
	"math"
	"testing"

	"marketviz/internal/model"
)

func flatBars(n int, price float64, vol int64) []model.PriceBar {
	bars := make([]model.PriceBar, n)
	for i := range bars {
		bars[i] = model.PriceBar{Open: price, High: price, Low: price, Close: price, Volume: vol}
	}
	return bars
}

func TestProjectTarget_InsufficientHistory(t *testing.T) {
	if got := ProjectTarget(flatBars(4, 1.0854, 1000)); got != nil {
		t.Fatalf("expected nil with 4 bars, got %+v", got)
	}
}

func TestProjectTarget_FlatSeries(t *testing.T) {
	// Zero spread everywhere: the projected move collapses to zero and the
	// target equals the latest close.
	bars := flatBars(10, 1.0854, 1000)
	tgt := ProjectTarget(bars)
	if tgt == nil {
		t.Fatal("expected a target")
	}
	if math.Abs(tgt.Price-1.0854) > 1e-12 {
		t.Errorf("expected target 1.0854, got %v", tgt.Price)
	}
	if tgt.Direction != 1 {
		t.Errorf("expected zero-delta tie-break up, got %d", tgt.Direction)
	}
	if math.Abs(tgt.EffortRatio-1.0) > 1e-12 {
		t.Errorf("expected effort ratio 1.0, got %v", tgt.EffortRatio)
	}
}

func TestProjectTarget_UpBar(t *testing.T) {
	// Five trailing bars with spread 0.0010 and volume 1000; the latest bar
	// is a 2x-volume up candle. Expected move:
	//   0.0010 * (1 + (2.0-1.0)*0.5) = 0.0015
	bars := make([]model.PriceBar, 0, 6)
	for i := 0; i < 5; i++ {
		bars = append(bars, model.PriceBar{
			Open: 1.0850, High: 1.0860, Low: 1.0850, Close: 1.0855, Volume: 1000,
		})
	}
	bars = append(bars, model.PriceBar{
		Open: 1.0855, High: 1.0875, Low: 1.0853, Close: 1.0870, Volume: 2000,
	})

	tgt := ProjectTarget(bars)
	if tgt == nil {
		t.Fatal("expected a target")
	}
	if tgt.Direction != 1 {
		t.Errorf("expected direction +1, got %d", tgt.Direction)
	}
	if math.Abs(tgt.EffortRatio-2.0) > 1e-9 {
		t.Errorf("expected effort ratio 2.0, got %v", tgt.EffortRatio)
	}
	want := 1.0870 + 0.0015
	if math.Abs(tgt.Price-want) > 1e-9 {
		t.Errorf("expected target %v, got %v", want, tgt.Price)
	}
}

func TestProjectTarget_DownBar(t *testing.T) {
	bars := make([]model.PriceBar, 0, 6)
	for i := 0; i < 5; i++ {
		bars = append(bars, model.PriceBar{
			Open: 1.0850, High: 1.0860, Low: 1.0850, Close: 1.0855, Volume: 1000,
		})
	}
	bars = append(bars, model.PriceBar{
		Open: 1.0855, High: 1.0856, Low: 1.0830, Close: 1.0840, Volume: 1000,
	})

	tgt := ProjectTarget(bars)
	if tgt == nil {
		t.Fatal("expected a target")
	}
	if tgt.Direction != -1 {
		t.Errorf("expected direction -1, got %d", tgt.Direction)
	}
	if tgt.Price >= 1.0840 {
		t.Errorf("expected target below close, got %v", tgt.Price)
	}
}

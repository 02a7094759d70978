package indicator

import (
	"math"
	"testing"
)

func TestEMA_ConstantSeries(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 1.0854
	}

	for _, period := range []int{1, 5, 10, 20, 50, 200} {
		out := EMA(values, period)
		if len(out) != len(values) {
			t.Fatalf("period %d: expected %d outputs, got %d", period, len(values), len(out))
		}
		for i, v := range out {
			if math.Abs(v-1.0854) > 1e-12 {
				t.Errorf("period %d idx %d: expected 1.0854, got %v", period, i, v)
			}
		}
	}
}

func TestEMA_SeedIsFirstValue(t *testing.T) {
	values := []float64{3.25, 1.0, 2.0, 7.5}
	for _, period := range []int{2, 10, 99} {
		out := EMA(values, period)
		if out[0] != values[0] {
			t.Errorf("period %d: expected seed %v, got %v", period, values[0], out[0])
		}
	}
}

func TestEMA_Recurrence(t *testing.T) {
	values := []float64{10, 20, 30}
	period := 4 // k = 2/5 = 0.4
	out := EMA(values, period)

	// ema[1] = 20*0.4 + 10*0.6 = 14
	// ema[2] = 30*0.4 + 14*0.6 = 20.4
	want := []float64{10, 14, 20.4}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Errorf("idx %d: expected %v, got %v", i, want[i], out[i])
		}
	}
}

func TestEMA_EmptyInput(t *testing.T) {
	if out := EMA(nil, 10); out != nil {
		t.Errorf("expected nil for empty input, got %v", out)
	}
}

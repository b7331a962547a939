package audio

import (
	"math"
	"testing"
)

func TestMix(t *testing.T) {
	tests := []struct {
		name      string
		voltages  []float64
		waveCount int
		want      byte
	}{
		{"silence", []float64{0}, 1, 128},
		{"full positive clamps", []float64{128}, 1, 255},
		{"full negative", []float64{-128}, 1, 0},
		{"average of two", []float64{64, 0}, 2, 160},
		{"truncates", []float64{10.9}, 1, 138},
		{"cancelling", []float64{100, -100}, 2, 128},
		{"wave count fixed", []float64{64}, 2, 160},
		{"no waves", nil, 0, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mix(tt.voltages, tt.waveCount); got != tt.want {
				t.Errorf("Mix(%v, %d) = %d, want %d", tt.voltages, tt.waveCount, got, tt.want)
			}
		})
	}
}

func TestMixNeverLeavesByteRange(t *testing.T) {
	extremes := []float64{
		0, 1, -1, 127.9, 128, 1e6, -1e6, math.MaxFloat64, -math.MaxFloat64,
		math.Inf(1), math.Inf(-1), math.NaN(), math.SmallestNonzeroFloat64,
	}
	for _, a := range extremes {
		for _, b := range extremes {
			got := Mix([]float64{a, b}, 2)
			// byte cannot exceed 255, so check the clamped ends explicitly
			if a > 1e5 && b > 1e5 && got != 255 {
				t.Errorf("Mix(%v, %v) = %d, want 255", a, b, got)
			}
			if a < -1e5 && b < -1e5 && got != 0 {
				t.Errorf("Mix(%v, %v) = %d, want 0", a, b, got)
			}
		}
	}

	if got := Mix([]float64{math.NaN()}, 1); got != Silence {
		t.Errorf("Mix(NaN) = %d, want %d", got, Silence)
	}
	if got := Mix([]float64{math.Inf(1), math.Inf(-1)}, 2); got != Silence {
		t.Errorf("Mix(+Inf, -Inf) = %d, want %d", got, Silence)
	}
}

func TestMixClippedReports(t *testing.T) {
	if _, clipped := mixClipped([]float64{127}, 1); clipped {
		t.Error("127 should not clip")
	}
	if b, clipped := mixClipped([]float64{300}, 1); !clipped || b != 255 {
		t.Errorf("300 = %d clipped=%v", b, clipped)
	}
	if b, clipped := mixClipped([]float64{-300}, 1); !clipped || b != 0 {
		t.Errorf("-300 = %d clipped=%v", b, clipped)
	}
}

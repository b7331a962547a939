package audio

import (
	"math"
	"testing"
)

func TestNewOscillator(t *testing.T) {
	o := NewOscillator(GenSine, Sine, 440, 0, 44000)
	if o.Period != 100 {
		t.Errorf("Period = %v, want 100", o.Period)
	}
	if math.Abs(o.Coefficient-3.6) > 1e-12 {
		t.Errorf("Coefficient = %v, want 3.6", o.Coefficient)
	}
	if o.Counter != 0 {
		t.Errorf("Counter = %v, want 0", o.Counter)
	}
}

func TestOscillatorCounterStaysInPeriod(t *testing.T) {
	// 44100 / 261.63 is not a whole number of ticks
	o := NewOscillator(GenSine, Sine, 261.63, 0, 44100)
	for i := 0; i < 200000; i++ {
		o.Voltage()
		if o.Counter < 0 || o.Counter >= o.Period {
			t.Fatalf("tick %d: counter %v outside [0, %v)", i, o.Counter, o.Period)
		}
	}
}

func TestOscillatorFractionalWrap(t *testing.T) {
	// Period 2.5 ticks: counter runs 0, 1, 2, 0.5, 1.5, 0, ...
	o := NewOscillator(GenSawtooth, Sawtooth, 4, 0, 10)
	want := []float64{0, 1, 2, 0.5, 1.5, 0, 1}
	for i, w := range want {
		if math.Abs(o.Counter-w) > 1e-9 {
			t.Errorf("tick %d: counter = %v, want %v", i, o.Counter, w)
		}
		o.Voltage()
	}
}

func TestOscillatorVoltage(t *testing.T) {
	o := NewOscillator(GenSine, Sine, 1, 90, 4)
	want := []float64{128, 0, -128, 0, 128}
	for i, w := range want {
		if got := o.Voltage(); math.Abs(got-w) > 1e-9 {
			t.Errorf("tick %d: voltage = %v, want %v", i, got, w)
		}
	}
}

func TestOscillatorPhaseWraps(t *testing.T) {
	tests := []struct {
		offset float64
		want   float64
	}{
		{0, 0},
		{90, 90},
		{360, 0},
		{450, 90},
		{-90, 270},
		{-720, 0},
	}
	for _, tt := range tests {
		o := NewOscillator(GenSawtooth, Sawtooth, 1, tt.offset, 8)
		if got := o.Phase(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("offset %v: phase = %v, want %v", tt.offset, got, tt.want)
		}
		if got := o.Phase(); got < 0 || got >= 360 {
			t.Errorf("offset %v: phase %v outside [0, 360)", tt.offset, got)
		}
	}
}

func TestOscillatorReset(t *testing.T) {
	o := NewOscillator(GenSquare, Square, 100, 0, 8000)
	for i := 0; i < 7; i++ {
		o.Voltage()
	}
	o.Reset()
	if o.Counter != 0 {
		t.Errorf("Counter after Reset = %v", o.Counter)
	}
}

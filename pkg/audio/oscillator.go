// Package audio implements the oscillator, mixing and sample clock engine
package audio

import (
	"math"
)

// FullScale is the voltage swing of one oscillator around the mix midpoint
const FullScale = 128.0

// Oscillator holds the running state of one wave
type Oscillator struct {
	Generator   string
	Frequency   float64
	Offset      float64 // Phase offset in degrees
	Counter     float64 // Ticks into the current period, always in [0, Period)
	Period      float64 // Ticks per cycle, SampleRate / Frequency
	Coefficient float64 // Degrees per tick, 360 * Frequency / SampleRate

	wave Waveform
}

// NewOscillator creates an oscillator for the given waveform and sample rate
func NewOscillator(generator string, wave Waveform, frequency, offset float64, sampleRate int) *Oscillator {
	rate := float64(sampleRate)
	return &Oscillator{
		Generator:   generator,
		Frequency:   frequency,
		Offset:      offset,
		Period:      rate / frequency,
		Coefficient: 360.0 * frequency / rate,
		wave:        wave,
	}
}

// Phase returns the current phase angle wrapped into [0, 360)
func (o *Oscillator) Phase() float64 {
	return wrapDegrees(o.Counter*o.Coefficient + o.Offset)
}

// Voltage computes the signed sample for the current tick and advances the
// counter. The counter is fractional and wraps at the fractional period.
func (o *Oscillator) Voltage() float64 {
	v := o.wave(o.Phase()) * FullScale

	o.Counter = math.Mod(o.Counter+1, o.Period)
	return v
}

// Reset rewinds the oscillator to the start of its cycle
func (o *Oscillator) Reset() {
	o.Counter = 0
}

func wrapDegrees(phase float64) float64 {
	phase = math.Mod(phase, 360)
	if phase < 0 {
		phase += 360
	}
	if phase >= 360 {
		// -tiny + 360 rounds up to 360
		phase = 0
	}
	return phase
}

package audio

import "math"

// Silence is the 8-bit unsigned PCM midpoint
const Silence = 128

// Mix averages the oscillator voltages over waveCount, shifts the result to the
// unsigned midpoint and clamps it to a byte. waveCount is the number of waves
// configured for the run, not len(voltages).
func Mix(voltages []float64, waveCount int) byte {
	b, _ := mixClipped(voltages, waveCount)
	return b
}

// mixClipped is Mix that also reports whether the sum had to be clamped
func mixClipped(voltages []float64, waveCount int) (byte, bool) {
	if waveCount <= 0 {
		return Silence, false
	}

	var sum float64
	for _, v := range voltages {
		sum += v
	}
	mixed := sum/float64(waveCount) + Silence

	switch {
	case math.IsNaN(mixed):
		return Silence, true
	case mixed < 0:
		return 0, true
	case mixed > 255:
		return 255, true
	}
	return byte(mixed), false
}

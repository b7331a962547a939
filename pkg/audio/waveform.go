package audio

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
)

// Waveform maps a phase angle in degrees [0, 360) to an amplitude in [-1, 1]
type Waveform func(phase float64) float64

// Built-in generator names
const (
	GenSine     = "sine"
	GenCosine   = "cosine"
	GenSquare   = "square"
	GenSawtooth = "sawtooth"
	GenNoise    = "noise"
)

// UnknownGeneratorError reports a wave referencing a generator that is not registered
type UnknownGeneratorError struct {
	Name  string
	Known []string
}

func (e *UnknownGeneratorError) Error() string {
	return fmt.Sprintf("unknown generator %q, choose one of: %s", e.Name, strings.Join(e.Known, ", "))
}

// Registry holds the waveforms a Generator can use
type Registry struct {
	waves map[string]Waveform
	rng   *rand.Rand
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithRand sets the random source used by the noise generator
func WithRand(rng *rand.Rand) RegistryOption {
	return func(r *Registry) {
		r.rng = rng
	}
}

// NewRegistry creates a registry holding the built-in generators
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		waves: make(map[string]Waveform),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	r.Define(GenSine, Sine)
	r.Define(GenCosine, Cosine)
	r.Define(GenSquare, Square)
	r.Define(GenSawtooth, Sawtooth)
	r.Define(GenNoise, r.noise)
	return r
}

// Define registers fn under name, replacing any previous definition
func (r *Registry) Define(name string, fn Waveform) {
	r.waves[name] = fn
}

// Lookup returns the waveform registered under name
func (r *Registry) Lookup(name string) (Waveform, error) {
	fn, ok := r.waves[name]
	if !ok {
		return nil, &UnknownGeneratorError{Name: name, Known: r.Names()}
	}
	return fn, nil
}

// Amplitude evaluates the named waveform at phase
func (r *Registry) Amplitude(name string, phase float64) (float64, error) {
	fn, err := r.Lookup(name)
	if err != nil {
		return 0, err
	}
	return fn(phase), nil
}

// Names returns the registered generator names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.waves))
	for name := range r.waves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func degToRad(phase float64) float64 {
	return phase * math.Pi / 180
}

// Sine wave
func Sine(phase float64) float64 {
	return math.Sin(degToRad(phase))
}

// Cosine wave
func Cosine(phase float64) float64 {
	return math.Cos(degToRad(phase))
}

// Square wave: low for the first half cycle, high after 180°
func Square(phase float64) float64 {
	if phase > 180 {
		return 1
	}
	return -1
}

// Sawtooth ramps from 0 up to 1 over the cycle. It is not centred on zero.
func Sawtooth(phase float64) float64 {
	return phase / 360
}

// Noise: uniform in [-1, 1)
func (r *Registry) noise(float64) float64 {
	return r.rng.Float64()*2 - 1
}

// Package patch describes a generator run: sample rate, length, output and waves
package patch

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/oisee/oscgen/pkg/note"
)

// DefaultFrequency is used for waves declared without a frequency
const DefaultFrequency = 8000.0

// Container selects how the sample stream is wrapped
type Container int

const (
	ContainerNone Container = iota // Raw unsigned 8-bit samples
	ContainerWAV                   // 44-byte RIFF/WAVE header, then samples
)

func (c Container) String() string {
	switch c {
	case ContainerNone:
		return "none"
	case ContainerWAV:
		return "wav"
	default:
		return "Container(" + strconv.Itoa(int(c)) + ")"
	}
}

// ParseContainer converts a format name to a Container
func ParseContainer(s string) (Container, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "raw":
		return ContainerNone, nil
	case "wav", "wave":
		return ContainerWAV, nil
	default:
		return ContainerNone, fmt.Errorf("unknown container format %q, choose none or wav", s)
	}
}

// WaveSpec declares one oscillator
type WaveSpec struct {
	Generator string
	Frequency float64
	Offset    float64         // Phase offset in degrees
	Note      note.Expression // Set when Frequency was resolved from notes
}

// RunConfig is everything a Generator needs for one run
type RunConfig struct {
	SampleRate int     // Samples per second, 0 = unset
	Length     float64 // Seconds, 0 = run until cancelled
	Output     string  // File path, "" or "-" for stdout
	Container  Container
	Waves      []WaveSpec

	// Custom waveforms declared by a patch file, keyed by generator name
	Generators map[string]func(phase float64) float64
}

// HasLength reports whether the run is bounded
func (c *RunConfig) HasLength() bool {
	return c.Length != 0
}

// Ticks returns the number of samples a bounded run produces
func (c *RunConfig) Ticks() int64 {
	return int64(math.Round(float64(c.SampleRate) * c.Length))
}

// Merge overlays the set fields of o onto c. Waves and generators from o are
// appended.
func (c *RunConfig) Merge(o *RunConfig) {
	if o.SampleRate != 0 {
		c.SampleRate = o.SampleRate
	}
	if o.Length != 0 {
		c.Length = o.Length
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Container != ContainerNone {
		c.Container = o.Container
	}
	c.Waves = append(c.Waves, o.Waves...)
	for name, fn := range o.Generators {
		if c.Generators == nil {
			c.Generators = make(map[string]func(float64) float64)
		}
		c.Generators[name] = fn
	}
}

// Environment variables read by FromEnv
const (
	EnvRate     = "OSCGEN_RATE"
	EnvLogLevel = "OSCGEN_LOG_LEVEL"
)

// FromEnv builds a partial configuration from environment variables
func FromEnv() (*RunConfig, error) {
	cfg := &RunConfig{}
	if v := os.Getenv(EnvRate); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvRate, err)
		}
		cfg.SampleRate = rate
	}
	return cfg, nil
}

// ParseWave parses the command-line wave syntax GENERATOR[:FREQUENCY[:OFFSET]].
// FREQUENCY is a number of Hz or a note expression such as "mi flat 1oct".
func ParseWave(s string) (WaveSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return WaveSpec{}, fmt.Errorf("wave %q: expected GENERATOR[:FREQUENCY[:OFFSET]]", s)
	}

	w := WaveSpec{
		Generator: strings.TrimSpace(parts[0]),
		Frequency: DefaultFrequency,
	}
	if w.Generator == "" {
		return WaveSpec{}, fmt.Errorf("wave %q: missing generator name", s)
	}

	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		freq := strings.TrimSpace(parts[1])
		if hz, err := strconv.ParseFloat(freq, 64); err == nil {
			w.Frequency = hz
		} else {
			expr, err := note.Parse(freq)
			if err != nil {
				return WaveSpec{}, fmt.Errorf("wave %q: %w", s, err)
			}
			hz, err := note.Resolve(expr)
			if err != nil {
				return WaveSpec{}, fmt.Errorf("wave %q: %w", s, err)
			}
			w.Frequency = hz
			w.Note = expr
		}
	}

	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		offset, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return WaveSpec{}, fmt.Errorf("wave %q: bad offset: %w", s, err)
		}
		w.Offset = offset
	}

	return w, nil
}

// String formats the wave in the command-line syntax
func (w WaveSpec) String() string {
	freq := strconv.FormatFloat(w.Frequency, 'f', -1, 64)
	if len(w.Note) > 0 {
		freq = w.Note.String()
	}
	return fmt.Sprintf("%s:%s:%s", w.Generator, freq, strconv.FormatFloat(w.Offset, 'f', -1, 64))
}

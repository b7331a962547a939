package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/oisee/oscgen/pkg/metrics"
	"github.com/oisee/oscgen/pkg/patch"
)

// State of the sample clock
type State int32

const (
	StateUnconfigured State = iota
	StateReady
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

var (
	// ErrNotReady is returned by Run before a successful Configure
	ErrNotReady = errors.New("generator not configured")
	// ErrRunning is returned by Configure while a run is in progress
	ErrRunning = errors.New("generator is running")
)

// Generator owns the oscillators of a run and drives the tick loop. Run is
// single-threaded; State and Ticks may be read from other goroutines.
type Generator struct {
	registry *Registry
	logger   *zap.Logger
	metrics  *metrics.Metrics

	cfg         *patch.RunConfig
	header      *WAVHeader
	waves       []Waveform
	oscillators []*Oscillator
	voltages    []float64
	waveCount   int

	state atomic.Int32
	ticks atomic.Int64
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the logger used for run events
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithMetrics sets the counters updated while running
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// NewGenerator creates an unconfigured generator drawing waveforms from reg
func NewGenerator(reg *Registry, opts ...Option) *Generator {
	g := &Generator{
		registry: reg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current state
func (g *Generator) State() State {
	return State(g.state.Load())
}

// Ticks returns the number of samples written so far in the current run
func (g *Generator) Ticks() int64 {
	return g.ticks.Load()
}

// Total returns the number of samples a configured run will write, or -1 if
// the run is unbounded
func (g *Generator) Total() int64 {
	if g.cfg == nil || !g.cfg.HasLength() {
		return -1
	}
	if len(g.cfg.Waves) == 0 {
		return 0
	}
	return g.cfg.Ticks()
}

// Configure validates cfg and moves the generator to StateReady. Every
// problem a run could hit is detected here, before any output is written.
func (g *Generator) Configure(cfg *patch.RunConfig) error {
	if g.State() == StateRunning {
		return ErrRunning
	}

	if cfg.SampleRate <= 0 {
		return &MissingRateError{}
	}
	if cfg.Length < 0 || math.IsNaN(cfg.Length) || math.IsInf(cfg.Length, 0) {
		return &InvalidLengthError{Length: cfg.Length, Reason: "length must be a positive finite number of seconds"}
	}
	if math.Round(float64(cfg.SampleRate)*cfg.Length) >= math.MaxInt64 {
		return &InvalidLengthError{Length: cfg.Length, Reason: "too many samples to count"}
	}

	var header *WAVHeader
	if cfg.Container == patch.ContainerWAV {
		h, err := NewWAVHeader(cfg)
		if err != nil {
			return err
		}
		header = &h
	}

	waves := make([]Waveform, len(cfg.Waves))
	for i, w := range cfg.Waves {
		fn, err := g.registry.Lookup(w.Generator)
		if err != nil {
			return fmt.Errorf("wave %d: %w", i, err)
		}
		if !(w.Frequency > 0) || math.IsInf(w.Frequency, 0) {
			return &InvalidWaveError{Index: i, Reason: fmt.Sprintf("frequency %g must be positive and finite", w.Frequency)}
		}
		if math.IsNaN(w.Offset) || math.IsInf(w.Offset, 0) {
			return &InvalidWaveError{Index: i, Reason: "offset must be finite"}
		}
		waves[i] = fn
	}

	g.cfg = cfg
	g.header = header
	g.waves = waves
	g.oscillators = nil
	g.ticks.Store(0)
	g.state.Store(int32(StateReady))
	return nil
}

// Run writes the run to w: the container header if requested, then one byte
// per tick. A bounded run stops after exactly Total ticks; an unbounded run
// stops when ctx is cancelled and returns ctx.Err(). A run without waves
// writes nothing.
func (g *Generator) Run(ctx context.Context, w io.Writer) error {
	if !g.state.CompareAndSwap(int32(StateReady), int32(StateRunning)) {
		if g.State() == StateRunning {
			return ErrRunning
		}
		return ErrNotReady
	}
	defer g.state.Store(int32(StateDone))

	g.start()
	if g.waveCount == 0 {
		g.logger.Warn("no waves configured, nothing to generate")
		g.metrics.ObserveRun(metrics.OutcomeEmpty)
		return nil
	}

	total := g.Total()
	g.logger.Info("generating",
		zap.Int("rate", g.cfg.SampleRate),
		zap.Int("waves", g.waveCount),
		zap.Int64("ticks", total),
		zap.Stringer("container", g.cfg.Container),
	)

	if g.header != nil {
		n, err := g.header.WriteTo(w)
		if err != nil {
			g.metrics.ObserveRun(metrics.OutcomeFailed)
			return fmt.Errorf("write header: %w", err)
		}
		g.metrics.ObserveHeader(int(n))
	}

	var sample [1]byte
	for n := int64(0); total < 0 || n < total; n++ {
		select {
		case <-ctx.Done():
			g.logger.Info("generation cancelled", zap.Int64("ticks", n))
			g.metrics.ObserveRun(metrics.OutcomeCancelled)
			return ctx.Err()
		default:
		}

		b, clipped := g.Next()
		sample[0] = b
		if _, err := w.Write(sample[:]); err != nil {
			g.metrics.ObserveRun(metrics.OutcomeFailed)
			return fmt.Errorf("write sample %d: %w", n, err)
		}
		g.ticks.Store(n + 1)
		g.metrics.ObserveSample(clipped)
	}

	g.logger.Info("generation finished", zap.Int64("ticks", g.Ticks()))
	g.metrics.ObserveRun(metrics.OutcomeDone)
	return nil
}

// start builds fresh oscillator state for the configured waves
func (g *Generator) start() {
	g.oscillators = make([]*Oscillator, len(g.cfg.Waves))
	for i, w := range g.cfg.Waves {
		g.oscillators[i] = NewOscillator(w.Generator, g.waves[i], w.Frequency, w.Offset, g.cfg.SampleRate)
	}
	g.voltages = make([]float64, len(g.oscillators))
	g.waveCount = len(g.oscillators)
	g.ticks.Store(0)
	g.metrics.ObserveStart(g.waveCount)
}

// Next computes the mixed sample of the current tick and advances every
// oscillator. The second result reports whether the mix was clamped.
func (g *Generator) Next() (byte, bool) {
	for i, o := range g.oscillators {
		g.voltages[i] = o.Voltage()
	}
	return mixClipped(g.voltages, g.waveCount)
}

package audio

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func TestBuiltinWaveforms(t *testing.T) {
	tests := []struct {
		name  string
		phase float64
		want  float64
	}{
		{GenSine, 0, 0},
		{GenSine, 90, 1},
		{GenSine, 270, -1},
		{GenCosine, 0, 1},
		{GenCosine, 180, -1},
		{GenSquare, 0, -1},
		{GenSquare, 180, -1},
		{GenSquare, 180.5, 1},
		{GenSquare, 359, 1},
		{GenSawtooth, 0, 0},
		{GenSawtooth, 180, 0.5},
		{GenSawtooth, 270, 0.75},
	}

	r := NewRegistry()
	for _, tt := range tests {
		got, err := r.Amplitude(tt.name, tt.phase)
		if err != nil {
			t.Fatalf("Amplitude(%s) error: %v", tt.name, err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s(%v) = %v, want %v", tt.name, tt.phase, got, tt.want)
		}
	}
}

func TestNoiseIsBoundedAndSeeded(t *testing.T) {
	a := NewRegistry(WithRand(rand.New(rand.NewPCG(1, 2))))
	b := NewRegistry(WithRand(rand.New(rand.NewPCG(1, 2))))

	noiseA, _ := a.Lookup(GenNoise)
	noiseB, _ := b.Lookup(GenNoise)
	distinct := make(map[float64]bool)
	for i := 0; i < 1000; i++ {
		va, vb := noiseA(0), noiseB(0)
		if va != vb {
			t.Fatalf("same seed diverged at %d: %v != %v", i, va, vb)
		}
		if va < -1 || va > 1 {
			t.Fatalf("noise out of range: %v", va)
		}
		distinct[va] = true
	}
	if len(distinct) < 900 {
		t.Errorf("noise looks constant: %d distinct values", len(distinct))
	}
}

func TestRegistryUnknownGenerator(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("triangle")
	var unknown *UnknownGeneratorError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownGeneratorError, got %v", err)
	}
	if unknown.Name != "triangle" || len(unknown.Known) != 5 {
		t.Errorf("unexpected error contents: %+v", unknown)
	}
	if _, err := r.Amplitude("triangle", 0); err == nil {
		t.Error("Amplitude should fail for unknown generator")
	}
}

func TestRegistryDefine(t *testing.T) {
	r := NewRegistry()
	r.Define("half", func(phase float64) float64 { return 0.5 })
	got, err := r.Amplitude("half", 123)
	if err != nil || got != 0.5 {
		t.Errorf("Amplitude(half) = %v, %v", got, err)
	}

	want := []string{"cosine", "half", "noise", "sawtooth", "sine", "square"}
	names := r.Names()
	if len(names) != len(want) {
		t.Fatalf("Names() = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()
	a.Define("only-a", Sine)
	if _, err := b.Lookup("only-a"); err == nil {
		t.Error("definition leaked between registries")
	}
}

package note

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const tolerance = 1e-9

func expected(key float64) float64 {
	return 440 * math.Pow(2, (key-49)/12)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		expr Expression
		want float64
	}{
		{"do", Expression{Do}, expected(40)},
		{"la is A4", Expression{La}, 440},
		{"mi flat one octave", Expression{Mi, Flat, Offset(Octaves(1))}, expected(44 - 1 + 12)},
		{"si sharp", Expression{Si, Sharp}, expected(52)},
		{"raw offsets only", Expression{Offset(49), Offset(-12)}, 220},
		{"sol down two octaves", Expression{Sol, Offset(Octaves(-2))}, expected(47 - 24)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.expr)
			if err != nil {
				t.Fatalf("Resolve(%v) error: %v", tt.expr, err)
			}
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("Resolve(%v) = %f, want %f", tt.expr, got, tt.want)
			}
		})
	}
}

func TestResolveUnknownNote(t *testing.T) {
	freq, err := Resolve(Expression{Do, Name(42)})
	if err == nil {
		t.Fatalf("expected error, got frequency %f", freq)
	}
	var unknown *UnknownNoteError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownNoteError, got %T", err)
	}
	if freq != 0 {
		t.Errorf("expected no frequency on error, got %f", freq)
	}
	if len(unknown.Valid) != 9 {
		t.Errorf("expected 9 valid tokens, got %v", unknown.Valid)
	}
}

func TestResolveEmpty(t *testing.T) {
	if _, err := Resolve(nil); !errors.Is(err, ErrEmptyExpression) {
		t.Errorf("expected ErrEmptyExpression, got %v", err)
	}
}

func TestOctaves(t *testing.T) {
	for _, n := range []int{-3, 0, 1, 4} {
		if got := Octaves(n); got != n*12 {
			t.Errorf("Octaves(%d) = %d", n, got)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		wantKey int
	}{
		{"do", 40},
		{"mi flat 1oct", 55},
		{"mi, bemmole, 1-octave", 55},
		{"LA -12", 37},
		{"re sharp +2", 45},
		{"fa 2octaves", 69},
		{"si -1octave", 39},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			expr, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			key, err := Key(expr)
			if err != nil {
				t.Fatalf("Key error: %v", err)
			}
			if key != tt.wantKey {
				t.Errorf("Parse(%q) key = %d, want %d", tt.in, key, tt.wantKey)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"ut", "do h", "mi xoct"} {
		_, err := Parse(in)
		var unknown *UnknownNoteError
		if !errors.As(err, &unknown) {
			t.Errorf("Parse(%q): expected *UnknownNoteError, got %v", in, err)
			continue
		}
		if !strings.Contains(err.Error(), "do, re, mi, fa, sol, la, si, flat, sharp") {
			t.Errorf("error message should list valid notes: %s", err)
		}
	}

	if _, err := Parse("  , "); !errors.Is(err, ErrEmptyExpression) {
		t.Errorf("expected ErrEmptyExpression, got %v", err)
	}
}

func TestExpressionString(t *testing.T) {
	e := Expression{Mi, Flat, Offset(12)}
	if got := e.String(); got != "mi flat 12" {
		t.Errorf("String() = %q", got)
	}
}

// Package note resolves solfège note expressions to equal-tempered frequencies
package note

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// A4 is piano key 49
const (
	ReferenceKey  = 49
	ReferenceFreq = 440.0
)

// Name is a note of the solfège scale
type Name int

const (
	Do Name = iota
	Re
	Mi
	Fa
	Sol
	La
	Si
)

var nameKeys = [...]int{
	Do:  40,
	Re:  42,
	Mi:  44,
	Fa:  45,
	Sol: 47,
	La:  49,
	Si:  51,
}

var nameStrings = [...]string{
	Do:  "do",
	Re:  "re",
	Mi:  "mi",
	Fa:  "fa",
	Sol: "sol",
	La:  "la",
	Si:  "si",
}

func (n Name) valid() bool { return n >= Do && n <= Si }

// Key returns the piano key number of the note in the fourth octave
func (n Name) Key() int {
	if !n.valid() {
		return 0
	}
	return nameKeys[n]
}

func (n Name) String() string {
	if !n.valid() {
		return "Name(" + strconv.Itoa(int(n)) + ")"
	}
	return nameStrings[n]
}

// Modifier shifts the accumulated note by a semitone
type Modifier int

const (
	Flat  Modifier = -1
	Sharp Modifier = 1
)

func (m Modifier) String() string {
	switch m {
	case Flat:
		return "flat"
	case Sharp:
		return "sharp"
	default:
		return "Modifier(" + strconv.Itoa(int(m)) + ")"
	}
}

// Offset is a raw number of semitones, see Octaves
type Offset int

func (o Offset) String() string { return strconv.Itoa(int(o)) }

// Token is one element of a note expression: a Name, a Modifier or an Offset
type Token interface {
	fmt.Stringer
	semitones() (int, error)
}

func (n Name) semitones() (int, error) {
	if !n.valid() {
		return 0, &UnknownNoteError{Token: n.String(), Valid: ValidTokens()}
	}
	return nameKeys[n], nil
}

func (m Modifier) semitones() (int, error) {
	if m != Flat && m != Sharp {
		return 0, &UnknownNoteError{Token: m.String(), Valid: ValidTokens()}
	}
	return int(m), nil
}

func (o Offset) semitones() (int, error) { return int(o), nil }

// Expression is an ordered sequence of tokens
type Expression []Token

func (e Expression) String() string {
	parts := make([]string, len(e))
	for i, t := range e {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// ErrEmptyExpression is returned when resolving an expression without tokens
var ErrEmptyExpression = errors.New("empty note expression")

// UnknownNoteError reports a token that is not in the note table
type UnknownNoteError struct {
	Token string
	Valid []string
}

func (e *UnknownNoteError) Error() string {
	return fmt.Sprintf("unknown note %q, choose one of: %s", e.Token, strings.Join(e.Valid, ", "))
}

// Octaves returns the semitone offset of n octaves
func Octaves(n int) int {
	return n * 12
}

// ValidTokens lists every word of the note table
func ValidTokens() []string {
	out := make([]string, 0, len(nameStrings)+2)
	out = append(out, nameStrings[:]...)
	return append(out, Flat.String(), Sharp.String())
}

// Key accumulates the expression into a piano key number. The first token sets
// the base and every following token is added to it.
func Key(e Expression) (int, error) {
	if len(e) == 0 {
		return 0, ErrEmptyExpression
	}
	key := 0
	for _, t := range e {
		n, err := t.semitones()
		if err != nil {
			return 0, err
		}
		key += n
	}
	return key, nil
}

// Resolve returns the frequency in Hz of the expression
func Resolve(e Expression) (float64, error) {
	key, err := Key(e)
	if err != nil {
		return 0, err
	}
	return KeyToFreq(key), nil
}

// KeyToFreq converts a piano key number to frequency
func KeyToFreq(key int) float64 {
	return ReferenceFreq * math.Pow(2.0, float64(key-ReferenceKey)/12.0)
}

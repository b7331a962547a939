package note

import (
	"strconv"
	"strings"
	"unicode"
)

var words = map[string]Token{
	"do":      Do,
	"re":      Re,
	"mi":      Mi,
	"fa":      Fa,
	"sol":     Sol,
	"la":      La,
	"si":      Si,
	"flat":    Flat,
	"bemolle": Flat,
	"bemmole": Flat,
	"sharp":   Sharp,
}

var octaveSuffixes = []string{"octaves", "octave", "oct"}

// Parse splits s on spaces and commas and converts every word to a token.
// Words are note names, modifiers, signed semitone counts ("-3", "+12") or
// octave counts ("1oct", "2octaves", "-1-octave").
func Parse(s string) (Expression, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	if len(fields) == 0 {
		return nil, ErrEmptyExpression
	}

	expr := make(Expression, 0, len(fields))
	for _, f := range fields {
		t, err := ParseToken(f)
		if err != nil {
			return nil, err
		}
		expr = append(expr, t)
	}
	return expr, nil
}

// ParseToken converts a single word to a token
func ParseToken(word string) (Token, error) {
	w := strings.ToLower(strings.TrimSpace(word))
	if t, ok := words[w]; ok {
		return t, nil
	}
	if n, err := strconv.Atoi(w); err == nil {
		return Offset(n), nil
	}
	for _, suffix := range octaveSuffixes {
		if !strings.HasSuffix(w, suffix) {
			continue
		}
		num := strings.TrimSuffix(strings.TrimSuffix(w, suffix), "-")
		if n, err := strconv.Atoi(num); err == nil {
			return Offset(Octaves(n)), nil
		}
		break
	}
	return nil, &UnknownNoteError{Token: word, Valid: ValidTokens()}
}

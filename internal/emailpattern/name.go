// Package emailpattern infers and renders email local-part templates from
// person names.
package emailpattern

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrUnsplittableName is returned when fewer than two name tokens survive normalization.
var ErrUnsplittableName = eris.New("emailpattern: name cannot be split")

// Name holds the first and last tokens of a normalized full name.
type Name struct {
	First string
	Last  string
}

// Letters that do not decompose under NFD.
var foldReplacer = strings.NewReplacer(
	"ß", "ss", "ø", "o", "Ø", "o", "ł", "l", "Ł", "l",
	"æ", "ae", "Æ", "ae", "œ", "oe", "Œ", "oe", "đ", "d", "Đ", "d", "ı", "i",
)

// Fold lower-cases s and strips diacritics.
func Fold(s string) string {
	s = foldReplacer.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// SplitName normalizes full into first and last tokens. Middle tokens are
// dropped; every non-letter character is removed from each token.
func SplitName(full string) (Name, error) {
	var tokens []string
	for _, f := range strings.Fields(Fold(full)) {
		if tok := lettersOnly(f); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) < 2 {
		return Name{}, ErrUnsplittableName
	}
	return Name{First: tokens[0], Last: tokens[len(tokens)-1]}, nil
}

func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

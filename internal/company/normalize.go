package company

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/leadmail/internal/emailpattern"
)

// legalSuffixes lists trailing legal-entity tokens stripped from company keys.
// Multi-token forms are listed before their tails.
var legalSuffixes = []string{
	"private limited", "pvt ltd", "pvt. ltd.", "pvt. ltd", "pvt ltd.",
	"l.l.c.", "l.l.c", "llc", "inc.", "inc", "incorporated",
	"corp.", "corp", "corporation", "ltd.", "ltd", "limited",
	"llp", "l.l.p.", "plc", "p.l.c.", "pvt.", "pvt", "gmbh", "ag", "s.a.", "sa",
	"b.v.", "bv", "pty ltd", "pty", "co.", "co", "lp", "l.p.",
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// NormalizeKey standardizes a company name for pattern lookups by:
//  1. Folding case and diacritics
//  2. Removing trailing legal suffixes (ltd, inc, pvt, llc, ...) repeatedly
//  3. Replacing punctuation with spaces
//  4. Collapsing whitespace
func NormalizeKey(name string) string {
	name = strings.TrimSpace(emailpattern.Fold(name))
	if name == "" {
		return ""
	}
	name = strings.TrimRight(name, ",")

	for stripped := true; stripped; {
		stripped = false
		for _, suffix := range legalSuffixes {
			if strings.HasSuffix(name, " "+suffix) || strings.HasSuffix(name, ","+suffix) {
				name = strings.TrimSpace(strings.TrimSuffix(name, suffix))
				name = strings.TrimSpace(strings.TrimRight(name, ","))
				stripped = true
				break
			}
		}
	}

	name = strings.NewReplacer("&", " and ").Replace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// Compact removes every non-alphanumeric character from the folded name.
func Compact(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, emailpattern.Fold(name))
}

// Package company normalizes company names and decides which names denote
// real organizations.
package company

import (
	"strings"

	"github.com/sells-group/leadmail/internal/emailpattern"
)

// DefaultPlaceholders are company values that never denote a real organization.
var DefaultPlaceholders = []string{
	"freelance", "freelancer", "freelancing", "self-employed", "self employed", "self",
	"confidential", "test", "testing", "test company", "n/a", "na", "none", "null",
	"unknown", "not applicable", "stealth", "stealth mode", "stealth startup",
	"independent", "independent consultant", "consultant", "private", "retired",
	"student", "unemployed", "various", "own business", "my company", "company",
	"undisclosed", "sole proprietor", "sole trader", "entrepreneur", "homemaker",
}

// Policy is the placeholder-company gate. Names are checked in three forms:
// exact (trimmed, case-folded), compact (whitespace and punctuation removed)
// and short (legal suffixes stripped). Names with fewer than two alphanumeric
// characters are always placeholders.
type Policy struct {
	exact   map[string]struct{}
	compact map[string]struct{}
}

// NewPolicy builds a Policy from DefaultPlaceholders plus extra entries.
func NewPolicy(extra ...string) *Policy {
	p := &Policy{
		exact:   make(map[string]struct{}),
		compact: make(map[string]struct{}),
	}
	for _, list := range [][]string{DefaultPlaceholders, extra} {
		for _, name := range list {
			if e := exactForm(name); e != "" {
				p.exact[e] = struct{}{}
			}
			if c := Compact(name); c != "" {
				p.compact[c] = struct{}{}
			}
		}
	}
	return p
}

func exactForm(name string) string {
	return strings.TrimSpace(emailpattern.Fold(name))
}

// IsPlaceholder reports whether company must never seed or consume a pattern.
func (p *Policy) IsPlaceholder(company string) bool {
	compact := Compact(company)
	if len(compact) < 2 {
		return true
	}
	if _, ok := p.exact[exactForm(company)]; ok {
		return true
	}
	if _, ok := p.compact[compact]; ok {
		return true
	}
	if _, ok := p.compact[Compact(NormalizeKey(company))]; ok {
		return true
	}
	return false
}

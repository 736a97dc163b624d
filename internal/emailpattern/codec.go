package emailpattern

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnknownTemplate is returned by Apply for an id outside the catalog.
var ErrUnknownTemplate = eris.New("emailpattern: unknown template")

// Match is the result of a successful Extract.
type Match struct {
	TemplateID ID
	Domain     string
	Prior      float64
}

// SplitEmail lower-cases email and splits it into local part and domain.
// Any "+tag" suffix is removed from the local part.
func SplitEmail(email string) (local, domain string, ok bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return "", "", false
	}
	local, domain = email[:at], email[at+1:]
	if i := strings.Index(local, "+"); i > 0 {
		local = local[:i]
	}
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", "", false
	}
	if strings.ContainsAny(email, " \t,;<>") {
		return "", "", false
	}
	return local, domain, true
}

var separatorStripper = strings.NewReplacer(".", "", "_", "", "-", "")

func stripSeparators(s string) string {
	return separatorStripper.Replace(s)
}

// Extract infers which template produced email for fullName. Public-mail
// domains and unsplittable names never match. All templates are tried against
// the exact local part first, in catalog order; only if none match is the
// separator-stripped local part compared with each stripped rendering.
func Extract(email, fullName string) (Match, bool) {
	local, domain, ok := SplitEmail(email)
	if !ok || IsPublicDomain(domain) {
		return Match{}, false
	}
	name, err := SplitName(fullName)
	if err != nil {
		return Match{}, false
	}

	for _, t := range Catalog {
		if local == t.Render(name) {
			return Match{TemplateID: t.ID, Domain: domain, Prior: t.Prior}, true
		}
	}
	stripped := stripSeparators(local)
	for _, t := range Catalog {
		if stripped == stripSeparators(t.Render(name)) {
			return Match{TemplateID: t.ID, Domain: domain, Prior: t.Prior}, true
		}
	}
	return Match{}, false
}

// Apply renders template id for fullName at domain.
func Apply(id ID, fullName, domain string) (string, error) {
	t, ok := Lookup(id)
	if !ok {
		return "", eris.Wrapf(ErrUnknownTemplate, "template %q", id)
	}
	name, err := SplitName(fullName)
	if err != nil {
		return "", err
	}
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return "", eris.New("emailpattern: empty domain")
	}
	return t.Render(name) + "@" + domain, nil
}

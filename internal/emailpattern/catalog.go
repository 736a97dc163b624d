package emailpattern

// ID identifies a local-part template.
type ID string

// Known templates.
const (
	FirstDotLast        ID = "first.last"
	LastDotFirst        ID = "last.first"
	FirstUnderscoreLast ID = "first_last"
	FirstLast           ID = "firstlast"
	FInitialDotLast     ID = "f.last"
	FInitialLast        ID = "flast"
	FirstOnly           ID = "first"
	LastOnly            ID = "last"
)

// Template renders a local part from a Name and carries a static confidence prior.
type Template struct {
	ID     ID
	Prior  float64
	render func(n Name) string
}

// Render returns the local part for n.
func (t Template) Render(n Name) string {
	return t.render(n)
}

// Catalog is the ordered template list. Order is the extraction tie-break:
// separator-bearing templates come before their stripped equivalents so that
// "jane.doe" resolves to first.last rather than firstlast, and the two-token
// forms come before the single-token forms. Reordering changes which template
// (and therefore which prior) is inferred for ambiguous local parts.
var Catalog = []Template{
	{ID: FirstDotLast, Prior: 0.95, render: func(n Name) string { return n.First + "." + n.Last }},
	{ID: LastDotFirst, Prior: 0.95, render: func(n Name) string { return n.Last + "." + n.First }},
	{ID: FirstUnderscoreLast, Prior: 0.90, render: func(n Name) string { return n.First + "_" + n.Last }},
	{ID: FirstLast, Prior: 0.85, render: func(n Name) string { return n.First + n.Last }},
	{ID: FInitialDotLast, Prior: 0.80, render: func(n Name) string { return initial(n.First) + "." + n.Last }},
	{ID: FInitialLast, Prior: 0.70, render: func(n Name) string { return initial(n.First) + n.Last }},
	{ID: FirstOnly, Prior: 0.60, render: func(n Name) string { return n.First }},
	{ID: LastOnly, Prior: 0.55, render: func(n Name) string { return n.Last }},
}

func initial(s string) string {
	if s == "" {
		return ""
	}
	return s[:1]
}

// Lookup returns the template with the given id.
func Lookup(id ID) (Template, bool) {
	for _, t := range Catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Prior returns the static confidence prior for id, or 0 if unknown.
func Prior(id ID) float64 {
	t, ok := Lookup(id)
	if !ok {
		return 0
	}
	return t.Prior
}

// Rank returns the catalog position of id, or len(Catalog) if unknown.
func Rank(id ID) int {
	for i, t := range Catalog {
		if t.ID == id {
			return i
		}
	}
	return len(Catalog)
}

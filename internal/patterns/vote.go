package patterns

import (
	"sort"
	"strings"

	"github.com/sells-group/leadmail/internal/emailpattern"
	"github.com/sells-group/leadmail/internal/model"
)

// Inference is a pattern inferred from a set of observations.
type Inference struct {
	TemplateID emailpattern.ID
	Domain     string
	Confidence float64
	// Count is the number of observations backing the winner.
	Count int
	// Sample is the number of eligible observations considered.
	Sample int
	// Evidence lists the addresses that voted for the winner.
	Evidence []string
}

// PeerMatch is one peer address and the template it was extracted as.
type PeerMatch struct {
	Email string
	emailpattern.Match
}

type voteKey struct {
	template emailpattern.ID
	domain   string
}

// ExtractPeers filters peers down to eligible addresses and extracts a
// template from each. Sentinel, generic-mailbox and public-domain addresses
// are not eligible. sample is the number of eligible peers.
func ExtractPeers(peers []model.Lead) (matches []PeerMatch, sample int) {
	for _, p := range peers {
		if model.IsUnknownEmail(p.Email) || p.IsEnriched() {
			continue
		}
		local, domain, ok := emailpattern.SplitEmail(p.Email)
		if !ok || emailpattern.IsGenericMailbox(local) || emailpattern.IsPublicDomain(domain) {
			continue
		}
		sample++
		if m, ok := emailpattern.Extract(p.Email, p.Name); ok {
			matches = append(matches, PeerMatch{Email: strings.ToLower(strings.TrimSpace(p.Email)), Match: m})
		}
	}
	return matches, sample
}

// Vote picks the most frequent (template, domain) pair among matches. Ties
// go to the higher template prior, then the earlier catalog position, then
// the lexically smaller domain. Confidence is prior × count / sample.
func Vote(matches []PeerMatch, sample int) (Inference, bool) {
	if len(matches) == 0 {
		return Inference{}, false
	}
	if sample < len(matches) {
		sample = len(matches)
	}

	counts := make(map[voteKey][]string)
	for _, m := range matches {
		k := voteKey{m.TemplateID, m.Domain}
		counts[k] = append(counts[k], m.Email)
	}

	keys := make([]voteKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if ca, cb := len(counts[a]), len(counts[b]); ca != cb {
			return ca > cb
		}
		return betterTemplate(a, b)
	})

	win := keys[0]
	count := len(counts[win])
	return Inference{
		TemplateID: win.template,
		Domain:     win.domain,
		Confidence: model.ClampConfidence(emailpattern.Prior(win.template) * float64(count) / float64(sample)),
		Count:      count,
		Sample:     sample,
		Evidence:   counts[win],
	}, true
}

func betterTemplate(a, b voteKey) bool {
	if pa, pb := emailpattern.Prior(a.template), emailpattern.Prior(b.template); pa != pb {
		return pa > pb
	}
	if ra, rb := emailpattern.Rank(a.template), emailpattern.Rank(b.template); ra != rb {
		return ra < rb
	}
	return a.domain < b.domain
}

// AuditMajority groups approved and applied audits by (template, domain)
// and returns the majority pair with the average confidence of its audits.
// Audits with unknown templates or public domains are ignored.
func AuditMajority(audits []model.Audit) (Inference, bool) {
	type agg struct {
		count int
		sum   float64
		ids   []string
	}
	groups := make(map[voteKey]*agg)
	total := 0
	for _, a := range audits {
		if a.Status != model.AuditApproved && a.Status != model.AuditApplied {
			continue
		}
		id := emailpattern.ID(a.TemplateID)
		domain := strings.ToLower(strings.TrimSpace(a.Domain))
		if _, ok := emailpattern.Lookup(id); !ok || domain == "" || emailpattern.IsPublicDomain(domain) {
			continue
		}
		k := voteKey{id, domain}
		g, ok := groups[k]
		if !ok {
			g = &agg{}
			groups[k] = g
		}
		g.count++
		g.sum += a.Confidence
		g.ids = append(g.ids, a.CandidateEmail)
		total++
	}
	if len(groups) == 0 {
		return Inference{}, false
	}

	var best voteKey
	var bestAgg *agg
	for k, g := range groups {
		switch {
		case bestAgg == nil, g.count > bestAgg.count:
			best, bestAgg = k, g
		case g.count == bestAgg.count:
			avgK, avgBest := g.sum/float64(g.count), bestAgg.sum/float64(bestAgg.count)
			if avgK > avgBest || (avgK == avgBest && betterTemplate(k, best)) {
				best, bestAgg = k, g
			}
		}
	}
	return Inference{
		TemplateID: best.template,
		Domain:     best.domain,
		Confidence: model.ClampConfidence(bestAgg.sum / float64(bestAgg.count)),
		Count:      bestAgg.count,
		Sample:     total,
		Evidence:   bestAgg.ids,
	}, true
}

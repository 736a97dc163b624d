package patterns

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadmail/internal/company"
	"github.com/sells-group/leadmail/internal/emailpattern"
	"github.com/sells-group/leadmail/internal/model"
	"github.com/sells-group/leadmail/internal/store"
)

// rebuildAuditLimit caps how many historical audits one rebuild reads.
const rebuildAuditLimit = 100000

// RebuildResult counts what a rebuild wrote and removed.
type RebuildResult struct {
	FromAudits int `json:"from_audits"`
	FromPeers  int `json:"from_peers"`
	Cleaned    int `json:"cleaned"`
}

// Rebuilder recomputes every stored pattern from audits and peers.
type Rebuilder struct {
	store      Store
	policy     PlaceholderPolicy
	sampleSize int
}

// NewRebuilder creates a Rebuilder.
func NewRebuilder(st Store, policy PlaceholderPolicy, sampleSize int) *Rebuilder {
	if sampleSize <= 0 {
		sampleSize = DefaultPeerSampleSize
	}
	return &Rebuilder{store: st, policy: policy, sampleSize: sampleSize}
}

// Rebuild deletes placeholder and public-domain patterns, then writes one
// pattern per company from approved/applied audits and, for companies
// without audit history, from a peer vote. Counts depend only on stored
// data, so repeated runs without changes report the same numbers.
func (r *Rebuilder) Rebuild(ctx context.Context) (RebuildResult, error) {
	var res RebuildResult

	existing, err := r.store.ListPatterns(ctx)
	if err != nil {
		return res, eris.Wrap(err, "patterns: rebuild list patterns")
	}
	for _, p := range existing {
		if !r.policy.IsPlaceholder(p.Company) && !emailpattern.IsPublicDomain(p.Domain) {
			continue
		}
		deleted, err := r.store.DeletePattern(ctx, p.Company)
		if err != nil {
			return res, eris.Wrapf(err, "patterns: rebuild delete %s", p.Company)
		}
		if deleted {
			res.Cleaned++
		}
	}

	audits, err := r.store.ListAudits(ctx, store.AuditFilter{
		Statuses: []model.AuditStatus{model.AuditApproved, model.AuditApplied},
		Limit:    rebuildAuditLimit,
	})
	if err != nil {
		return res, eris.Wrap(err, "patterns: rebuild list audits")
	}

	byCompany := make(map[string][]model.Audit)
	names := make(map[string]string)
	var order []string
	for _, a := range audits {
		name := strings.TrimSpace(a.Company)
		if r.policy.IsPlaceholder(name) {
			continue
		}
		k := strings.ToLower(name)
		if _, ok := byCompany[k]; !ok {
			order = append(order, k)
			names[k] = name
		}
		byCompany[k] = append(byCompany[k], a)
	}

	covered := make(map[string]bool, len(order))
	for _, k := range order {
		inf, ok := AuditMajority(byCompany[k])
		if !ok {
			continue
		}
		if err := r.replace(ctx, names[k], inf, model.PatternSourceAudit); err != nil {
			return res, err
		}
		covered[k] = true
		res.FromAudits++
	}

	companies, err := r.store.ListPeerCompanies(ctx)
	if err != nil {
		return res, eris.Wrap(err, "patterns: rebuild list peer companies")
	}
	for _, name := range companies {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if covered[strings.ToLower(name)] || r.policy.IsPlaceholder(name) {
			continue
		}
		inf, ok, err := inferFromPeers(ctx, r.store, name, r.sampleSize)
		if err != nil {
			return res, err
		}
		if !ok {
			continue
		}
		if err := r.replace(ctx, name, inf, model.PatternSourceRebuildPeers); err != nil {
			return res, err
		}
		covered[strings.ToLower(name)] = true
		res.FromPeers++
	}

	zap.L().Info("patterns: rebuild complete",
		zap.Int("from_audits", res.FromAudits),
		zap.Int("from_peers", res.FromPeers),
		zap.Int("cleaned", res.Cleaned),
	)
	return res, nil
}

func (r *Rebuilder) replace(ctx context.Context, name string, inf Inference, source string) error {
	err := r.store.ReplacePattern(ctx, &model.CompanyPattern{
		Company:           name,
		NormalizedCompany: company.NormalizeKey(name),
		TemplateID:        string(inf.TemplateID),
		Domain:            inf.Domain,
		Confidence:        model.ClampConfidence(inf.Confidence),
		Frequency:         inf.Count,
		Source:            source,
	})
	return eris.Wrapf(err, "patterns: rebuild write %s", name)
}

package patterns

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadmail/internal/emailpattern"
	"github.com/sells-group/leadmail/internal/metrics"
	"github.com/sells-group/leadmail/internal/model"
	"github.com/sells-group/leadmail/internal/store"
)

// Generation is the outcome of one candidate generation. Success is false for
// every source other than cache, cache_normalized, audit and peer_discovery.
type Generation struct {
	Success    bool            `json:"success"`
	Email      string          `json:"email,omitempty"`
	TemplateID emailpattern.ID `json:"template_id,omitempty"`
	Domain     string          `json:"domain,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Source     Source          `json:"source"`
	Message    string          `json:"message,omitempty"`
	// Evidence holds the peer or audit addresses behind the pattern, when known.
	Evidence []string `json:"-"`
}

// Generator produces one candidate email for a person at a company.
type Generator struct {
	store     Store
	policy    PlaceholderPolicy
	cache     *Cache
	discovery *Discovery
	metrics   *metrics.Metrics
}

// NewGenerator creates a Generator. m may be nil.
func NewGenerator(st Store, policy PlaceholderPolicy, cache *Cache, discovery *Discovery, m *metrics.Metrics) *Generator {
	return &Generator{store: st, policy: policy, cache: cache, discovery: discovery, metrics: m}
}

// Generate tries the pattern cache, then the majority of prior approved or
// applied audits, then peer discovery. Misses and unsplittable names are
// reported through Source; only persistence failures return an error.
func (g *Generator) Generate(ctx context.Context, fullName, companyName string) (Generation, error) {
	gen, err := g.generate(ctx, fullName, strings.TrimSpace(companyName))
	if err != nil {
		return Generation{}, err
	}
	g.metrics.IncGeneration(string(gen.Source))
	return gen, nil
}

func (g *Generator) generate(ctx context.Context, fullName, companyName string) (Generation, error) {
	if g.policy.IsPlaceholder(companyName) {
		return Generation{Source: SourcePlaceholderCompany, Message: "company is not a real organization"}, nil
	}

	p, src, err := g.cache.Get(ctx, companyName)
	if err != nil {
		return Generation{}, err
	}
	if p != nil {
		return render(fullName, Inference{
			TemplateID: emailpattern.ID(p.TemplateID),
			Domain:     p.Domain,
			Confidence: p.Confidence,
			Count:      p.Frequency,
		}, src), nil
	}

	audits, err := g.store.ListAudits(ctx, store.AuditFilter{
		Company:  companyName,
		Statuses: []model.AuditStatus{model.AuditApproved, model.AuditApplied},
	})
	if err != nil {
		return Generation{}, eris.Wrap(err, "patterns: list audits")
	}
	if inf, ok := AuditMajority(audits); ok {
		return render(fullName, inf, SourceAudit), nil
	}

	res, err := g.discovery.FindPattern(ctx, companyName)
	if err != nil {
		return Generation{}, err
	}
	if res.Outcome == PeerFound {
		return render(fullName, res.Inference, SourcePeerDiscovery), nil
	}

	return Generation{Source: SourceNoPattern, Message: "no pattern known for company"}, nil
}

func render(fullName string, inf Inference, src Source) Generation {
	email, err := emailpattern.Apply(inf.TemplateID, fullName, inf.Domain)
	if err != nil {
		zap.L().Debug("patterns: generation failed",
			zap.String("template", string(inf.TemplateID)),
			zap.Error(err),
		)
		msg := "name cannot be split into first and last"
		if !eris.Is(err, emailpattern.ErrUnsplittableName) {
			msg = err.Error()
		}
		return Generation{
			Source:     SourceGenerationFailed,
			TemplateID: inf.TemplateID,
			Domain:     inf.Domain,
			Message:    msg,
		}
	}
	return Generation{
		Success:    true,
		Email:      email,
		TemplateID: inf.TemplateID,
		Domain:     inf.Domain,
		Confidence: model.ClampConfidence(inf.Confidence),
		Source:     src,
		Evidence:   inf.Evidence,
	}
}

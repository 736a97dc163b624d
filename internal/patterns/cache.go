package patterns

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadmail/internal/company"
	"github.com/sells-group/leadmail/internal/emailpattern"
	"github.com/sells-group/leadmail/internal/model"
)

// Cache is the company → pattern store with the placeholder gate applied to
// every read and write.
type Cache struct {
	store  Store
	policy PlaceholderPolicy
}

// NewCache creates a Cache.
func NewCache(st Store, policy PlaceholderPolicy) *Cache {
	return &Cache{store: st, policy: policy}
}

// Get returns the pattern for companyName, looking up the exact key first and
// then the normalized key. The second return value is SourceCache or
// SourceCacheNormalized. Placeholder companies always miss.
func (c *Cache) Get(ctx context.Context, companyName string) (*model.CompanyPattern, Source, error) {
	key := strings.TrimSpace(companyName)
	if c.policy.IsPlaceholder(key) {
		zap.L().Debug("patterns: placeholder company lookup blocked", zap.String("company", key))
		return nil, "", nil
	}

	p, err := c.store.GetPattern(ctx, key)
	if err != nil {
		return nil, "", eris.Wrap(err, "patterns: get")
	}
	if c.usable(p) {
		return p, SourceCache, nil
	}

	normalized := company.NormalizeKey(key)
	if normalized == "" {
		return nil, "", nil
	}
	p, err = c.store.GetPatternByNormalized(ctx, normalized)
	if err != nil {
		return nil, "", eris.Wrap(err, "patterns: get normalized")
	}
	if c.usable(p) {
		return p, SourceCacheNormalized, nil
	}
	return nil, "", nil
}

// usable guards against rows written before a name joined the blocklist.
func (c *Cache) usable(p *model.CompanyPattern) bool {
	return p != nil &&
		!c.policy.IsPlaceholder(p.Company) &&
		!emailpattern.IsPublicDomain(p.Domain)
}

// Upsert stores a learned pattern. It is a logged no-op for placeholder
// companies and public mail domains, and loses to a stored pattern with a
// higher frequency. It reports whether the pattern was written.
func (c *Cache) Upsert(ctx context.Context, p model.CompanyPattern) (bool, error) {
	p.Company = strings.TrimSpace(p.Company)
	p.Domain = strings.ToLower(strings.TrimSpace(p.Domain))
	if c.policy.IsPlaceholder(p.Company) {
		zap.L().Info("patterns: refusing pattern for placeholder company", zap.String("company", p.Company))
		return false, nil
	}
	if p.Domain == "" || emailpattern.IsPublicDomain(p.Domain) {
		zap.L().Info("patterns: refusing public mail domain",
			zap.String("company", p.Company),
			zap.String("domain", p.Domain),
		)
		return false, nil
	}
	if _, ok := emailpattern.Lookup(emailpattern.ID(p.TemplateID)); !ok {
		return false, eris.Wrapf(emailpattern.ErrUnknownTemplate, "patterns: upsert %s", p.TemplateID)
	}
	p.NormalizedCompany = company.NormalizeKey(p.Company)
	p.Confidence = model.ClampConfidence(p.Confidence)

	written, err := c.store.UpsertPattern(ctx, &p)
	if err != nil {
		return false, eris.Wrap(err, "patterns: upsert")
	}
	if !written {
		zap.L().Debug("patterns: stored pattern has higher frequency",
			zap.String("company", p.Company),
			zap.Int("frequency", p.Frequency),
		)
	}
	return written, nil
}

// Delete removes the pattern stored for companyName.
func (c *Cache) Delete(ctx context.Context, companyName string) (bool, error) {
	ok, err := c.store.DeletePattern(ctx, strings.TrimSpace(companyName))
	return ok, eris.Wrap(err, "patterns: delete")
}

package patterns

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadmail/internal/model"
)

// PeerOutcome is the result class of a peer discovery.
type PeerOutcome string

// Peer discovery outcomes.
const (
	PeerFound     PeerOutcome = "found"
	PeerBlocked   PeerOutcome = "blocked"
	PeerNoPattern PeerOutcome = "no_pattern"
)

// PeerResult is returned by FindPattern.
type PeerResult struct {
	Outcome   PeerOutcome
	Inference Inference
}

// Discovery infers a company's pattern from its other known contacts.
type Discovery struct {
	store      Store
	cache      *Cache
	policy     PlaceholderPolicy
	sampleSize int
}

// NewDiscovery creates a Discovery. A non-positive sampleSize uses
// DefaultPeerSampleSize.
func NewDiscovery(st Store, cache *Cache, policy PlaceholderPolicy, sampleSize int) *Discovery {
	if sampleSize <= 0 {
		sampleSize = DefaultPeerSampleSize
	}
	return &Discovery{store: st, cache: cache, policy: policy, sampleSize: sampleSize}
}

// FindPattern votes over up to sampleSize peers of companyName. A found
// pattern is cached; a failed cache write is logged and does not fail the
// lookup.
func (d *Discovery) FindPattern(ctx context.Context, companyName string) (PeerResult, error) {
	key := strings.TrimSpace(companyName)
	if d.policy.IsPlaceholder(key) {
		return PeerResult{Outcome: PeerBlocked}, nil
	}

	inf, ok, err := inferFromPeers(ctx, d.store, key, d.sampleSize)
	if err != nil {
		return PeerResult{}, err
	}
	if !ok {
		return PeerResult{Outcome: PeerNoPattern}, nil
	}

	if _, err := d.cache.Upsert(ctx, model.CompanyPattern{
		Company:    key,
		TemplateID: string(inf.TemplateID),
		Domain:     inf.Domain,
		Confidence: inf.Confidence,
		Frequency:  inf.Count,
		Source:     model.PatternSourcePeerDiscovery,
	}); err != nil {
		zap.L().Warn("patterns: cache discovered pattern", zap.String("company", key), zap.Error(err))
	}

	zap.L().Debug("patterns: peer pattern discovered",
		zap.String("company", key),
		zap.String("template", string(inf.TemplateID)),
		zap.String("domain", inf.Domain),
		zap.Int("votes", inf.Count),
		zap.Int("sample", inf.Sample),
	)
	return PeerResult{Outcome: PeerFound, Inference: inf}, nil
}

func inferFromPeers(ctx context.Context, st Store, companyName string, sampleSize int) (Inference, bool, error) {
	peers, err := st.ListPeerLeads(ctx, companyName, sampleSize)
	if err != nil {
		return Inference{}, false, eris.Wrapf(err, "patterns: list peers of %s", companyName)
	}
	matches, sample := ExtractPeers(peers)
	inf, ok := Vote(matches, sample)
	return inf, ok, nil
}

// Package patterns learns company email conventions from known addresses and
// turns them into candidate emails.
package patterns

import (
	"context"

	"github.com/sells-group/leadmail/internal/model"
	"github.com/sells-group/leadmail/internal/store"
)

// Source names where a generated candidate's pattern came from.
type Source string

// Generation sources.
const (
	SourceCache              Source = "cache"
	SourceCacheNormalized    Source = "cache_normalized"
	SourceAudit              Source = "audit"
	SourcePeerDiscovery      Source = "peer_discovery"
	SourceNoPattern          Source = "no_pattern"
	SourceGenerationFailed   Source = "generation_failed"
	SourcePlaceholderCompany Source = "placeholder_company"
)

// PlaceholderPolicy decides whether a company value denotes a real
// organization. It is consulted at every read and write of this package.
type PlaceholderPolicy interface {
	IsPlaceholder(company string) bool
}

// Store is the persistence this package needs.
type Store interface {
	GetPattern(ctx context.Context, company string) (*model.CompanyPattern, error)
	GetPatternByNormalized(ctx context.Context, normalized string) (*model.CompanyPattern, error)
	UpsertPattern(ctx context.Context, p *model.CompanyPattern) (bool, error)
	ReplacePattern(ctx context.Context, p *model.CompanyPattern) error
	ListPatterns(ctx context.Context) ([]model.CompanyPattern, error)
	DeletePattern(ctx context.Context, company string) (bool, error)
	ListPeerLeads(ctx context.Context, company string, limit int) ([]model.Lead, error)
	ListPeerCompanies(ctx context.Context) ([]string, error)
	ListAudits(ctx context.Context, filter store.AuditFilter) ([]model.Audit, error)
}

// DefaultPeerSampleSize bounds how many peers are examined per company.
const DefaultPeerSampleSize = 10

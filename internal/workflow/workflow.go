// Package workflow drives batch enrichment: generating candidate emails into
// audits, applying approved audits onto leads and pruning old audits.
package workflow

import (
	"context"
	"time"

	"github.com/sells-group/leadmail/internal/metrics"
	"github.com/sells-group/leadmail/internal/model"
	"github.com/sells-group/leadmail/internal/patterns"
	"github.com/sells-group/leadmail/internal/store"
)

// Store is the persistence the workflow needs.
type Store interface {
	ListLeadsNeedingEmail(ctx context.Context, limit int) ([]model.Lead, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	FindLeads(ctx context.Context, filter store.LeadFilter) ([]model.Lead, error)
	SetLeadEmail(ctx context.Context, leadID string, u store.EmailUpdate) (bool, error)
	CreateAudit(ctx context.Context, a *model.Audit) error
	ListAuditsForApply(ctx context.Context, pendingMinConfidence float64, limit int) ([]model.Audit, error)
	TransitionAudit(ctx context.Context, id string, t model.AuditTransition) error
	DeleteAuditsBefore(ctx context.Context, status model.AuditStatus, before time.Time) (int, error)
}

// Generator produces candidate emails.
type Generator interface {
	Generate(ctx context.Context, fullName, companyName string) (patterns.Generation, error)
}

// Config tunes the workflow.
type Config struct {
	ApproveThreshold float64
	BatchSize        int
	Concurrency      int
	Retention        time.Duration
}

func (c Config) withDefaults() Config {
	// Zero means unset; config validation rejects an explicit zero.
	if c.ApproveThreshold <= 0 {
		c.ApproveThreshold = model.AutoApproveThreshold
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	if c.Retention <= 0 {
		c.Retention = 30 * 24 * time.Hour
	}
	return c
}

// Workflow runs enrichment passes.
type Workflow struct {
	store   Store
	gen     Generator
	cfg     Config
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a Workflow. m may be nil.
func New(st Store, gen Generator, cfg Config, m *metrics.Metrics) *Workflow {
	return &Workflow{store: st, gen: gen, cfg: cfg.withDefaults(), metrics: m, now: time.Now}
}

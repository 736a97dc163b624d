package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadmail/internal/model"
)

// ErrAuditConflict is returned when an audit is no longer in the expected source status.
var ErrAuditConflict = eris.New("store: audit status changed concurrently")

// MatchMode selects how FindLeads compares names and companies.
type MatchMode int

const (
	// MatchExact compares trimmed values byte-for-byte.
	MatchExact MatchMode = iota
	// MatchFold compares trimmed values case-insensitively.
	MatchFold
	// MatchContains requires the company to match case-insensitively and the
	// stored name to contain the given name case-insensitively.
	MatchContains
)

// LeadFilter specifies criteria for FindLeads.
type LeadFilter struct {
	Name    string
	Company string
	Match   MatchMode
	Limit   int
}

// AuditFilter specifies criteria for ListAudits.
type AuditFilter struct {
	Company  string
	Statuses []model.AuditStatus
	Limit    int
}

// EmailUpdate is written onto a lead when an audit is applied.
type EmailUpdate struct {
	Email      string
	Source     string
	Confidence float64
	Pattern    string
}

// Store defines the persistence interface for leads, company patterns,
// enrichment audits and verification logs. Every mutation is a single-row
// statement; conditional writes carry their precondition in the WHERE clause.
type Store interface {
	// Leads
	InsertLeads(ctx context.Context, leads []model.Lead) (int64, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error)
	FindLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	ListLeadsNeedingEmail(ctx context.Context, limit int) ([]model.Lead, error)
	ListPeerLeads(ctx context.Context, company string, limit int) ([]model.Lead, error)
	ListPeerCompanies(ctx context.Context) ([]string, error)
	// SetLeadEmail writes u only while the lead's email is empty or the
	// sentinel. It reports whether the row was updated.
	SetLeadEmail(ctx context.Context, leadID string, u EmailUpdate) (bool, error)
	ListLeadsForVerification(ctx context.Context, invalidBefore time.Time, limit int) ([]model.Lead, error)
	SetLeadVerification(ctx context.Context, leadID string, r model.VerificationResult) error

	// Company patterns
	GetPattern(ctx context.Context, company string) (*model.CompanyPattern, error)
	GetPatternByNormalized(ctx context.Context, normalized string) (*model.CompanyPattern, error)
	// UpsertPattern inserts p or overwrites the existing row when p.Frequency
	// is at least the stored frequency. It reports whether a row was written.
	UpsertPattern(ctx context.Context, p *model.CompanyPattern) (bool, error)
	ReplacePattern(ctx context.Context, p *model.CompanyPattern) error
	ListPatterns(ctx context.Context) ([]model.CompanyPattern, error)
	DeletePattern(ctx context.Context, company string) (bool, error)

	// Audits
	CreateAudit(ctx context.Context, a *model.Audit) error
	GetAudit(ctx context.Context, id string) (*model.Audit, error)
	ListAudits(ctx context.Context, filter AuditFilter) ([]model.Audit, error)
	// ListAuditsForApply returns approved audits plus pending_review audits
	// at or above pendingMinConfidence, highest confidence first.
	ListAuditsForApply(ctx context.Context, pendingMinConfidence float64, limit int) ([]model.Audit, error)
	TransitionAudit(ctx context.Context, id string, t model.AuditTransition) error
	DeleteAuditsBefore(ctx context.Context, status model.AuditStatus, before time.Time) (int, error)

	// Verification logs
	InsertVerificationLog(ctx context.Context, l *model.VerificationLog) error
	ListVerificationLogs(ctx context.Context, email string, limit int) ([]model.VerificationLog, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func validateTransition(id string, t model.AuditTransition) error {
	if !t.From.CanTransition(t.To) {
		return eris.Errorf("store: audit %s: illegal transition %s -> %s", id, t.From, t.To)
	}
	return nil
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

// prepareLead assigns an id and timestamps to a lead about to be inserted.
func prepareLead(l *model.Lead, now time.Time) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.Name = strings.TrimSpace(l.Name)
	l.Company = strings.TrimSpace(l.Company)
	l.Email = strings.TrimSpace(l.Email)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = now
}

func prepareAudit(a *model.Audit) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC()
}

func prepareVerificationLog(l *model.VerificationLog) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.VerifiedAt.IsZero() {
		l.VerifiedAt = time.Now()
	}
	l.VerifiedAt = l.VerifiedAt.UTC()
}

func marshalEvidence(evidence []string) (any, error) {
	if len(evidence) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(evidence)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal peer evidence")
	}
	return string(b), nil
}

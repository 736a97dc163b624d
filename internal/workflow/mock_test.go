package workflow

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadmail/internal/model"
	"github.com/sells-group/leadmail/internal/patterns"
	"github.com/sells-group/leadmail/internal/store"
)

// mockStore implements Store for testing.
type mockStore struct {
	mu          sync.Mutex
	leads       []*model.Lead
	audits      []*model.Audit
	listErr     error
	setEmailErr error
	createErr   error
	deleted     []time.Time
	transitions []model.AuditTransition
}

func (m *mockStore) ListLeadsNeedingEmail(_ context.Context, limit int) ([]model.Lead, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Lead
	for _, l := range m.leads {
		if l.IsEnrichmentCandidate() && len(out) < limit {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockStore) GetLead(_ context.Context, id string) (*model.Lead, error) {
	for _, l := range m.leads {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockStore) FindLeads(_ context.Context, f store.LeadFilter) ([]model.Lead, error) {
	var out []model.Lead
	for _, l := range m.leads {
		var ok bool
		switch f.Match {
		case store.MatchExact:
			ok = l.Name == f.Name && l.Company == f.Company
		case store.MatchFold:
			ok = strings.EqualFold(l.Name, f.Name) && strings.EqualFold(l.Company, f.Company)
		case store.MatchContains:
			ok = strings.Contains(strings.ToLower(l.Name), strings.ToLower(f.Name)) && strings.EqualFold(l.Company, f.Company)
		}
		if ok {
			out = append(out, *l)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *mockStore) SetLeadEmail(_ context.Context, leadID string, u store.EmailUpdate) (bool, error) {
	if m.setEmailErr != nil {
		return false, m.setEmailErr
	}
	for _, l := range m.leads {
		if l.ID == leadID && l.NeedsEmail() {
			l.Email, l.EmailSource, l.EmailPattern = u.Email, u.Source, u.Pattern
			c := u.Confidence
			l.EmailConfidence = &c
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) CreateAudit(_ context.Context, a *model.Audit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	a.ID = uuid.New().String()
	a.CreatedAt = time.Now()
	cp := *a
	m.audits = append(m.audits, &cp)
	return nil
}

func (m *mockStore) ListAuditsForApply(_ context.Context, minConf float64, limit int) ([]model.Audit, error) {
	var out []model.Audit
	for _, a := range m.audits {
		if a.Status == model.AuditApproved || (a.Status == model.AuditPendingReview && a.Confidence >= minConf) {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) TransitionAudit(_ context.Context, id string, t model.AuditTransition) error {
	if !t.From.CanTransition(t.To) {
		return eris.Errorf("illegal transition %s -> %s", t.From, t.To)
	}
	for _, a := range m.audits {
		if a.ID != id {
			continue
		}
		if a.Status != t.From {
			return eris.Wrap(store.ErrAuditConflict, id)
		}
		a.Status, a.Reason, a.ErrorMessage, a.ErrorType = t.To, t.Reason, t.ErrorMessage, t.ErrorType
		m.transitions = append(m.transitions, t)
		return nil
	}
	return eris.Errorf("audit not found: %s", id)
}

func (m *mockStore) DeleteAuditsBefore(_ context.Context, status model.AuditStatus, before time.Time) (int, error) {
	m.deleted = append(m.deleted, before)
	n := 0
	kept := m.audits[:0]
	for _, a := range m.audits {
		if a.Status == status && a.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, a)
	}
	m.audits = kept
	return n, nil
}

func (m *mockStore) audit(leadID string) *model.Audit {
	for _, a := range m.audits {
		if a.LeadID == leadID {
			return a
		}
	}
	return nil
}

func (m *mockStore) lead(id string) *model.Lead {
	for _, l := range m.leads {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// stubGenerator returns canned generations keyed by company.
type stubGenerator struct {
	byCompany map[string]patterns.Generation
	err       error
}

func (g *stubGenerator) Generate(_ context.Context, fullName, companyName string) (patterns.Generation, error) {
	if g.err != nil {
		return patterns.Generation{}, g.err
	}
	gen, ok := g.byCompany[companyName]
	if !ok {
		return patterns.Generation{Source: patterns.SourceNoPattern}, nil
	}
	if gen.Success {
		local := strings.ReplaceAll(strings.ToLower(fullName), " ", ".")
		gen.Email = local + "@" + gen.Domain
	}
	return gen, nil
}

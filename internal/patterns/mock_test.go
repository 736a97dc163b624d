package patterns

import (
	"context"
	"sort"
	"strings"

	"github.com/sells-group/leadmail/internal/model"
	"github.com/sells-group/leadmail/internal/store"
)

// mockStore implements Store for testing.
type mockStore struct {
	patterns    map[string]model.CompanyPattern
	peers       map[string][]model.Lead
	audits      []model.Audit
	upsertCalls int
	peerCalls   int
	deleted     []string
	listErr     error
}

func newMockStore() *mockStore {
	return &mockStore{
		patterns: make(map[string]model.CompanyPattern),
		peers:    make(map[string][]model.Lead),
	}
}

func (m *mockStore) addPeers(companyName string, leads ...model.Lead) {
	k := strings.ToLower(strings.TrimSpace(companyName))
	for _, l := range leads {
		l.Company = companyName
		m.peers[k] = append(m.peers[k], l)
	}
}

func (m *mockStore) GetPattern(_ context.Context, companyName string) (*model.CompanyPattern, error) {
	p, ok := m.patterns[companyName]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockStore) GetPatternByNormalized(_ context.Context, normalized string) (*model.CompanyPattern, error) {
	var best *model.CompanyPattern
	for _, p := range m.patterns {
		if p.NormalizedCompany != normalized {
			continue
		}
		if best == nil || p.Frequency > best.Frequency {
			p := p
			best = &p
		}
	}
	return best, nil
}

func (m *mockStore) UpsertPattern(_ context.Context, p *model.CompanyPattern) (bool, error) {
	m.upsertCalls++
	if cur, ok := m.patterns[p.Company]; ok && cur.Frequency > p.Frequency {
		return false, nil
	}
	m.patterns[p.Company] = *p
	return true, nil
}

func (m *mockStore) ReplacePattern(_ context.Context, p *model.CompanyPattern) error {
	m.patterns[p.Company] = *p
	return nil
}

func (m *mockStore) ListPatterns(_ context.Context) ([]model.CompanyPattern, error) {
	out := make([]model.CompanyPattern, 0, len(m.patterns))
	for _, p := range m.patterns {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Company < out[j].Company })
	return out, nil
}

func (m *mockStore) DeletePattern(_ context.Context, companyName string) (bool, error) {
	if _, ok := m.patterns[companyName]; !ok {
		return false, nil
	}
	delete(m.patterns, companyName)
	m.deleted = append(m.deleted, companyName)
	return true, nil
}

func (m *mockStore) ListPeerLeads(_ context.Context, companyName string, limit int) ([]model.Lead, error) {
	m.peerCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Lead
	for _, l := range m.peers[strings.ToLower(strings.TrimSpace(companyName))] {
		if model.IsUnknownEmail(l.Email) || l.IsEnriched() {
			continue
		}
		out = append(out, l)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) ListPeerCompanies(_ context.Context) ([]string, error) {
	var out []string
	for _, leads := range m.peers {
		if len(leads) > 0 {
			out = append(out, leads[0].Company)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockStore) ListAudits(_ context.Context, filter store.AuditFilter) ([]model.Audit, error) {
	var out []model.Audit
	for _, a := range m.audits {
		if filter.Company != "" && !strings.EqualFold(strings.TrimSpace(a.Company), strings.TrimSpace(filter.Company)) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, a.Status) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func containsStatus(list []model.AuditStatus, s model.AuditStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// stubPolicy blocks a fixed set of names.
type stubPolicy map[string]bool

func (p stubPolicy) IsPlaceholder(companyName string) bool {
	return p[strings.ToLower(strings.TrimSpace(companyName))]
}

package verify

import (
	"context"
	"io"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/sells-group/leadmail/internal/model"
)

// fakeResolver answers lookups from fixed tables.
type fakeResolver struct {
	mu      sync.Mutex
	mx      map[string][]*net.MX
	mxErr   map[string][]error
	hosts   map[string][]string
	hostErr map[string]error
	mxCalls map[string]int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		mx:      make(map[string][]*net.MX),
		mxErr:   make(map[string][]error),
		hosts:   make(map[string][]string),
		hostErr: make(map[string]error),
		mxCalls: make(map[string]int),
	}
}

// LookupMX pops the next queued error for name, if any, before answering.
func (r *fakeResolver) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mxCalls[name]++
	if errs := r.mxErr[name]; len(errs) > 0 {
		err := errs[0]
		if len(errs) > 1 {
			r.mxErr[name] = errs[1:]
		}
		if err != nil {
			return nil, err
		}
	}
	return r.mx[name], nil
}

func (r *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hostErr[host]; err != nil {
		return nil, err
	}
	return r.hosts[host], nil
}

func notFound(name string) error {
	return &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func dnsTimeout(name string) error {
	return &net.DNSError{Err: "i/o timeout", Name: name, IsTimeout: true}
}

// smtpScript drives the fake mail server. A zero greeting never answers.
type smtpScript struct {
	greeting int
	ehlo     int
	mail     int
	// rcpt maps a mailbox to its RCPT reply; unlisted mailboxes get 250.
	rcpt map[string]int
}

func acceptAll() smtpScript {
	return smtpScript{greeting: 220, ehlo: 250, mail: 250}
}

// fakeDialer serves scripted SMTP sessions over net.Pipe.
type fakeDialer struct {
	mu       sync.Mutex
	scripts  map[string]smtpScript
	dialErr  error
	dials    []string
	commands []string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{scripts: make(map[string]smtpScript)}
}

func (d *fakeDialer) DialContext(_ context.Context, _, address string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.dials = append(d.dials, host)
	script, ok := d.scripts[host]
	dialErr := d.dialErr
	d.mu.Unlock()

	if dialErr != nil {
		return nil, dialErr
	}
	if !ok {
		script = acceptAll()
	}
	client, server := net.Pipe()
	go d.serve(server, script)
	return client, nil
}

func (d *fakeDialer) serve(conn net.Conn, s smtpScript) {
	defer conn.Close() //nolint:errcheck
	if s.greeting == 0 {
		_, _ = io.Copy(io.Discard, conn)
		return
	}
	tp := textproto.NewConn(conn)
	if err := tp.PrintfLine("%d mx.test ESMTP", s.greeting); err != nil {
		return
	}
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		d.mu.Lock()
		d.commands = append(d.commands, line)
		d.mu.Unlock()

		verb := strings.ToUpper(strings.Fields(line)[0])
		switch verb {
		case "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		case "EHLO":
			if s.ehlo != 250 {
				_ = tp.PrintfLine("%d no", s.ehlo)
				continue
			}
			_ = tp.PrintfLine("250-mx.test hello")
			_ = tp.PrintfLine("250 8BITMIME")
		case "MAIL":
			_ = tp.PrintfLine("%d sender", s.mail)
		case "RCPT":
			mailbox := strings.ToLower(line[strings.Index(line, "<")+1 : strings.LastIndex(line, ">")])
			code, ok := s.rcpt[mailbox]
			if !ok {
				code = 250
			}
			_ = tp.PrintfLine("%d recipient", code)
		default:
			_ = tp.PrintfLine("502 unknown")
		}
	}
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

func (d *fakeDialer) sent() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.commands...)
}

// mockStore implements Store for testing.
type mockStore struct {
	mu           sync.Mutex
	leads        []*model.Lead
	logs         []model.VerificationLog
	listErr      error
	logErr       error
	readLogErr   error
	listedBefore time.Time
}

func (m *mockStore) ListLeadsForVerification(_ context.Context, invalidBefore time.Time, limit int) ([]model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.listedBefore = invalidBefore
	var out []model.Lead
	for _, l := range m.leads {
		if len(out) < limit {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockStore) SetLeadVerification(_ context.Context, leadID string, r model.VerificationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.ID == leadID {
			at, conf := r.VerifiedAt, r.Confidence
			l.EmailVerified = r.Outcome.Verified()
			l.VerificationMethod = r.Method
			l.VerificationReason = r.Reason
			l.VerificationConfidence = &conf
			l.VerifiedAt = &at
			return nil
		}
	}
	return nil
}

func (m *mockStore) InsertVerificationLog(_ context.Context, l *model.VerificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logErr != nil {
		return m.logErr
	}
	m.logs = append(m.logs, *l)
	return nil
}

func (m *mockStore) GetLeadByEmail(_ context.Context, email string) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if strings.EqualFold(l.Email, email) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockStore) ListVerificationLogs(_ context.Context, email string, limit int) ([]model.VerificationLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readLogErr != nil {
		return nil, m.readLogErr
	}
	var out []model.VerificationLog
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if strings.EqualFold(m.logs[i].Email, email) {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

func (m *mockStore) lead(id string) *model.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.ID == id {
			return l
		}
	}
	return nil
}

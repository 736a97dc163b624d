package verify

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadmail/internal/model"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestVerifier(st Store, r *fakeResolver, d *fakeDialer, cfg Config) *Verifier {
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	cfg.HeloHost = "probe.test"
	cfg.MailFrom = "check@probe.test"
	v := New(st, r, d, cfg, nil)
	v.now = func() time.Time { return fixedNow }
	return v
}

func acmeResolver() *fakeResolver {
	r := newFakeResolver()
	r.mx["acme.com"] = []*net.MX{{Host: "mx.acme.com.", Pref: 10}}
	return r
}

func TestVerifyAddress(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		setup       func(r *fakeResolver, d *fakeDialer)
		wantOutcome model.VerificationOutcome
		wantReason  string
		wantMethod  string
		wantConf    float64
	}{
		{
			name:        "accepted",
			email:       "jane@acme.com",
			setup:       func(r *fakeResolver, d *fakeDialer) {},
			wantOutcome: model.OutcomeValid,
			wantReason:  ReasonAccepted,
			wantMethod:  model.MethodSMTP,
			wantConf:    ConfidenceAccepted,
		},
		{
			name:  "rejected",
			email: "ghost@acme.com",
			setup: func(r *fakeResolver, d *fakeDialer) {
				d.scripts["mx.acme.com"] = smtpScript{greeting: 220, ehlo: 250, mail: 250, rcpt: map[string]int{"ghost@acme.com": 550}}
			},
			wantOutcome: model.OutcomeInvalid,
			wantReason:  "mailbox_rejected",
			wantMethod:  model.MethodSMTP,
			wantConf:    0,
		},
		{
			name:  "temporary failure",
			email: "jane@acme.com",
			setup: func(r *fakeResolver, d *fakeDialer) {
				d.scripts["mx.acme.com"] = smtpScript{greeting: 220, ehlo: 250, mail: 250, rcpt: map[string]int{"jane@acme.com": 450}}
			},
			wantOutcome: model.OutcomeInconclusive,
			wantReason:  "temporary_failure",
			wantMethod:  model.MethodSMTP,
			wantConf:    ConfidenceMXOnly,
		},
		{
			name:        "connection timeout",
			email:       "jane@acme.com",
			setup:       func(r *fakeResolver, d *fakeDialer) { d.scripts["mx.acme.com"] = smtpScript{} },
			wantOutcome: model.OutcomeInconclusive,
			wantReason:  ReasonTimeout,
			wantMethod:  model.MethodTransport,
			wantConf:    ConfidenceMXOnly,
		},
		{
			name:        "connection refused",
			email:       "jane@acme.com",
			setup:       func(r *fakeResolver, d *fakeDialer) { d.dialErr = errors.New("connection refused") },
			wantOutcome: model.OutcomeInconclusive,
			wantReason:  ReasonConnectionFailed,
			wantMethod:  model.MethodTransport,
			wantConf:    ConfidenceMXOnly,
		},
		{
			name:        "no mail host",
			email:       "jane@nomail.test",
			setup:       func(r *fakeResolver, d *fakeDialer) { r.hostErr["nomail.test"] = notFound("nomail.test") },
			wantOutcome: model.OutcomeInvalid,
			wantReason:  ReasonNoMXRecords,
			wantMethod:  model.MethodDNS,
			wantConf:    0,
		},
		{
			name:        "malformed",
			email:       "not-an-address",
			setup:       func(r *fakeResolver, d *fakeDialer) {},
			wantOutcome: model.OutcomeInvalid,
			wantReason:  ReasonMalformedEmail,
			wantMethod:  model.MethodSyntax,
			wantConf:    0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, d := acmeResolver(), newFakeDialer()
			tt.setup(r, d)
			v := newTestVerifier(&mockStore{}, r, d, Config{Timeout: 100 * time.Millisecond})

			res := v.VerifyAddress(context.Background(), tt.email)
			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantReason, res.Reason)
			assert.Equal(t, tt.wantMethod, res.Method)
			assert.InDelta(t, tt.wantConf, res.Confidence, 1e-9)
			assert.Equal(t, fixedNow, res.VerifiedAt)
		})
	}
}

func TestVerifyAddress_BlocklistedProviderSkipsSMTP(t *testing.T) {
	r, d := newFakeResolver(), newFakeDialer()
	r.mx["gmail.com"] = []*net.MX{{Host: "gmail-smtp-in.l.google.com.", Pref: 5}}
	v := newTestVerifier(&mockStore{}, r, d, Config{ProviderBlocklist: []string{"Gmail.com"}})

	res := v.VerifyAddress(context.Background(), "someone@gmail.com")
	assert.Equal(t, model.OutcomeInconclusive, res.Outcome)
	assert.Equal(t, model.MethodMXOnly, res.Method)
	assert.Equal(t, ReasonProviderBlocklisted, res.Reason)
	assert.InDelta(t, ConfidenceMXOnly, res.Confidence, 1e-9)
	assert.Equal(t, "gmail-smtp-in.l.google.com", res.MXHost)
	assert.Zero(t, d.dialCount())
}

func TestRun_CapsProbesPerDomain(t *testing.T) {
	st := &mockStore{leads: []*model.Lead{
		{ID: "a1", Company: "Acme", Email: "a1@acme.com"},
		{ID: "a2", Company: "Acme", Email: "a2@acme.com"},
		{ID: "a3", Company: "Acme", Email: "a3@acme.com"},
		{ID: "a4", Company: "Acme", Email: "a4@acme.com"},
		{ID: "g1", Company: "Globex", Email: "g1@globex.com"},
		{ID: "bad", Company: "Acme", Email: "broken"},
	}}
	r, d := acmeResolver(), newFakeDialer()
	r.mx["globex.com"] = []*net.MX{{Host: "mx.globex.com.", Pref: 10}}
	d.scripts["mx.globex.com"] = smtpScript{greeting: 220, ehlo: 250, mail: 250, rcpt: map[string]int{"g1@globex.com": 550}}
	v := newTestVerifier(st, r, d, Config{MaxProbesPerDomain: 2, ProbeInterval: time.Millisecond, RetryCooldown: 7 * 24 * time.Hour})

	res, err := v.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Leads)
	assert.Equal(t, 2, res.Domains)
	assert.Equal(t, 2, res.Valid)
	assert.Equal(t, 2, res.Invalid)
	assert.Equal(t, 2, res.Deferred)
	assert.Zero(t, res.Errors)

	assert.Equal(t, 3, d.dialCount())
	assert.Len(t, st.logs, 4)
	assert.Equal(t, fixedNow.Add(-7*24*time.Hour), st.listedBefore)

	// Deferred leads are left untouched for the next run.
	assert.Nil(t, st.lead("a3").VerifiedAt)
	assert.Nil(t, st.lead("a4").VerifiedAt)

	valid := st.lead("a1")
	require.NotNil(t, valid.EmailVerified)
	assert.True(t, *valid.EmailVerified)
	assert.Equal(t, model.MethodSMTP, valid.VerificationMethod)

	bad := st.lead("bad")
	require.NotNil(t, bad.EmailVerified)
	assert.False(t, *bad.EmailVerified)
	assert.Equal(t, ReasonMalformedEmail, bad.VerificationReason)
}

func TestRun_InconclusiveLeavesVerifiedUnknown(t *testing.T) {
	st := &mockStore{leads: []*model.Lead{{ID: "a1", Company: "Acme", Email: "a1@acme.com"}}}
	r, d := acmeResolver(), newFakeDialer()
	d.scripts["mx.acme.com"] = smtpScript{}
	v := newTestVerifier(st, r, d, Config{Timeout: 50 * time.Millisecond})

	res, err := v.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inconclusive)

	l := st.lead("a1")
	assert.Nil(t, l.EmailVerified)
	require.NotNil(t, l.VerifiedAt)
	assert.Equal(t, ReasonTimeout, l.VerificationReason)
}

func TestRun_CircuitOpensAfterTransportFailures(t *testing.T) {
	st := &mockStore{leads: []*model.Lead{
		{ID: "a1", Email: "a1@acme.com"},
		{ID: "a2", Email: "a2@acme.com"},
		{ID: "a3", Email: "a3@acme.com"},
		{ID: "a4", Email: "a4@acme.com"},
	}}
	r, d := acmeResolver(), newFakeDialer()
	d.dialErr = errors.New("connection refused")
	v := newTestVerifier(st, r, d, Config{MaxProbesPerDomain: 10, CircuitFailureThreshold: 2})

	res, err := v.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Inconclusive)
	assert.Equal(t, 2, d.dialCount())
	assert.Equal(t, ReasonConnectionFailed, st.lead("a2").VerificationReason)
	assert.Equal(t, ReasonCircuitOpen, st.lead("a3").VerificationReason)
	assert.Equal(t, ReasonCircuitOpen, st.lead("a4").VerificationReason)
}

func TestRun_PersistenceErrorsAreCounted(t *testing.T) {
	st := &mockStore{
		leads:  []*model.Lead{{ID: "a1", Email: "a1@acme.com"}, {ID: "a2", Email: "a2@acme.com"}},
		logErr: errors.New("disk full"),
	}
	v := newTestVerifier(st, acmeResolver(), newFakeDialer(), Config{})

	res, err := v.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Errors)
	assert.Zero(t, res.Valid)
}

func TestRun_RecentInvalidLogHoldsResetLead(t *testing.T) {
	cooldown := 7 * 24 * time.Hour
	st := &mockStore{
		leads: []*model.Lead{
			{ID: "a1", Email: "a1@acme.com"},
			{ID: "a2", Email: "a2@acme.com"},
			{ID: "a3", Email: "a3@acme.com"},
			{ID: "a4", Email: "a4@acme.com"},
		},
		logs: []model.VerificationLog{
			{LeadID: "a1", Email: "A1@acme.com", Outcome: model.OutcomeInvalid, VerifiedAt: fixedNow.Add(-time.Hour)},
			{LeadID: "a2", Email: "a2@acme.com", Outcome: model.OutcomeInvalid, VerifiedAt: fixedNow.Add(-cooldown - time.Hour)},
			{LeadID: "a3", Email: "a3@acme.com", Outcome: model.OutcomeInconclusive, VerifiedAt: fixedNow.Add(-time.Hour)},
		},
	}
	r, d := acmeResolver(), newFakeDialer()
	v := newTestVerifier(st, r, d, Config{MaxProbesPerDomain: 10, RetryCooldown: cooldown})

	res, err := v.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Leads)
	assert.Equal(t, 1, res.CoolingDown)
	assert.Equal(t, 3, res.Valid)
	assert.Equal(t, 3, d.dialCount())
	assert.Nil(t, st.lead("a1").VerifiedAt)
}

func TestRun_LogReadErrorSkipsLead(t *testing.T) {
	st := &mockStore{
		leads:      []*model.Lead{{ID: "a1", Email: "a1@acme.com"}},
		readLogErr: errors.New("connection reset"),
	}
	r, d := acmeResolver(), newFakeDialer()
	v := newTestVerifier(st, r, d, Config{})

	res, err := v.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Errors)
	assert.Zero(t, d.dialCount())
}

func TestRun_ListFailureAborts(t *testing.T) {
	st := &mockStore{listErr: errors.New("connection refused")}
	v := newTestVerifier(st, acmeResolver(), newFakeDialer(), Config{})

	_, err := v.Run(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify: list leads")
}

func TestStatus(t *testing.T) {
	yes := true
	conf := 0.95
	at := fixedNow.Add(-time.Hour)
	st := &mockStore{
		leads: []*model.Lead{
			{ID: "a1", Email: "jane@acme.com", EmailVerified: &yes, VerificationMethod: model.MethodSMTP,
				VerificationReason: ReasonAccepted, VerificationConfidence: &conf, VerifiedAt: &at},
			{ID: "a2", Email: "new@acme.com"},
		},
		logs: []model.VerificationLog{
			{Email: "old@acme.com", Outcome: model.OutcomeInvalid, Reason: "mailbox_rejected", Method: model.MethodSMTP, VerifiedAt: at},
		},
	}
	v := newTestVerifier(st, acmeResolver(), newFakeDialer(), Config{})
	ctx := context.Background()

	s, err := v.Status(ctx, " Jane@Acme.com ")
	require.NoError(t, err)
	assert.True(t, s.Found)
	assert.Equal(t, VerifiedTrue, s.Verified)
	assert.Equal(t, StatusSourceLead, s.Source)
	assert.Equal(t, model.MethodSMTP, s.Method)

	s, err = v.Status(ctx, "old@acme.com")
	require.NoError(t, err)
	assert.True(t, s.Found)
	assert.Equal(t, VerifiedFalse, s.Verified)
	assert.Equal(t, StatusSourceLog, s.Source)

	s, err = v.Status(ctx, "new@acme.com")
	require.NoError(t, err)
	assert.True(t, s.Found)
	assert.Equal(t, VerifiedUnknown, s.Verified)

	s, err = v.Status(ctx, "nobody@acme.com")
	require.NoError(t, err)
	assert.False(t, s.Found)
}

func TestVerified_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(map[string]Verified{"a": VerifiedTrue, "b": VerifiedFalse, "c": VerifiedUnknown})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":true,"b":false,"c":"unknown"}`, string(out))
}

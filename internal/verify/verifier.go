// Package verify checks whether a mailbox exists by resolving the domain's
// mail hosts and walking an SMTP handshake up to RCPT TO without sending
// a message.
package verify

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadmail/internal/emailpattern"
	"github.com/sells-group/leadmail/internal/metrics"
	"github.com/sells-group/leadmail/internal/model"
	"github.com/sells-group/leadmail/internal/resilience"
)

// Confidence tiers.
const (
	ConfidenceAccepted = 0.95
	ConfidenceMXOnly   = 0.70
)

// Reasons recorded outside the DNS and reply stages.
const (
	ReasonAccepted            = "smtp_accepted"
	ReasonProviderBlocklisted = "provider_blocklisted"
	ReasonMalformedEmail      = "malformed_email"
	ReasonCircuitOpen         = "circuit_open"
	ReasonTimeout             = "timeout"
	ReasonConnectionFailed    = "connection_failed"
)

// Store is the persistence verification needs.
type Store interface {
	ListLeadsForVerification(ctx context.Context, invalidBefore time.Time, limit int) ([]model.Lead, error)
	SetLeadVerification(ctx context.Context, leadID string, r model.VerificationResult) error
	InsertVerificationLog(ctx context.Context, l *model.VerificationLog) error
	GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error)
	ListVerificationLogs(ctx context.Context, email string, limit int) ([]model.VerificationLog, error)
}

// Config tunes a Verifier.
type Config struct {
	Timeout            time.Duration
	Port               int
	HeloHost           string
	MailFrom           string
	MaxProbesPerDomain int
	Workers            int
	// ProbeInterval spaces live probes to one domain. Zero disables pacing.
	ProbeInterval           time.Duration
	RetryCooldown           time.Duration
	BatchSize               int
	DNSRetries              int
	ProviderBlocklist       []string
	CircuitFailureThreshold int
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Port <= 0 {
		c.Port = 25
	}
	if c.HeloHost == "" {
		c.HeloHost = "localhost"
	}
	if c.MailFrom == "" {
		c.MailFrom = "verify@" + c.HeloHost
	}
	if c.MaxProbesPerDomain <= 0 {
		c.MaxProbesPerDomain = 3
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.ProbeInterval < 0 {
		c.ProbeInterval = 0
	}
	if c.RetryCooldown <= 0 {
		c.RetryCooldown = 7 * 24 * time.Hour
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.DNSRetries < 0 {
		c.DNSRetries = 0
	}
	return c
}

// Verifier runs deliverability checks.
type Verifier struct {
	store    Store
	resolver Resolver
	prober   *Prober
	cfg      Config
	metrics  *metrics.Metrics
	breakers *resilience.Breakers
	blocked  map[string]struct{}
	now      func() time.Time
}

// New creates a Verifier. A nil resolver uses net.DefaultResolver and a nil
// dialer a plain net.Dialer. m may be nil.
func New(st Store, r Resolver, d Dialer, cfg Config, m *metrics.Metrics) *Verifier {
	cfg = cfg.withDefaults()
	if r == nil {
		r = net.DefaultResolver
	}
	blocked := make(map[string]struct{}, len(cfg.ProviderBlocklist))
	for _, dom := range cfg.ProviderBlocklist {
		if dom = strings.ToLower(strings.TrimSpace(dom)); dom != "" {
			blocked[dom] = struct{}{}
		}
	}
	return &Verifier{
		store:    st,
		resolver: r,
		prober:   NewProber(d, cfg.Port, cfg.HeloHost, cfg.MailFrom, cfg.Timeout),
		cfg:      cfg,
		metrics:  m,
		breakers: resilience.NewBreakers(resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.CircuitFailureThreshold,
			CoolDown:         10 * time.Minute,
		}),
		blocked: blocked,
		now:     time.Now,
	}
}

// mailDomain is what a run learns about a domain before probing it.
type mailDomain struct {
	name        string
	hosts       []string
	dnsErr      error
	blocklisted bool
}

func (d mailDomain) needsProbe() bool {
	return d.dnsErr == nil && !d.blocklisted
}

func (v *Verifier) lookupDomain(ctx context.Context, domain string) mailDomain {
	d := mailDomain{name: domain, blocklisted: v.isBlocklisted(domain)}
	retry := resilience.DNSRetryConfig(v.cfg.DNSRetries)
	retry.OnRetry = resilience.RetryLogger("mx lookup", domain)
	d.hosts, d.dnsErr = ResolveMX(ctx, v.resolver, domain, retry)
	return d
}

func (v *Verifier) isBlocklisted(domain string) bool {
	if _, ok := v.blocked[domain]; ok {
		return true
	}
	_, ok := v.blocked[emailpattern.RegistrableDomain(domain)]
	return ok
}

// VerifyAddress checks a single address without persisting anything.
func (v *Verifier) VerifyAddress(ctx context.Context, email string) model.VerificationResult {
	email = strings.ToLower(strings.TrimSpace(email))
	_, domain, ok := emailpattern.SplitEmail(email)
	if !ok {
		return v.finish(model.VerificationResult{
			Email: email, Outcome: model.OutcomeInvalid, Reason: ReasonMalformedEmail, Method: model.MethodSyntax,
		})
	}
	return v.check(ctx, v.lookupDomain(ctx, domain), email)
}

func (v *Verifier) check(ctx context.Context, d mailDomain, email string) model.VerificationResult {
	r := model.VerificationResult{Email: email}

	if d.dnsErr != nil {
		r.Outcome, r.Reason = classifyDNS(d.dnsErr)
		r.Method = model.MethodDNS
		return v.finish(r)
	}
	r.MXHost = d.hosts[0]

	if d.blocklisted {
		r.Outcome, r.Reason, r.Method = model.OutcomeInconclusive, ReasonProviderBlocklisted, model.MethodMXOnly
		r.Confidence = ConfidenceMXOnly
		return v.finish(r)
	}

	cb := v.breakers.Get(r.MXHost)
	if err := cb.Allow(); err != nil {
		r.Outcome, r.Reason, r.Method = model.OutcomeInconclusive, ReasonCircuitOpen, model.MethodTransport
		r.Confidence = ConfidenceMXOnly
		return v.finish(r)
	}

	pr := v.prober.Probe(ctx, r.MXHost, email)
	cb.Record(pr.Err != nil)
	v.metrics.ObserveProbe(pr.Duration)
	r.ReplyCode = pr.Code

	switch {
	case pr.Err != nil:
		r.Outcome, r.Method = model.OutcomeInconclusive, model.MethodTransport
		r.Reason = ReasonConnectionFailed
		if isTimeout(pr.Err) {
			r.Reason = ReasonTimeout
		}
		r.Confidence = ConfidenceMXOnly
	case pr.Verdict == VerdictAccepted:
		r.Outcome, r.Reason, r.Method = model.OutcomeValid, ReasonAccepted, model.MethodSMTP
		r.Confidence = ConfidenceAccepted
	case pr.Verdict == VerdictRejected:
		r.Outcome, r.Reason, r.Method = model.OutcomeInvalid, replyReason(pr.State, pr.Code), model.MethodSMTP
	default:
		r.Outcome, r.Reason, r.Method = model.OutcomeInconclusive, replyReason(pr.State, pr.Code), model.MethodSMTP
		r.Confidence = ConfidenceMXOnly
	}
	return v.finish(r)
}

func (v *Verifier) finish(r model.VerificationResult) model.VerificationResult {
	r.VerifiedAt = v.now()
	v.metrics.IncVerification(string(r.Outcome), r.Method)
	return r
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// RunResult aggregates one verification run.
type RunResult struct {
	Leads        int `json:"leads"`
	Domains      int `json:"domains"`
	Valid        int `json:"valid"`
	Invalid      int `json:"invalid"`
	Inconclusive int `json:"inconclusive"`
	Deferred     int `json:"deferred"`
	CoolingDown  int `json:"cooling_down"`
	Errors       int `json:"errors"`
}

func (r *RunResult) count(o model.VerificationOutcome) {
	switch o {
	case model.OutcomeValid:
		r.Valid++
	case model.OutcomeInvalid:
		r.Invalid++
	default:
		r.Inconclusive++
	}
}

// recentlyInvalid reports whether the latest logged attempt for email was
// invalid and newer than cutoff. It covers leads whose own verification
// fields were cleared when the address was rewritten.
func (v *Verifier) recentlyInvalid(ctx context.Context, email string, cutoff time.Time) (bool, error) {
	logs, err := v.store.ListVerificationLogs(ctx, email, 1)
	if err != nil {
		return false, eris.Wrapf(err, "verify: latest log for %s", email)
	}
	if len(logs) == 0 {
		return false, nil
	}
	last := logs[0]
	return last.Outcome == model.OutcomeInvalid && last.VerifiedAt.After(cutoff), nil
}

func (r *RunResult) merge(o RunResult) {
	r.Valid += o.Valid
	r.Invalid += o.Invalid
	r.Inconclusive += o.Inconclusive
	r.Deferred += o.Deferred
	r.Errors += o.Errors
}

// Run verifies a batch of leads that were never verified, are
// inconclusive, or were invalid longer ago than the retry cooldown. Leads
// are grouped by domain; domains run concurrently while probes within a
// domain run one at a time up to the per-domain cap. Leads over the cap are
// left for the next run. A lead with cleared verification fields is held
// back while its address has a recent invalid log entry.
func (v *Verifier) Run(ctx context.Context, limit int) (*RunResult, error) {
	if limit <= 0 {
		limit = v.cfg.BatchSize
	}
	cutoff := v.now().Add(-v.cfg.RetryCooldown)
	leads, err := v.store.ListLeadsForVerification(ctx, cutoff, limit)
	if err != nil {
		return nil, eris.Wrap(err, "verify: list leads")
	}

	log := zap.L().With(zap.String("phase", "verify"))
	res := &RunResult{Leads: len(leads)}

	byDomain := make(map[string][]model.Lead)
	var domains []string
	var malformed []model.Lead
	for _, l := range leads {
		if l.VerifiedAt == nil {
			cooling, err := v.recentlyInvalid(ctx, l.Email, cutoff)
			if err != nil {
				log.Warn("read verification log failed", zap.String("lead_id", l.ID), zap.Error(err))
				res.Errors++
				continue
			}
			if cooling {
				res.CoolingDown++
				continue
			}
		}
		_, domain, ok := emailpattern.SplitEmail(l.Email)
		if !ok {
			malformed = append(malformed, l)
			continue
		}
		if _, seen := byDomain[domain]; !seen {
			domains = append(domains, domain)
		}
		byDomain[domain] = append(byDomain[domain], l)
	}

	log.Info("verifying leads", zap.Int("leads", len(leads)), zap.Int("domains", len(domains)))

	res.Domains = len(domains)
	for _, l := range malformed {
		var part RunResult
		v.verifyLead(ctx, &part, l, v.VerifyAddress(ctx, l.Email))
		res.merge(part)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.Workers)
	for _, domain := range domains {
		if gctx.Err() != nil {
			break
		}
		group := byDomain[domain]
		g.Go(func() error {
			part := v.runDomain(gctx, domain, group)
			mu.Lock()
			res.merge(part)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	log.Info("verification complete",
		zap.Int("valid", res.Valid),
		zap.Int("invalid", res.Invalid),
		zap.Int("inconclusive", res.Inconclusive),
		zap.Int("deferred", res.Deferred),
		zap.Int("cooling_down", res.CoolingDown),
		zap.Int("errors", res.Errors),
	)
	return res, ctx.Err()
}

func (v *Verifier) runDomain(ctx context.Context, domain string, leads []model.Lead) RunResult {
	var part RunResult
	d := v.lookupDomain(ctx, domain)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if v.cfg.ProbeInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(v.cfg.ProbeInterval), 1)
	}

	probes := 0
	for _, l := range leads {
		if ctx.Err() != nil {
			break
		}
		if d.needsProbe() {
			if probes >= v.cfg.MaxProbesPerDomain {
				part.Deferred++
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				break
			}
			probes++
		}
		v.verifyLead(ctx, &part, l, v.check(ctx, d, strings.ToLower(strings.TrimSpace(l.Email))))
	}

	if part.Deferred > 0 {
		zap.L().Info("probe cap reached, deferring leads",
			zap.String("domain", domain),
			zap.Int("deferred", part.Deferred),
		)
	}
	return part
}

// verifyLead persists r for lead and counts it. A persistence failure is
// counted and logged without stopping the run.
func (v *Verifier) verifyLead(ctx context.Context, part *RunResult, lead model.Lead, r model.VerificationResult) {
	if err := v.record(ctx, lead, r); err != nil {
		part.Errors++
		zap.L().Error("record verification",
			zap.String("lead_id", lead.ID),
			zap.String("domain", r.MXHost),
			zap.Error(err),
		)
		return
	}
	part.count(r.Outcome)
	zap.L().Debug("lead verified",
		zap.String("lead_id", lead.ID),
		zap.String("outcome", string(r.Outcome)),
		zap.String("reason", r.Reason),
	)
}

func (v *Verifier) record(ctx context.Context, lead model.Lead, r model.VerificationResult) error {
	entry := &model.VerificationLog{
		LeadID:     lead.ID,
		Email:      r.Email,
		Company:    lead.Company,
		Outcome:    r.Outcome,
		Reason:     r.Reason,
		Method:     r.Method,
		Confidence: r.Confidence,
		VerifiedAt: r.VerifiedAt,
	}
	if err := v.store.InsertVerificationLog(ctx, entry); err != nil {
		return eris.Wrap(err, "verify: insert log")
	}
	if err := v.store.SetLeadVerification(ctx, lead.ID, r); err != nil {
		return eris.Wrap(err, "verify: update lead")
	}
	return nil
}

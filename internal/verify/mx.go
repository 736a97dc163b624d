package verify

import (
	"context"
	"net"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadmail/internal/model"
	"github.com/sells-group/leadmail/internal/resilience"
)

// Resolver performs the DNS lookups verification needs. *net.Resolver
// satisfies it.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

var (
	// ErrNoMailHost means the domain exists but publishes no usable mail host.
	ErrNoMailHost = eris.New("verify: no mx records")
	// ErrDomainNotFound means the domain does not resolve at all.
	ErrDomainNotFound = eris.New("verify: domain not found")
)

// DNS stage reasons.
const (
	ReasonNoMXRecords    = "no_mx_records"
	ReasonDomainNotFound = "domain_not_found"
	ReasonDNSTimeout     = "dns_timeout"
	ReasonDNSError       = "dns_error"
)

// ResolveMX returns the mail hosts for domain, lowest preference first.
// When the domain has no MX records the domain itself is returned if it has
// an address record. A null MX ("." per RFC 7505) means the domain accepts no
// mail and yields ErrNoMailHost without the address fallback.
func ResolveMX(ctx context.Context, r Resolver, domain string, retry resilience.RetryConfig) ([]string, error) {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")

	mxs, mxErr := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]*net.MX, error) {
		return r.LookupMX(ctx, domain)
	})
	if mxErr != nil && !resilience.IsNotFound(mxErr) {
		return nil, eris.Wrapf(mxErr, "verify: lookup mx %s", domain)
	}

	if len(mxs) > 0 {
		sort.SliceStable(mxs, func(i, j int) bool { return mxs[i].Pref < mxs[j].Pref })
		hosts := make([]string, 0, len(mxs))
		for _, mx := range mxs {
			host := strings.TrimSuffix(mx.Host, ".")
			if host == "" {
				continue
			}
			hosts = append(hosts, strings.ToLower(host))
		}
		if len(hosts) == 0 {
			return nil, ErrNoMailHost
		}
		return hosts, nil
	}

	addrs, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]string, error) {
		return r.LookupHost(ctx, domain)
	})
	switch {
	case err == nil && len(addrs) > 0:
		return []string{domain}, nil
	case err == nil:
		return nil, ErrNoMailHost
	case resilience.IsNotFound(err):
		if mxErr != nil {
			return nil, ErrDomainNotFound
		}
		return nil, ErrNoMailHost
	default:
		return nil, eris.Wrapf(err, "verify: lookup host %s", domain)
	}
}

// classifyDNS maps a ResolveMX failure to an outcome and reason. Transient
// failures stay inconclusive; only authoritative answers prove an address bad.
func classifyDNS(err error) (model.VerificationOutcome, string) {
	switch {
	case eris.Is(err, ErrNoMailHost):
		return model.OutcomeInvalid, ReasonNoMXRecords
	case eris.Is(err, ErrDomainNotFound), resilience.IsNotFound(err):
		return model.OutcomeInvalid, ReasonDomainNotFound
	case resilience.IsTransient(err), eris.Is(err, context.DeadlineExceeded):
		return model.OutcomeInconclusive, ReasonDNSTimeout
	default:
		return model.OutcomeInvalid, ReasonDNSError
	}
}

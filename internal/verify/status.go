package verify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Verified is a tri-state deliverability answer.
type Verified int

const (
	VerifiedUnknown Verified = iota
	VerifiedTrue
	VerifiedFalse
)

// MarshalJSON encodes Verified as true, false or "unknown".
func (v Verified) MarshalJSON() ([]byte, error) {
	switch v {
	case VerifiedTrue:
		return []byte("true"), nil
	case VerifiedFalse:
		return []byte("false"), nil
	default:
		return json.Marshal("unknown")
	}
}

func verifiedFrom(b *bool) Verified {
	switch {
	case b == nil:
		return VerifiedUnknown
	case *b:
		return VerifiedTrue
	default:
		return VerifiedFalse
	}
}

// Status sources.
const (
	StatusSourceLead = "lead"
	StatusSourceLog  = "verification_log"
)

// Status answers a verification lookup for one address.
type Status struct {
	Found      bool       `json:"found"`
	Verified   Verified   `json:"verified"`
	CheckedAt  *time.Time `json:"checked_at,omitempty"`
	Method     string     `json:"method,omitempty"`
	Confidence *float64   `json:"confidence,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Source     string     `json:"source,omitempty"`
}

// Status reports the latest known verification for email. The lead record
// is preferred; the log covers addresses whose lead has since changed.
func (v *Verifier) Status(ctx context.Context, email string) (*Status, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return &Status{}, nil
	}

	lead, err := v.store.GetLeadByEmail(ctx, email)
	if err != nil {
		return nil, eris.Wrap(err, "verify: status lead")
	}
	if lead != nil && lead.VerifiedAt != nil {
		return &Status{
			Found:      true,
			Verified:   verifiedFrom(lead.EmailVerified),
			CheckedAt:  lead.VerifiedAt,
			Method:     lead.VerificationMethod,
			Confidence: lead.VerificationConfidence,
			Reason:     lead.VerificationReason,
			Source:     StatusSourceLead,
		}, nil
	}

	logs, err := v.store.ListVerificationLogs(ctx, email, 1)
	if err != nil {
		return nil, eris.Wrap(err, "verify: status logs")
	}
	if len(logs) > 0 {
		l := logs[0]
		conf := l.Confidence
		at := l.VerifiedAt
		return &Status{
			Found:      true,
			Verified:   verifiedFrom(l.Outcome.Verified()),
			CheckedAt:  &at,
			Method:     l.Method,
			Confidence: &conf,
			Reason:     l.Reason,
			Source:     StatusSourceLog,
		}, nil
	}

	if lead != nil {
		return &Status{Found: true, Source: StatusSourceLead}, nil
	}
	return &Status{}, nil
}

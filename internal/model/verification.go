package model

import "time"

// VerificationOutcome classifies a deliverability check.
type VerificationOutcome string

const (
	OutcomeValid        VerificationOutcome = "valid"
	OutcomeInvalid      VerificationOutcome = "invalid"
	OutcomeInconclusive VerificationOutcome = "inconclusive"
)

// Verified maps an outcome to the lead's tri-state email_verified field.
// Inconclusive yields nil (unknown).
func (o VerificationOutcome) Verified() *bool {
	switch o {
	case OutcomeValid:
		v := true
		return &v
	case OutcomeInvalid:
		v := false
		return &v
	default:
		return nil
	}
}

// Verification methods.
const (
	MethodSMTP      = "smtp"
	MethodMXOnly    = "mx_only"
	MethodDNS       = "dns"
	MethodSyntax    = "syntax"
	MethodTransport = "transport"
)

// VerificationResult is the annotation written onto a lead.
type VerificationResult struct {
	Email      string              `json:"email"`
	Outcome    VerificationOutcome `json:"outcome"`
	Reason     string              `json:"reason"`
	Method     string              `json:"method"`
	Confidence float64             `json:"confidence"`
	MXHost     string              `json:"mx_host,omitempty"`
	ReplyCode  int                 `json:"reply_code,omitempty"`
	VerifiedAt time.Time           `json:"verified_at"`
}

// VerificationLog is an append-only record of one verification attempt.
type VerificationLog struct {
	ID         string              `json:"id" db:"id"`
	LeadID     string              `json:"lead_id" db:"lead_id"`
	Email      string              `json:"email" db:"email"`
	Company    string              `json:"company" db:"company"`
	Outcome    VerificationOutcome `json:"outcome" db:"outcome"`
	Reason     string              `json:"reason" db:"reason"`
	Method     string              `json:"method" db:"method"`
	Confidence float64             `json:"confidence" db:"confidence"`
	VerifiedAt time.Time           `json:"verified_at" db:"verified_at"`
}

package model

import (
	"strings"
	"time"
)

// SentinelEmail is the reserved placeholder meaning the lead's email is unknown.
const SentinelEmail = "email_not_unlocked@domain.com"

// EmailSourcePatternInference marks an address produced by the enrichment
// workflow. Such addresses are never used as peer evidence.
const EmailSourcePatternInference = "pattern_inference"

// Lead is a prospect record whose email may be enriched and verified.
type Lead struct {
	ID                     string     `json:"id" db:"id"`
	Name                   string     `json:"name" db:"name"`
	Company                string     `json:"company" db:"company"`
	Title                  string     `json:"title,omitempty" db:"title"`
	Email                  string     `json:"email" db:"email"`
	EmailSource            string     `json:"email_source,omitempty" db:"email_source"`
	EmailConfidence        *float64   `json:"email_confidence,omitempty" db:"email_confidence"`
	EmailPattern           string     `json:"email_pattern,omitempty" db:"email_pattern"`
	EmailVerified          *bool      `json:"email_verified" db:"email_verified"`
	VerificationMethod     string     `json:"verification_method,omitempty" db:"verification_method"`
	VerificationReason     string     `json:"verification_reason,omitempty" db:"verification_reason"`
	VerificationConfidence *float64   `json:"verification_confidence,omitempty" db:"verification_confidence"`
	VerifiedAt             *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// IsUnknownEmail reports whether email is empty or the sentinel value.
func IsUnknownEmail(email string) bool {
	e := strings.ToLower(strings.TrimSpace(email))
	return e == "" || e == SentinelEmail
}

// IsSentinelEmail reports whether email is the reserved unknown-email value.
func IsSentinelEmail(email string) bool {
	return strings.ToLower(strings.TrimSpace(email)) == SentinelEmail
}

// NeedsEmail reports whether the lead's email may still be written.
func (l *Lead) NeedsEmail() bool {
	return IsUnknownEmail(l.Email)
}

// IsEnrichmentCandidate reports whether the lead is pulled by the enrich
// pass. Only the sentinel qualifies; empty emails are left alone.
func (l *Lead) IsEnrichmentCandidate() bool {
	return IsSentinelEmail(l.Email)
}

// IsEnriched reports whether the lead's current email was produced by pattern inference.
func (l *Lead) IsEnriched() bool {
	return l.EmailSource == EmailSourcePatternInference
}

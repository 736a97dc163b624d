package model

import "time"

// AuditStatus is the lifecycle state of an enrichment audit.
type AuditStatus string

const (
	AuditPendingReview AuditStatus = "pending_review"
	AuditApproved      AuditStatus = "approved"
	AuditApplied       AuditStatus = "applied"
	AuditSkipped       AuditStatus = "skipped"
	AuditError         AuditStatus = "error"
)

// Skip reasons recorded when an audit is not applied.
const (
	SkipReasonNoMatchingFilter   = "no_matching_filter"
	SkipReasonEmailAlreadyExists = "email_already_exists"
)

// AutoApproveThreshold is the confidence at or above which a new audit starts approved.
const AutoApproveThreshold = 0.8

var auditTransitions = map[AuditStatus][]AuditStatus{
	AuditPendingReview: {AuditApproved, AuditSkipped},
	AuditApproved:      {AuditApplied, AuditSkipped, AuditError},
}

// CanTransition reports whether an audit may move from s to next.
// Only pending_review and approved have outgoing edges.
func (s AuditStatus) CanTransition(next AuditStatus) bool {
	for _, to := range auditTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func (s AuditStatus) IsTerminal() bool {
	return len(auditTransitions[s]) == 0
}

// InitialAuditStatus picks the creation state from confidence against threshold,
// or approved when manual approval was requested.
func InitialAuditStatus(confidence, threshold float64, manualApprove bool) AuditStatus {
	if manualApprove || confidence >= threshold {
		return AuditApproved
	}
	return AuditPendingReview
}

// Audit records one enrichment attempt for a lead.
type Audit struct {
	ID             string      `json:"id" db:"id"`
	LeadID         string      `json:"lead_id" db:"lead_id"`
	Company        string      `json:"company" db:"company"`
	TargetName     string      `json:"target_name" db:"target_name"`
	CandidateEmail string      `json:"candidate_email" db:"candidate_email"`
	TemplateID     string      `json:"template_id" db:"template_id"`
	Domain         string      `json:"domain" db:"domain"`
	Confidence     float64     `json:"confidence" db:"confidence"`
	Source         string      `json:"source" db:"source"`
	PeerEvidence   []string    `json:"peer_evidence,omitempty" db:"peer_evidence"`
	Status         AuditStatus `json:"status" db:"status"`
	Reason         string      `json:"reason,omitempty" db:"reason"`
	ErrorMessage   string      `json:"error_message,omitempty" db:"error_message"`
	ErrorType      string      `json:"error_type,omitempty" db:"error_type"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	ProcessedAt    *time.Time  `json:"processed_at,omitempty" db:"processed_at"`
}

// AuditTransition describes a status change and its annotations.
type AuditTransition struct {
	From         AuditStatus
	To           AuditStatus
	Reason       string
	ErrorMessage string
	ErrorType    string
}

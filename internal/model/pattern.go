package model

import "time"

// Pattern sources recorded on CompanyPattern.Source.
const (
	PatternSourcePeerDiscovery = "peer_discovery"
	PatternSourceAudit         = "audit"
	PatternSourceRebuildPeers  = "rebuild_peers"
)

// CompanyPattern is the learned email-naming convention for one company.
type CompanyPattern struct {
	Company           string    `json:"company" db:"company"`
	NormalizedCompany string    `json:"normalized_company" db:"normalized_company"`
	TemplateID        string    `json:"template_id" db:"template_id"`
	Domain            string    `json:"domain" db:"domain"`
	Confidence        float64   `json:"confidence" db:"confidence"`
	Frequency         int       `json:"frequency" db:"frequency"`
	Source            string    `json:"source" db:"source"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// ClampConfidence bounds c to [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

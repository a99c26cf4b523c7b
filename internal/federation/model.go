// Package federation verifies and aggregates trust across the network of
// independently operated peer instances.
//
// Each peer publishes a trust record summarising its governance ledger. This
// package fetches those records, classifies each peer's freshness and
// validity, and rolls the classifications into a network-wide trust summary.
// Peer failures are data, never errors: an unreachable peer classifies as
// "error" and must not affect any other peer's evaluation.
package federation

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TrustStatus classifies a peer's published trust record.
type TrustStatus string

const (
	// TrustValid — record fresh and well-formed, no integrity violation detected.
	TrustValid TrustStatus = "valid"
	// TrustStale — no recent update, peer overdue for a transparency refresh.
	TrustStale TrustStatus = "stale"
	// TrustFlagged — record malformed or inconsistent, requires human review.
	TrustFlagged TrustStatus = "flagged"
	// TrustError — unable to verify: endpoint unreachable or invalid payload.
	TrustError TrustStatus = "error"
)

// DefaultStaleThresholdDays applies when a peer config does not set its own.
const DefaultStaleThresholdDays = 30

var (
	partnerIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	endpointPattern  = regexp.MustCompile(`^https?://`)
	hexRootPattern   = regexp.MustCompile(`^[a-f0-9]{64}$`)
)

// PeerConfig is one configured federation partner. The partner list is
// supplied by an external collaborator via the peer registry file.
type PeerConfig struct {
	PartnerID          string `json:"partner_id"`
	DisplayName        string `json:"partner_display_name"`
	Endpoint           string `json:"governance_endpoint"`
	StaleThresholdDays int    `json:"stale_threshold_days,omitempty"`
	Active             bool   `json:"active"`
	AddedAt            string `json:"added_at,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

// Validate checks the structural constraints a peer entry must satisfy
// before it is admitted to the registry.
func (p PeerConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PartnerID,
			validation.Required,
			validation.Match(partnerIDPattern).Error("must contain only alphanumerics, dots, underscores and hyphens"),
		),
		validation.Field(&p.DisplayName,
			validation.Required,
			validation.Length(3, 120),
		),
		validation.Field(&p.Endpoint,
			validation.Required,
			validation.Match(endpointPattern).Error("must be an http or https URL"),
		),
		validation.Field(&p.StaleThresholdDays,
			validation.Min(0),
		),
	)
}

// PeerRecord is the trust record a peer publishes at its record endpoint.
// It is ephemeral: recomputed on demand from the peer's latest ledger state,
// never persisted as a distinct entity.
type PeerRecord struct {
	PartnerID       string `json:"partner_id"`
	DisplayName     string `json:"partner_display_name,omitempty"`
	MerkleRoot      string `json:"merkle_root"`
	Timestamp       string `json:"timestamp"`
	ComplianceStage string `json:"compliance_stage,omitempty"`
	Signature       string `json:"signature,omitempty"`
	HashAlgorithm   string `json:"hash_algorithm,omitempty"`
}

// VerificationResult is the per-peer outcome of one verification pass.
type VerificationResult struct {
	PartnerID       string      `json:"partner_id"`
	DisplayName     string      `json:"display_name"`
	LastMerkleRoot  string      `json:"last_merkle_root"`
	LastVerifiedAt  string      `json:"last_verified_at"`
	TrustStatus     TrustStatus `json:"trust_status"`
	Notes           string      `json:"notes"`
	ComplianceStage string      `json:"compliance_stage,omitempty"`
}

// NetworkTrustSummary is the aggregate view of federation network health.
type NetworkTrustSummary struct {
	Timestamp              string `json:"timestamp"`
	TotalPartners          int    `json:"total_partners"`
	ValidPartners          int    `json:"valid_partners"`
	StalePartners          int    `json:"stale_partners"`
	FlaggedPartners        int    `json:"flagged_partners"`
	ErrorPartners          int    `json:"error_partners"`
	NetworkMerkleAggregate string `json:"network_merkle_aggregate"`
	TrustScore             int    `json:"trust_score"`
	HealthStatus           string `json:"health_status"`
	Notes                  string `json:"notes,omitempty"`
}

// Health labels for NetworkTrustSummary.HealthStatus.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthCritical = "critical"
)

// Package attestation implements the lifecycle of artifact attestation
// proofs: time-bounded, revocable cryptographic claims binding an artifact's
// content digest to a governance ledger reference.
//
// Proofs move through ISSUED → ACTIVE → EXPIRED purely by the passage of
// time; an explicit, authorized REVOKED transition is terminal and
// irreversible. Both the active-proof store and the revocation store are
// append-only: revoking never touches the original proof record, preserving
// the audit trail.
package attestation

import "errors"

// Proof is one issued attestation, appended to the active-proof store and
// never mutated afterwards.
type Proof struct {
	ArtifactID      string `json:"artifact_id"`
	ArtifactHash    string `json:"artifact_hash"`
	Token           string `json:"token"`
	IssuedAt        string `json:"issued_at"`
	ExpiresAt       string `json:"expires_at"`
	LedgerReference string `json:"ledger_reference"`
}

// Revocation is one revocation action, appended to the revocation store.
// The corresponding Proof is deliberately left untouched.
type Revocation struct {
	ID            string `json:"id"`
	ArtifactID    string `json:"artifact_id"`
	OriginalToken string `json:"original_token"`
	RevokedAt     string `json:"revoked_at"`
	Reason        string `json:"reason"`
	RevokedBy     string `json:"revoked_by"`
}

// Status is the outcome of verifying an artifact's attestation.
type Status string

// Verification statuses, in precedence order: revoked always wins, then
// expiry, then a content digest mismatch, then valid.
const (
	StatusValid        Status = "valid"
	StatusExpired      Status = "expired"
	StatusRevoked      Status = "revoked"
	StatusHashMismatch Status = "hash_mismatch"
	StatusNotFound     Status = "not_found"
)

// Result is the full verification response for an artifact.
type Result struct {
	ArtifactID       string `json:"artifact_id"`
	Status           Status `json:"status"`
	ArtifactHash     string `json:"artifact_hash,omitempty"`
	TokenValid       bool   `json:"token_valid"`
	IssuedAt         string `json:"issued_at,omitempty"`
	ExpiresAt        string `json:"expires_at,omitempty"`
	LedgerReference  string `json:"ledger_reference,omitempty"`
	RevokedAt        string `json:"revoked_at,omitempty"`
	RevocationReason string `json:"revocation_reason,omitempty"`
	VerifiedAt       string `json:"verified_at"`
	Notes            string `json:"notes,omitempty"`
}

// Roles permitted to revoke an attestation.
const (
	RoleGovernanceOfficer    = "governance-officer"
	RoleTransparencyEngineer = "transparency-engineer"
	RoleAuditWitness         = "external-audit-witness"
)

// authorizedRevokers is the closed set of roles that may revoke.
var authorizedRevokers = map[string]bool{
	RoleGovernanceOfficer:    true,
	RoleTransparencyEngineer: true,
	RoleAuditWitness:         true,
}

// RoleAuthorized reports whether role may revoke attestations.
func RoleAuthorized(role string) bool {
	return authorizedRevokers[role]
}

var (
	// ErrUnauthorized — revocation attempted by a role outside the authorized set.
	ErrUnauthorized = errors.New("attestation: role not authorized to revoke")
	// ErrNotFound — no active proof exists for the artifact.
	ErrNotFound = errors.New("attestation: no proof found for artifact")
	// ErrAlreadyRevoked — the artifact's proof was already revoked; revocation
	// is terminal, a second record would corrupt the audit trail's meaning.
	ErrAlreadyRevoked = errors.New("attestation: proof already revoked")
	// ErrInvalidRequest — structurally invalid issue or revoke submission.
	ErrInvalidRequest = errors.New("attestation: invalid request")
)

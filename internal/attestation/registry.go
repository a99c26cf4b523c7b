package attestation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantumpoly/trustcore/internal/appendlog"
	"go.uber.org/zap"
)

// DefaultExpiry applies when Issue is called with a zero duration.
const DefaultExpiry = 90 * 24 * time.Hour

// Registry issues, verifies and revokes attestation proofs over two
// append-only stores. All reads are stateless; the only writes are appends.
type Registry struct {
	active  appendlog.Log
	revoked appendlog.Log
	secret  []byte
	logger  *zap.Logger
}

// NewRegistry creates a Registry. secret is the server-held key for token
// derivation and must be stable across restarts for old tokens to verify.
func NewRegistry(active, revoked appendlog.Log, secret []byte, logger *zap.Logger) *Registry {
	return &Registry{active: active, revoked: revoked, secret: secret, logger: logger}
}

// Issue creates and appends a proof for artifact bytes. A zero expiry falls
// back to DefaultExpiry.
func (r *Registry) Issue(ctx context.Context, artifactID string, artifact []byte, ledgerRef string, expiry time.Duration) (*Proof, error) {
	if artifactID == "" {
		return nil, fmt.Errorf("%w: artifact id required", ErrInvalidRequest)
	}
	if len(artifact) == 0 {
		return nil, fmt.Errorf("%w: artifact bytes required", ErrInvalidRequest)
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	now := time.Now().UTC()
	proof := &Proof{
		ArtifactID:      artifactID,
		ArtifactHash:    HashArtifact(artifact),
		IssuedAt:        now.Format(time.RFC3339),
		ExpiresAt:       now.Add(expiry).Format(time.RFC3339),
		LedgerReference: ledgerRef,
	}
	proof.Token = deriveToken(r.secret, proof.ArtifactID, proof.ArtifactHash, proof.IssuedAt)

	if err := r.active.Append(ctx, proof); err != nil {
		return nil, fmt.Errorf("append proof: %w", err)
	}

	r.logger.Info("attestation issued",
		zap.String("artifact_id", artifactID),
		zap.String("expires_at", proof.ExpiresAt),
	)
	return proof, nil
}

// Verify checks the attestation status of an artifact. currentArtifact is
// optional; when supplied, its digest is compared against the stored proof
// to detect tampering.
func (r *Registry) Verify(ctx context.Context, artifactID string, currentArtifact []byte) (*Result, error) {
	currentHash := ""
	if len(currentArtifact) > 0 {
		currentHash = HashArtifact(currentArtifact)
	}
	return r.VerifyHash(ctx, artifactID, currentHash)
}

// VerifyHash is Verify with a precomputed current-artifact digest (empty
// string means "no current artifact supplied").
//
// Status precedence, always: revoked > expired > hash_mismatch > valid.
// Revocation wins even when the proof is temporally valid and the hash
// still matches.
func (r *Registry) VerifyHash(ctx context.Context, artifactID, currentHash string) (*Result, error) {
	verifiedAt := time.Now().UTC()

	result := &Result{
		ArtifactID: artifactID,
		VerifiedAt: verifiedAt.Format(time.RFC3339),
	}

	proof, err := r.findProof(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if proof == nil {
		result.Status = StatusNotFound
		result.Notes = "No attestation proof exists for this artifact."
		return result, nil
	}

	result.ArtifactHash = proof.ArtifactHash
	result.IssuedAt = proof.IssuedAt
	result.ExpiresAt = proof.ExpiresAt
	result.LedgerReference = proof.LedgerReference
	result.TokenValid = tokenMatches(r.secret, proof)

	revocation, err := r.findRevocation(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if revocation != nil {
		result.Status = StatusRevoked
		result.RevokedAt = revocation.RevokedAt
		result.RevocationReason = revocation.Reason
		result.Notes = "Attestation explicitly revoked; revocation overrides expiry and content checks."
		return result, nil
	}

	if expiresAt, err := time.Parse(time.RFC3339, proof.ExpiresAt); err != nil || verifiedAt.After(expiresAt) {
		result.Status = StatusExpired
		result.Notes = "Attestation has passed its expiry date."
		return result, nil
	}

	if currentHash != "" && currentHash != proof.ArtifactHash {
		result.Status = StatusHashMismatch
		result.Notes = "Current artifact digest differs from the attested digest. Possible tampering."
		return result, nil
	}

	result.Status = StatusValid
	result.Notes = "Attestation valid. Artifact digest matches the issued proof."
	return result, nil
}

// Revoke appends a revocation for the artifact's proof. Only roles in the
// authorized set may revoke; the original proof record is never modified.
func (r *Registry) Revoke(ctx context.Context, artifactID, reason, revokedBy, role string) (*Revocation, error) {
	if !RoleAuthorized(role) {
		return nil, fmt.Errorf("%w: role %q", ErrUnauthorized, role)
	}
	if artifactID == "" || reason == "" || revokedBy == "" {
		return nil, fmt.Errorf("%w: artifact id, reason and revoked_by required", ErrInvalidRequest)
	}

	proof, err := r.findProof(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if proof == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, artifactID)
	}

	existing, err := r.findRevocation(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRevoked, artifactID)
	}

	revocation := &Revocation{
		ID:            uuid.New().String(),
		ArtifactID:    artifactID,
		OriginalToken: proof.Token,
		RevokedAt:     time.Now().UTC().Format(time.RFC3339),
		Reason:        reason,
		RevokedBy:     revokedBy,
	}
	if err := r.revoked.Append(ctx, revocation); err != nil {
		return nil, fmt.Errorf("append revocation: %w", err)
	}

	r.logger.Warn("attestation revoked",
		zap.String("artifact_id", artifactID),
		zap.String("revoked_by", revokedBy),
		zap.String("reason", reason),
	)
	return revocation, nil
}

// findProof returns the most recent proof for artifactID, or nil.
// The latest record governs when an artifact was re-attested.
func (r *Registry) findProof(ctx context.Context, artifactID string) (*Proof, error) {
	lines, err := r.active.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read active proofs: %w", err)
	}

	var found *Proof
	for _, line := range lines {
		var p Proof
		if err := json.Unmarshal(line, &p); err != nil {
			r.logger.Warn("skipping malformed proof record", zap.Error(err))
			continue
		}
		if p.ArtifactID == artifactID {
			cp := p
			found = &cp
		}
	}
	return found, nil
}

// findRevocation returns the first revocation for artifactID, or nil.
func (r *Registry) findRevocation(ctx context.Context, artifactID string) (*Revocation, error) {
	lines, err := r.revoked.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read revocations: %w", err)
	}

	for _, line := range lines {
		var rev Revocation
		if err := json.Unmarshal(line, &rev); err != nil {
			r.logger.Warn("skipping malformed revocation record", zap.Error(err))
			continue
		}
		if rev.ArtifactID == artifactID {
			return &rev, nil
		}
	}
	return nil, nil
}

package attestation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashArtifact returns the hex-encoded SHA-256 digest of artifact bytes.
func HashArtifact(artifact []byte) string {
	sum := sha256.Sum256(artifact)
	return hex.EncodeToString(sum[:])
}

// deriveToken computes the opaque attestation token: a keyed HMAC-SHA256
// over (artifact_id, artifact_hash, issued_at) under the server-held secret.
// Possession of the token proves nothing by itself; verification recomputes
// it from the stored proof fields.
func deriveToken(secret []byte, artifactID, artifactHash, issuedAt string) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%s|%s|%s", artifactID, artifactHash, issuedAt)
	return hex.EncodeToString(mac.Sum(nil))
}

// tokenMatches compares a stored token against the recomputed derivation in
// constant time.
func tokenMatches(secret []byte, p *Proof) bool {
	expected := deriveToken(secret, p.ArtifactID, p.ArtifactHash, p.IssuedAt)
	return hmac.Equal([]byte(expected), []byte(p.Token))
}

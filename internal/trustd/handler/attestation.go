package handler

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quantumpoly/trustcore/internal/attestation"
	"github.com/quantumpoly/trustcore/internal/identity"
	"go.uber.org/zap"
)

// AttestationHandler exposes the attestation lifecycle over HTTP.
// Verification is public; issuance and revocation require a role token.
type AttestationHandler struct {
	registry *attestation.Registry
	tokens   *identity.RoleTokenIssuer
	logger   *zap.Logger
}

// NewAttestationHandler creates a new AttestationHandler.
func NewAttestationHandler(registry *attestation.Registry, tokens *identity.RoleTokenIssuer, logger *zap.Logger) *AttestationHandler {
	return &AttestationHandler{registry: registry, tokens: tokens, logger: logger}
}

// Register mounts the attestation routes on the given router group.
func (h *AttestationHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/attestations")
	{
		a.GET("/:id/verify", h.Verify)
		a.POST("", RequireRoleToken(h.tokens), h.Issue)
		a.POST("/:id/revoke", RequireRoleToken(h.tokens), h.Revoke)
	}
}

type issueRequest struct {
	ArtifactID      string `json:"artifact_id" binding:"required"`
	Artifact        string `json:"artifact" binding:"required"` // base64-encoded content
	LedgerReference string `json:"ledger_reference"`
	ExpiryDays      int    `json:"expiry_days"`
}

// Issue handles POST /attestations. Any authenticated governance role may
// issue; the artifact content travels base64-encoded so the server hashes
// the exact bytes the operator attested.
func (h *AttestationHandler) Issue(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "artifact_id and artifact are required"})
		return
	}

	artifact, err := base64.StdEncoding.DecodeString(req.Artifact)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "artifact must be base64-encoded"})
		return
	}

	expiry := time.Duration(req.ExpiryDays) * 24 * time.Hour
	proof, err := h.registry.Issue(c.Request.Context(), req.ArtifactID, artifact, req.LedgerReference, expiry)
	if err != nil {
		h.attestationError(c, err, "issue attestation")
		return
	}

	RecordAttestationIssued()
	c.JSON(http.StatusCreated, proof)
}

// Verify handles GET /attestations/:id/verify?artifact_hash=…
//
// Public, unauthenticated. The optional artifact_hash query parameter is the
// caller's current digest of the artifact; when present it is checked
// against the attested digest.
func (h *AttestationHandler) Verify(c *gin.Context) {
	result, err := h.registry.VerifyHash(c.Request.Context(), c.Param("id"), c.Query("artifact_hash"))
	if err != nil {
		h.attestationError(c, err, "verify attestation")
		return
	}
	c.JSON(http.StatusOK, result)
}

type revokeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Revoke handles POST /attestations/:id/revoke. Only the authorized
// governance roles may revoke; the operator and role come from the verified
// role token, never from the request body.
func (h *AttestationHandler) Revoke(c *gin.Context) {
	var req revokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	operatorID, role := operatorFromCtx(c)
	revocation, err := h.registry.Revoke(c.Request.Context(), c.Param("id"), req.Reason, operatorID, role)
	if err != nil {
		h.attestationError(c, err, "revoke attestation")
		return
	}

	RecordAttestationRevoked()
	c.JSON(http.StatusOK, revocation)
}

// attestationError maps registry sentinel errors onto HTTP statuses.
func (h *AttestationHandler) attestationError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, attestation.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "role not authorized for this action"})
	case errors.Is(err, attestation.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no attestation proof found for artifact"})
	case errors.Is(err, attestation.ErrAlreadyRevoked):
		c.JSON(http.StatusConflict, gin.H{"error": "attestation already revoked"})
	case errors.Is(err, attestation.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "attestation store unavailable"})
	}
}

package handler_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quantumpoly/trustcore/internal/appendlog"
	"github.com/quantumpoly/trustcore/internal/attestation"
	"github.com/quantumpoly/trustcore/internal/identity"
	"github.com/quantumpoly/trustcore/internal/trustd/handler"
	"go.uber.org/zap"
)

const testIssuerURL = "https://trust.test"

func setupAttestationRouter(t *testing.T) (*gin.Engine, *identity.RoleTokenIssuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := attestation.NewRegistry(
		appendlog.NewMemoryLog(),
		appendlog.NewMemoryLog(),
		[]byte("attestation-secret"),
		zap.NewNop(),
	)
	tokens := identity.NewRoleTokenIssuer([]byte("jwt-secret"), testIssuerURL, time.Hour)

	r := gin.New()
	h := handler.NewAttestationHandler(registry, tokens, zap.NewNop())
	h.Register(r.Group("/api/v1"))
	return r, tokens
}

func bearerFor(t *testing.T, tokens *identity.RoleTokenIssuer, role string) string {
	t.Helper()
	token, err := tokens.Issue("op-test", role)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + token
}

func postJSON(router *gin.Engine, path, auth string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func issueTestProof(t *testing.T, router *gin.Engine, auth, artifactID string, artifact []byte) {
	t.Helper()
	w := postJSON(router, "/api/v1/attestations", auth, map[string]any{
		"artifact_id":      artifactID,
		"artifact":         base64.StdEncoding.EncodeToString(artifact),
		"ledger_reference": "rec_1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("issue: expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAttestationIssue_requiresToken(t *testing.T) {
	router, _ := setupAttestationRouter(t)

	w := postJSON(router, "/api/v1/attestations", "", map[string]any{
		"artifact_id": "X",
		"artifact":    base64.StdEncoding.EncodeToString([]byte("content")),
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a role token, got %d", w.Code)
	}
}

func TestAttestationIssueAndVerify(t *testing.T) {
	router, tokens := setupAttestationRouter(t)
	auth := bearerFor(t, tokens, attestation.RoleTransparencyEngineer)
	artifact := []byte("ethics report content")

	issueTestProof(t, router, auth, "ETHICS_2025", artifact)

	hash := attestation.HashArtifact(artifact)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/attestations/ETHICS_2025/verify?artifact_hash="+hash, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result attestation.Result
	json.Unmarshal(w.Body.Bytes(), &result)
	if result.Status != attestation.StatusValid {
		t.Errorf("status: got %q, want valid", result.Status)
	}
}

func TestAttestationVerify_publicAndNotFound(t *testing.T) {
	router, _ := setupAttestationRouter(t)

	// No Authorization header at all: verification is public.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/attestations/GHOST/verify", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var result attestation.Result
	json.Unmarshal(w.Body.Bytes(), &result)
	if result.Status != attestation.StatusNotFound {
		t.Errorf("status: got %q, want not_found", result.Status)
	}
}

func TestAttestationVerify_hashMismatch(t *testing.T) {
	router, tokens := setupAttestationRouter(t)
	auth := bearerFor(t, tokens, attestation.RoleGovernanceOfficer)

	issueTestProof(t, router, auth, "DOC", []byte("original"))

	tampered := attestation.HashArtifact([]byte("tampered"))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/attestations/DOC/verify?artifact_hash="+tampered, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var result attestation.Result
	json.Unmarshal(w.Body.Bytes(), &result)
	if result.Status != attestation.StatusHashMismatch {
		t.Errorf("status: got %q, want hash_mismatch", result.Status)
	}
}

func TestAttestationRevoke_flow(t *testing.T) {
	router, tokens := setupAttestationRouter(t)
	auth := bearerFor(t, tokens, attestation.RoleGovernanceOfficer)

	issueTestProof(t, router, auth, "REPORT", []byte("content"))

	w := postJSON(router, "/api/v1/attestations/REPORT/revoke", auth, map[string]any{
		"reason": "methodology error",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("revoke: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attestations/REPORT/verify", nil)
	vw := httptest.NewRecorder()
	router.ServeHTTP(vw, req)

	var result attestation.Result
	json.Unmarshal(vw.Body.Bytes(), &result)
	if result.Status != attestation.StatusRevoked {
		t.Errorf("status after revoke: got %q, want revoked", result.Status)
	}

	// Second revoke conflicts.
	w = postJSON(router, "/api/v1/attestations/REPORT/revoke", auth, map[string]any{
		"reason": "again",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("double revoke: expected 409, got %d", w.Code)
	}
}

func TestAttestationRevoke_forbiddenRole(t *testing.T) {
	router, tokens := setupAttestationRouter(t)
	issuerAuth := bearerFor(t, tokens, attestation.RoleGovernanceOfficer)
	issueTestProof(t, router, issuerAuth, "A", []byte("content"))

	// Authenticated, but the role is outside the authorized revoker set.
	w := postJSON(router, "/api/v1/attestations/A/revoke",
		bearerFor(t, tokens, "observer"),
		map[string]any{"reason": "nope"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAttestationRevoke_missingProof_404(t *testing.T) {
	router, tokens := setupAttestationRouter(t)

	w := postJSON(router, "/api/v1/attestations/GHOST/revoke",
		bearerFor(t, tokens, attestation.RoleGovernanceOfficer),
		map[string]any{"reason": "reason"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

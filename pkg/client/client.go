// Package client provides the Go SDK for the trustcore HTTP API: governance
// ledger verification, federation trust queries, and the attestation
// lifecycle.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// LedgerOverview summarises the governance ledger state.
type LedgerOverview struct {
	Entries    int    `json:"entries"`
	MerkleRoot string `json:"merkle_root"`
	LastUpdate string `json:"last_update"`
	Verified   bool   `json:"verified"`
}

// Mismatch is one integrity failure in a ledger report.
type Mismatch struct {
	Index    int    `json:"index"`
	RecordID string `json:"record_id"`
	Stored   string `json:"stored_hash"`
	Computed string `json:"computed_hash"`
}

// LedgerReport is the full integrity report from GET /api/v1/ledger/verify.
type LedgerReport struct {
	Verified     bool       `json:"verified"`
	Mismatches   []Mismatch `json:"mismatches"`
	MerkleRoot   string     `json:"merkle_root"`
	TotalEntries int        `json:"total_entries"`
	LastUpdate   string     `json:"last_update"`
}

// PeerResult is one partner's verification outcome.
type PeerResult struct {
	PartnerID       string `json:"partner_id"`
	DisplayName     string `json:"display_name"`
	LastMerkleRoot  string `json:"last_merkle_root"`
	LastVerifiedAt  string `json:"last_verified_at"`
	TrustStatus     string `json:"trust_status"`
	Notes           string `json:"notes"`
	ComplianceStage string `json:"compliance_stage,omitempty"`
}

// TrustSummary is the network-wide trust aggregate.
type TrustSummary struct {
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

// TrustRecord is the record an instance publishes for federation peers.
type TrustRecord struct {
	PartnerID       string `json:"partner_id"`
	DisplayName     string `json:"partner_display_name,omitempty"`
	MerkleRoot      string `json:"merkle_root"`
	Timestamp       string `json:"timestamp"`
	ComplianceStage string `json:"compliance_stage,omitempty"`
	HashAlgorithm   string `json:"hash_algorithm,omitempty"`
}

// Proof is an issued attestation proof.
type Proof struct {
	ArtifactID      string `json:"artifact_id"`
	ArtifactHash    string `json:"artifact_hash"`
	Token           string `json:"token"`
	IssuedAt        string `json:"issued_at"`
	ExpiresAt       string `json:"expires_at"`
	LedgerReference string `json:"ledger_reference"`
}

// AttestationResult is the verification outcome for an artifact.
type AttestationResult struct {
	ArtifactID       string `json:"artifact_id"`
	Status           string `json:"status"`
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

// Revocation is the record returned by a successful revoke call.
type Revocation struct {
	ID            string `json:"id"`
	ArtifactID    string `json:"artifact_id"`
	OriginalToken string `json:"original_token"`
	RevokedAt     string `json:"revoked_at"`
	Reason        string `json:"reason"`
	RevokedBy     string `json:"revoked_by"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trustcore api: %d %s", e.StatusCode, e.Message)
}

// Client is the trustcore SDK entry point.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	bearerToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRoleToken attaches a governance role session token to every request.
// Required for issuing and revoking attestations.
func WithRoleToken(token string) Option {
	return func(c *Client) { c.bearerToken = token }
}

// New creates a Client for the trustd instance at baseURL.
//
//	c := client.New("https://trust.quantumpoly.ai",
//	    client.WithRoleToken(token),
//	)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LedgerOverview fetches GET /api/v1/ledger.
func (c *Client) LedgerOverview(ctx context.Context) (*LedgerOverview, error) {
	var out LedgerOverview
	if err := c.get(ctx, "/api/v1/ledger", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyLedger fetches the full integrity report from GET /api/v1/ledger/verify.
func (c *Client) VerifyLedger(ctx context.Context) (*LedgerReport, error) {
	var out LedgerReport
	if err := c.get(ctx, "/api/v1/ledger/verify", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LedgerEntry fetches a single record by index from GET /api/v1/ledger/entries/:idx.
func (c *Client) LedgerEntry(ctx context.Context, idx int) (map[string]any, error) {
	var out map[string]any
	if err := c.get(ctx, fmt.Sprintf("/api/v1/ledger/entries/%d", idx), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FederationPeers fetches the per-partner verification results.
func (c *Client) FederationPeers(ctx context.Context) ([]PeerResult, error) {
	var out struct {
		Partners []PeerResult `json:"partners"`
	}
	if err := c.get(ctx, "/api/v1/federation/peers", &out); err != nil {
		return nil, err
	}
	return out.Partners, nil
}

// NetworkTrust fetches the network trust summary and the per-partner results.
func (c *Client) NetworkTrust(ctx context.Context) (*TrustSummary, []PeerResult, error) {
	var out struct {
		Summary  TrustSummary `json:"summary"`
		Partners []PeerResult `json:"partners"`
	}
	if err := c.get(ctx, "/api/v1/federation/trust", &out); err != nil {
		return nil, nil, err
	}
	return &out.Summary, out.Partners, nil
}

// TrustRecord fetches the instance's published trust record from
// GET /.well-known/trust-record.json.
func (c *Client) TrustRecord(ctx context.Context) (*TrustRecord, error) {
	var out TrustRecord
	if err := c.get(ctx, "/.well-known/trust-record.json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IssueAttestation issues a proof over the given artifact bytes. Requires a
// role token. expiryDays of 0 uses the server default.
func (c *Client) IssueAttestation(ctx context.Context, artifactID string, artifact []byte, ledgerRef string, expiryDays int) (*Proof, error) {
	body := map[string]any{
		"artifact_id":      artifactID,
		"artifact":         base64.StdEncoding.EncodeToString(artifact),
		"ledger_reference": ledgerRef,
		"expiry_days":      expiryDays,
	}
	var out Proof
	if err := c.post(ctx, "/api/v1/attestations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyAttestation checks the attestation status of an artifact.
// artifactHash is optional; when non-empty it is compared against the
// attested digest to detect content drift.
func (c *Client) VerifyAttestation(ctx context.Context, artifactID, artifactHash string) (*AttestationResult, error) {
	path := "/api/v1/attestations/" + url.PathEscape(artifactID) + "/verify"
	if artifactHash != "" {
		path += "?artifact_hash=" + url.QueryEscape(artifactHash)
	}
	var out AttestationResult
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevokeAttestation revokes the artifact's attestation proof. Requires a
// role token carrying an authorized governance role.
func (c *Client) RevokeAttestation(ctx context.Context, artifactID, reason string) (*Revocation, error) {
	path := "/api/v1/attestations/" + url.PathEscape(artifactID) + "/revoke"
	var out Revocation
	if err := c.post(ctx, path, map[string]any{"reason": reason}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := resp.Status
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

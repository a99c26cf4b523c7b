package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// userAgent identifies this instance to peers' record endpoints.
const userAgent = "quantumpoly-trustcore/1.0"

// Client is a lightweight HTTP client for fetching peers' published trust
// records. Every call carries its own bounded timeout; a single slow peer
// costs at most one timeout, never more.
type Client struct {
	http *http.Client
}

// NewClient creates a Client whose requests time out after timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// FetchRecord retrieves peer's published trust record.
//
// Network failures, timeouts, non-200 responses and undecodable bodies all
// resolve to an error return, which the verifier maps to the "error" trust
// status — nothing here ever reaches a caller as a panic or a failed request.
// A body that decodes but is missing fields is returned as-is; field-level
// problems are a classification concern, not a transport one.
func (c *Client) FetchRecord(ctx context.Context, peer PeerConfig) (*PeerRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, peer.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build record request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch record from %s: %w", peer.Endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("peer %s returned status %d", peer.PartnerID, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read record response: %w", err)
	}

	var record PeerRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("decode record from %s: %w", peer.PartnerID, err)
	}
	return &record, nil
}

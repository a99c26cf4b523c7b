package federation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MetricsRecordFunc is an optional callback for recording per-peer
// verification outcomes.
type MetricsRecordFunc func(status TrustStatus)

// Verifier fetches and classifies every configured peer.
type Verifier struct {
	registry  *Registry
	client    *Client
	timeout   time.Duration
	onMetrics MetricsRecordFunc
	logger    *zap.Logger
}

// NewVerifier creates a Verifier. timeout bounds each individual peer call.
func NewVerifier(registry *Registry, client *Client, timeout time.Duration, logger *zap.Logger) *Verifier {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Verifier{
		registry: registry,
		client:   client,
		timeout:  timeout,
		logger:   logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (v *Verifier) SetMetricsRecord(fn MetricsRecordFunc) {
	v.onMetrics = fn
}

// VerifyAll fetches and classifies every active peer concurrently.
//
// Fault isolation is a hard requirement here, not an optimization: each peer
// is evaluated in its own goroutine with its own timeout, and one peer's
// failure can neither delay nor fail any other peer's evaluation. The whole
// pass completes within roughly one timeout period, not N.
func (v *Verifier) VerifyAll(ctx context.Context) []VerificationResult {
	peers := v.registry.ListActive()
	results := make([]VerificationResult, len(peers))

	sem := make(chan struct{}, 10)
	var wg sync.WaitGroup

	for i, p := range peers {
		wg.Add(1)
		go func(i int, peer PeerConfig) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, v.timeout)
			defer cancel()

			results[i] = v.verifyPeer(callCtx, peer)

			if v.onMetrics != nil {
				v.onMetrics(results[i].TrustStatus)
			}
		}(i, p)
	}
	wg.Wait()

	return results
}

// verifyPeer fetches one peer's record and classifies it. Never returns an
// error: every failure mode is folded into the result's trust status.
func (v *Verifier) verifyPeer(ctx context.Context, peer PeerConfig) VerificationResult {
	verifiedAt := time.Now().UTC().Format(time.RFC3339)

	result := VerificationResult{
		PartnerID:      peer.PartnerID,
		DisplayName:    peer.DisplayName,
		LastVerifiedAt: verifiedAt,
	}

	record, err := v.client.FetchRecord(ctx, peer)
	if err != nil {
		v.logger.Warn("peer unreachable",
			zap.String("partner_id", peer.PartnerID),
			zap.Error(err),
		)
		result.TrustStatus = TrustError
		result.Notes = "Unable to verify partner. Endpoint unreachable or returned invalid data."
		return result
	}

	result.LastMerkleRoot = record.MerkleRoot
	result.ComplianceStage = record.ComplianceStage
	result.TrustStatus = Classify(record, time.Now().UTC(), staleThreshold(peer))
	result.Notes = notesFor(result.TrustStatus, peer, record)
	return result
}

// Classify determines the trust status of a fetched peer record.
// A nil record means the peer was unreachable or returned an invalid payload.
func Classify(record *PeerRecord, now time.Time, staleAfter time.Duration) TrustStatus {
	if record == nil {
		return TrustError
	}

	if !hexRootPattern.MatchString(record.MerkleRoot) {
		return TrustFlagged
	}
	ts, err := time.Parse(time.RFC3339, record.Timestamp)
	if err != nil {
		return TrustFlagged
	}

	if now.Sub(ts) > staleAfter {
		return TrustStale
	}
	return TrustValid
}

func staleThreshold(peer PeerConfig) time.Duration {
	days := peer.StaleThresholdDays
	if days <= 0 {
		days = DefaultStaleThresholdDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func notesFor(status TrustStatus, peer PeerConfig, record *PeerRecord) string {
	switch status {
	case TrustValid:
		return fmt.Sprintf("Ledger integrity verified. Merkle root matches published snapshot as of %s.", record.Timestamp)
	case TrustStale:
		return fmt.Sprintf("Partner overdue for transparency refresh. Last update %s (threshold: %d days).",
			record.Timestamp, effectiveDays(peer))
	case TrustFlagged:
		return "Integrity check failed. Missing or malformed merkle root or timestamp. Requires human review."
	default:
		return "Unable to verify partner. Endpoint unreachable or returned invalid data."
	}
}

func effectiveDays(peer PeerConfig) int {
	if peer.StaleThresholdDays > 0 {
		return peer.StaleThresholdDays
	}
	return DefaultStaleThresholdDays
}

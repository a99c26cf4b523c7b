package federation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/quantumpoly/trustcore/internal/merkle"
)

// Aggregate rolls per-peer verification results into a NetworkTrustSummary.
//
// The network Merkle aggregate is the Merkle root over the valid peers'
// roots followed by this instance's own local root, so two instances with
// the same view of the network publish the same aggregate.
func Aggregate(results []VerificationResult, localRoot string) *NetworkTrustSummary {
	summary := &NetworkTrustSummary{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		TotalPartners: len(results),
	}

	var validRoots []string
	for _, r := range results {
		switch r.TrustStatus {
		case TrustValid:
			summary.ValidPartners++
			validRoots = append(validRoots, r.LastMerkleRoot)
		case TrustStale:
			summary.StalePartners++
		case TrustFlagged:
			summary.FlaggedPartners++
		case TrustError:
			summary.ErrorPartners++
		}
	}

	if localRoot != "" {
		validRoots = append(validRoots, localRoot)
	}
	summary.NetworkMerkleAggregate = merkle.Root(validRoots)

	summary.TrustScore = trustScore(summary)
	summary.HealthStatus = healthStatus(summary)
	summary.Notes = summaryNotes(summary)
	return summary
}

// trustScore derives a 0–100 score from the proportion of valid peers.
// Stale peers count half; flagged and error peers count nothing.
//
// A zero- or one-peer network scores the maximum: a lone node has nothing
// contradicting its local trust and is deliberately not penalized.
func trustScore(s *NetworkTrustSummary) int {
	if s.TotalPartners <= 1 {
		return 100
	}

	weighted := float64(s.ValidPartners) + 0.5*float64(s.StalePartners)
	return int(math.Round(weighted / float64(s.TotalPartners) * 100))
}

// healthStatus labels the network from the trust score, then downgrades when
// any peer is flagged or erroring: a network with an unreviewed integrity
// flag is never reported fully healthy regardless of its score.
func healthStatus(s *NetworkTrustSummary) string {
	status := HealthCritical
	switch {
	case s.TrustScore >= 80:
		status = HealthHealthy
	case s.TrustScore >= 50:
		status = HealthDegraded
	}

	if status == HealthHealthy && (s.FlaggedPartners > 0 || s.ErrorPartners > 0) {
		status = HealthDegraded
	}
	return status
}

func summaryNotes(s *NetworkTrustSummary) string {
	if s.TotalPartners == 0 {
		return "No federation partners configured."
	}
	if s.ValidPartners == s.TotalPartners {
		return "All partners verified successfully. Network integrity confirmed."
	}

	var b strings.Builder
	if s.StalePartners > 0 {
		fmt.Fprintf(&b, "%d partner(s) overdue for transparency refresh. ", s.StalePartners)
	}
	if s.FlaggedPartners > 0 {
		fmt.Fprintf(&b, "%d partner(s) flagged for integrity review. ", s.FlaggedPartners)
	}
	if s.ErrorPartners > 0 {
		fmt.Fprintf(&b, "%d partner(s) unreachable or returned errors. ", s.ErrorPartners)
	}
	return strings.TrimSpace(b.String())
}

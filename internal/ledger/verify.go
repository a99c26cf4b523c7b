package ledger

import (
	"context"

	"github.com/quantumpoly/trustcore/internal/appendlog"
	"go.uber.org/zap"
)

// Mismatch records a single integrity failure: a stored hash that does not
// match the recomputed canonical digest. Mismatches are data, not errors —
// they travel inside the Report so callers can render unverified states.
type Mismatch struct {
	Index    int    `json:"index"` // zero-based position in file order
	RecordID string `json:"record_id"`
	Stored   string `json:"stored_hash"`
	Computed string `json:"computed_hash"`
}

// Report is the result of verifying the full ledger.
type Report struct {
	Verified     bool       `json:"verified"`
	Mismatches   []Mismatch `json:"mismatches"`
	MerkleRoot   string     `json:"merkle_root"`
	TotalEntries int        `json:"total_entries"`
	LastUpdate   string     `json:"last_update"`
}

// rootFunc combines an ordered set of leaf hashes into a Merkle root.
type rootFunc func(leaves []string) string

// Verifier recomputes per-record digests and aggregates them into a single
// Merkle root. It holds no state between calls; VerifyAll is safe for
// concurrent use.
type Verifier struct {
	log    appendlog.Log
	root   rootFunc
	logger *zap.Logger
}

// NewVerifier creates a Verifier over the given ledger source.
func NewVerifier(log appendlog.Log, root rootFunc, logger *zap.Logger) *Verifier {
	return &Verifier{log: log, root: root, logger: logger}
}

// VerifyAll parses the ledger and verifies every record.
// A parse failure is returned as an error; integrity failures are returned
// inside the Report.
func (v *Verifier) VerifyAll(ctx context.Context) (*Report, error) {
	records, err := Parse(ctx, v.log)
	if err != nil {
		return nil, err
	}
	report := v.verify(records)

	if !report.Verified {
		v.logger.Warn("ledger integrity check failed",
			zap.Int("mismatches", len(report.Mismatches)),
			zap.Int("total_entries", report.TotalEntries),
		)
	}
	return report, nil
}

// verify checks each record's stored hash against its recomputed digest and
// computes the Merkle root over the recomputed digests in file order, so the
// root always reflects the content actually on disk. An empty ledger
// verifies as true with an empty root.
func (v *Verifier) verify(records []*Record) *Report {
	report := &Report{
		Verified:     true,
		Mismatches:   []Mismatch{},
		TotalEntries: len(records),
	}

	leaves := make([]string, 0, len(records))
	for i, r := range records {
		computed := r.CanonicalDigest()
		leaves = append(leaves, computed)
		if computed != r.Hash {
			report.Verified = false
			report.Mismatches = append(report.Mismatches, Mismatch{
				Index:    i,
				RecordID: r.ID,
				Stored:   r.Hash,
				Computed: computed,
			})
		}
	}

	report.MerkleRoot = v.root(leaves)
	if n := len(records); n > 0 {
		report.LastUpdate = records[n-1].Timestamp
	}
	return report
}

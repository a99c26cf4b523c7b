// cmd/seedledger — writes a hash-correct demo governance ledger and a
// federation peer registry file for local development.
//
// Running twice appends a fresh batch of records; delete the data directory
// to start over.
//
// Usage:
//
//	go run ./cmd/seedledger
//	go run ./cmd/seedledger -dir ./data -tamper
//
// The -tamper flag corrupts one record's payload after hashing, so the demo
// ledger fails verification — useful when exercising the mismatch reporting
// paths.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quantumpoly/trustcore/internal/appendlog"
	"github.com/quantumpoly/trustcore/internal/ledger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seedledger: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", "data", "output directory")
	tamper := flag.Bool("tamper", false, "corrupt one record so verification fails")
	flag.Parse()

	ctx := context.Background()
	log := appendlog.NewFileLog(filepath.Join(*dir, "governance-ledger.jsonl"))

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, s := range seedRecords {
		rec := ledger.New(
			fmt.Sprintf("rec_%03d", i+1),
			base.AddDate(0, 0, 21*i).Format(time.RFC3339),
			s.entryType,
			fmt.Sprintf("block_%03d", i/2+1),
			s.payload,
		)

		var entry any = rec
		if *tamper && i == len(seedRecords)-2 {
			// Re-decode and mutate the payload after hashing.
			raw, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			var fields map[string]any
			if err := json.Unmarshal(raw, &fields); err != nil {
				return err
			}
			fields["description"] = "silently edited after the fact"
			entry = fields
			fmt.Printf("  TAMPERED  %s\n", rec.ID)
		}

		if err := log.Append(ctx, entry); err != nil {
			return fmt.Errorf("append %s: %w", rec.ID, err)
		}
		fmt.Printf("  record  %-8s  %-22s  %s\n", rec.ID, s.entryType, rec.Hash[:16])
	}

	if err := writePeerFile(filepath.Join(*dir, "federation-peers.json")); err != nil {
		return err
	}

	fmt.Println("\nseed complete")
	fmt.Printf("ledger:  %s\n", log.Path())
	return nil
}

type seedRecord struct {
	entryType string
	payload   map[string]any
}

var seedRecords = []seedRecord{
	{"genesis", map[string]any{
		"description": "Governance ledger initialised.",
		"actor":       "governance-officer",
	}},
	{"policy_change", map[string]any{
		"description": "Adopted AI ethics review policy v2.",
		"policy_id":   "POL-ETHICS-002",
		"actor":       "governance-officer",
	}},
	{"audit_report", map[string]any{
		"description": "Q1 external audit completed with no critical findings.",
		"report_id":   "AUDIT-2025-Q1",
		"findings":    0,
		"actor":       "external-audit-witness",
	}},
	{"attestation_issued", map[string]any{
		"description": "Attestation issued for ethics report 2025.",
		"artifact_id": "ETHICS_REPORT_2025",
		"actor":       "transparency-engineer",
	}},
	{"governance_update", map[string]any{
		"description": "Federation partner aurora.example admitted.",
		"partner_id":  "aurora.example",
		"actor":       "governance-officer",
	}},
	{"policy_change", map[string]any{
		"description": "Stale threshold for federation partners set to 30 days.",
		"policy_id":   "POL-FED-001",
		"actor":       "governance-officer",
	}},
}

func writePeerFile(path string) error {
	peers := map[string]any{
		"partners": []map[string]any{
			{
				"partner_id":           "aurora.example",
				"partner_display_name": "Aurora Institute",
				"governance_endpoint":  "https://aurora.example/.well-known/trust-record.json",
				"stale_threshold_days": 30,
				"active":               true,
				"added_at":             "2025-03-22T09:00:00Z",
			},
			{
				"partner_id":           "meridian.example",
				"partner_display_name": "Meridian Labs",
				"governance_endpoint":  "https://meridian.example/.well-known/trust-record.json",
				"stale_threshold_days": 14,
				"active":               true,
				"added_at":             "2025-04-12T09:00:00Z",
			},
			{
				"partner_id":           "helix.example",
				"partner_display_name": "Helix Foundation",
				"governance_endpoint":  "https://helix.example/.well-known/trust-record.json",
				"active":               false,
				"notes":                "Onboarding paused pending compliance review.",
			},
		},
	}

	raw, err := json.MarshalIndent(peers, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write peer file: %w", err)
	}
	fmt.Printf("peers:   %s\n", path)
	return nil
}

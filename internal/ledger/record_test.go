package ledger_test

import (
	"encoding/json"
	"testing"

	"github.com/quantumpoly/trustcore/internal/ledger"
)

func TestCanonicalDigest_keyOrderIndependent(t *testing.T) {
	a := `{"id":"rec_1","timestamp":"2025-11-05T10:00:00Z","entryType":"audit_closure","blockId":"B9.3","summary":"quarterly audit closed","eii":97.5}`
	b := `{"eii":97.5,"summary":"quarterly audit closed","blockId":"B9.3","entryType":"audit_closure","timestamp":"2025-11-05T10:00:00Z","id":"rec_1"}`

	var ra, rb ledger.Record
	if err := json.Unmarshal([]byte(a), &ra); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(b), &rb); err != nil {
		t.Fatal(err)
	}

	if ra.CanonicalDigest() != rb.CanonicalDigest() {
		t.Errorf("digest depends on key order: %q vs %q", ra.CanonicalDigest(), rb.CanonicalDigest())
	}
}

func TestCanonicalDigest_excludesIntegrityFields(t *testing.T) {
	base := `{"id":"rec_1","timestamp":"2025-11-05T10:00:00Z","entryType":"audit_closure","blockId":"B9.3","summary":"s"}`
	withIntegrity := `{"id":"rec_1","timestamp":"2025-11-05T10:00:00Z","entryType":"audit_closure","blockId":"B9.3","summary":"s","hash":"abc","merkleRoot":"def","signature":"sig"}`

	var ra, rb ledger.Record
	if err := json.Unmarshal([]byte(base), &ra); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(withIntegrity), &rb); err != nil {
		t.Fatal(err)
	}

	if ra.CanonicalDigest() != rb.CanonicalDigest() {
		t.Error("hash/merkleRoot/signature must not participate in the digest")
	}
}

func TestCanonicalDigest_sensitiveToPayload(t *testing.T) {
	a := `{"id":"rec_1","timestamp":"2025-11-05T10:00:00Z","entryType":"x","blockId":"B1","summary":"original"}`
	b := `{"id":"rec_1","timestamp":"2025-11-05T10:00:00Z","entryType":"x","blockId":"B1","summary":"altered"}`

	var ra, rb ledger.Record
	if err := json.Unmarshal([]byte(a), &ra); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(b), &rb); err != nil {
		t.Fatal(err)
	}

	if ra.CanonicalDigest() == rb.CanonicalDigest() {
		t.Error("changing a payload field must change the digest")
	}
}

func TestCanonicalDigest_preservesNumericLiterals(t *testing.T) {
	// 0.30000000000000004 is not representable cleanly through float64
	// formatting; the digest must survive a decode/encode round trip.
	raw := `{"id":"rec_1","timestamp":"2025-11-05T10:00:00Z","entryType":"x","blockId":"B1","metric":0.30000000000000004}`

	var r ledger.Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatal(err)
	}
	first := r.CanonicalDigest()

	reencoded, err := json.Marshal(&r)
	if err != nil {
		t.Fatal(err)
	}
	var again ledger.Record
	if err := json.Unmarshal(reencoded, &again); err != nil {
		t.Fatal(err)
	}

	if again.CanonicalDigest() != first {
		t.Error("digest not stable across decode/encode round trip")
	}
}

func TestNew_hashMatchesCanonicalDigest(t *testing.T) {
	r := ledger.New("rec_9", "2025-11-05T10:00:00Z", "attestation_issue", "B9.7",
		map[string]any{"artifact_id": "REPORT_2025"})

	if r.Hash == "" {
		t.Fatal("New must compute a hash")
	}
	if r.Hash != r.CanonicalDigest() {
		t.Errorf("stored hash %q differs from canonical digest %q", r.Hash, r.CanonicalDigest())
	}
}

func TestPayload_stripsEnvelope(t *testing.T) {
	raw := `{"id":"rec_1","timestamp":"t","entryType":"x","blockId":"B1","hash":"h","summary":"s","title":"T"}`
	var r ledger.Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatal(err)
	}

	p := r.Payload()
	if len(p) != 2 {
		t.Fatalf("expected 2 payload fields, got %d: %v", len(p), p)
	}
	if _, ok := p["id"]; ok {
		t.Error("payload must not contain envelope fields")
	}
}

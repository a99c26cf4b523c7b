// Package ledger implements read access to and integrity verification of the
// append-only governance ledger.
//
// A ledger is a stream of JSON records. Each record carries a common envelope
// (id, timestamp, entryType, blockId, hash, merkleRoot, signature) alongside
// an arbitrary payload whose shape depends on entryType. Canonicalization
// operates on the full decoded object minus the integrity fields, so it never
// needs to know about individual payload shapes.
package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Envelope field names. Hash, MerkleRoot and Signature are excluded from the
// canonical form; everything else participates in the digest.
const (
	fieldID         = "id"
	fieldTimestamp  = "timestamp"
	fieldEntryType  = "entryType"
	fieldBlockID    = "blockId"
	fieldHash       = "hash"
	fieldMerkleRoot = "merkleRoot"
	fieldSignature  = "signature"
)

// Record is one immutable entry in the governance ledger. The typed envelope
// fields are extracted for convenience; fields holds the complete decoded
// object and is the source of truth for canonicalization and re-serialization.
type Record struct {
	ID         string
	Timestamp  string
	EntryType  string
	BlockID    string
	Hash       string
	MerkleRoot string
	Signature  string

	fields map[string]any
}

// New builds a Record from envelope values and a payload map, computing its
// canonical hash. It is used by producers (seeding, attestation ledger
// references); the verification path only ever decodes records.
func New(id, timestamp, entryType, blockID string, payload map[string]any) *Record {
	fields := make(map[string]any, len(payload)+5)
	for k, v := range payload {
		fields[k] = v
	}
	fields[fieldID] = id
	fields[fieldTimestamp] = timestamp
	fields[fieldEntryType] = entryType
	fields[fieldBlockID] = blockID

	r := &Record{
		ID:        id,
		Timestamp: timestamp,
		EntryType: entryType,
		BlockID:   blockID,
		fields:    fields,
	}
	r.Hash = r.CanonicalDigest()
	fields[fieldHash] = r.Hash
	return r
}

// UnmarshalJSON decodes a record, preserving numeric literals exactly as
// written so the canonical digest is stable across decode/encode cycles.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return err
	}

	r.fields = fields
	r.ID = stringField(fields, fieldID)
	r.Timestamp = stringField(fields, fieldTimestamp)
	r.EntryType = stringField(fields, fieldEntryType)
	r.BlockID = stringField(fields, fieldBlockID)
	r.Hash = stringField(fields, fieldHash)
	r.MerkleRoot = stringField(fields, fieldMerkleRoot)
	r.Signature = stringField(fields, fieldSignature)
	return nil
}

// MarshalJSON re-emits the complete record object.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.fields)
}

// Payload returns the non-envelope fields of the record.
func (r *Record) Payload() map[string]any {
	payload := make(map[string]any)
	for k, v := range r.fields {
		switch k {
		case fieldID, fieldTimestamp, fieldEntryType, fieldBlockID,
			fieldHash, fieldMerkleRoot, fieldSignature:
			continue
		}
		payload[k] = v
	}
	return payload
}

// CanonicalDigest recomputes the record's integrity hash: SHA-256 of the
// compact JSON serialization of every field except hash, merkleRoot and
// signature, with object keys sorted.
func (r *Record) CanonicalDigest() string {
	canonical := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		switch k {
		case fieldHash, fieldMerkleRoot, fieldSignature:
			continue
		}
		canonical[k] = v
	}

	// encoding/json marshals map keys in sorted order at every nesting
	// level, which is exactly the canonical form required here.
	serialized, err := json.Marshal(canonical)
	if err != nil {
		// Only reachable for non-serializable values injected via New;
		// decoded records can always be re-marshalled.
		panic(fmt.Sprintf("ledger: canonicalize record %q: %v", r.ID, err))
	}

	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:])
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

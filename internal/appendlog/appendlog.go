// Package appendlog provides the append-only record stream backing the
// governance ledger and the attestation proof stores.
//
// A Log supports exactly two operations: Append and ReadAll. There is no
// in-place mutation anywhere in the core, so no backend needs row-level
// locking or transactions beyond serialising concurrent appends.
//
// Three implementations are provided:
//   - FileLog: newline-delimited JSON on disk, the default backend.
//   - MemoryLog: in-process, for testing and development.
//   - PostgresLog: durable, for deployments that already run Postgres.
package appendlog

import "context"

// Log is an append-only stream of JSON records.
type Log interface {
	// Append serialises record as JSON and appends it as one line.
	Append(ctx context.Context, record any) error

	// ReadAll returns every record line in append order. A backend whose
	// underlying source does not exist yet returns an empty slice, not an
	// error: callers depend on this for bootstrap scenarios.
	ReadAll(ctx context.Context) ([][]byte, error)
}

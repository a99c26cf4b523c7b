package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quantumpoly/trustcore/internal/appendlog"
)

// ParseError reports a malformed record line. Parsing is fatal on the first
// bad line: a corrupt ledger must not silently under-report, so no caller
// ever sees a partial record list.
type ParseError struct {
	Line int // 1-based position within the stream (blank lines excluded)
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ledger: invalid record at line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads every record from the log in append order. A missing source
// yields zero records and no error (graceful empty state for bootstrap).
func Parse(ctx context.Context, log appendlog.Log) ([]*Record, error) {
	lines, err := log.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(lines))
	for i, line := range lines {
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, &ParseError{Line: i + 1, Err: err}
		}
		records = append(records, &r)
	}
	return records, nil
}

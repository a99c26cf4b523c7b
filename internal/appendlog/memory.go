package appendlog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryLog is an in-memory, thread-safe Log implementation.
// It is primarily useful for testing and for single-process deployments
// that do not require durable persistence across restarts.
type MemoryLog struct {
	mu    sync.RWMutex
	lines [][]byte
}

// NewMemoryLog creates an empty MemoryLog.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append implements Log.
func (l *MemoryLog) Append(_ context.Context, record any) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
	return nil
}

// ReadAll implements Log.
func (l *MemoryLog) ReadAll(_ context.Context) ([][]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([][]byte, len(l.lines))
	for i, line := range l.lines {
		cp := make([]byte, len(line))
		copy(cp, line)
		out[i] = cp
	}
	return out, nil
}

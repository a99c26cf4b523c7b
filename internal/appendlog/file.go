package appendlog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileLog stores one JSON record per line in a flat file.
// Appends are serialised with a mutex; the core assumes a single writer
// per stream, the lock only guards against concurrent appends within
// this process.
type FileLog struct {
	mu   sync.Mutex
	path string
}

// NewFileLog creates a FileLog at path. The file is not created until the
// first Append; a missing file reads as an empty log.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Path returns the backing file path.
func (l *FileLog) Path() string { return l.path }

// Append implements Log.
func (l *FileLog) Append(_ context.Context, record any) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", l.path, err)
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append to log %s: %w", l.path, err)
	}
	return f.Sync()
}

// ReadAll implements Log. Blank lines are skipped.
func (l *FileLog) ReadAll(_ context.Context) ([][]byte, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log %s: %w", l.path, err)
	}
	defer f.Close() //nolint:errcheck

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		lines = append(lines, cp)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log %s: %w", l.path, err)
	}
	return lines, nil
}

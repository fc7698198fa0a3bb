// Package runlog collects per-account check results and persists them as a
// JSON snapshot.
package runlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
)

// Logger accumulates run log entries for one pass.
type Logger struct {
	mu      sync.Mutex
	entries []model.RunLogEntry
	loc     *time.Location
}

// New creates a logger that stamps snapshots in loc.
func New(loc *time.Location) *Logger {
	if loc == nil {
		loc = time.Local
	}
	return &Logger{loc: loc}
}

// Add appends an entry.
func (l *Logger) Add(entry model.RunLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the accumulated entries.
func (l *Logger) Entries() []model.RunLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.RunLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Snapshot wraps the entries with a timestamp taken at now.
func (l *Logger) Snapshot(now time.Time) model.RunLog {
	entries := l.Entries()
	if entries == nil {
		entries = []model.RunLogEntry{}
	}
	return model.RunLog{
		Timestamp: now.In(l.loc).Format(model.TimestampLayout),
		Entries:   entries,
	}
}

// Encode renders a snapshot as indented UTF-8 JSON without HTML escaping.
func Encode(snapshot model.RunLog) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return nil, fmt.Errorf("encode run log: %w", err)
	}
	return buf.Bytes(), nil
}

// Write encodes snapshot and replaces the file at path. The file is written
// to a temporary sibling first and renamed into place.
func Write(path string, snapshot model.RunLog) ([]byte, error) {
	data, err := Encode(snapshot)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp log: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close log: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return nil, fmt.Errorf("chmod log: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("replace log: %w", err)
	}
	return data, nil
}

// Read returns the raw bytes of the last written snapshot.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run log: %w", err)
	}
	return data, nil
}

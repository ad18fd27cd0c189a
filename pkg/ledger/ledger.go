// Package ledger appends audit records as JSON lines to a local file. It
// backs the security gate's forensic trail alongside the database audit rows.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is one append-only audit event.
type Record struct {
	Timestamp string `json:"ts"`
	Service   string `json:"service"`
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
}

// Ledger serializes appends to a single file.
type Ledger struct {
	mu      sync.Mutex
	path    string
	service string
}

// New creates a ledger writing to path on behalf of service.
func New(path, service string) (*Ledger, error) {
	if path == "" {
		return nil, errors.New("ledger path is empty")
	}
	if service == "" {
		service = "unknown"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir ledger dir: %w", err)
	}
	return &Ledger{path: path, service: service}, nil
}

// Append writes one record. Failures are returned so the caller can decide
// whether they are fatal; the security gate treats them as soft.
func (l *Ledger) Append(eventType string, data any) error {
	rec := Record{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Service:   l.service,
		Type:      eventType,
		Data:      data,
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal ledger record: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

// Package audit persists provenance records. The pipeline hands each
// record to a Sink and moves on; file paths, rotation, and retention
// live here, not in the core.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/Luc0-0/Samarth/internal/model"
)

// Sink receives one provenance record per answered request.
type Sink interface {
	Record(rec *model.ProvenanceRecord) error
	Close() error
}

// JSONLSink appends records to a JSON-lines file, one object per line.
// Safe for concurrent use.
type JSONLSink struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewJSONL opens (or creates) the audit log at path, creating parent
// directories as needed.
func NewJSONL(path string) (*JSONLSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "audit: create dir %s", dir)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "audit: open %s", path)
	}
	return &JSONLSink{f: f, enc: json.NewEncoder(f)}, nil
}

func (s *JSONLSink) Record(rec *model.ProvenanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return eris.Wrap(s.enc.Encode(rec), "audit: append record")
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return eris.Wrap(s.f.Close(), "audit: close")
}

// NopSink discards records; used when auditing is disabled.
type NopSink struct{}

func (NopSink) Record(*model.ProvenanceRecord) error { return nil }
func (NopSink) Close() error                         { return nil }

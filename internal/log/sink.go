package log

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// maxSnapshotBytes bounds the text kept in memory for admin snapshots.
const maxSnapshotBytes = 1 << 20

// Sink is an append-only log destination. Writes are buffered and flushed to
// a file periodically; the accumulated text is kept for admin snapshots.
type Sink struct {
	mu      sync.Mutex
	path    string
	pending bytes.Buffer
	text    strings.Builder
	onLine  func(string)
}

// NewSink creates a sink flushing to path. An empty path keeps logs in memory only.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// OnLine registers a callback receiving every written line without its
// trailing newline. It must not block.
func (s *Sink) OnLine(fn func(string)) {
	s.mu.Lock()
	s.onLine = fn
	s.mu.Unlock()
}

// Write implements io.Writer.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	s.pending.Write(p)
	s.text.Write(p)
	if s.text.Len() > maxSnapshotBytes {
		trimmed := s.text.String()[s.text.Len()-maxSnapshotBytes/2:]
		if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
			trimmed = trimmed[i+1:]
		}
		s.text.Reset()
		s.text.WriteString(trimmed)
	}
	onLine := s.onLine
	s.mu.Unlock()

	if onLine != nil {
		for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
			if line != "" {
				onLine(line)
			}
		}
	}
	return len(p), nil
}

// Snapshot returns the text accumulated since start.
func (s *Sink) Snapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// Flush appends buffered lines to the log file.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" || s.pending.Len() == 0 {
		s.pending.Reset()
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if _, err := f.Write(s.pending.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("write log file: %w", err)
	}
	s.pending.Reset()
	return f.Close()
}

// Run flushes every interval until ctx is done, then flushes once more.
func (s *Sink) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				return err
			}
		case <-ctx.Done():
			return s.Flush()
		}
	}
}

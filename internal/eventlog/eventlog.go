// Package eventlog sets up the append-only run log: one JSON object per
// line, written both to stdout and to a per-run file under the configured
// log directory. Every warning the pipeline emits (unlinked metas, retry
// exhaustion, schema lookup misses) lands here.
package eventlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RunLog couples the structured logger with the file backing it.
type RunLog struct {
	Logger *slog.Logger
	Path   string

	file *os.File
}

// New creates the log directory if needed and opens a timestamped JSONL file
// for this run.
func New(dir string) (*RunLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("ingest_%s.jsonl", time.Now().Format("20060102_150405")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	handler := slog.NewJSONHandler(io.MultiWriter(os.Stdout, file), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &RunLog{
		Logger: slog.New(handler),
		Path:   path,
		file:   file,
	}, nil
}

// Close flushes and closes the underlying file.
func (r *RunLog) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

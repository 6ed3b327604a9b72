// Package trace persists frame movements as JSON lines for post-mortem
// inspection of a virtual RF run. The in-memory ring log answers "what
// just happened"; the trace file answers "what happened ten minutes ago",
// with size-bounded rotation so long soak runs cannot fill a disk.
package trace

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Entry is one traced frame movement.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Port      string    `json:"port"`
	PortID    string    `json:"portId,omitempty"`
	Dir       string    `json:"dir"`
	Data      string    `json:"data"`
}

// Writer appends trace entries to a sink. A nil *Writer is valid and
// records nothing. Write failures are logged once and then suppressed;
// tracing must never take the bus down.
type Writer struct {
	mu     sync.Mutex
	out    io.WriteCloser
	enc    *json.Encoder
	warned bool
}

// RotationConfig bounds the trace file on disk.
type RotationConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewWriter traces to a rotating file.
func NewWriter(file string, rot RotationConfig) *Writer {
	return NewWriterTo(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAgeDays,
	})
}

// NewWriterTo traces to an arbitrary sink.
func NewWriterTo(out io.WriteCloser) *Writer {
	return &Writer{out: out, enc: json.NewEncoder(out)}
}

// Record appends one entry.
func (w *Writer) Record(port, portID, dir string, data []byte) {
	if w == nil {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC(),
		Port:      port,
		PortID:    portID,
		Dir:       dir,
		Data:      string(data),
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(entry); err != nil && !w.warned {
		w.warned = true
		slog.Warn("frame trace disabled after write failure", "error", err)
	}
}

// Close flushes and closes the sink.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Close()
}

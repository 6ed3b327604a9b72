package hub

import "sync"

// DefaultLogSize bounds the ring log when no size is configured.
const DefaultLogSize = 100

// Direction tags which way a logged frame moved relative to a port.
type Direction string

const (
	DirSent     Direction = "sent"     // read off the port by the hub
	DirReceived Direction = "received" // written to the port by the hub
)

// Entry is one logged frame movement.
type Entry struct {
	Port string
	Dir  Direction
	Data []byte
}

// FrameLog is a bounded append-only ring of frame movements, oldest
// entries evicted first. It exists for test introspection; insertion
// order is the only ordering guarantee.
type FrameLog struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

// NewFrameLog creates a ring log holding up to capacity entries.
func NewFrameLog(capacity int) *FrameLog {
	if capacity <= 0 {
		capacity = DefaultLogSize
	}
	return &FrameLog{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Append records one frame movement. The data is copied; callers may
// reuse the slice.
func (l *FrameLog) Append(port string, dir Direction, data []byte) {
	entry := Entry{Port: port, Dir: dir, Data: append([]byte(nil), data...)}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[1:]
	}
}

// Entries returns a copy of the log in insertion order.
func (l *FrameLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of retained entries.
func (l *FrameLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Capacity returns the ring size.
func (l *FrameLog) Capacity() int {
	return l.capacity
}

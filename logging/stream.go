package logging

import (
	"fmt"
	"sync"
	"time"
)

// Severity classifies a stream entry for UI rendering.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Entry is a single user-visible log line in the wizard's log stream.
type Entry struct {
	ID       string    `json:"id"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Time     time.Time `json:"time"`
}

// Stream is an append-only, bounded log stream rendered by the UI.
// It keeps the most recent entries up to a fixed capacity and supports
// in-place coalescing: Set replaces the previous entry with the same ID
// instead of appending, which is how repeated progress lines ("3 of 5
// complete") avoid flooding the stream.
//
// The wizard only appends and coalesces; nothing reads the stream back
// for control-flow decisions.
type Stream struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
	seq     int
}

// DefaultStreamCapacity bounds the stream when no capacity is given.
const DefaultStreamCapacity = 200

// NewStream creates a Stream retaining at most max entries.
// A max of zero or less falls back to DefaultStreamCapacity.
func NewStream(max int) *Stream {
	if max <= 0 {
		max = DefaultStreamCapacity
	}
	return &Stream{
		entries: make([]Entry, 0, max),
		max:     max,
	}
}

// Append adds a new entry with a generated ID and returns that ID.
func (s *Stream) Append(sev Severity, msg string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := fmt.Sprintf("log-%d", s.seq)
	s.push(Entry{ID: id, Message: msg, Severity: sev, Time: time.Now()})
	return id
}

// Appendf is Append with fmt.Sprintf formatting.
func (s *Stream) Appendf(sev Severity, format string, args ...any) string {
	return s.Append(sev, fmt.Sprintf(format, args...))
}

// Set writes an entry under a caller-chosen ID. If an entry with that ID
// already exists it is replaced in place, keeping its position in the
// stream; otherwise the entry is appended.
func (s *Stream) Set(id string, sev Severity, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Message = msg
			s.entries[i].Severity = sev
			s.entries[i].Time = time.Now()
			return
		}
	}
	s.push(Entry{ID: id, Message: msg, Severity: sev, Time: time.Now()})
}

// Setf is Set with fmt.Sprintf formatting.
func (s *Stream) Setf(id string, sev Severity, format string, args ...any) {
	s.Set(id, sev, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the current entries, oldest first.
func (s *Stream) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of retained entries.
func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops all entries, e.g. when the user starts fresh.
func (s *Stream) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

// push appends an entry, evicting the oldest when over capacity.
// Caller must hold mu.
func (s *Stream) push(e Entry) {
	s.entries = append(s.entries, e)
	if len(s.entries) > s.max {
		n := copy(s.entries, s.entries[len(s.entries)-s.max:])
		s.entries = s.entries[:n]
	}
}

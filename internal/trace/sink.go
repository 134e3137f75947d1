// Package trace provides an injectable diagnostic sink for the decoder and
// encoder, adapted from the teacher's internal/debugcontext package. Unlike
// debugcontext, there is no process-wide instance: the codec's core library
// emits no logs on its own (see SPEC_FULL.md §9, "Global mutable logger" /
// Design Notes) — a caller that wants a decode/encode trace constructs a
// *Sink and passes it explicitly.
package trace

import (
	"fmt"
	"sync"
)

// Entry is a single recorded step of a decode or encode pass: which stage of
// the state machine produced it, at what byte offset, and a human-readable
// description.
type Entry struct {
	Stage   string // e.g. "prefixes", "modrm", "immediate", "assemble"
	Offset  int    // byte offset into the input the entry refers to
	Message string
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] offset %d: %s", e.Stage, e.Offset, e.Message)
}

// Sink is an append-only, concurrency-safe sequence of Entry values. A nil
// *Sink is valid and silently discards every Record call, so decoder/encoder
// code can call sink.Record(...) unconditionally without a nil check at each
// call site.
type Sink struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns a ready-to-use, empty Sink.
func New() *Sink {
	return &Sink{}
}

// Record appends a diagnostic entry. Safe to call on a nil *Sink.
func (s *Sink) Record(stage string, offset int, format string, args ...any) {
	if s == nil {
		return
	}
	entry := Entry{Stage: stage, Offset: offset, Message: fmt.Sprintf(format, args...)}
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
}

// Entries returns a copy of the recorded entries in insertion order.
func (s *Sink) Entries() []Entry {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

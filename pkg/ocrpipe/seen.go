package ocrpipe

import "sync"

// SeenRecorder records document identifiers across runs so callers can
// act exactly once per logical document, whichever run processes it
// first. Implementations must be safe for concurrent use.
type SeenRecorder interface {
	// MarkSeen records the identifier and reports whether this call was
	// the first to do so.
	MarkSeen(id string) bool
}

// SeenSet is the in-memory SeenRecorder. Its zero value is not usable;
// construct with NewSeenSet.
type SeenSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewSeenSet returns an empty in-memory recorder.
func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[string]struct{})}
}

// MarkSeen implements SeenRecorder.
func (s *SeenSet) MarkSeen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Package dedup tracks which complaints have already reached the store.
package dedup

import (
	"sync"

	"complaintsync/internal/complaint"
)

// SeenSet is the set of fingerprints known to be persisted.
//
// It is seeded once per run from the store's existing rows and only grows
// after a successful append. Nothing here is written to disk; the worksheet
// is the durable copy.
type SeenSet struct {
	seen map[string]struct{}
	mu   sync.RWMutex
}

// New creates an empty set.
func New() *SeenSet {
	return &SeenSet{seen: make(map[string]struct{})}
}

// Preload inserts the fingerprint of every record read back from the store
// and returns how many new fingerprints were added. Blank rows are skipped.
func (s *SeenSet) Preload(records []complaint.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range records {
		if r.IsBlank() {
			continue
		}
		fp := complaint.Fingerprint(r)
		if _, ok := s.seen[fp]; ok {
			continue
		}
		s.seen[fp] = struct{}{}
		added++
	}
	return added
}

// IsNew reports whether the record's fingerprint is absent. It does not
// modify the set.
func (s *SeenSet) IsNew(r complaint.Record) bool {
	return !s.Contains(complaint.Fingerprint(r))
}

// MarkSeen records the fingerprint. Calling it twice has the same effect as
// calling it once.
func (s *SeenSet) MarkSeen(r complaint.Record) {
	fp := complaint.Fingerprint(r)

	s.mu.Lock()
	s.seen[fp] = struct{}{}
	s.mu.Unlock()
}

// Contains reports whether the fingerprint is in the set.
func (s *SeenSet) Contains(fp string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[fp]
	return ok
}

// Len returns the number of distinct fingerprints.
func (s *SeenSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

package pack

import "sync"

// keySet is the in-run dedup set of mu_key values. check-then-insert is
// one operation under the lock so the set stays correct if pack is ever
// parallelized across input files.
type keySet struct {
	mu sync.Mutex
	m  map[string]bool
}

func newKeySet(seed map[string]bool) *keySet {
	if seed == nil {
		seed = make(map[string]bool)
	}
	return &keySet{m: seed}
}

// add inserts key and reports whether it was new.
func (s *keySet) add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m[key] {
		return false
	}
	s.m[key] = true
	return true
}

package guard

import "sync"

// IntentStore is the single-slot "redirect intent": the destination a user
// was trying to reach before being sent to sign-in. Read-once by contract:
// Consume returns the value and clears the slot in the same step, so an
// intent can never fire twice or leak into a later session.
type IntentStore struct {
	mu   sync.Mutex
	path string
}

func NewIntentStore() *IntentStore {
	return &IntentStore{}
}

// Capture remembers path, overwriting any previous intent.
func (s *IntentStore) Capture(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
}

// Consume returns the pending intent and clears it. Empty string means no
// intent was pending.
func (s *IntentStore) Consume() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.path
	s.path = ""
	return p
}

// Peek returns the pending intent without clearing it.
func (s *IntentStore) Peek() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Clear drops a pending intent without consuming it (e.g. the sign-in page
// was abandoned).
func (s *IntentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = ""
}

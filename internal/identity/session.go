package identity

import "sync"

// Session holds the currently attached viewer identity with an explicit
// Attach/Detach lifecycle, replacing a process-wide auth observable.
// Components receive a *Session at construction and ask it for the
// current viewer when an operation needs a fallback identity.
type Session struct {
	mu      sync.RWMutex
	current *Identity
}

func NewSession() *Session {
	return &Session{}
}

// Attach sets the active viewer identity.
func (s *Session) Attach(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &id
}

// Detach clears the active viewer identity.
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Current returns the attached identity, or false when no viewer is
// signed in.
func (s *Session) Current() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Identity{}, false
	}
	return *s.current, true
}

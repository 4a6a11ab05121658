package state

import "sync"

// Store serializes actions and notifies subscribers of each new state.
type Store struct {
	mu    sync.RWMutex
	state State
	subs  []func(State)
}

// NewStore returns a store holding initial.
func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// Dispatch applies a and notifies subscribers with the result.
// Subscribers run on the caller's goroutine after the lock is released.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to run after every dispatch.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

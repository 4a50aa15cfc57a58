package store

import "sync"

// Sessions keeps one State per session and collection. It is created per
// server, never shared as a package-level singleton.
type Sessions struct {
	mu     sync.Mutex
	states map[string]map[string]State // sessionID -> collection -> state
}

func NewSessions() *Sessions {
	return &Sessions{states: make(map[string]map[string]State)}
}

// Dispatch reduces a into the session's state for collection and returns the result.
func (s *Sessions) Dispatch(sessionID, collection string, a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCollection, ok := s.states[sessionID]
	if !ok {
		byCollection = make(map[string]State)
		s.states[sessionID] = byCollection
	}
	prev, ok := byCollection[collection]
	if !ok {
		prev = State{Collection: collection, Records: []Record{}}
	}
	next := Reduce(prev, a)
	byCollection[collection] = next
	return next
}

func (s *Sessions) Get(sessionID, collection string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[sessionID][collection]
	return st, ok
}

// Drop forgets everything held for the session.
func (s *Sessions) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

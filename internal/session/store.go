// Package session keeps per-conversation history in memory.
//
// History is deliberately small: only the last few (query, answer) exchanges
// survive, bounding the prompt each follow-up question carries. Sessions live
// for the process lifetime; there is no persistence.
package session

import "sync"

// Exchange is one completed question/answer pair.
type Exchange struct {
	Query  string
	Answer string
}

// Store holds conversation history keyed by session ID. Safe for concurrent
// use; operations on different sessions never block each other.
type Store struct {
	maxHistory int

	mu       sync.RWMutex
	sessions map[string]*state
}

type state struct {
	mu        sync.Mutex
	exchanges []Exchange
}

// NewStore creates a store keeping at most maxHistory exchanges per session.
// Values below 1 fall back to 2.
func NewStore(maxHistory int) *Store {
	if maxHistory < 1 {
		maxHistory = 2
	}
	return &Store{
		maxHistory: maxHistory,
		sessions:   make(map[string]*state),
	}
}

func (s *Store) session(id string) *state {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.sessions[id]; ok {
		return st
	}
	st = &state{}
	s.sessions[id] = st
	return st
}

// History returns a copy of the session's exchanges, oldest first. An unknown
// session yields an empty history; reading never creates a session.
func (s *Store) History(id string) []Exchange {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.exchanges) == 0 {
		return nil
	}
	out := make([]Exchange, len(st.exchanges))
	copy(out, st.exchanges)
	return out
}

// AddExchange appends a completed exchange to the session, creating the
// session on first use and evicting the oldest exchange beyond the history
// bound.
func (s *Store) AddExchange(id, query, answer string) {
	st := s.session(id)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.exchanges = append(st.exchanges, Exchange{Query: query, Answer: answer})
	if len(st.exchanges) > s.maxHistory {
		st.exchanges = st.exchanges[len(st.exchanges)-s.maxHistory:]
	}
}

// Clear removes a session and its history. Clearing an unknown session is a
// no-op.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

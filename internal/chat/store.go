package chat

import "sync"

// SessionStore keeps sessions in memory for the HTTP server. Sessions do not
// outlive the process.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	userName string
}

// NewSessionStore returns an empty store whose sessions greet userName.
func NewSessionStore(userName string) *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session), userName: userName}
}

// Create starts and stores a new session.
func (st *SessionStore) Create() *Session {
	s := NewSession(st.userName)
	st.mu.Lock()
	st.sessions[s.ID()] = s
	st.mu.Unlock()
	return s
}

// Get looks up a session by id.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session, reporting whether it existed.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

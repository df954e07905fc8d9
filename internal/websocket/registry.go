package websocket

import (
	"log"
	"sync"
)

// Registry is the bidirectional association between logical user ids
// and live sessions. One session per user id: registering a user who
// already has a live session replaces it, and the displaced session is
// closed so it cannot linger as an unreachable handle.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Session
	users  map[*Session]string
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]*Session),
		users:  make(map[*Session]string),
	}
}

func (r *Registry) Register(userID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byUser[userID]; ok && old != s {
		log.Printf("registry: replacing existing connection user=%s old_sid=%s new_sid=%s",
			userID, old.ID, s.ID)
		delete(r.users, old)
		// Close after removing the reverse entry so the old session's
		// late Unregister is a no-op.
		old.CloseWithReason(4000, "session_replaced")
	}

	// A session re-registering under a new user id gives up the old one.
	if prev, ok := r.users[s]; ok && prev != userID {
		if r.byUser[prev] == s {
			delete(r.byUser, prev)
		}
	}

	r.byUser[userID] = s
	r.users[s] = userID
}

// Unregister removes both directions of the association. It is a no-op
// for sessions that never registered, and it will not evict a newer
// session that replaced this one.
func (r *Registry) Unregister(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.users[s]
	if !ok {
		return
	}
	delete(r.users, s)
	if current, ok := r.byUser[userID]; ok && current == s {
		delete(r.byUser, userID)
	}
}

func (r *Registry) Get(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byUser[userID]
	return s, ok
}

// UserOf reports the user id a session registered under.
func (r *Registry) UserOf(s *Session) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uid, ok := r.users[s]
	return uid, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byUser)
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for s := range r.users {
		s.Close()
	}
	r.byUser = make(map[string]*Session)
	r.users = make(map[*Session]string)
}

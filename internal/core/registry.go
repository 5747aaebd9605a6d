package core

import "sync"

// Registry is the in-memory record of joined connections, keyed by client id.
// The presence list keeps join order; a rejoin keeps its original position.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
	order    []string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]Session),
	}
}

// Put stores the session, replacing any previous one for the same client.
// Returns true if an existing session was replaced.
func (r *Registry) Put(s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced := r.sessions[s.ClientID]
	if !replaced {
		r.order = append(r.order, s.ClientID)
	}
	r.sessions[s.ClientID] = s
	return replaced
}

// Get returns the session for a client.
func (r *Registry) Get(clientID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[clientID]
	return s, ok
}

// Remove deletes the session for a client and returns it.
func (r *Registry) Remove(clientID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[clientID]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, clientID)
	for i, id := range r.order {
		if id == clientID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return s, true
}

// List returns a snapshot of the presence list. It is never nil.
func (r *Registry) List() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Session, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.sessions[id])
	}
	return list
}

// Len reports how many sessions are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

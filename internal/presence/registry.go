package presence

import (
	"sync"

	"github.com/tasknest/backend/domain"
)

// Handle is a live, writable connection for one user.
type Handle interface {
	UserID() string
	Send(event domain.Event) error
}

// Registry maps a user identity to its active connection handle. It is
// volatile on purpose: the process starts empty and clients re-register on
// every new connection.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]Handle)}
}

// Register installs the handle for the user, replacing any prior one.
// Last write wins: a client reconnecting with a new connection before the
// old one is torn down ends up with the fresh handle registered.
func (r *Registry) Register(userID string, handle Handle) {
	if userID == "" || handle == nil {
		return
	}
	r.mu.Lock()
	r.byUser[userID] = handle
	r.mu.Unlock()
}

// Unregister removes the user's entry only if it still points at exactly this
// handle. A late disconnect of a superseded connection must not evict the
// newer registration.
func (r *Registry) Unregister(handle Handle) {
	if handle == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.byUser[handle.UserID()]; ok && current == handle {
		delete(r.byUser, handle.UserID())
	}
}

// Lookup returns the active handle for the user, if one is registered.
func (r *Registry) Lookup(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handle, ok := r.byUser[userID]
	return handle, ok
}

// Handles snapshots all live handles.
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handles := make([]Handle, 0, len(r.byUser))
	for _, h := range r.byUser {
		handles = append(handles, h)
	}
	return handles
}

// Count reports the number of live registrations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

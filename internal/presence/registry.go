// Package presence tracks which users currently hold a live realtime connection.
//
// The registry is process-local and starts empty; nothing is persisted, so every
// user appears offline after a restart until they reconnect. Each user maps to a
// single connection: a new connection for the same user replaces the old entry.
// Fanning out to several devices per user is intentionally not supported.
package presence

import (
	"sort"
	"sync"
)

// Registry maps user ids to their active connection id.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]string)}
}

// Set records connID as the user's active connection, overwriting any previous one.
func (r *Registry) Set(userID, connID string) {
	r.mu.Lock()
	r.entries[userID] = connID
	r.mu.Unlock()
}

// Remove deletes the user's entry if it still points at connID. It reports
// whether an entry was removed. A connection that was already replaced by a
// newer one leaves the newer entry untouched.
func (r *Registry) Remove(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.entries[userID]; ok && current == connID {
		delete(r.entries, userID)
		return true
	}
	return false
}

// Lookup returns the active connection id for a user.
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.entries[userID]
	return connID, ok
}

// OnlineUserIDs returns the ids of all online users in sorted order.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for userID := range r.entries {
		ids = append(ids, userID)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Len returns the number of online users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

package token

import "sync"

// Registry hands out one Store per application id, so every client of the same
// application in a process shares the current token.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// For returns the store for appID, creating it on first use.
func (r *Registry) For(appID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[appID]; ok {
		return s
	}
	s := NewStore(appID)
	r.stores[appID] = s
	return s
}

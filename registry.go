package bluetooth

import "sync"

// Registry caches the most recent advertisement per address.
type Registry struct {
	mu   sync.RWMutex
	devs map[string]*Advertisement
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{devs: make(map[string]*Advertisement)}
}

// Upsert stores a as the latest advertisement for its address. It reports
// ChangeNew for an address not cached yet. An advertisement older than the
// cached one is ignored and Upsert returns false.
func (r *Registry) Upsert(a *Advertisement) (ChangeKind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.devs[a.addr]
	if !ok {
		r.devs[a.addr] = a
		return ChangeNew, true
	}
	if a.at.Before(old.at) {
		return ChangeUpdated, false
	}
	r.devs[a.addr] = a
	return ChangeUpdated, true
}

// Get returns the cached advertisement for addr.
func (r *Registry) Get(addr string) (*Advertisement, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.devs[NormalizeAddress(addr)]
	return a, ok
}

// Present reports whether addr is cached.
func (r *Registry) Present(addr string) bool {
	_, ok := r.Get(addr)
	return ok
}

// List returns a snapshot of the cached advertisements, in no particular order.
func (r *Registry) List() []*Advertisement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l := make([]*Advertisement, 0, len(r.devs))
	for _, a := range r.devs {
		l = append(l, a)
	}
	return l
}

// Forget evicts addr, so the next advertisement from it is reported as new.
func (r *Registry) Forget(addr string) bool {
	addr = NormalizeAddress(addr)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.devs[addr]
	delete(r.devs, addr)
	return ok
}

// Len ...
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devs)
}

// Reset evicts every address.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.devs = make(map[string]*Advertisement)
	r.mu.Unlock()
}

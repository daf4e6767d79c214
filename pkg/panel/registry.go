package panel

import "sync"

// Registry keeps one Panel per admin session.
type Registry struct {
	mu      sync.Mutex
	panels  map[string]*Panel
	factory func() *Panel
}

func NewRegistry(factory func() *Panel) *Registry {
	return &Registry{
		panels:  make(map[string]*Panel),
		factory: factory,
	}
}

// Get returns the session's panel, creating it on first use. The second
// result is true when the panel is new.
func (r *Registry) Get(sessionID string) (*Panel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.panels[sessionID]; ok {
		return p, false
	}
	p := r.factory()
	r.panels[sessionID] = p
	return p, true
}

func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	delete(r.panels, sessionID)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.panels)
}

package ecs

// Registry tracks every per-entity store that must drop records for
// destroyed entities once per update.
type Registry struct {
	stores []Reaper
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Reaper, 0, 16),
	}
}

// Register adds a store to the registry. Stores are reaped in registration order.
func (r *Registry) Register(store Reaper) {
	r.stores = append(r.stores, store)
}

// Len returns the number of registered stores.
func (r *Registry) Len() int { return len(r.stores) }

// Reap removes destroyed entities from every registered store and returns the
// total number of records removed.
func (r *Registry) Reap(destroyed func(Entity) bool) int {
	n := 0
	for _, s := range r.stores {
		n += s.ReapDestroyed(destroyed)
	}
	return n
}

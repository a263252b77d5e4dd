package ecs

// World is the top-level ECS container. It owns the entity manager and the
// registry of stores that are reaped when World.Update runs at tick end.
type World struct {
	manager  *Manager
	registry *Registry
}

func NewWorld() *World {
	return &World{
		manager:  NewManager(),
		registry: NewRegistry(),
	}
}

func (w *World) Manager() *Manager   { return w.manager }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() Entity { return w.manager.Create() }

func (w *World) Destroy(e Entity) { w.manager.Destroy(e) }

func (w *World) Destroyed(e Entity) bool { return w.manager.Destroyed(e) }

// Update purges destroyed entities from every registered store, then advances
// the destruction machine. Ids destroyed this tick are recycled on the
// following Update, so every system observes Destroyed for one full tick.
func (w *World) Update() int {
	n := w.registry.Reap(w.manager.Destroyed)
	w.manager.Update()
	return n
}

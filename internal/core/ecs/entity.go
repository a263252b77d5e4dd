package ecs

import (
	"math"
	"strconv"
)

// Entity is an opaque integer handle. The zero value, Nil, never names a live
// entity and is used as "no reference".
type Entity uint32

const Nil Entity = 0

func (e Entity) ID() uint32     { return uint32(e) }
func (e Entity) IsNil() bool    { return e == Nil }
func (e Entity) String() string { return "entity#" + strconv.FormatUint(uint64(e), 10) }

// DestroyState is the position of an entity in the two-pass destruction
// machine. Destroy moves a live entity to PendingPass0; each Update advances
// it once, and the Update after PendingPass1 recycles its id.
type DestroyState uint8

const (
	Live DestroyState = iota
	PendingPass0
	PendingPass1
)

func (s DestroyState) String() string {
	switch s {
	case Live:
		return "live"
	case PendingPass0:
		return "pending-pass0"
	case PendingPass1:
		return "pending-pass1"
	}
	return "unknown"
}

type entityInfo struct {
	persistent bool
}

// Manager allocates entity ids, recycles them after destruction, and owns the
// save filter and the load-time remap table.
type Manager struct {
	exists    *Pool[entityInfo]
	destroyed *Pool[DestroyState]
	free      []Entity
	next      uint32

	filter        *Pool[bool]
	filterDefault bool

	loadMap map[Entity]Entity
}

func NewManager() *Manager {
	return &Manager{
		exists:        NewPool[entityInfo](),
		destroyed:     NewPool[DestroyState](),
		free:          make([]Entity, 0, 256),
		next:          1,
		filter:        NewPool[bool](),
		filterDefault: true,
	}
}

// Create returns a new live entity, reusing a recycled id when one is free.
func (m *Manager) Create() Entity {
	var e Entity
	if n := len(m.free); n > 0 {
		e = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		Assert(m.next != math.MaxUint32, "entity id space exhausted")
		e = Entity(m.next)
		m.next++
	}
	m.exists.Add(e)
	return e
}

// Exists reports whether e is allocated, including while destruction is pending.
func (m *Manager) Exists(e Entity) bool { return m.exists.Has(e) }

// Count returns the number of allocated entities.
func (m *Manager) Count() int { return m.exists.Len() }

// Each calls fn for every allocated entity.
func (m *Manager) Each(fn func(Entity)) {
	m.exists.Each(func(e Entity, _ *entityInfo) { fn(e) })
}

// Destroy schedules e for destruction. It is a no-op for entities that do not
// exist or are already pending.
func (m *Manager) Destroy(e Entity) {
	if !m.exists.Has(e) || m.destroyed.Has(e) {
		return
	}
	m.destroyed.Set(e, PendingPass0)
}

// Destroyed reports whether e has been destroyed and its id not yet recycled.
func (m *Manager) Destroyed(e Entity) bool { return m.destroyed.Has(e) }

// State returns e's destruction state. Entities that do not exist report Live.
func (m *Manager) State(e Entity) DestroyState {
	if s, ok := m.destroyed.Get(e); ok {
		return *s
	}
	return Live
}

// SetPersistent marks e as surviving DestroyAll.
func (m *Manager) SetPersistent(e Entity, persistent bool) {
	m.exists.MustGet(e).persistent = persistent
}

func (m *Manager) Persistent(e Entity) bool {
	info, ok := m.exists.Get(e)
	return ok && info.persistent
}

// DestroyAll destroys every live entity not marked persistent.
func (m *Manager) DestroyAll() {
	for _, e := range m.exists.Entities() {
		if !m.Persistent(e) {
			m.Destroy(e)
		}
	}
}

// Update advances the destruction machine one pass. Entities in their second
// pass are released and their ids pushed for reuse.
func (m *Manager) Update() {
	for i := m.destroyed.Len() - 1; i >= 0; i-- {
		e := m.destroyed.Entity(i)
		st := m.destroyed.At(i)
		if *st == PendingPass0 {
			*st = PendingPass1
			continue
		}
		m.destroyed.Remove(e)
		m.exists.Remove(e)
		m.filter.Remove(e)
		m.free = append(m.free, e)
	}
}

// claim makes a specific free id live. Used by merge loads to keep saved ids
// when they do not collide with the live world.
func (m *Manager) claim(e Entity) bool {
	if e.IsNil() || m.exists.Has(e) {
		return false
	}
	id := uint32(e)
	if id >= m.next {
		for i := m.next; i < id; i++ {
			m.free = append(m.free, Entity(i))
		}
		m.next = id + 1
	} else {
		found := false
		for i, f := range m.free {
			if f == e {
				m.free = append(m.free[:i], m.free[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	m.exists.Add(e)
	return true
}

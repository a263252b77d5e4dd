package ecs

import (
	"errors"
	"fmt"
	"math"

	"github.com/l1jgo/worldcore/internal/store"
)

// ErrFilteredEntity is returned when a saved field references an entity that
// the save filter excludes from the current save.
var ErrFilteredEntity = errors.New("reference to entity excluded from save")

// SetSaveFilter marks e for inclusion (true) or exclusion (false) in saves.
// Marking any entity for inclusion flips the default for unmarked entities to
// excluded until ClearSaveFilter, which is how partial prefab saves opt in.
func (m *Manager) SetSaveFilter(e Entity, save bool) {
	if save {
		m.filterDefault = false
	}
	m.filter.Set(e, save)
}

// SaveFilter reports whether e is included in the next save.
func (m *Manager) SaveFilter(e Entity) bool {
	if v, ok := m.filter.Get(e); ok {
		return *v
	}
	return m.filterDefault
}

// ClearSaveFilter forgets every mark and restores save-all.
func (m *Manager) ClearSaveFilter() {
	m.filter.Clear()
	m.filterDefault = true
}

// BeginLoad starts a load operation with an empty remap table.
func (m *Manager) BeginLoad() {
	m.loadMap = make(map[Entity]Entity)
}

// EndLoad discards the remap table of the current load operation.
func (m *Manager) EndLoad() {
	m.loadMap = nil
}

// SaveEntity writes a reference to e under name. Nil is always allowed.
func (m *Manager) SaveEntity(e Entity, name string, n *store.Node) error {
	if !e.IsNil() && !m.SaveFilter(e) {
		return fmt.Errorf("%w: %v in field %q", ErrFilteredEntity, e, name)
	}
	n.SaveUint(name, uint64(e))
	return nil
}

// LoadEntity reads an entity reference saved under name, mapping the saved id
// to a live entity. The first time a saved id is seen in a load operation it
// keeps its id if that id is free, and otherwise gets a fresh entity. Later
// references to the same saved id resolve to the same live entity. If the
// field is missing def is returned with false.
func (m *Manager) LoadEntity(name string, def Entity, n *store.Node) (Entity, bool) {
	id, ok := n.LoadUint(name, 0)
	if !ok || id > math.MaxUint32 {
		return def, false
	}
	if id == 0 {
		return Nil, true
	}
	return m.resolve(Entity(id)), true
}

func (m *Manager) resolve(saved Entity) Entity {
	if m.loadMap == nil {
		m.loadMap = make(map[Entity]Entity)
	}
	if live, ok := m.loadMap[saved]; ok {
		return live
	}
	live := saved
	if !m.claim(saved) {
		live = m.Create()
	}
	m.loadMap[saved] = live
	return live
}

// Name is the store section the manager saves under.
func (m *Manager) Name() string { return "entity" }

// Save writes every entity that passes the save filter, along with pending
// destruction states.
func (m *Manager) Save(n *store.Node) error {
	exists := n.ChildSave("exists")
	for i := 0; i < m.exists.Len(); i++ {
		e := m.exists.Entity(i)
		if !m.SaveFilter(e) {
			continue
		}
		c := exists.ChildSave("")
		if err := m.SaveEntity(e, "id", c); err != nil {
			return err
		}
		c.SaveBool("persistent", m.exists.At(i).persistent)
	}
	destroyed := n.ChildSave("destroyed")
	for i := 0; i < m.destroyed.Len(); i++ {
		e := m.destroyed.Entity(i)
		if !m.SaveFilter(e) {
			continue
		}
		c := destroyed.ChildSave("")
		if err := m.SaveEntity(e, "id", c); err != nil {
			return err
		}
		c.SaveUint("state", uint64(*m.destroyed.At(i)))
	}
	return nil
}

// Load merges saved entities into the live world through the remap table.
func (m *Manager) Load(n *store.Node) error {
	if exists, ok := n.ChildLoad("exists"); ok {
		for c, ok := exists.ChildLoad(""); ok; c, ok = exists.ChildLoad("") {
			e, _ := m.LoadEntity("id", Nil, c)
			if e.IsNil() {
				continue
			}
			persistent, _ := c.LoadBool("persistent", false)
			m.exists.MustGet(e).persistent = persistent
		}
	}
	if destroyed, ok := n.ChildLoad("destroyed"); ok {
		for c, ok := destroyed.ChildLoad(""); ok; c, ok = destroyed.ChildLoad("") {
			e, _ := m.LoadEntity("id", Nil, c)
			if e.IsNil() {
				continue
			}
			st, _ := c.LoadUint("state", uint64(PendingPass0))
			if st != uint64(PendingPass1) {
				st = uint64(PendingPass0)
			}
			m.destroyed.Set(e, DestroyState(st))
		}
	}
	return nil
}

// LoadCount returns how many saved ids the current load operation has mapped.
func (m *Manager) LoadCount() int { return len(m.loadMap) }

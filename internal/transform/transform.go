// Package transform maintains the parent/child spatial hierarchy. Every
// mutation recomputes the local matrix and eagerly propagates world matrices
// through the whole subtree, so readers never see a stale cache.
package transform

import (
	"errors"
	"fmt"

	"github.com/l1jgo/worldcore/internal/core/ecs"
	"github.com/l1jgo/worldcore/internal/core/event"
	"github.com/l1jgo/worldcore/internal/geom"
)

// ErrCycle is returned by SetParentChecked when the new parent is a
// descendant of the entity.
var ErrCycle = errors.New("transform parent cycle")

type transform struct {
	position geom.Vec2
	rotation float64
	scale    geom.Vec2

	parent   ecs.Entity
	children []ecs.Entity

	mat      geom.Mat3
	worldMat geom.Mat3

	dirty uint64
}

// System owns the transform pool. Entities must be added before any other
// call; accessors on entities without a transform raise an assertion.
type System struct {
	pool    *ecs.Pool[transform]
	manager *ecs.Manager
	bus     *event.Bus
}

// New creates the transform system. bus may be nil.
func New(manager *ecs.Manager, bus *event.Bus) *System {
	return &System{
		pool:    ecs.NewPool[transform](),
		manager: manager,
		bus:     bus,
	}
}

// Add gives e an identity transform. No-op if e already has one.
func (s *System) Add(e ecs.Entity) {
	if s.pool.Has(e) {
		return
	}
	t := s.pool.Add(e)
	t.scale = geom.V(1, 1)
	t.mat = geom.Identity()
	t.worldMat = geom.Identity()
}

func (s *System) Has(e ecs.Entity) bool { return s.pool.Has(e) }

func (s *System) Len() int { return s.pool.Len() }

// Remove drops e's transform. e is detached from its parent and its children
// become roots.
func (s *System) Remove(e ecs.Entity) {
	t, ok := s.pool.Get(e)
	if !ok {
		return
	}
	if !t.parent.IsNil() {
		s.detach(e, t)
	}
	children := t.children
	t.children = nil
	for _, c := range children {
		ct := s.pool.MustGet(c)
		ct.parent = ecs.Nil
		s.updateWorld(c)
	}
	s.pool.Remove(e)
}

// ReapDestroyed removes transforms of destroyed entities, fixing parent and
// child links as Remove does.
func (s *System) ReapDestroyed(destroyed func(ecs.Entity) bool) int {
	n := 0
	for _, e := range s.pool.Entities() {
		if destroyed(e) {
			s.Remove(e)
			n++
		}
	}
	return n
}

// SetParent attaches e under parent, or makes e a root when parent is Nil.
// Self-parenting and setting the current parent are ignored. Deeper cycles
// are not detected; use SetParentChecked when parent is untrusted.
func (s *System) SetParent(e, parent ecs.Entity) {
	t := s.pool.MustGet(e)
	if parent == e || parent == t.parent {
		return
	}
	old := t.parent
	if !old.IsNil() {
		s.detach(e, t)
	}
	if !parent.IsNil() {
		pt := s.pool.MustGet(parent)
		pt.children = append(pt.children, e)
	}
	t.parent = parent
	s.updateWorld(e)
	event.Emit(s.bus, event.ParentChanged{Entity: e, OldParent: old, NewParent: parent})
}

// SetParentChecked is SetParent with an ancestor walk that rejects cycles.
func (s *System) SetParentChecked(e, parent ecs.Entity) error {
	if parent == e {
		return fmt.Errorf("%w: %v onto itself", ErrCycle, e)
	}
	if s.isAncestor(e, parent) {
		return fmt.Errorf("%w: %v is an ancestor of %v", ErrCycle, e, parent)
	}
	s.SetParent(e, parent)
	return nil
}

// isAncestor reports whether a is e or one of e's ancestors.
func (s *System) isAncestor(a, e ecs.Entity) bool {
	for ; !e.IsNil(); e = s.pool.MustGet(e).parent {
		if e == a {
			return true
		}
	}
	return false
}

func (s *System) Parent(e ecs.Entity) ecs.Entity { return s.pool.MustGet(e).parent }

// Children returns a copy of e's child list.
func (s *System) Children(e ecs.Entity) []ecs.Entity {
	return append([]ecs.Entity(nil), s.pool.MustGet(e).children...)
}

func (s *System) NumChildren(e ecs.Entity) int { return len(s.pool.MustGet(e).children) }

// DetachAll detaches e from its parent and all of e's children from e.
func (s *System) DetachAll(e ecs.Entity) {
	s.SetParent(e, ecs.Nil)
	for _, c := range s.Children(e) {
		s.SetParent(c, ecs.Nil)
	}
}

// DestroyRec destroys e and every descendant.
func (s *System) DestroyRec(e ecs.Entity) {
	if t, ok := s.pool.Get(e); ok {
		for _, c := range append([]ecs.Entity(nil), t.children...) {
			s.DestroyRec(c)
		}
	}
	s.manager.Destroy(e)
}

// SetSaveFilterRec applies the save filter to e and every descendant.
func (s *System) SetSaveFilterRec(e ecs.Entity, save bool) {
	if t, ok := s.pool.Get(e); ok {
		for _, c := range append([]ecs.Entity(nil), t.children...) {
			s.SetSaveFilterRec(c, save)
		}
	}
	s.manager.SetSaveFilter(e, save)
}

func (s *System) detach(e ecs.Entity, t *transform) {
	pt := s.pool.MustGet(t.parent)
	for i, c := range pt.children {
		if c == e {
			pt.children = append(pt.children[:i], pt.children[i+1:]...)
			break
		}
	}
	t.parent = ecs.Nil
}

// modify recomputes e's local matrix and propagates.
func (s *System) modify(e ecs.Entity, t *transform) {
	t.mat = geom.ScaleRotTrans(t.scale, t.rotation, t.position)
	s.updateWorld(e)
}

// updateWorld recomputes e's world matrix from its parent's cached world
// matrix, then does the same for every descendant.
func (s *System) updateWorld(e ecs.Entity) {
	t := s.pool.MustGet(e)
	t.worldMat = s.WorldMatrix(t.parent).Mul(t.mat)
	t.dirty++
	for _, c := range t.children {
		s.updateWorld(c)
	}
}

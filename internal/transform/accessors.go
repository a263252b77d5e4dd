package transform

import (
	"github.com/l1jgo/worldcore/internal/core/ecs"
	"github.com/l1jgo/worldcore/internal/geom"
)

func (s *System) SetPosition(e ecs.Entity, pos geom.Vec2) {
	t := s.pool.MustGet(e)
	t.position = pos
	s.modify(e, t)
}

func (s *System) Position(e ecs.Entity) geom.Vec2 { return s.pool.MustGet(e).position }

// Translate moves e by delta in its parent's space.
func (s *System) Translate(e ecs.Entity, delta geom.Vec2) {
	t := s.pool.MustGet(e)
	t.position = t.position.Add(delta)
	s.modify(e, t)
}

func (s *System) SetRotation(e ecs.Entity, rot float64) {
	t := s.pool.MustGet(e)
	t.rotation = rot
	s.modify(e, t)
}

func (s *System) Rotation(e ecs.Entity) float64 { return s.pool.MustGet(e).rotation }

func (s *System) Rotate(e ecs.Entity, delta float64) {
	t := s.pool.MustGet(e)
	t.rotation += delta
	s.modify(e, t)
}

func (s *System) SetScale(e ecs.Entity, scale geom.Vec2) {
	t := s.pool.MustGet(e)
	t.scale = scale
	s.modify(e, t)
}

func (s *System) Scale(e ecs.Entity) geom.Vec2 { return s.pool.MustGet(e).scale }

// Matrix returns e's local matrix.
func (s *System) Matrix(e ecs.Entity) geom.Mat3 { return s.pool.MustGet(e).mat }

// WorldMatrix returns e's cached world matrix. Nil yields the identity.
func (s *System) WorldMatrix(e ecs.Entity) geom.Mat3 {
	if e.IsNil() {
		return geom.Identity()
	}
	return s.pool.MustGet(e).worldMat
}

func (s *System) WorldPosition(e ecs.Entity) geom.Vec2 {
	return s.WorldMatrix(e).Translation()
}

func (s *System) WorldRotation(e ecs.Entity) float64 {
	return s.WorldMatrix(e).Rotation()
}

func (s *System) WorldScale(e ecs.Entity) geom.Vec2 {
	return s.WorldMatrix(e).ScaleFactors()
}

// LocalToWorld maps a point in e's space to world space.
func (s *System) LocalToWorld(e ecs.Entity, p geom.Vec2) geom.Vec2 {
	return s.WorldMatrix(e).TransformPoint(p)
}

// WorldToLocal maps a world-space point into e's space.
func (s *System) WorldToLocal(e ecs.Entity, p geom.Vec2) geom.Vec2 {
	return s.WorldMatrix(e).Inverse().TransformPoint(p)
}

// DirtyCount increases every time e's world matrix is recomputed.
func (s *System) DirtyCount(e ecs.Entity) uint64 { return s.pool.MustGet(e).dirty }

package transform

import (
	"fmt"

	"github.com/l1jgo/worldcore/internal/core/ecs"
	"github.com/l1jgo/worldcore/internal/geom"
	"github.com/l1jgo/worldcore/internal/store"
)

func saveVec2(n *store.Node, name string, v geom.Vec2) {
	c := n.ChildSave(name)
	c.SaveFloat("x", v.X)
	c.SaveFloat("y", v.Y)
}

func loadVec2(n *store.Node, name string, def geom.Vec2) (geom.Vec2, bool) {
	c, ok := n.ChildLoad(name)
	if !ok {
		return def, false
	}
	x, _ := c.LoadFloat("x", def.X)
	y, _ := c.LoadFloat("y", def.Y)
	return geom.V(x, y), true
}

// Name is the store section the transform system saves under.
func (s *System) Name() string { return "transform" }

// Save writes every transform whose entity passes the save filter. A parent
// that is excluded from the save is an error; excluded children are skipped.
func (s *System) Save(n *store.Node) error {
	for i := 0; i < s.pool.Len(); i++ {
		e := s.pool.Entity(i)
		if !s.manager.SaveFilter(e) {
			continue
		}
		t := s.pool.At(i)
		c := n.ChildSave("")
		if err := s.manager.SaveEntity(e, "ent", c); err != nil {
			return err
		}
		saveVec2(c, "position", t.position)
		c.SaveFloat("rotation", t.rotation)
		saveVec2(c, "scale", t.scale)
		if err := s.manager.SaveEntity(t.parent, "parent", c); err != nil {
			return fmt.Errorf("transform of %v: %w", e, err)
		}
		children := c.ChildSave("children")
		for _, ch := range t.children {
			if !s.manager.SaveFilter(ch) {
				continue
			}
			if err := s.manager.SaveEntity(ch, "", children); err != nil {
				return err
			}
		}
		c.SaveUint("dirty_count", t.dirty)
	}
	return nil
}

type loaded struct {
	ent      ecs.Entity
	parent   ecs.Entity
	children []ecs.Entity
	dirty    uint64
}

// Load merges saved transforms into the pool. Entity references go through
// the manager's remap table. Parent links are authoritative: child lists are
// rebuilt from them in saved order, and world matrices are recomputed from
// the loaded roots down. A saved parent link that would close a cycle is
// dropped, the rest of the load completes, and ErrCycle is returned.
func (s *System) Load(n *store.Node) error {
	var recs []loaded
	for c, ok := n.ChildLoad(""); ok; c, ok = n.ChildLoad("") {
		e, _ := s.manager.LoadEntity("ent", ecs.Nil, c)
		if e.IsNil() {
			continue
		}
		s.Add(e)
		t := s.pool.MustGet(e)
		t.position, _ = loadVec2(c, "position", geom.Vec2{})
		t.rotation, _ = c.LoadFloat("rotation", 0)
		t.scale, _ = loadVec2(c, "scale", geom.V(1, 1))
		t.mat = geom.ScaleRotTrans(t.scale, t.rotation, t.position)

		rec := loaded{ent: e}
		rec.dirty, _ = c.LoadUint("dirty_count", 0)
		rec.parent, _ = s.manager.LoadEntity("parent", ecs.Nil, c)
		if children, ok := c.ChildLoad("children"); ok {
			for i := 0; i < children.ChildCount(); i++ {
				if ent, ok := s.manager.LoadEntity("", ecs.Nil, children); ok && !ent.IsNil() {
					rec.children = append(rec.children, ent)
				}
			}
		}
		recs = append(recs, rec)
	}

	byEnt := make(map[ecs.Entity]*loaded, len(recs))
	for i := range recs {
		byEnt[recs[i].ent] = &recs[i]
	}
	for _, r := range recs {
		t := s.pool.MustGet(r.ent)
		if !t.parent.IsNil() {
			s.detach(r.ent, t)
		}
		t.children = nil
	}
	var cycleErr error
	for _, r := range recs {
		if r.parent.IsNil() || !s.pool.Has(r.parent) {
			continue
		}
		if s.isAncestor(r.ent, r.parent) {
			if cycleErr == nil {
				cycleErr = fmt.Errorf("%w: saved parent %v of %v", ErrCycle, r.parent, r.ent)
			}
			continue
		}
		s.pool.MustGet(r.ent).parent = r.parent
	}
	// Saved child order first, then any child whose link was not listed.
	for _, r := range recs {
		t := s.pool.MustGet(r.ent)
		for _, ch := range r.children {
			if cr, ok := byEnt[ch]; ok && s.pool.MustGet(cr.ent).parent == r.ent {
				t.children = appendUnique(t.children, ch)
			}
		}
	}
	for _, r := range recs {
		p := s.pool.MustGet(r.ent).parent
		if p.IsNil() {
			continue
		}
		pt := s.pool.MustGet(p)
		pt.children = appendUnique(pt.children, r.ent)
	}
	for _, r := range recs {
		p := s.pool.MustGet(r.ent).parent
		if _, fromSave := byEnt[p]; !fromSave {
			s.updateWorld(r.ent)
		}
	}
	// The recompute above is part of loading, not a modification.
	for _, r := range recs {
		s.pool.MustGet(r.ent).dirty = r.dirty
	}
	return cycleErr
}

func appendUnique(list []ecs.Entity, e ecs.Entity) []ecs.Entity {
	for _, x := range list {
		if x == e {
			return list
		}
	}
	return append(list, e)
}

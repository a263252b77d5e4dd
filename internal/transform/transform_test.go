package transform

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/worldcore/internal/core/ecs"
	"github.com/l1jgo/worldcore/internal/core/event"
	"github.com/l1jgo/worldcore/internal/geom"
	"github.com/l1jgo/worldcore/internal/store"
)

const eps = 1e-9

func newSystem() (*ecs.Manager, *System) {
	m := ecs.NewManager()
	return m, New(m, nil)
}

func spawn(m *ecs.Manager, s *System, pos geom.Vec2) ecs.Entity {
	e := m.Create()
	s.Add(e)
	s.SetPosition(e, pos)
	return e
}

// checkHierarchy verifies link symmetry and that every cached world matrix
// equals the parent's world matrix times the local matrix.
func checkHierarchy(t *testing.T, s *System) {
	t.Helper()
	for _, e := range s.pool.Entities() {
		p := s.Parent(e)
		if !p.IsNil() {
			require.True(t, s.Has(p), "%v has parent %v without transform", e, p)
			assert.Contains(t, s.Children(p), e)
		}
		for _, c := range s.Children(e) {
			assert.Equal(t, e, s.Parent(c))
		}
		want := s.WorldMatrix(p).Mul(s.Matrix(e))
		assert.True(t, want.ApproxEqual(s.WorldMatrix(e), eps), "stale world matrix for %v", e)
	}
}

func TestParentComposesPositions(t *testing.T) {
	m, s := newSystem()
	a := spawn(m, s, geom.V(1, 0))
	b := spawn(m, s, geom.V(0, 1))

	s.SetParent(b, a)
	assert.True(t, s.WorldPosition(b).ApproxEqual(geom.V(1, 1), eps))
	assert.Equal(t, []ecs.Entity{b}, s.Children(a))

	s.SetParent(b, ecs.Nil)
	assert.True(t, s.WorldPosition(b).ApproxEqual(geom.V(0, 1), eps))
	assert.Equal(t, 0, s.NumChildren(a))
}

func TestParentRotationAndScale(t *testing.T) {
	m, s := newSystem()
	a := spawn(m, s, geom.V(10, 0))
	s.SetRotation(a, math.Pi/2)
	s.SetScale(a, geom.V(2, 2))
	b := spawn(m, s, geom.V(1, 0))
	s.SetParent(b, a)

	assert.True(t, s.WorldPosition(b).ApproxEqual(geom.V(10, 2), eps), "got %v", s.WorldPosition(b))
	assert.InDelta(t, math.Pi/2, s.WorldRotation(b), eps)
	assert.True(t, s.WorldScale(b).ApproxEqual(geom.V(2, 2), eps))

	s.Translate(a, geom.V(0, 5))
	assert.True(t, s.WorldPosition(b).ApproxEqual(geom.V(10, 7), eps))
	checkHierarchy(t, s)
}

func TestLocalWorldRoundTrip(t *testing.T) {
	m, s := newSystem()
	a := spawn(m, s, geom.V(3, -4))
	s.SetRotation(a, 0.7)
	s.SetScale(a, geom.V(2, 0.5))

	p := geom.V(1.25, -8)
	back := s.WorldToLocal(a, s.LocalToWorld(a, p))
	assert.True(t, back.ApproxEqual(p, 1e-6), "got %v", back)
}

func TestSetParentNoOps(t *testing.T) {
	m, s := newSystem()
	a := spawn(m, s, geom.V(0, 0))
	b := spawn(m, s, geom.V(0, 0))
	s.SetParent(b, a)
	d := s.DirtyCount(b)

	s.SetParent(b, a)
	s.SetParent(b, b)
	assert.Equal(t, d, s.DirtyCount(b))
	assert.Equal(t, a, s.Parent(b))
	assert.Equal(t, 1, s.NumChildren(a))
}

func TestSetParentCheckedRejectsCycles(t *testing.T) {
	m, s := newSystem()
	a := spawn(m, s, geom.Vec2{})
	b := spawn(m, s, geom.Vec2{})
	c := spawn(m, s, geom.Vec2{})
	require.NoError(t, s.SetParentChecked(b, a))
	require.NoError(t, s.SetParentChecked(c, b))

	assert.ErrorIs(t, s.SetParentChecked(a, c), ErrCycle)
	assert.ErrorIs(t, s.SetParentChecked(a, a), ErrCycle)
	assert.Equal(t, ecs.Nil, s.Parent(a))
	checkHierarchy(t, s)
}

func TestRemoveOrphansChildren(t *testing.T) {
	m, s := newSystem()
	root := spawn(m, s, geom.V(5, 5))
	mid := spawn(m, s, geom.V(1, 0))
	leaf := spawn(m, s, geom.V(0, 1))
	s.SetParent(mid, root)
	s.SetParent(leaf, mid)

	s.Remove(mid)
	assert.False(t, s.Has(mid))
	assert.Equal(t, 0, s.NumChildren(root))
	assert.Equal(t, ecs.Nil, s.Parent(leaf))
	assert.True(t, s.WorldPosition(leaf).ApproxEqual(geom.V(0, 1), eps))
	checkHierarchy(t, s)
}

func TestDirtyCount(t *testing.T) {
	m, s := newSystem()
	a := m.Create()
	s.Add(a)
	b := m.Create()
	s.Add(b)
	assert.Equal(t, uint64(0), s.DirtyCount(a))

	s.SetParent(b, a)
	assert.Equal(t, uint64(1), s.DirtyCount(b))

	s.SetPosition(a, geom.V(1, 1))
	assert.Equal(t, uint64(1), s.DirtyCount(a))
	assert.Equal(t, uint64(2), s.DirtyCount(b))
}

func TestMissingTransformAsserts(t *testing.T) {
	_, s := newSystem()
	assert.Panics(t, func() { s.Position(ecs.Entity(42)) })

	err := func() (err error) {
		defer ecs.Recover(&err)
		s.SetParent(ecs.Entity(42), ecs.Nil)
		return nil
	}()
	var ae *ecs.AssertionError
	assert.ErrorAs(t, err, &ae)
}

func TestRandomHierarchyStaysConsistent(t *testing.T) {
	m, s := newSystem()
	rng := rand.New(rand.NewSource(7))
	var ents []ecs.Entity
	for i := 0; i < 40; i++ {
		ents = append(ents, spawn(m, s, geom.V(rng.Float64()*10, rng.Float64()*10)))
	}
	pick := func() ecs.Entity { return ents[rng.Intn(len(ents))] }

	for step := 0; step < 500; step++ {
		e := pick()
		if !s.Has(e) {
			s.Add(e)
			continue
		}
		switch rng.Intn(6) {
		case 0, 1:
			p := pick()
			if rng.Intn(4) == 0 {
				p = ecs.Nil
			}
			if p.IsNil() || s.Has(p) {
				_ = s.SetParentChecked(e, p)
			}
		case 2:
			s.Translate(e, geom.V(rng.Float64()-0.5, rng.Float64()-0.5))
		case 3:
			s.Rotate(e, rng.Float64())
		case 4:
			s.SetScale(e, geom.V(0.5+rng.Float64(), 0.5+rng.Float64()))
		case 5:
			s.Remove(e)
		}
		checkHierarchy(t, s)
	}
}

func TestReapDestroyedThroughWorld(t *testing.T) {
	w := ecs.NewWorld()
	s := New(w.Manager(), nil)
	w.Registry().Register(s)
	a := spawn(w.Manager(), s, geom.V(1, 0))
	b := spawn(w.Manager(), s, geom.V(0, 1))
	c := spawn(w.Manager(), s, geom.V(0, 0))
	s.SetParent(b, a)
	s.SetParent(c, b)

	s.DestroyRec(b)
	assert.True(t, w.Destroyed(b))
	assert.True(t, w.Destroyed(c))
	assert.False(t, w.Destroyed(a))

	assert.Equal(t, 2, w.Update())
	assert.False(t, s.Has(b))
	assert.False(t, s.Has(c))
	assert.Equal(t, 0, s.NumChildren(a))
	checkHierarchy(t, s)
}

func TestParentChangedEvent(t *testing.T) {
	m := ecs.NewManager()
	bus := event.NewBus()
	s := New(m, bus)
	a := spawn(m, s, geom.Vec2{})
	b := spawn(m, s, geom.Vec2{})

	var got []event.ParentChanged
	event.Subscribe(bus, func(ev event.ParentChanged) { got = append(got, ev) })
	s.SetParent(b, a)
	s.SetParent(b, a)
	assert.Equal(t, 1, event.Pending[event.ParentChanged](bus))

	bus.SwapBuffers()
	bus.DispatchAll()
	require.Len(t, got, 1)
	assert.Equal(t, event.ParentChanged{Entity: b, OldParent: ecs.Nil, NewParent: a}, got[0])
}

func saveWorld(t *testing.T, m *ecs.Manager, s *System) string {
	t.Helper()
	root := store.Open()
	require.NoError(t, m.Save(root.ChildSave(m.Name())))
	require.NoError(t, s.Save(root.ChildSave(s.Name())))
	return root.WriteString()
}

func loadWorld(t *testing.T, text string, m *ecs.Manager, s *System) {
	t.Helper()
	root, err := store.OpenFromString(text)
	require.NoError(t, err)
	m.BeginLoad()
	defer m.EndLoad()
	en, ok := root.ChildLoad(m.Name())
	require.True(t, ok)
	require.NoError(t, m.Load(en))
	tn, ok := root.ChildLoad(s.Name())
	require.True(t, ok)
	require.NoError(t, s.Load(tn))
}

func TestSaveLoadPreservesHierarchy(t *testing.T) {
	m, s := newSystem()
	a := spawn(m, s, geom.V(1, 2))
	s.SetRotation(a, 0.25)
	b := spawn(m, s, geom.V(3, 0))
	s.SetScale(b, geom.V(2, 3))
	c := spawn(m, s, geom.V(0, 0))
	s.SetParent(b, a)
	s.SetParent(c, a)
	text := saveWorld(t, m, s)

	m2, s2 := newSystem()
	loadWorld(t, text, m2, s2)

	assert.Equal(t, 3, s2.Len())
	assert.Equal(t, []ecs.Entity{b, c}, s2.Children(a))
	assert.Equal(t, a, s2.Parent(b))
	assert.InDelta(t, 0.25, s2.Rotation(a), eps)
	assert.Equal(t, geom.V(2, 3), s2.Scale(b))
	assert.True(t, s2.WorldPosition(b).ApproxEqual(s.WorldPosition(b), eps))
	checkHierarchy(t, s2)
}

func TestLoadRemapsIntoPopulatedWorld(t *testing.T) {
	m, s := newSystem()
	a := spawn(m, s, geom.V(1, 0))
	b := spawn(m, s, geom.V(0, 1))
	s.SetParent(b, a)
	text := saveWorld(t, m, s)

	m2, s2 := newSystem()
	x := spawn(m2, s2, geom.V(9, 9))
	require.Equal(t, a, x)
	loadWorld(t, text, m2, s2)

	assert.Equal(t, 3, s2.Len())
	assert.Equal(t, ecs.Nil, s2.Parent(x))
	assert.True(t, s2.Position(x).ApproxEqual(geom.V(9, 9), eps))
	var child ecs.Entity
	for _, e := range s2.pool.Entities() {
		if !s2.Parent(e).IsNil() {
			child = e
		}
	}
	require.False(t, child.IsNil())
	assert.True(t, s2.WorldPosition(child).ApproxEqual(geom.V(1, 1), eps))
	checkHierarchy(t, s2)
}

func TestSaveFilteredParentFails(t *testing.T) {
	m, s := newSystem()
	a := spawn(m, s, geom.Vec2{})
	b := spawn(m, s, geom.Vec2{})
	s.SetParent(b, a)
	m.SetSaveFilter(b, true)

	err := s.Save(store.Open())
	assert.ErrorIs(t, err, ecs.ErrFilteredEntity)
}

func TestSaveFilterRecIncludesSubtree(t *testing.T) {
	m, s := newSystem()
	a := spawn(m, s, geom.Vec2{})
	b := spawn(m, s, geom.Vec2{})
	other := spawn(m, s, geom.Vec2{})
	s.SetParent(b, a)
	s.SetSaveFilterRec(a, true)

	assert.True(t, m.SaveFilter(a))
	assert.True(t, m.SaveFilter(b))
	assert.False(t, m.SaveFilter(other))

	root := store.Open()
	require.NoError(t, s.Save(root))
	assert.Equal(t, 2, root.ChildCount())
}

func savedLinks(links ...[2]uint64) *store.Node {
	n := store.Open()
	for _, l := range links {
		c := n.ChildSave("")
		c.SaveUint("ent", l[0])
		c.SaveUint("parent", l[1])
	}
	return n
}

func TestLoadDropsCyclicParents(t *testing.T) {
	m, s := newSystem()
	m.BeginLoad()
	err := s.Load(savedLinks([2]uint64{1, 2}, [2]uint64{2, 1}, [2]uint64{3, 3}))
	m.EndLoad()
	assert.ErrorIs(t, err, ErrCycle)

	a, b, c := ecs.Entity(1), ecs.Entity(2), ecs.Entity(3)
	assert.Equal(t, b, s.Parent(a))
	assert.Equal(t, ecs.Nil, s.Parent(b))
	assert.Equal(t, ecs.Nil, s.Parent(c))
	checkHierarchy(t, s)

	s.SetPosition(b, geom.V(2, 0))
	s.SetPosition(a, geom.V(0, 3))
	assert.True(t, s.WorldPosition(a).ApproxEqual(geom.V(2, 3), eps))
	checkHierarchy(t, s)
}

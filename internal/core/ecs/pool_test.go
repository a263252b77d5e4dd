package ecs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sprite struct {
	Depth int
	Name  string
}

func TestPoolAddIsIdempotent(t *testing.T) {
	p := NewPool[sprite]()
	a := p.Add(1)
	a.Name = "one"
	b := p.Add(1)
	assert.Same(t, a, b)
	assert.Equal(t, "one", b.Name)
	assert.Equal(t, 1, p.Len())
}

func TestPoolRemoveKeepsOthersIntact(t *testing.T) {
	p := NewPool[sprite]()
	for e := Entity(1); e <= 4; e++ {
		p.Set(e, sprite{Depth: int(e), Name: e.String()})
	}
	assert.True(t, p.Remove(2))
	assert.False(t, p.Remove(2))
	assert.False(t, p.Has(2))

	for _, e := range []Entity{1, 3, 4} {
		s, ok := p.Get(e)
		require.True(t, ok, "entity %v", e)
		assert.Equal(t, sprite{Depth: int(e), Name: e.String()}, *s)
	}
	// The last record moved into the freed slot.
	assert.Equal(t, Entity(4), p.Entity(1))
}

func TestPoolMatchesReferenceUnderRandomChurn(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := NewPool[int]()
	ref := make(map[Entity]int)
	for step := 0; step < 5000; step++ {
		e := Entity(rng.Intn(200) + 1)
		if rng.Intn(3) == 0 {
			p.Remove(e)
			delete(ref, e)
		} else {
			p.Set(e, step)
			ref[e] = step
		}
	}
	require.Equal(t, len(ref), p.Len())
	for e := Entity(1); e <= 200; e++ {
		v, ok := p.Get(e)
		want, present := ref[e]
		require.Equal(t, present, ok, "entity %v", e)
		if present {
			assert.Equal(t, want, *v)
		}
	}
	// Index and dense array agree in both directions.
	for i := 0; i < p.Len(); i++ {
		assert.Equal(t, i, p.index.Get(p.Entity(i)))
	}
}

func TestPoolSortRepairsIndex(t *testing.T) {
	p := NewPool[sprite]()
	p.Set(5, sprite{Depth: 2})
	p.Set(3, sprite{Depth: 1})
	p.Set(9, sprite{Depth: 2})
	p.Set(1, sprite{Depth: 0})

	p.Sort(func(a, b *sprite) bool { return a.Depth < b.Depth })
	assert.Equal(t, []Entity{1, 3, 5, 9}, p.Entities(), "ties broken by entity id")
	for i, e := range p.Entities() {
		assert.Equal(t, i, p.index.Get(e))
	}
	s, ok := p.Get(9)
	require.True(t, ok)
	assert.Equal(t, 2, s.Depth)
}

func TestPoolReapDestroyed(t *testing.T) {
	p := NewPool[int]()
	for e := Entity(1); e <= 10; e++ {
		p.Set(e, int(e))
	}
	n := p.ReapDestroyed(func(e Entity) bool { return e%2 == 0 })
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, p.Len())
	p.Each(func(e Entity, v *int) {
		assert.Equal(t, int(e), *v)
		assert.Equal(t, Entity(1), e%2)
	})
}

func TestPoolMustGetAsserts(t *testing.T) {
	p := NewPool[int]()
	var err error
	func() {
		defer Recover(&err)
		p.MustGet(3)
	}()
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Error(), "not in pool")
}

func TestPoolClear(t *testing.T) {
	p := NewPool[int]()
	p.Set(1, 1)
	p.Set(2, 2)
	p.Clear()
	assert.Equal(t, 0, p.Len())
	assert.False(t, p.Has(1))
}

func TestEach2AndEach3(t *testing.T) {
	a := NewPool[int]()
	b := NewPool[string]()
	c := NewPool[float64]()
	for e := Entity(1); e <= 6; e++ {
		a.Set(e, int(e))
	}
	b.Set(2, "two")
	b.Set(4, "four")
	b.Set(7, "seven")
	c.Set(4, 4.0)

	var pairs []Entity
	Each2(a, b, func(e Entity, x *int, s *string) {
		assert.Equal(t, int(e), *x)
		pairs = append(pairs, e)
	})
	assert.ElementsMatch(t, []Entity{2, 4}, pairs)

	var triples []Entity
	Each3(a, b, c, func(e Entity, _ *int, _ *string, _ *float64) {
		triples = append(triples, e)
	})
	assert.Equal(t, []Entity{4}, triples)
}

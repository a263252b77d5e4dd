package ecs

import "sort"

// Reaper is implemented by every per-entity store so the Registry can purge
// entries for destroyed entities once per update.
type Reaper interface {
	ReapDestroyed(destroyed func(Entity) bool) int
}

type poolElem[T any] struct {
	ent Entity
	val T
}

// Pool is a dense, contiguous collection of T keyed by entity. Lookup, add
// and remove are O(1). Removal moves the last record into the freed slot, so
// iteration order is not stable across removals.
//
// Pointers returned by Add, Get, MustGet and At borrow pool storage and are
// only valid until the next Add, Set, Remove, Clear, Sort or ReapDestroyed.
type Pool[T any] struct {
	index *EntityMap
	elems *Buffer[poolElem[T]]
}

func NewPool[T any]() *Pool[T] {
	return &Pool[T]{
		index: NewEntityMap(-1),
		elems: NewBuffer[poolElem[T]](),
	}
}

// Add inserts a zero record for e and returns it. If e is already present the
// existing record is returned unchanged.
func (p *Pool[T]) Add(e Entity) *T {
	Assert(!e.IsNil(), "pool add of nil entity")
	if i := p.index.Get(e); i >= 0 {
		return &p.elems.At(i).val
	}
	el := p.elems.Push()
	el.ent = e
	p.index.Set(e, p.elems.Len()-1)
	return &el.val
}

// Set adds e if needed and stores v as its record.
func (p *Pool[T]) Set(e Entity, v T) {
	*p.Add(e) = v
}

// Remove deletes e's record. Returns false if e was not present.
func (p *Pool[T]) Remove(e Entity) bool {
	i := p.index.Get(e)
	if i < 0 {
		return false
	}
	p.index.Set(e, -1)
	if p.elems.SwapRemove(i) {
		p.index.Set(p.elems.At(i).ent, i)
	}
	return true
}

func (p *Pool[T]) Get(e Entity) (*T, bool) {
	i := p.index.Get(e)
	if i < 0 {
		return nil, false
	}
	return &p.elems.At(i).val, true
}

// MustGet is Get for callers that require e to be present.
func (p *Pool[T]) MustGet(e Entity) *T {
	i := p.index.Get(e)
	Assertf(i >= 0, "entity %v not in pool", e)
	return &p.elems.At(i).val
}

func (p *Pool[T]) Has(e Entity) bool { return p.index.Get(e) >= 0 }

func (p *Pool[T]) Len() int { return p.elems.Len() }

// Entity returns the owner of the record at dense index i.
func (p *Pool[T]) Entity(i int) Entity { return p.elems.At(i).ent }

// At returns the record at dense index i.
func (p *Pool[T]) At(i int) *T { return &p.elems.At(i).val }

// Entities returns a copy of the owners in dense order.
func (p *Pool[T]) Entities() []Entity {
	out := make([]Entity, p.elems.Len())
	for i, el := range p.elems.Slice() {
		out[i] = el.ent
	}
	return out
}

// Each calls fn for every record in dense order. fn must not add or remove
// records from this pool.
func (p *Pool[T]) Each(fn func(Entity, *T)) {
	elems := p.elems.Slice()
	for i := range elems {
		fn(elems[i].ent, &elems[i].val)
	}
}

func (p *Pool[T]) Clear() {
	p.index.Clear()
	p.elems.Clear()
}

// Sort reorders records by less and rebuilds the index. Records that compare
// equal are ordered by entity id.
func (p *Pool[T]) Sort(less func(a, b *T) bool) {
	elems := p.elems.Slice()
	sort.Slice(elems, func(i, j int) bool {
		a, b := &elems[i], &elems[j]
		if less(&a.val, &b.val) {
			return true
		}
		if less(&b.val, &a.val) {
			return false
		}
		return a.ent < b.ent
	})
	for i, el := range elems {
		p.index.Set(el.ent, i)
	}
}

// ReapDestroyed removes every record whose entity satisfies destroyed and
// returns how many were removed.
func (p *Pool[T]) ReapDestroyed(destroyed func(Entity) bool) int {
	n := 0
	// Walking backwards means the record swapped into slot i was already visited.
	for i := p.elems.Len() - 1; i >= 0; i-- {
		if e := p.elems.At(i).ent; destroyed(e) {
			p.Remove(e)
			n++
		}
	}
	return n
}

var _ Reaper = (*Pool[struct{}])(nil)

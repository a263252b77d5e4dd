package ecs

// entityMapMinCap is the storage floor of an EntityMap.
const entityMapMinCap = 16

// EntityMap is a sparse array from entity id to int. Ids that were never set,
// or were set back to the default, read as the default. Storage tracks the
// highest set id and shrinks when most of it is unused.
type EntityMap struct {
	arr   []int
	bound int
	def   int
}

func NewEntityMap(def int) *EntityMap {
	m := &EntityMap{def: def}
	m.Clear()
	return m
}

// Default returns the value reported for unset ids.
func (m *EntityMap) Default() int { return m.def }

// Bound is one more than the highest id holding a non-default value.
func (m *EntityMap) Bound() int { return m.bound }

// Get returns the value for e, or the default. It never grows storage.
func (m *EntityMap) Get(e Entity) int {
	i := int(e)
	if i >= m.bound {
		return m.def
	}
	return m.arr[i]
}

// Set stores v for e. Storing the default unsets e.
func (m *EntityMap) Set(e Entity, v int) {
	i := int(e)
	if v == m.def {
		m.unset(i)
		return
	}
	if i >= len(m.arr) {
		m.grow(i + 1)
	}
	m.arr[i] = v
	if i >= m.bound {
		m.bound = i + 1
	}
}

// Clear unsets every id and releases storage down to the floor.
func (m *EntityMap) Clear() {
	m.arr = make([]int, entityMapMinCap)
	m.fill(0)
	m.bound = 0
}

func (m *EntityMap) unset(i int) {
	if i >= m.bound {
		return
	}
	m.arr[i] = m.def
	if i != m.bound-1 {
		return
	}
	for m.bound > 0 && m.arr[m.bound-1] == m.def {
		m.bound--
	}
	m.shrink()
}

func (m *EntityMap) grow(n int) {
	c := len(m.arr)
	for c < n {
		c *= 2
	}
	arr := make([]int, c)
	copy(arr, m.arr)
	old := len(m.arr)
	m.arr = arr
	m.fill(old)
}

func (m *EntityMap) shrink() {
	c := len(m.arr)
	for c > entityMapMinCap && m.bound < c/4 {
		c /= 2
	}
	if c == len(m.arr) {
		return
	}
	arr := make([]int, c)
	copy(arr, m.arr[:m.bound])
	m.arr = arr
	m.fill(m.bound)
}

func (m *EntityMap) fill(from int) {
	for i := from; i < len(m.arr); i++ {
		m.arr[i] = m.def
	}
}

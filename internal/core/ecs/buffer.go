package ecs

// bufferMinCap is the capacity floor; a Buffer never shrinks below it.
const bufferMinCap = 2

// Buffer is a contiguous, resizable array of T. Capacity doubles when an
// append would overflow it and halves when the length drops below a quarter
// of it. Elements move on any call that can resize, so pointers obtained from
// At are only valid until the next Push, Append, Pop, Resize or SwapRemove.
type Buffer[T any] struct {
	data []T // len(data) is the capacity
	n    int
}

func NewBuffer[T any]() *Buffer[T] {
	return &Buffer[T]{data: make([]T, bufferMinCap)}
}

func (b *Buffer[T]) Len() int { return b.n }
func (b *Buffer[T]) Cap() int { return len(b.data) }

// At returns a pointer to element i. Panics if i is out of range.
func (b *Buffer[T]) At(i int) *T {
	Assertf(i >= 0 && i < b.n, "buffer index %d out of range [0,%d)", i, b.n)
	return &b.data[i]
}

func (b *Buffer[T]) Get(i int) T { return *b.At(i) }

func (b *Buffer[T]) Set(i int, v T) { *b.At(i) = v }

// Slice returns a view over the live elements. Same lifetime rules as At.
func (b *Buffer[T]) Slice() []T { return b.data[:b.n] }

// Push appends a zero element and returns a pointer to it.
func (b *Buffer[T]) Push() *T {
	b.reserve(b.n + 1)
	b.n++
	return &b.data[b.n-1]
}

// Append adds v at the end and returns its index.
func (b *Buffer[T]) Append(v T) int {
	*b.Push() = v
	return b.n - 1
}

// Resize sets the length to n. New slots are zeroed; dropped slots are
// cleared so the buffer does not pin garbage.
func (b *Buffer[T]) Resize(n int) {
	Assertf(n >= 0, "buffer resize to negative length %d", n)
	if n > b.n {
		b.reserve(n)
	} else {
		clear(b.data[n:b.n])
	}
	b.n = n
	b.shrink()
}

// Pop removes the last element.
func (b *Buffer[T]) Pop() {
	Assert(b.n > 0, "pop from empty buffer")
	b.n--
	var zero T
	b.data[b.n] = zero
	b.shrink()
}

// SwapRemove removes element i by moving the last element into its slot.
// It reports whether a move happened, which is false only when i was last.
func (b *Buffer[T]) SwapRemove(i int) bool {
	Assertf(i >= 0 && i < b.n, "buffer index %d out of range [0,%d)", i, b.n)
	last := b.n - 1
	moved := i != last
	if moved {
		b.data[i] = b.data[last]
	}
	b.Pop()
	return moved
}

// Clear drops every element and returns to the minimum capacity.
func (b *Buffer[T]) Clear() {
	b.data = make([]T, bufferMinCap)
	b.n = 0
}

func (b *Buffer[T]) reserve(n int) {
	c := len(b.data)
	if n <= c {
		return
	}
	for c < n {
		c *= 2
	}
	b.realloc(c)
}

func (b *Buffer[T]) shrink() {
	c := len(b.data)
	for c > bufferMinCap && b.n < c/4 {
		c /= 2
	}
	if c != len(b.data) {
		b.realloc(max(c, bufferMinCap))
	}
}

func (b *Buffer[T]) realloc(c int) {
	data := make([]T, c)
	copy(data, b.data[:b.n])
	b.data = data
}

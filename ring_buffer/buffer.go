package ring_buffer

// Ring is a fixed-capacity FIFO. Once full, each Add evicts the oldest item,
// which shifts the index of every remaining item down by one.
type Ring[T any] struct {
	items   []T
	head    int
	size    int
	evicted uint64
}

func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &Ring[T]{
		items: make([]T, capacity),
	}
}

// Add appends v and reports whether the oldest item was evicted to make room.
func (r *Ring[T]) Add(v T) bool {
	if r.size < len(r.items) {
		r.items[(r.head+r.size)%len(r.items)] = v
		r.size++
		return false
	}

	r.items[r.head] = v
	r.head = (r.head + 1) % len(r.items)
	r.evicted++

	return true
}

// Read returns the items oldest first in a new slice.
func (r *Ring[T]) Read() []T {
	items := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		items[i] = r.items[(r.head+i)%len(r.items)]
	}
	return items
}

// Len is the number of stored items; it equals Cap after the first fill.
func (r *Ring[T]) Len() int {
	return r.size
}

func (r *Ring[T]) Cap() int {
	return len(r.items)
}

// Evicted counts evictions since construction or the last Clear.
func (r *Ring[T]) Evicted() uint64 {
	return r.evicted
}

func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head = 0
	r.size = 0
	r.evicted = 0
}

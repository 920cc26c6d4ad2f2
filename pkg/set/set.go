package set

// Set is a generic set implementation preserving insertion order.
type Set[T comparable] struct {
	index   map[T]int // T -> index in ordered
	ordered []T       // index -> T
}

// New creates a new instance of Set.
func New[T comparable](items ...T) *Set[T] {
	r := make(map[T]int, len(items))
	ordered := make([]T, 0, len(items))
	for i := range items {
		if _, ok := r[items[i]]; ok {
			continue
		}
		r[items[i]] = len(ordered)
		ordered = append(ordered, items[i])
	}
	return &Set[T]{
		index:   r,
		ordered: ordered,
	}
}

// Add adds item to the set.
// Returns false if the item was already present.
func (r *Set[T]) Add(item T) bool {
	if _, ok := r.index[item]; ok {
		return false
	}
	r.index[item] = len(r.ordered)
	r.ordered = append(r.ordered, item)
	return true
}

// Has reports whether item is in the set.
func (r *Set[T]) Has(item T) bool {
	_, ok := r.index[item]
	return ok
}

// Len returns the number of items in the set.
func (r *Set[T]) Len() int { return len(r.ordered) }

// Visit calls fn for every item in insertion order.
// Returns immediately if fn returns true.
func (r *Set[T]) Visit(fn func(T) (stop bool)) {
	for i := range r.ordered {
		if fn(r.ordered[i]) {
			break
		}
	}
}

// Items returns all items in insertion order.
func (r *Set[T]) Items() []T {
	items := make([]T, len(r.ordered))
	copy(items, r.ordered)
	return items
}

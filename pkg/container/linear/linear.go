// package linear provides a container.Mapper implementation
// backed by a slice and linear search for conformance and benchmark
// reference. Pairs are kept in insertion order, Visit runs newest
// to oldest and overwrites keep their position, mirroring the
// iteration contract of lhmap at O(n) lookup cost.
package linear

type KeyInterface interface {
	string | []byte
}

type pair[K KeyInterface, V any] struct {
	Key   K
	Value V
}

type Linear[K KeyInterface, V any] struct {
	d []pair[K, V]
}

func New[K KeyInterface, V any](capacity int) *Linear[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &Linear[K, V]{
		d: make([]pair[K, V], 0, capacity),
	}
}

func (m *Linear[K, V]) Set(key K, value V) {
	for i := 0; i < len(m.d); i++ {
		if string(m.d[i].Key) == string(key) {
			m.d[i].Value = value
			return
		}
	}
	m.d = append(m.d, pair[K, V]{
		Key:   key,
		Value: value,
	})
}

// Delete removes the key in place, preserving the order of the
// remaining pairs.
func (m *Linear[K, V]) Delete(key K) {
	for i := 0; i < len(m.d); i++ {
		if string(m.d[i].Key) == string(key) {
			m.d = append(m.d[:i], m.d[i+1:]...)
			return
		}
	}
}

func (m *Linear[K, V]) Get(key K) (v V, ok bool) {
	for i := 0; i < len(m.d); i++ {
		if string(m.d[i].Key) == string(key) {
			return m.d[i].Value, true
		}
	}
	return v, false
}

func (m *Linear[K, V]) Reset() {
	m.d = m.d[:0]
}

func (m *Linear[K, V]) Len() int {
	return len(m.d)
}

// Visit calls fn for every stored key-value pair, most recently
// inserted first. Returns immediately if fn returns true.
func (m *Linear[K, V]) Visit(fn func(key K, value V) (stop bool)) {
	for i := len(m.d) - 1; i >= 0; i-- {
		if fn(m.d[i].Key, m.d[i].Value) {
			break
		}
	}
}

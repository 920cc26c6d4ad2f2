// Package lhmap provides a linked hash map: a hashmap of chained
// buckets whose elements are additionally threaded onto a global
// iteration chain in most-recent-insertion-first order, enabling
// full traversals independent of bucket placement. The bucket count
// is fixed at initialization and the map never rehashes, therefore
// element handles stay valid until their element is removed.
// Deleted element nodes are recycled through a free list.
// Any custom hasher can be provided during initialization.
// By default, XXH3 from github.com/zeebo/xxh3 is used with seed 0.
package lhmap

import (
	"github.com/google/go-cmp/cmp"
	"github.com/mapworks/lhmap/pkg/math"
)

const (
	// defaultExpectedItems sizes the bucket array when New
	// receives no estimate.
	defaultExpectedItems = 32

	// minBuckets is the lower bound of the bucket count.
	minBuckets = 11
)

// Elem is a single key-value element of a Map. Every live element is
// linked into exactly one bucket chain and into the iteration chain.
// An *Elem obtained from GetElem or First stays valid until the
// element is deleted or the map is reset or destroyed; it must not
// be retained past that point.
type Elem[K, V any] struct {
	key     K
	value   V
	keyHash uint64
	bucket  uint32

	// bucket chain
	hprev, hnext *Elem[K, V]

	// iteration chain
	prev, next *Elem[K, V]
}

// Key returns the element key. The key is owned by the map and must
// not be mutated.
func (e *Elem[K, V]) Key() K { return e.key }

// Value returns the element value.
func (e *Elem[K, V]) Value() V { return e.value }

// Next returns the next element in iteration order,
// nil at the end of the chain.
func (e *Elem[K, V]) Next() *Elem[K, V] { return e.next }

// Map is a hash map of chained buckets with a separate iteration
// chain spanning all elements in most-recent-insertion-first order.
// Overwriting a present key keeps its element in place in both
// chains. The bucket count is chosen once from the expected item
// count passed to New and never changes afterwards.
//
// A Map is not safe for concurrent use; callers sharing one across
// goroutines must synchronize externally.
//
// WARNING: In case of []byte typed keys the map will alias keys!
// Make sure keys remain immutable until their element is removed.
type Map[K, V any] struct {
	buckets      []*Elem[K, V]
	head         *Elem[K, V]
	free         *Elem[K, V]
	size         int
	expected     int
	hasher       Hasher[K]
	disposeKey   func(K)
	disposeValue func(V)
}

// Option configures a Map during New.
type Option[K, V any] func(*Map[K, V])

// WithKeyDisposer installs fn to be invoked exactly once for every
// key the map relinquishes: on overwrite, delete, reset and destroy.
// A nil disposer means no cleanup is needed.
func WithKeyDisposer[K, V any](fn func(key K)) Option[K, V] {
	return func(m *Map[K, V]) { m.disposeKey = fn }
}

// WithValueDisposer installs fn to be invoked exactly once for every
// value the map relinquishes: on overwrite, delete, reset and destroy.
// A nil disposer means no cleanup is needed.
func WithValueDisposer[K, V any](fn func(value V)) Option[K, V] {
	return func(m *Map[K, V]) { m.disposeValue = fn }
}

// New creates a new map instance. expectedItems sizes the fixed
// bucket array, values below 1 select a default. A nil hasher
// selects the XXH3 default for string and []byte keys and panics
// for any other key type.
func New[K, V any](
	expectedItems int,
	hasher Hasher[K],
	opts ...Option[K, V],
) *Map[K, V] {
	if hasher == nil {
		hasher = defaultHasher[K]()
	}
	m := &Map[K, V]{
		buckets:  make([]*Elem[K, V], numBuckets(expectedItems)),
		expected: expectedItems,
		hasher:   hasher,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// numBuckets returns the smallest prime able to hold expectedItems
// at a load factor below 2/3.
func numBuckets(expectedItems int) int {
	if expectedItems < 1 {
		expectedItems = defaultExpectedItems
	}
	return nextPrime(math.Max(expectedItems+expectedItems/2, minBuckets))
}

func nextPrime(n int) int {
	for ; !isPrime(n); n++ {
	}
	return n
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for i := 2; i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

// ensure makes the map operational: a zero Map lazily receives the
// default hasher (string and []byte keys only) and a destroyed Map
// re-allocates its bucket array from the retained sizing.
func (m *Map[K, V]) ensure() {
	if m.hasher == nil {
		m.hasher = defaultHasher[K]()
	}
	if m.buckets == nil {
		m.buckets = make([]*Elem[K, V], numBuckets(m.expected))
	}
}

func (m *Map[K, V]) findElem(key K, keyHash uint64) *Elem[K, V] {
	if m.size == 0 {
		return nil
	}
	i := keyHash % uint64(len(m.buckets))
	for e := m.buckets[i]; e != nil; e = e.hnext {
		if e.keyHash == keyHash && m.hasher.Equal(e.key, key) {
			return e
		}
	}
	return nil
}

// Set associates key with value overwriting any existing association.
// The map owns both from the moment Set returns. On overwrite the
// previous key and value are handed to the disposers and the element
// keeps its position in both chains.
//
// WARNING: In case of []byte typed keys the map will alias keys!
// Make sure key remains immutable until its element is removed.
func (m *Map[K, V]) Set(key K, value V) {
	m.ensure()
	h := m.hasher.Hash(key)
	if e := m.findElem(key, h); e != nil {
		if m.disposeKey != nil {
			m.disposeKey(e.key)
		}
		if m.disposeValue != nil {
			m.disposeValue(e.value)
		}
		e.key, e.value = key, value
		return
	}
	m.insert(key, value, h)
}

// SetFn calls fn(nil) if the key doesn't exist yet and associates
// the value returned by fn with the key. If the key already exists
// then fn is passed a pointer to the value already associated with
// the key and mutates it in place, no disposers run.
//
// WARNING: In case of []byte typed keys the map will alias keys!
// Make sure key remains immutable until its element is removed.
func (m *Map[K, V]) SetFn(key K, fn func(*V) V) {
	m.ensure()
	h := m.hasher.Hash(key)
	if e := m.findElem(key, h); e != nil {
		_ = fn(&e.value)
		return
	}
	m.insert(key, fn(nil), h)
}

// Get returns (value, true) if key exists,
// otherwise returns (zeroValue, false).
// The returned value must not be retained past the element's removal.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	if m.size == 0 {
		return value, false
	}
	if e := m.findElem(key, m.hasher.Hash(key)); e != nil {
		return e.value, true
	}
	return value, false
}

// GetFn calls fn providing a pointer to the value and
// returns true if key exists, otherwise returns false
// without calling fn.
func (m *Map[K, V]) GetFn(key K, fn func(*V)) (ok bool) {
	if m.size == 0 {
		return false
	}
	if e := m.findElem(key, m.hasher.Hash(key)); e != nil {
		fn(&e.value)
		return true
	}
	return false
}

// GetElem returns the element of key, nil if key doesn't exist.
// GetElem never inserts; populating a missing key is a separate Set.
// The element stays valid until it is removed from the map.
func (m *Map[K, V]) GetElem(key K) *Elem[K, V] {
	if m.size == 0 {
		return nil
	}
	return m.findElem(key, m.hasher.Hash(key))
}

// Delete deletes the key if it exists, handing the stored key and
// value to the disposers. Noop if the key doesn't exist.
func (m *Map[K, V]) Delete(key K) {
	if m.size == 0 {
		return
	}
	e := m.findElem(key, m.hasher.Hash(key))
	if e == nil {
		return
	}
	m.unlink(e)
	m.dispose(e)
	m.recycle(e)
}

// insert links a new element at the head of its bucket chain and at
// the head of the iteration chain.
func (m *Map[K, V]) insert(key K, value V, keyHash uint64) *Elem[K, V] {
	e := m.newElem()
	e.key, e.value, e.keyHash = key, value, keyHash

	i := uint32(keyHash % uint64(len(m.buckets)))
	e.bucket = i
	e.hprev, e.hnext = nil, m.buckets[i]
	if e.hnext != nil {
		e.hnext.hprev = e
	}
	m.buckets[i] = e

	e.prev, e.next = nil, m.head
	if e.next != nil {
		e.next.prev = e
	}
	m.head = e

	m.size++
	return e
}

// unlink detaches e from its bucket chain and from the iteration
// chain and decrements the size. Both linkages are always mutated
// together; an element is never left in only one of the two.
func (m *Map[K, V]) unlink(e *Elem[K, V]) {
	if e.hprev == nil {
		m.buckets[e.bucket] = e.hnext
	} else {
		e.hprev.hnext = e.hnext
	}
	if e.hnext != nil {
		e.hnext.hprev = e.hprev
	}

	if e.prev == nil {
		m.head = e.next
	} else {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}

	e.hprev, e.hnext, e.prev, e.next = nil, nil, nil, nil
	m.size--
}

func (m *Map[K, V]) dispose(e *Elem[K, V]) {
	if m.disposeKey != nil {
		m.disposeKey(e.key)
	}
	if m.disposeValue != nil {
		m.disposeValue(e.value)
	}
}

// recycle zeroes the pair and puts the node onto the free list,
// chained through hnext.
func (m *Map[K, V]) recycle(e *Elem[K, V]) {
	var zeroKey K
	var zeroValue V
	e.key, e.value, e.keyHash = zeroKey, zeroValue, 0
	e.hprev, e.prev, e.next = nil, nil, nil
	e.hnext = m.free
	m.free = e
}

func (m *Map[K, V]) newElem() *Elem[K, V] {
	if e := m.free; e != nil {
		m.free = e.hnext
		e.hnext = nil
		return e
	}
	return &Elem[K, V]{}
}

// First returns the head of the iteration chain: the most recently
// inserted element, nil if the map is empty. Iterate with
//
//	for e := m.First(); e != nil; e = e.Next() { ... }
//
// The map must not be mutated while a traversal is in progress.
func (m *Map[K, V]) First() *Elem[K, V] { return m.head }

// Visit calls fn for every stored key-value pair in iteration order.
// Returns immediately if fn returns true.
// The map must not be mutated from within fn.
func (m *Map[K, V]) Visit(fn func(key K, value V) (stop bool)) {
	for e := m.head; e != nil; e = e.next {
		if fn(e.key, e.value) {
			return
		}
	}
}

// VisitAll calls fn for every stored key-value pair in iteration
// order. The map must not be mutated from within fn.
func (m *Map[K, V]) VisitAll(fn func(key K, value V)) {
	for e := m.head; e != nil; e = e.next {
		fn(e.key, e.value)
	}
}

// Keys returns all keys in iteration order.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.size)
	for e := m.head; e != nil; e = e.next {
		keys = append(keys, e.key)
	}
	return keys
}

// Values returns all values in iteration order.
func (m *Map[K, V]) Values() []V {
	values := make([]V, 0, m.size)
	for e := m.head; e != nil; e = e.next {
		values = append(values, e.value)
	}
	return values
}

// Len returns the number of stored key-value pairs.
func (m *Map[K, V]) Len() int { return m.size }

// Equal returns true if m and other hold an equal set of key-value
// pairs, values compared via cmp.Equal. Both maps must use
// equivalent hashers.
func (m *Map[K, V]) Equal(other *Map[K, V]) bool {
	if m.size != other.size {
		return false
	}
	for e := m.head; e != nil; e = e.next {
		v, ok := other.Get(e.key)
		if !ok || !cmp.Equal(e.value, v) {
			return false
		}
	}
	return true
}

// Reset deletes all elements, handing every key and value to the
// disposers, and keeps the bucket array and element nodes for
// allocation-free reuse.
func (m *Map[K, V]) Reset() {
	for e := m.head; e != nil; {
		next := e.next
		m.dispose(e)
		m.recycle(e)
		e = next
	}
	for i := range m.buckets {
		m.buckets[i] = nil
	}
	m.head = nil
	m.size = 0
}

// Destroy deletes all elements like Reset and additionally releases
// the bucket array and the free list, leaving a blank shell. The
// hasher, disposers and sizing are retained; the next insertion
// reinitializes the storage.
func (m *Map[K, V]) Destroy() {
	for e := m.head; e != nil; {
		next := e.next
		m.dispose(e)
		e = next
	}
	m.head = nil
	m.free = nil
	m.buckets = nil
	m.size = 0
}

// Package container defines the operation set shared by the map
// implementations of this module and hosts their conformance and
// benchmark suites.
package container

type KeyInterface interface {
	string | []byte
}

// Mapper is the common interface of all map implementations.
// Visit traverses all pairs and stops early when fn returns true;
// implementations that maintain an iteration order visit in
// most-recent-insertion-first order.
type Mapper[K KeyInterface, V any] interface {
	Set(K, V)
	Get(K) (value V, ok bool)
	Reset()
	Len() int
	Delete(K)
	Visit(func(key K, value V) (stop bool))
}

package lhmap

import (
	"fmt"

	"github.com/pierrec/xxHash/xxHash32"
	"github.com/zeebo/xxh3"
)

// KeyInterface constrains the key types of the built-in hashers.
type KeyInterface interface{ string | []byte }

// Hasher abstracts hashing and equality over keys of type K.
// Implementations must guarantee that Equal(a, b) implies
// Hash(a) == Hash(b) and that Equal is a valid equivalence relation.
type Hasher[K any] interface {
	Hash(key K) uint64
	Equal(a, b K) bool
}

// HasherXXH3 hashes via XXH3 from github.com/zeebo/xxh3 and can be
// used to provide custom seeds during initialization.
type HasherXXH3[K KeyInterface] struct {
	Seed uint64
}

// Hash hashes k to a 64-bit hash value.
func (h *HasherXXH3[K]) Hash(k K) uint64 {
	return xxh3.HashSeed([]byte(k), h.Seed)
}

// Equal reports byte equality of a and b.
func (h *HasherXXH3[K]) Equal(a, b K) bool {
	return string(a) == string(b)
}

// HasherXXH32 hashes via the 32-bit xxHash from
// github.com/pierrec/xxHash widened to 64 bits.
type HasherXXH32[K KeyInterface] struct {
	Seed uint32
}

// Hash hashes k to a 64-bit hash value.
func (h *HasherXXH32[K]) Hash(k K) uint64 {
	return uint64(xxHash32.Checksum([]byte(k), h.Seed))
}

// Equal reports byte equality of a and b.
func (h *HasherXXH32[K]) Equal(a, b K) bool {
	return string(a) == string(b)
}

// HasherDJB2 hashes via the classic multiplicative djb2 string hash.
// Unlike the seeded hashers its values are stable across processes.
type HasherDJB2[K KeyInterface] struct{}

// Hash hashes k to a 64-bit hash value.
func (HasherDJB2[K]) Hash(k K) uint64 {
	h := uint64(5381)
	for i := 0; i < len(k); i++ {
		h = h*33 + uint64(k[i])
	}
	return h
}

// Equal reports byte equality of a and b.
func (HasherDJB2[K]) Equal(a, b K) bool {
	return string(a) == string(b)
}

// HasherFunc adapts plain functions to a Hasher
// for arbitrary key types.
type HasherFunc[K any] struct {
	HashFn  func(K) uint64
	EqualFn func(K, K) bool
}

// Hash hashes k to a 64-bit hash value.
func (h HasherFunc[K]) Hash(k K) uint64 { return h.HashFn(k) }

// Equal reports equality of a and b.
func (h HasherFunc[K]) Equal(a, b K) bool { return h.EqualFn(a, b) }

var (
	defaultHasherS = &HasherXXH3[string]{}
	defaultHasherB = &HasherXXH3[[]byte]{}
)

// defaultHasher returns the XXH3 default for string and []byte keys
// and panics for any other key type, for which a hasher is mandatory.
func defaultHasher[K any]() Hasher[K] {
	var zeroKey K
	switch any(zeroKey).(type) {
	case string:
		return any(defaultHasherS).(Hasher[K])
	case []byte:
		return any(defaultHasherB).(Hasher[K])
	}
	panic(fmt.Sprintf("lhmap: nil hasher for key type %T", zeroKey))
}

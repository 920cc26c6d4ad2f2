// Package registry implements the authoritative in-memory key-value
// store behind the lhkv HTTP API.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/mapworks/lhmap/pkg/container/lhmap"
	"github.com/mapworks/lhmap/pkg/math"
	"github.com/mapworks/lhmap/pkg/set"
	"github.com/mapworks/lhmap/pkg/statistics"
)

var ErrNotFound = errors.New("key not found")
var ErrProtected = errors.New("key is protected")
var ErrValueTooLarge = errors.New("value too large")

// Entry is a stored key-value association.
// Value must not be modified by the receiver.
type Entry struct {
	Key       string
	Value     []byte
	Revision  uint64
	UpdatedAt time.Time
}

// Registry is a mutex-synchronized insertion-ordered key-value store.
// All exported methods are safe for concurrent use.
type Registry struct {
	maxValueSize int
	stats        *statistics.StoreSync
	protected    *set.Set[string]

	mu    sync.Mutex
	m     *lhmap.Map[string, Entry]
	freed int // bytes relinquished by the value disposer since the last mutation
}

// New creates a registry sized for expectedKeys live keys.
// maxValueSize limits a single value in bytes, 0 means unlimited.
// Keys listed in protectedKeys refuse deletion.
func New(expectedKeys, maxValueSize int, protectedKeys []string) *Registry {
	r := &Registry{
		maxValueSize: maxValueSize,
		stats:        statistics.NewStoreSync(),
		protected:    set.New(protectedKeys...),
	}
	r.m = lhmap.New[string, Entry](
		expectedKeys, nil,
		lhmap.WithValueDisposer[string, Entry](func(e Entry) {
			r.freed += len(e.Value)
		}),
	)
	return r
}

// Get returns the entry associated with key.
func (r *Registry) Get(key string) (Entry, error) {
	start := time.Now()
	r.mu.Lock()
	e, ok := r.m.Get(key)
	r.mu.Unlock()
	r.stats.UpdateLookup(ok, time.Since(start))
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Put associates key with value, overwriting any existing entry and
// incrementing its revision. value is copied, the registry never
// aliases caller memory. Returns the stored entry and whether the key
// was created rather than overwritten.
func (r *Registry) Put(key string, value []byte) (Entry, bool, error) {
	if r.maxValueSize > 0 && len(value) > r.maxValueSize {
		return Entry{}, false, ErrValueTooLarge
	}
	v := make([]byte, len(value))
	copy(v, value)

	start := time.Now()
	r.mu.Lock()
	r.freed = 0
	var revision uint64 = 1
	if e := r.m.GetElem(key); e != nil {
		revision = e.Value().Revision + 1
	}
	entry := Entry{
		Key:       key,
		Value:     v,
		Revision:  revision,
		UpdatedAt: start,
	}
	r.m.Set(key, entry)
	freed := r.freed
	r.mu.Unlock()

	created := revision == 1
	r.stats.UpdatePut(len(v), freed, !created, time.Since(start))
	return entry, created, nil
}

// Delete removes key. Protected keys refuse deletion regardless of
// whether they are present.
func (r *Registry) Delete(key string) error {
	if r.protected.Has(key) {
		return ErrProtected
	}
	start := time.Now()
	r.mu.Lock()
	if r.m.GetElem(key) == nil {
		r.mu.Unlock()
		return ErrNotFound
	}
	r.freed = 0
	r.m.Delete(key)
	freed := r.freed
	r.mu.Unlock()
	r.stats.UpdateDelete(freed, time.Since(start))
	return nil
}

// Snapshot returns up to limit entries in most-recent-insertion-first
// order. limit < 1 returns all entries.
func (r *Registry) Snapshot(limit int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.m.Len()
	if limit > 0 {
		n = math.Min(n, limit)
	}
	entries := make([]Entry, 0, n)
	r.m.Visit(func(key string, e Entry) (stop bool) {
		entries = append(entries, e)
		return len(entries) == n
	})
	return entries
}

// Len returns the number of stored entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m.Len()
}

// Stats exposes the operation counters.
func (r *Registry) Stats() *statistics.StoreSync { return r.stats }

// Close destroys the store, disposing every live entry.
// The registry must not be used afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.Destroy()
}

package registry_test

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mapworks/lhmap/pkg/registry"
	"github.com/mapworks/lhmap/pkg/testeq"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	r := registry.New(8, 0, nil)
	e, created, err := r.Put("alpha", []byte(`"v1"`))
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, uint64(1), e.Revision)
	require.WithinDuration(t, time.Now(), e.UpdatedAt, time.Minute)

	got, err := r.Get("alpha")
	require.NoError(t, err)
	require.Equal(t, "alpha", got.Key)
	require.Equal(t, []byte(`"v1"`), got.Value)
	require.Equal(t, uint64(1), got.Revision)
	require.Equal(t, 1, r.Len())
}

func TestGetErrNotFound(t *testing.T) {
	r := registry.New(8, 0, nil)
	_, err := r.Get("missing")
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestRevisions(t *testing.T) {
	r := registry.New(8, 0, nil)
	require.Equal(t, uint64(1), mustPut(t, r, "k", "a").Revision)
	require.Equal(t, uint64(2), mustPut(t, r, "k", "b").Revision)
	require.Equal(t, uint64(3), mustPut(t, r, "k", "c").Revision)
	require.Equal(t, 1, r.Len())

	// Deletion resets the revision
	require.NoError(t, r.Delete("k"))
	require.Equal(t, uint64(1), mustPut(t, r, "k", "d").Revision)
}

func TestPutErrValueTooLarge(t *testing.T) {
	r := registry.New(8, 4, nil)
	_, _, err := r.Put("k", []byte("12345"))
	require.ErrorIs(t, err, registry.ErrValueTooLarge)
	require.Zero(t, r.Len())

	_, created, err := r.Put("k", []byte("1234"))
	require.NoError(t, err)
	require.True(t, created)
}

func TestPutUnlimitedValueSize(t *testing.T) {
	r := registry.New(8, 0, nil)
	_, _, err := r.Put("k", make([]byte, 1024*1024))
	require.NoError(t, err)
}

func TestPutCopiesValue(t *testing.T) {
	r := registry.New(8, 0, nil)
	buf := []byte("original")
	_, _, err := r.Put("k", buf)
	require.NoError(t, err)

	copy(buf, "XXXXXXXX")
	e, err := r.Get("k")
	require.NoError(t, err)
	require.Equal(t, []byte("original"), e.Value)
}

func TestDeleteErrNotFound(t *testing.T) {
	r := registry.New(8, 0, nil)
	require.ErrorIs(t, r.Delete("missing"), registry.ErrNotFound)
}

func TestDeleteErrProtected(t *testing.T) {
	r := registry.New(8, 0, []string{"boot-id", "license"})
	mustPut(t, r, "boot-id", "8843")

	require.ErrorIs(t, r.Delete("boot-id"), registry.ErrProtected)
	_, err := r.Get("boot-id")
	require.NoError(t, err)

	// Protection applies to absent keys too
	require.ErrorIs(t, r.Delete("license"), registry.ErrProtected)
}

func TestSnapshotOrder(t *testing.T) {
	r := registry.New(8, 0, nil)
	mustPut(t, r, "a", "1")
	mustPut(t, r, "b", "2")
	mustPut(t, r, "c", "3")
	requireKeys(t, []string{"c", "b", "a"}, r.Snapshot(0))

	// Overwriting keeps the original position
	mustPut(t, r, "b", "42")
	requireKeys(t, []string{"c", "b", "a"}, r.Snapshot(0))

	// Reinsertion moves the key to the front
	require.NoError(t, r.Delete("b"))
	mustPut(t, r, "b", "43")
	requireKeys(t, []string{"b", "c", "a"}, r.Snapshot(0))
}

func TestSnapshotLimit(t *testing.T) {
	r := registry.New(8, 0, nil)
	for i := 0; i < 5; i++ {
		mustPut(t, r, fmt.Sprintf("key_%d", i), "v")
	}
	require.Len(t, r.Snapshot(0), 5)
	require.Len(t, r.Snapshot(-1), 5)
	require.Len(t, r.Snapshot(10), 5)
	requireKeys(t, []string{"key_4", "key_3"}, r.Snapshot(2))
}

func TestSnapshotContents(t *testing.T) {
	r := registry.New(8, 0, nil)
	expected := map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
		"c": []byte("3"),
	}
	for k, v := range expected {
		_, _, err := r.Put(k, v)
		require.NoError(t, err)
	}

	actual := make(map[string][]byte, len(expected))
	for _, e := range r.Snapshot(0) {
		actual[e.Key] = e.Value
	}
	testeq.Maps(t, "entry", expected, actual,
		func(expected, actual []byte) string {
			if !bytes.Equal(expected, actual) {
				return fmt.Sprintf("expected %q, got %q", expected, actual)
			}
			return ""
		},
		func(v []byte) string { return string(v) },
	)
}

func TestStats(t *testing.T) {
	r := registry.New(8, 0, nil)
	s := r.Stats()

	mustPut(t, r, "a", "12345")
	require.Equal(t, int64(1), s.GetPuts())
	require.Equal(t, int64(5), s.GetStoredBytes())
	require.Zero(t, s.GetOverwrites())
	require.Zero(t, s.GetFreedBytes())

	mustPut(t, r, "a", "123")
	require.Equal(t, int64(2), s.GetPuts())
	require.Equal(t, int64(8), s.GetStoredBytes())
	require.Equal(t, int64(1), s.GetOverwrites())
	require.Equal(t, int64(5), s.GetFreedBytes())

	_, err := r.Get("a")
	require.NoError(t, err)
	_, err = r.Get("nope")
	require.ErrorIs(t, err, registry.ErrNotFound)
	require.Equal(t, int64(2), s.GetLookups())
	require.Equal(t, int64(1), s.GetHits())
	require.Equal(t, int64(1), s.GetMisses())

	require.NoError(t, r.Delete("a"))
	require.Equal(t, int64(1), s.GetDeletes())
	require.Equal(t, int64(8), s.GetFreedBytes())

	// Failed deletes are not accounted
	require.ErrorIs(t, r.Delete("a"), registry.ErrNotFound)
	require.Equal(t, int64(1), s.GetDeletes())
}

func TestConcurrentAccess(t *testing.T) {
	r := registry.New(64, 0, nil)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 256; i++ {
				k := fmt.Sprintf("key_%d_%d", g, i%16)
				r.Put(k, []byte("value"))
				r.Get(k)
				r.Snapshot(4)
				if i%32 == 31 {
					r.Delete(k)
				}
			}
		}(g)
	}
	wg.Wait()
	require.Equal(t, 8*16-8, r.Len())
}

func TestClose(t *testing.T) {
	r := registry.New(8, 0, nil)
	mustPut(t, r, "a", "1")
	mustPut(t, r, "b", "2")
	r.Close()
}

func mustPut(
	t *testing.T,
	r *registry.Registry,
	key, value string,
) registry.Entry {
	t.Helper()
	e, _, err := r.Put(key, []byte(value))
	require.NoError(t, err)
	return e
}

func requireKeys(t *testing.T, expected []string, s []registry.Entry) {
	t.Helper()
	actual := make([]string, len(s))
	for i := range s {
		actual[i] = s[i].Key
	}
	require.Equal(t, expected, actual)
}

// Package testeq provides order-insensitive equality helpers for
// tests, reporting missing, unexpected and mismatching entries
// individually instead of one opaque diff.
package testeq

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Reporter is the subset of testing.T used by the helpers.
type Reporter interface {
	Helper()
	Errorf(fmt string, v ...any)
}

// Maps compares actual against expected by key, reporting every
// mismatching, missing and unexpected entry. check returns an empty
// string when the values are considered equal, stringify renders a
// value for failure messages.
func Maps[K constraints.Ordered, V any](
	writer Reporter,
	title string,
	expected, actual map[K]V,
	check func(expected, actual V) (errMsg string),
	stringify func(V) string,
) (ok bool) {
	writer.Helper()
	ok = true

	for _, k := range sortedKeys(expected) {
		ev := expected[k]
		av, found := actual[k]
		if !found {
			writer.Errorf(
				"missing %s %v (%s)",
				title, k, stringify(ev),
			)
			ok = false
			continue
		}
		if msg := check(ev, av); msg != "" {
			writer.Errorf(
				"mismatching %s %v: %s",
				title, k, msg,
			)
			ok = false
		}
	}

	for _, k := range sortedKeys(actual) {
		if _, found := expected[k]; !found {
			writer.Errorf(
				"unexpected %s %v (%s)",
				title, k, stringify(actual[k]),
			)
			ok = false
		}
	}

	return ok
}

// Slices compares actual against expected by index, reporting every
// mismatching, missing and unexpected item.
func Slices[T any](
	writer Reporter,
	title string,
	expected, actual []T,
	check func(expected, actual T) (errMsg string),
	stringify func(T) string,
) (ok bool) {
	writer.Helper()
	ok = true

	for i, a := range actual {
		if i >= len(expected) {
			writer.Errorf(
				"unexpected %s at index %d (%s)",
				title, i, stringify(a),
			)
			ok = false
			continue
		}
		if msg := check(expected[i], a); msg != "" {
			writer.Errorf(
				"mismatching %s at index %d: %s",
				title, i, msg,
			)
			ok = false
		}
	}
	for i := len(actual); i < len(expected); i++ {
		writer.Errorf(
			"missing %s at index %d (%s)",
			title, i, stringify(expected[i]),
		)
		ok = false
	}
	return ok
}

func sortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

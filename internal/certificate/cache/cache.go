// Package cache holds short-lived verification results keyed by canonical
// certificate number.
package cache

import "marriage-registry/internal/sentinel"

// ErrMiss is returned when no live entry exists for a number.
var ErrMiss = sentinel.ErrNotFound

// KeyPrefix namespaces verification entries in shared caches.
const KeyPrefix = "certificate:verify:"

// Key returns the cache key for a canonical number.
func Key(canonical string) string {
	return KeyPrefix + canonical
}

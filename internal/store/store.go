// Package store provides the string-keyed blob store backing the addon
// registry. Values are opaque strings; the registry serializes the whole
// installed-addon document under a single key.
package store

// Store is a string-keyed blob store.
type Store interface {
	// Get retrieves the value for key. The boolean reports whether the key
	// was present.
	Get(key string) (string, bool, error)
	// Set stores value under key, overwriting any previous value.
	Set(key string, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

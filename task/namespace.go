package task

import "sort"

// DefaultPrefix is the key prefix of published properties.
const DefaultPrefix = "javacpp"

// Namespace is the enclosing build's shared property store. A Runner only
// appends to it.
type Namespace interface {
	Set(key, value string)
}

// MapNamespace is an in-memory Namespace.
type MapNamespace map[string]string

func (m MapNamespace) Set(key, value string) {
	m[key] = value
}

// Get returns the value stored under key.
func (m MapNamespace) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Keys returns the stored keys in sorted order.
func (m MapNamespace) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

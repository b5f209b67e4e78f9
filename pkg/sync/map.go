package sync

import "sync"

// TypedSyncMap is a sync.Map restricted to a single key and value type.
// With a struct{} value it acts as a concurrent set.
type TypedSyncMap[K comparable, V any] struct {
	m sync.Map
}

func (m *TypedSyncMap[K, V]) Delete(key K) { m.m.Delete(key) }

func (m *TypedSyncMap[K, V]) Load(key K) (V, bool) {
	v, ok := m.m.Load(key)
	if !ok {
		return *new(V), false
	}

	vv, ok := v.(V)
	return vv, ok
}

func (m *TypedSyncMap[K, V]) Store(key K, value V) { m.m.Store(key, value) }

// Has reports whether the key is present, ignoring its value.
func (m *TypedSyncMap[K, V]) Has(key K) bool {
	_, ok := m.m.Load(key)
	return ok
}

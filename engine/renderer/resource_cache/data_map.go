// Package resource_cache attaches private per-object records to arbitrary objects by identity.
package resource_cache

import (
	"fmt"
	"reflect"
)

// DataMap associates a lazily created record of type V with each key object.
//
// Keys are compared by identity, never by value: only pointer keys are accepted, so two
// distinct objects holding equal contents always map to distinct records. Heterogeneous
// key types (bind groups, bindings, textures, attributes) may share one DataMap.
//
// A DataMap is not safe for concurrent use. The owning component removes a key with Delete
// when the key object is disposed.
type DataMap[V any] struct {
	records map[any]*V
	newFn   func(key any) *V
}

// NewDataMap creates an empty DataMap with the provided options.
//
// Parameters:
//   - options: a variadic list of options to configure the map
//
// Returns:
//   - *DataMap[V]: the created map
func NewDataMap[V any](options ...DataMapOption[V]) *DataMap[V] {
	m := &DataMap[V]{
		records: make(map[any]*V),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Get returns the record for key, creating and storing a default record on first access.
//
// Parameters:
//   - key: a non-nil pointer identifying the owning object
//
// Returns:
//   - *V: the record associated with key
func (m *DataMap[V]) Get(key any) *V {
	mustBeIdentity(key)
	if rec, ok := m.records[key]; ok {
		return rec
	}

	var rec *V
	if m.newFn != nil {
		rec = m.newFn(key)
	}
	if rec == nil {
		rec = new(V)
	}
	m.records[key] = rec
	return rec
}

// Lookup returns the record for key without creating one.
//
// Parameters:
//   - key: a non-nil pointer identifying the owning object
//
// Returns:
//   - *V: the record, or nil if none exists
//   - bool: true if a record exists for key
func (m *DataMap[V]) Lookup(key any) (*V, bool) {
	mustBeIdentity(key)
	rec, ok := m.records[key]
	return rec, ok
}

// Has reports whether a record exists for key.
func (m *DataMap[V]) Has(key any) bool {
	_, ok := m.Lookup(key)
	return ok
}

// Delete removes the record for key and returns it, or nil if there was none.
func (m *DataMap[V]) Delete(key any) *V {
	mustBeIdentity(key)
	rec, ok := m.records[key]
	if !ok {
		return nil
	}
	delete(m.records, key)
	return rec
}

// Len returns the number of live records.
func (m *DataMap[V]) Len() int {
	return len(m.records)
}

// Range calls fn for every record until fn returns false. Iteration order is unspecified.
func (m *DataMap[V]) Range(fn func(key any, rec *V) bool) {
	for k, v := range m.records {
		if !fn(k, v) {
			return
		}
	}
}

// mustBeIdentity panics unless key is a non-nil pointer.
// Value keys would silently merge records of distinct objects with equal contents.
func mustBeIdentity(key any) {
	if key == nil {
		panic("resource_cache: nil key")
	}
	v := reflect.ValueOf(key)
	if v.Kind() != reflect.Pointer {
		panic(fmt.Sprintf("resource_cache: key of type %T is not a pointer", key))
	}
	if v.IsNil() {
		panic(fmt.Sprintf("resource_cache: nil %T key", key))
	}
}

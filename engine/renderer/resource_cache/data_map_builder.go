package resource_cache

// DataMapOption is a functional option used to configure a DataMap during construction.
type DataMapOption[V any] func(*DataMap[V])

// WithConstructor sets the function used to build the default record for a newly seen key.
// When unset, or when fn returns nil, the zero value of V is used.
//
// Parameters:
//   - fn: builds the record for key
//
// Returns:
//   - DataMapOption[V]: a function that sets the record constructor
func WithConstructor[V any](fn func(key any) *V) DataMapOption[V] {
	return func(m *DataMap[V]) {
		m.newFn = fn
	}
}

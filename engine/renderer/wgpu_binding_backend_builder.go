package renderer

import "github.com/Carmen-Shannon/oxy-bind/engine/profiler"

// BindingBackendOption is a functional option applied to a binding backend during construction via NewBindingBackend.
type BindingBackendOption func(*wgpuBindingBackendImpl)

// WithLabelPrefix prepends prefix to the debug label of every native object the backend creates.
//
// Parameters:
//   - prefix: the label prefix
//
// Returns:
//   - BindingBackendOption: a function that applies the label prefix option to a backend
func WithLabelPrefix(prefix string) BindingBackendOption {
	return func(b *wgpuBindingBackendImpl) {
		b.labelPrefix = prefix
	}
}

// WithMipmapGenerator sets the generator used by GenerateMipmaps.
// Without one, mipmap requests are logged and skipped.
//
// Parameters:
//   - gen: the MipmapGenerator to delegate to
//
// Returns:
//   - BindingBackendOption: a function that applies the mipmap generator option to a backend
func WithMipmapGenerator(gen MipmapGenerator) BindingBackendOption {
	return func(b *wgpuBindingBackendImpl) {
		b.mipmaps = gen
	}
}

// WithInfo shares a statistics collector with the backend instead of a private one.
//
// Parameters:
//   - info: the Profiler receiving the backend's counters
//
// Returns:
//   - BindingBackendOption: a function that applies the statistics option to a backend
func WithInfo(info *profiler.Profiler) BindingBackendOption {
	return func(b *wgpuBindingBackendImpl) {
		b.info = info
	}
}

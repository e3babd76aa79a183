package renderer

import (
	"github.com/Carmen-Shannon/oxy-bind/engine/profiler"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/bindings"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithBackend replaces the backend the renderer would create from its device.
//
// Parameters:
//   - backend: the backend to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(backend RendererBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = backend
	}
}

// WithBackendOptions passes options to the backend created by the renderer.
// They are ignored when WithBackend is used.
//
// Parameters:
//   - options: the backend options
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend options to a renderer
func WithBackendOptions(options ...BindingBackendOption) RendererBuilderOption {
	return func(r *renderer) {
		r.backendOptions = append(r.backendOptions, options...)
	}
}

// WithBindingsOptions passes options to the binding set builder created by the renderer.
//
// Parameters:
//   - options: the builder options
//
// Returns:
//   - RendererBuilderOption: a function that applies the builder options to a renderer
func WithBindingsOptions(options ...bindings.BindingsOption) RendererBuilderOption {
	return func(r *renderer) {
		r.bindingsOptions = append(r.bindingsOptions, options...)
	}
}

// WithProfiler sets the statistics collector shared by the backend and the builder.
//
// Parameters:
//   - p: the Profiler to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the profiler option to a renderer
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *renderer) {
		r.info = p
	}
}

package bindings

import "github.com/Carmen-Shannon/oxy-bind/engine/profiler"

// BindingsOption is a functional option applied to a Bindings builder during construction via New.
type BindingsOption func(*bindingsImpl)

// WithInfo sets the statistics collector counting texture residency repairs.
//
// Parameters:
//   - info: the Profiler to record into
//
// Returns:
//   - BindingsOption: a function that applies the statistics option to a builder
func WithInfo(info *profiler.Profiler) BindingsOption {
	return func(b *bindingsImpl) {
		b.info = info
	}
}

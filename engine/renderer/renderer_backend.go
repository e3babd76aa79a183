package renderer

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based binding backend.
	BackendTypeWGPU RendererBackendType = iota
)

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	BindingBackend
}

// newRendererBackend creates the backend selected by backendType.
func newRendererBackend(backendType RendererBackendType, device Device, options ...BindingBackendOption) RendererBackend {
	switch backendType {
	case BackendTypeWGPU:
		return NewBindingBackend(device, options...)
	default:
		panic("unsupported renderer backend type")
	}
}

// Package binding describes the resources a shader reads through bind groups.
//
// Each binding kind is its own type. Consumers dispatch with a type switch over the concrete
// kinds; a value that matches none of them is a configuration error.
package binding

import "github.com/cogentcore/webgpu/wgpu"

// Binding is one resource slot declared by a shader: a uniform buffer, a storage buffer, a
// sampler or one of the texture kinds.
type Binding interface {
	// BindingName returns the shader-facing name of the binding.
	BindingName() string

	// BindingVisibility returns the shader stages that read the binding.
	BindingVisibility() wgpu.ShaderStage

	binding()
}

// Header carries the fields shared by every binding kind.
type Header struct {
	// Name is the shader-facing variable name, also used in debug labels.
	Name string
	// Visibility is the stage mask the binding is visible to.
	Visibility wgpu.ShaderStage
}

func (h *Header) BindingName() string {
	return h.Name
}

func (h *Header) BindingVisibility() wgpu.ShaderStage {
	return h.Visibility
}

func (h *Header) binding() {}

// BindGroup is a named, ordered set of bindings realized together as one native bind group.
// The composition of Bindings (count, order, kind) must not change once the group has been realized.
type BindGroup struct {
	// Name labels the native objects created for this group.
	Name string
	// Index is the @group index the shader declares.
	Index uint32
	// Bindings holds the slots in @binding order.
	Bindings []Binding
}

// NewBindGroup creates a BindGroup from the given bindings.
//
// Parameters:
//   - name: the debug name of the group
//   - index: the @group index of the group
//   - bindings: the bindings in declaration order
//
// Returns:
//   - *BindGroup: the created group
func NewBindGroup(name string, index uint32, bindings ...Binding) *BindGroup {
	return &BindGroup{
		Name:     name,
		Index:    index,
		Bindings: bindings,
	}
}

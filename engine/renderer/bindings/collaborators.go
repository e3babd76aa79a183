package bindings

import "github.com/Carmen-Shannon/oxy-bind/engine/renderer/binding"

// RenderObject is a drawable whose shader declares bind groups.
type RenderObject interface {
	// Bindings returns the bind groups of the object in @group order.
	// The same groups must be returned until the object's shader changes.
	Bindings() []*binding.BindGroup
}

// ComputeNode identifies a compute dispatch. It must be a pointer; records are keyed by identity.
type ComputeNode any

// RenderBundleData is the record of a render bundle replaying recorded draws.
type RenderBundleData struct {
	// NeedsUpdate requests the bundle to be re-recorded rather than replayed.
	NeedsUpdate bool
}

// Nodes is the shader compiler side of the builder.
type Nodes interface {
	// ComputeBindings returns the bind groups declared by the compute shader of node.
	ComputeBindings(node ComputeNode) []*binding.BindGroup

	// UpdateGroup refreshes the uniform values of the group and reports whether any changed.
	UpdateGroup(group *binding.UniformsGroup) bool
}

// Textures is the texture-upload subsystem.
type Textures interface {
	// UpdateTexture uploads tex, provisioning its native texture if needed.
	UpdateTexture(tex *binding.Texture)

	// Generation returns a counter advanced whenever the native texture of tex is recreated.
	Generation(tex *binding.Texture) uint64

	// NeedsMipmaps reports whether tex keeps a mip chain that must follow its first level.
	NeedsMipmaps(tex *binding.Texture) bool
}

// AttributeType classifies the native buffer an attribute is uploaded to.
type AttributeType int

const (
	// AttributeTypeStorage is a storage buffer bound to shaders.
	AttributeTypeStorage AttributeType = iota
	// AttributeTypeIndirect is a storage buffer also used for indirect draw or dispatch arguments.
	AttributeTypeIndirect
)

// Attributes is the attribute-upload subsystem.
type Attributes interface {
	// Update uploads attr into a native buffer of the given type.
	Update(attr *binding.Attribute, attrType AttributeType)
}

// Backend realizes bind groups as native objects.
type Backend interface {
	CreateBindings(group *binding.BindGroup) error
	UpdateBindings(group *binding.BindGroup) error
	UpdateBinding(b binding.Binding) error
	TextureResident(tex *binding.Texture) bool
	GenerateMipmaps(tex *binding.Texture) error
}

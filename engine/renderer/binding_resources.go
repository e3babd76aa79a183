package renderer

import (
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/binding"
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureResource is the backend record of a texture. The texture-upload subsystem fills it
// when it uploads the texture; the binding backend only reads it, except for the sampler
// which it creates on demand when none was provided.
type TextureResource struct {
	// Texture is the uploaded native texture.
	Texture *wgpu.Texture
	// External is the native texture receiving externally sourced frames. It takes precedence over Texture.
	External *wgpu.Texture
	// Sampler is the sampler used by Sampler bindings of the texture.
	Sampler *wgpu.Sampler
	// Format is the native format, required for storage texture layouts.
	Format wgpu.TextureFormat
	// MipLevelCount is the number of mip levels of Texture. Zero means one.
	MipLevelCount uint32
	// ArrayLayerCount is the number of layers of Texture. Zero derives it from the shape.
	ArrayLayerCount uint32

	ownsSampler bool
}

// Resident reports whether a native texture has been provisioned.
func (r *TextureResource) Resident() bool {
	return r != nil && (r.Texture != nil || r.External != nil)
}

// viewDescriptor builds the descriptor of the view a binding samples or writes.
func (r *TextureResource) viewDescriptor(label string, tex *binding.Texture, writeTarget bool) (*wgpu.Texture, *wgpu.TextureViewDescriptor) {
	native := r.Texture
	dimension := tex.Shape.ViewDimension()
	if r.External != nil {
		native = r.External
		dimension = wgpu.TextureViewDimension2D
	}

	mips := max(r.MipLevelCount, 1)
	if writeTarget {
		mips = 1
	}

	layers := r.ArrayLayerCount
	if layers == 0 || dimension != wgpu.TextureViewDimension2DArray {
		layers = 1
		if dimension == wgpu.TextureViewDimensionCube {
			layers = 6
		}
	}

	return native, &wgpu.TextureViewDescriptor{
		Label:           label,
		Format:          r.Format,
		Dimension:       dimension,
		BaseMipLevel:    0,
		MipLevelCount:   mips,
		BaseArrayLayer:  0,
		ArrayLayerCount: layers,
		Aspect:          wgpu.TextureAspectAll,
	}
}

// AttributeResource is the backend record of an attribute, filled by the attribute-upload subsystem.
type AttributeResource struct {
	// Buffer is the native buffer holding the attribute contents.
	Buffer *wgpu.Buffer
}

// bufferRecord is the backend record of a uniform binding with its own native buffer.
type bufferRecord struct {
	buffer *wgpu.Buffer
}

// MipmapGenerator regenerates the mip chain of a texture from its first level.
type MipmapGenerator interface {
	GenerateMipmaps(texture *wgpu.Texture, source *binding.Texture) error
}

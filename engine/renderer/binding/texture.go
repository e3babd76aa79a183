package binding

import (
	"github.com/Carmen-Shannon/oxy-bind/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureShape is the dimensionality a texture is sampled with.
type TextureShape int

const (
	// Shape2D is a plain two-dimensional texture.
	Shape2D TextureShape = iota
	// Shape2DArray is an array of two-dimensional layers.
	Shape2DArray
	// ShapeCube is a six-faced cube map.
	ShapeCube
	// Shape3D is a volume texture.
	Shape3D
)

// ViewDimension returns the native view dimension for the shape.
func (s TextureShape) ViewDimension() wgpu.TextureViewDimension {
	switch s {
	case Shape2DArray:
		return wgpu.TextureViewDimension2DArray
	case ShapeCube:
		return wgpu.TextureViewDimensionCube
	case Shape3D:
		return wgpu.TextureViewDimension3D
	default:
		return wgpu.TextureViewDimension2D
	}
}

func (s TextureShape) String() string {
	switch s {
	case Shape2DArray:
		return "2d-array"
	case ShapeCube:
		return "cube"
	case Shape3D:
		return "3d"
	default:
		return "2d"
	}
}

// TextureValueType is the numeric type of a data texture's texels.
type TextureValueType int

const (
	// ValueTypeNormalized covers unsigned normalized formats, sampled as filterable float.
	ValueTypeNormalized TextureValueType = iota
	// ValueTypeFloat is a 32-bit float data texture.
	ValueTypeFloat
	// ValueTypeInt is a signed integer data texture.
	ValueTypeInt
	// ValueTypeUint is an unsigned integer data texture.
	ValueTypeUint
)

// SamplerSettings holds the configuration of the sampler created for a texture.
// Zero fields fall back to linear filtering and repeat addressing.
type SamplerSettings struct {
	// AddressModeU, AddressModeV, AddressModeW specify addressing outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the magnification and minification filters.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filter used between mip levels.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp bound the sampled level of detail.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy is the anisotropic filtering limit.
	MaxAnisotropy uint16
}

// Descriptor builds the native sampler descriptor for the settings.
//
// Parameters:
//   - label: the debug label of the sampler
//   - compare: the comparison function, CompareFunctionUndefined for a regular sampler
//
// Returns:
//   - *wgpu.SamplerDescriptor: the descriptor with defaults applied
func (s SamplerSettings) Descriptor(label string, compare wgpu.CompareFunction) *wgpu.SamplerDescriptor {
	return &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
		Compare:       compare,
	}
}

// Texture is the scene-side description of a texture. Its native resources are owned by the
// texture-upload subsystem and looked up by identity.
type Texture struct {
	// Name labels the native texture and its views.
	Name string
	// Shape selects the sampled view dimension.
	Shape TextureShape
	// ValueType is the texel numeric type, consulted for data textures.
	ValueType TextureValueType
	// IsData marks raw data textures whose sample type follows ValueType.
	IsData bool
	// IsDepth marks depth textures.
	IsDepth bool
	// CompareFunction is set on depth textures sampled with a comparison sampler.
	CompareFunction wgpu.CompareFunction
	// Multisampled marks multisample render-target textures.
	Multisampled bool
	// IsVideo marks externally sourced frames, rebound every frame.
	IsVideo bool
	// IsStorage marks textures written by compute passes.
	IsStorage bool
	// GenerateMipmaps requests a mip chain regenerated from level 0.
	GenerateMipmaps bool
	// Sampler configures the sampler created for this texture.
	Sampler SamplerSettings

	version uint64
}

// Version returns the content version of the texture.
func (t *Texture) Version() uint64 {
	return t.version
}

// NeedsUpdate flags new contents for upload.
func (t *Texture) NeedsUpdate() {
	t.version++
}

// IsComparison reports whether the texture is sampled with a depth-comparison sampler.
func (t *Texture) IsComparison() bool {
	return t.IsDepth && t.CompareFunction != wgpu.CompareFunctionUndefined
}

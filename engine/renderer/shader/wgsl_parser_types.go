package shader

import "github.com/cogentcore/webgpu/wgpu"

// BindingKind classifies a reflected resource declaration.
type BindingKind int

const (
	// KindUnknown is a declaration no binding kind matches.
	KindUnknown BindingKind = iota
	// KindUniform is a var<uniform> buffer.
	KindUniform
	// KindStorage is a var<storage> buffer.
	KindStorage
	// KindSampler is a filtering or non-filtering sampler.
	KindSampler
	// KindComparisonSampler is a sampler_comparison.
	KindComparisonSampler
	// KindSampledTexture is a texture_* sampled through a sampler, depth textures included.
	KindSampledTexture
	// KindStorageTexture is a texture_storage_* written or read by compute.
	KindStorageTexture
	// KindExternalTexture is a texture_external.
	KindExternalTexture
)

func (k BindingKind) String() string {
	switch k {
	case KindUniform:
		return "uniform"
	case KindStorage:
		return "storage"
	case KindSampler:
		return "sampler"
	case KindComparisonSampler:
		return "sampler_comparison"
	case KindSampledTexture:
		return "sampled_texture"
	case KindStorageTexture:
		return "storage_texture"
	case KindExternalTexture:
		return "external_texture"
	default:
		return "unknown"
	}
}

// Declaration is one @group(N) @binding(M) variable found in WGSL source.
type Declaration struct {
	// Group is the @group index.
	Group uint32
	// Binding is the @binding index.
	Binding uint32
	// Name is the WGSL variable name, used to resolve the bound resource.
	Name string
	// TypeName is the declared WGSL type.
	TypeName string
	// Kind is the resource category.
	Kind BindingKind
	// Visibility is the stage mask of the shaders declaring the variable.
	Visibility wgpu.ShaderStage

	// Size is the byte size of a buffer's bound type, or its element stride for runtime-sized arrays.
	Size uint64
	// BufferType is set for uniform and storage buffers.
	BufferType wgpu.BufferBindingType

	// ViewDimension is set for texture kinds.
	ViewDimension wgpu.TextureViewDimension
	// SampleType is set for sampled textures.
	SampleType wgpu.TextureSampleType
	// Multisampled marks texture_multisampled_* declarations.
	Multisampled bool
	// Format is the texel format of a storage texture.
	Format wgpu.TextureFormat
	// Access is the access mode of a storage texture.
	Access wgpu.StorageTextureAccess
}

// wgslTypeLayout holds the byte size and alignment of a WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField is one member of a WGSL struct.
type parsedField struct {
	name      string
	typeName  string
	isBuiltin bool
}

// parsedStruct is a WGSL struct block.
type parsedStruct struct {
	name   string
	fields []parsedField
}

// sampledTextureInfo holds the view dimension and multisample flag of a sampled texture type.
type sampledTextureInfo struct {
	viewDimension wgpu.TextureViewDimension
	multisampled  bool
}

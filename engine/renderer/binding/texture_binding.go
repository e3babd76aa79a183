package binding

import "github.com/cogentcore/webgpu/wgpu"

// TextureBinding is implemented by every binding kind that samples or writes a texture.
type TextureBinding interface {
	Binding

	// Sampled returns the sampled-texture state shared by all texture kinds.
	Sampled() *SampledTexture
}

// Sampler binds the sampler belonging to a texture.
type Sampler struct {
	Header

	// Texture is the texture whose sampler is bound.
	Texture *Texture

	last *Texture
}

// NewSampler creates a Sampler for texture.
func NewSampler(name string, visibility wgpu.ShaderStage, texture *Texture) *Sampler {
	return &Sampler{
		Header:  Header{Name: name, Visibility: visibility},
		Texture: texture,
	}
}

// Update reports whether the bound texture was replaced since the previous call.
func (s *Sampler) Update() bool {
	if s.last == s.Texture {
		return false
	}
	s.last = s.Texture
	return true
}

// SampledTexture binds a texture for sampling.
type SampledTexture struct {
	Header

	// Texture is the bound texture.
	Texture *Texture

	version    uint64
	generation uint64
	seen       bool
}

// NewSampledTexture creates a SampledTexture for texture.
func NewSampledTexture(name string, visibility wgpu.ShaderStage, texture *Texture) *SampledTexture {
	return &SampledTexture{
		Header:  Header{Name: name, Visibility: visibility},
		Texture: texture,
	}
}

func (s *SampledTexture) Sampled() *SampledTexture {
	return s
}

// NeedsBindingsUpdate reports whether the bind group holding this binding must be
// regenerated. The first observed generation is recorded without forcing a rebuild since
// the group was just created against it. Video textures always need a rebuild.
//
// Parameters:
//   - generation: the texture's current native generation
//
// Returns:
//   - bool: true if the group's native bind group is stale
func (s *SampledTexture) NeedsBindingsUpdate(generation uint64) bool {
	if !s.seen {
		s.seen = true
		s.generation = generation
	} else if s.generation != generation {
		s.generation = generation
		return true
	}
	return s.Texture.IsVideo
}

// Update reports whether the texture contents changed since the previous call.
func (s *SampledTexture) Update() bool {
	if s.version == s.Texture.Version() {
		return false
	}
	s.version = s.Texture.Version()
	return true
}

// StorageTexture binds a texture for compute access. When Store is false the texture is
// bound for sampling like a SampledTexture.
type StorageTexture struct {
	SampledTexture

	// Access is the storage access mode when Store is set.
	Access wgpu.StorageTextureAccess
	// Store marks the binding as a write target.
	Store bool
}

// NewStorageTexture creates a write-target StorageTexture.
func NewStorageTexture(name string, visibility wgpu.ShaderStage, texture *Texture, access wgpu.StorageTextureAccess) *StorageTexture {
	if access == 0 {
		access = wgpu.StorageTextureAccessWriteOnly
	}
	return &StorageTexture{
		SampledTexture: *NewSampledTexture(name, visibility, texture),
		Access:         access,
		Store:          true,
	}
}

// ExternalTexture binds an externally sourced frame such as decoded video.
type ExternalTexture struct {
	SampledTexture
}

// NewExternalTexture creates an ExternalTexture for texture.
func NewExternalTexture(name string, visibility wgpu.ShaderStage, texture *Texture) *ExternalTexture {
	return &ExternalTexture{
		SampledTexture: *NewSampledTexture(name, visibility, texture),
	}
}

package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/binding"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const materialShader = `
//@oxy:include camera

struct Material {
    color: vec4f,
    roughness: f32,
    offset: vec3f,
};

struct Particle {
    pos: vec3f,
    vel: vec3f,
}

@group(0) @binding(0) var<uniform> camera: CameraUniform;
@group(1) @binding(0) var<uniform> material: Material;
@group(1) @binding(1) var albedo: texture_2d<f32>;
@group(1) @binding(2) var albedoSampler: sampler;
@group(1) @binding(3) var shadowMap: texture_depth_2d;
@group(1) @binding(4) var shadowMap_sampler: sampler_comparison;
@group(2) @binding(0) var<storage, read> particles: array<Particle>;
/* @group(3) @binding(0) var<uniform> hidden: f32; */

@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4f {
    return camera.viewProj * vec4f(particles[i].pos, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4f {
    return material.color * textureSample(albedo, albedoSampler, vec2f(0.0));
}
`

func TestReflectDeclarations(t *testing.T) {
	r, err := Reflect("material", materialShader, wgpu.ShaderStageNone)
	require.NoError(t, err)
	assert.Contains(t, r.Source(), "struct CameraUniform")

	decls := r.Declarations()
	require.Len(t, decls, 7)

	stages := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	for _, d := range decls {
		assert.Equal(t, stages, d.Visibility, d.Name)
	}

	cam, ok := r.Declaration(0, 0)
	require.True(t, ok)
	assert.Equal(t, KindUniform, cam.Kind)
	assert.Equal(t, uint64(144), cam.Size)

	mat, _ := r.Declaration(1, 0)
	assert.Equal(t, "material", mat.Name)
	assert.Equal(t, uint64(48), mat.Size)

	albedo, _ := r.Declaration(1, 1)
	assert.Equal(t, KindSampledTexture, albedo.Kind)
	assert.Equal(t, wgpu.TextureViewDimension2D, albedo.ViewDimension)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, albedo.SampleType)

	sampler, _ := r.Declaration(1, 2)
	assert.Equal(t, KindSampler, sampler.Kind)

	shadow, _ := r.Declaration(1, 3)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, shadow.SampleType)

	cmpSampler, _ := r.Declaration(1, 4)
	assert.Equal(t, KindComparisonSampler, cmpSampler.Kind)

	particles, _ := r.Declaration(2, 0)
	assert.Equal(t, KindStorage, particles.Kind)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, particles.BufferType)
	assert.Equal(t, uint64(32), particles.Size)

	_, ok = r.Declaration(3, 0)
	assert.False(t, ok)
}

func TestBindGroupsResolvesResources(t *testing.T) {
	r, err := Reflect("material", materialShader, wgpu.ShaderStageNone)
	require.NoError(t, err)

	cameraGroup := binding.NewBindGroup("camera", 0, binding.NewUniformBuffer("camera", wgpu.ShaderStageVertex, 144))
	albedo := &binding.Texture{Name: "albedo"}
	shadow := &binding.Texture{Name: "shadow", IsDepth: true, CompareFunction: wgpu.CompareFunctionLess}
	particles := &binding.Attribute{Name: "particles"}
	pool := binding.NewCommonUniformBuffer(1024, 0)

	groups, err := r.BindGroups(Resources{
		Groups:       map[uint32]*binding.BindGroup{0: cameraGroup},
		Textures:     map[string]*binding.Texture{"albedo": albedo, "shadowMap": shadow},
		Attributes:   map[string]*binding.Attribute{"particles": particles},
		CommonBuffer: pool,
	})
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Same(t, cameraGroup, groups[0])

	material := groups[1]
	assert.Equal(t, "material_group1", material.Name)
	assert.Equal(t, uint32(1), material.Index)
	require.Len(t, material.Bindings, 5)

	uniforms, ok := material.Bindings[0].(*binding.UniformsGroup)
	require.True(t, ok)
	assert.True(t, uniforms.AllocateCommon())
	assert.Equal(t, uint64(48), uniforms.ByteLength())

	sampled, ok := material.Bindings[1].(*binding.SampledTexture)
	require.True(t, ok)
	assert.Same(t, albedo, sampled.Texture)

	sampler, ok := material.Bindings[2].(*binding.Sampler)
	require.True(t, ok)
	assert.Same(t, albedo, sampler.Texture)

	cmpSampler, ok := material.Bindings[4].(*binding.Sampler)
	require.True(t, ok)
	assert.Same(t, shadow, cmpSampler.Texture)

	storage, ok := groups[2].Bindings[0].(*binding.StorageBuffer)
	require.True(t, ok)
	assert.Same(t, particles, storage.Attribute)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, storage.Access)
}

func TestBindGroupsMissingResource(t *testing.T) {
	r, err := Reflect("material", materialShader, wgpu.ShaderStageFragment)
	require.NoError(t, err)

	_, err = r.BindGroups(Resources{})
	assert.ErrorIs(t, err, ErrMissingResource)
}

func TestBindGroupsRequireContiguousBindings(t *testing.T) {
	r, err := Reflect("gap", `
@group(0) @binding(0) var<uniform> a: vec4f;
@group(0) @binding(2) var<uniform> b: vec4f;
`, wgpu.ShaderStageVertex)
	require.NoError(t, err)

	_, err = r.BindGroups(Resources{})
	assert.ErrorContains(t, err, "expected @binding(1)")
}

func TestStorageTextureBinding(t *testing.T) {
	r, err := Reflect("blur", `
@group(0) @binding(0) var src: texture_2d<f32>;
@group(0) @binding(1) var dst: texture_storage_2d<rgba16float, write>;
@compute @workgroup_size(8, 8)
fn main(@builtin(global_invocation_id) id: vec3u) {}
`, wgpu.ShaderStageNone)
	require.NoError(t, err)

	dst, ok := r.Declaration(0, 1)
	require.True(t, ok)
	assert.Equal(t, KindStorageTexture, dst.Kind)
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, dst.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, dst.Access)
	assert.Equal(t, wgpu.ShaderStageCompute, dst.Visibility)

	src := &binding.Texture{Name: "src"}
	target := &binding.Texture{Name: "dst"}
	groups, err := r.BindGroups(Resources{Textures: map[string]*binding.Texture{"src": src, "dst": target}})
	require.NoError(t, err)

	st, ok := groups[0].Bindings[1].(*binding.StorageTexture)
	require.True(t, ok)
	assert.True(t, st.Store)
	assert.True(t, target.IsStorage)
	assert.False(t, src.IsStorage)
}

func TestExternalTextureBinding(t *testing.T) {
	r, err := Reflect("video", `@group(0) @binding(0) var frame: texture_external;`, wgpu.ShaderStageFragment)
	require.NoError(t, err)

	groups, err := r.BindGroups(Resources{Textures: map[string]*binding.Texture{"frame": {Name: "frame", IsVideo: true}}})
	require.NoError(t, err)
	_, ok := groups[0].Bindings[0].(*binding.ExternalTexture)
	assert.True(t, ok)
}

func TestMergeUnionsVisibility(t *testing.T) {
	vs, err := Reflect("vs", `@group(0) @binding(0) var<uniform> camera: mat4x4f;`, wgpu.ShaderStageVertex)
	require.NoError(t, err)
	fs, err := Reflect("fs", `
@group(1) @binding(0) var albedo: texture_2d<f32>;
@group(0) @binding(0) var<uniform> camera: mat4x4f;
`, wgpu.ShaderStageFragment)
	require.NoError(t, err)

	merged, err := Merge("mesh", vs, fs)
	require.NoError(t, err)
	require.Len(t, merged.Declarations(), 2)

	cam, _ := merged.Declaration(0, 0)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, cam.Visibility)
	assert.Equal(t, uint32(1), merged.Declarations()[1].Group)

	other, err := Reflect("other", `@group(0) @binding(0) var<uniform> model: mat4x4f;`, wgpu.ShaderStageFragment)
	require.NoError(t, err)
	_, err = Merge("broken", vs, other)
	assert.ErrorIs(t, err, ErrConflictingDeclaration)
}

func TestUnknownUniformsAreSizedFromShader(t *testing.T) {
	r, err := Reflect("params", `@group(0) @binding(0) var<uniform> params: vec4f;`, wgpu.ShaderStageCompute)
	require.NoError(t, err)

	existing := binding.NewUniformBuffer("params", wgpu.ShaderStageCompute, 16)
	groups, err := r.BindGroups(Resources{Uniforms: map[string]binding.Binding{"params": existing}})
	require.NoError(t, err)
	assert.Same(t, existing, groups[0].Bindings[0])

	groups, err = r.BindGroups(Resources{})
	require.NoError(t, err)
	g, ok := groups[0].Bindings[0].(*binding.UniformsGroup)
	require.True(t, ok)
	assert.Equal(t, uint64(16), g.ByteLength())
	assert.False(t, g.AllocateCommon())
}

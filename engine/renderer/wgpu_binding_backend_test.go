package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/binding"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedWrite struct {
	buffer *wgpu.Buffer
	offset uint64
	data   []byte
}

type fakeDevice struct {
	buffers  []*wgpu.BufferDescriptor
	layouts  []*wgpu.BindGroupLayoutDescriptor
	groups   []*wgpu.BindGroupDescriptor
	samplers []*wgpu.SamplerDescriptor
	views    []*wgpu.TextureViewDescriptor
	writes   []recordedWrite
	released []bind_group_provider.Releasable

	failBindGroup error
}

var _ Device = &fakeDevice{}

func (d *fakeDevice) CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	d.buffers = append(d.buffers, desc)
	return &wgpu.Buffer{}, nil
}

func (d *fakeDevice) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	d.layouts = append(d.layouts, desc)
	return &wgpu.BindGroupLayout{}, nil
}

func (d *fakeDevice) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	if d.failBindGroup != nil {
		return nil, d.failBindGroup
	}
	d.groups = append(d.groups, desc)
	return &wgpu.BindGroup{}, nil
}

func (d *fakeDevice) CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error) {
	d.samplers = append(d.samplers, desc)
	return &wgpu.Sampler{}, nil
}

func (d *fakeDevice) CreateTextureView(_ *wgpu.Texture, desc *wgpu.TextureViewDescriptor) (*wgpu.TextureView, error) {
	d.views = append(d.views, desc)
	return &wgpu.TextureView{}, nil
}

func (d *fakeDevice) WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error {
	d.writes = append(d.writes, recordedWrite{buffer: buffer, offset: offset, data: append([]byte(nil), data...)})
	return nil
}

func (d *fakeDevice) Release(obj bind_group_provider.Releasable) {
	d.released = append(d.released, obj)
}

type unknownBinding struct {
	binding.Header
}

func residentTexture(b BindingBackend, tex *binding.Texture, mips uint32) *TextureResource {
	res := b.Texture(tex)
	res.Texture = &wgpu.Texture{}
	res.Format = wgpu.TextureFormatRGBA8Unorm
	res.MipLevelCount = mips
	return res
}

func TestCreateBindingsIsIdempotent(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev)
	group := binding.NewBindGroup("object", 0, binding.NewUniformBuffer("transform", wgpu.ShaderStageVertex, 64))

	require.NoError(t, b.CreateBindings(group))
	require.NoError(t, b.CreateBindings(group))

	assert.Len(t, dev.layouts, 1)
	assert.Len(t, dev.groups, 1)
	assert.Len(t, dev.buffers, 1)
	assert.Equal(t, "bindingBuffer_transform", dev.buffers[0].Label)
	assert.Equal(t, "bindGroup_object", dev.groups[0].Label)

	provider := b.Provider(group)
	require.NotNil(t, provider)
	assert.Equal(t, uint64(1), provider.Generation())

	totals := b.Info().Totals()
	assert.Equal(t, uint64(1), totals.Layouts)
	assert.Equal(t, uint64(1), totals.BindGroups)
	assert.Equal(t, uint64(1), totals.Buffers)
}

func TestLayoutEntriesFollowBindingKinds(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev)

	depth := &binding.Texture{Name: "shadow", IsDepth: true, CompareFunction: wgpu.CompareFunctionLess}
	data := &binding.Texture{Name: "ids", IsData: true, ValueType: binding.ValueTypeUint, Shape: binding.Shape2DArray}
	target := &binding.Texture{Name: "target", Shape: binding.Shape3D}
	video := &binding.Texture{Name: "video", IsVideo: true}
	residentTexture(b, depth, 1)
	residentTexture(b, data, 1)
	residentTexture(b, target, 1).Format = wgpu.TextureFormatRGBA16Float
	residentTexture(b, video, 1)

	particles := &binding.Attribute{Name: "particles"}
	b.Attribute(particles).Buffer = &wgpu.Buffer{}

	group := binding.NewBindGroup("compute", 0,
		binding.NewUniformsGroup("params", wgpu.ShaderStageCompute, 16),
		binding.NewStorageBuffer("particles", wgpu.ShaderStageCompute, particles, wgpu.BufferBindingTypeReadOnlyStorage),
		binding.NewSampler("shadowSampler", wgpu.ShaderStageFragment, depth),
		binding.NewSampledTexture("ids", wgpu.ShaderStageFragment, data),
		binding.NewStorageTexture("target", wgpu.ShaderStageCompute, target, 0),
		binding.NewSampledTexture("video", wgpu.ShaderStageFragment, video),
	)

	layout, err := b.CreateBindingsLayout(group)
	require.NoError(t, err)
	require.NotNil(t, layout)
	require.Len(t, dev.layouts, 1)

	entries := dev.layouts[0].Entries
	require.Len(t, entries, 6)
	for i, e := range entries {
		assert.Equal(t, uint32(i), e.Binding)
	}

	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[0].Buffer.Type)
	assert.Equal(t, wgpu.ShaderStageCompute, entries[0].Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, entries[1].Buffer.Type)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, entries[2].Sampler.Type)
	assert.Equal(t, wgpu.TextureSampleTypeUint, entries[3].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2DArray, entries[3].Texture.ViewDimension)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, entries[4].StorageTexture.Access)
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, entries[4].StorageTexture.Format)
	assert.Equal(t, wgpu.TextureViewDimension3D, entries[4].StorageTexture.ViewDimension)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[5].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, entries[5].Texture.ViewDimension)
}

func TestUnsupportedBindingIsAConfigurationError(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev)
	group := binding.NewBindGroup("broken", 0, &unknownBinding{Header: binding.Header{Name: "mystery"}})

	_, err := b.CreateBindingsLayout(group)
	assert.ErrorIs(t, err, ErrUnsupportedBinding)
	assert.ErrorIs(t, b.CreateBindings(group), ErrUnsupportedBinding)
	assert.Empty(t, dev.layouts)
	assert.Nil(t, b.Provider(group))
}

func TestCommonPoolFlushesOnceAtEndPass(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev)

	pool := binding.NewCommonUniformBuffer(1024, 0)
	groups := make([]*binding.UniformsGroup, 3)
	bindings := make([]binding.Binding, 3)
	for i := range groups {
		groups[i] = binding.NewUniformsGroup("object", wgpu.ShaderStageVertex, 64)
		require.NoError(t, pool.Allocate(groups[i]))
		bindings[i] = groups[i]
	}
	group := binding.NewBindGroup("objects", 0, bindings...)
	require.NoError(t, b.CreateBindings(group))

	require.Len(t, dev.buffers, 1)
	assert.Equal(t, "bindingBuffer_common", dev.buffers[0].Label)
	assert.Equal(t, uint64(1024), dev.buffers[0].Size)
	require.Len(t, dev.groups, 1)
	assert.Equal(t, uint64(256), dev.groups[0].Entries[1].Offset)
	assert.Equal(t, uint64(64), dev.groups[0].Entries[1].Size)

	require.NoError(t, groups[0].WriteFloats(0, 1))
	require.NoError(t, groups[2].WriteFloats(0, 2))
	require.NoError(t, b.UpdateBinding(groups[0]))
	require.NoError(t, b.UpdateBinding(groups[2]))
	assert.Empty(t, dev.writes)

	require.NoError(t, b.EndPass())
	require.Len(t, dev.writes, 1)
	assert.Equal(t, uint64(0), dev.writes[0].offset)
	assert.Len(t, dev.writes[0].data, 576)
	assert.Equal(t, pool.Data[0:576], dev.writes[0].data)

	require.NoError(t, b.EndPass())
	assert.Len(t, dev.writes, 1)

	assert.Equal(t, uint64(576), b.Info().Totals().BytesWritten)
}

func TestEndPassPadsUnalignedPoolTail(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev)

	pool := binding.NewCommonUniformBuffer(10, 4)
	g := binding.NewUniformsGroup("tint", wgpu.ShaderStageFragment, 10)
	require.NoError(t, pool.Allocate(g))
	require.NoError(t, b.CreateBindings(binding.NewBindGroup("tint", 0, g)))

	require.Len(t, dev.buffers, 1)
	assert.Equal(t, uint64(12), dev.buffers[0].Size)

	require.NoError(t, g.Write(0, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))
	require.NoError(t, b.UpdateBinding(g))
	require.NoError(t, b.EndPass())

	require.Len(t, dev.writes, 1)
	assert.Equal(t, uint64(0), dev.writes[0].offset)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 0, 0}, dev.writes[0].data)
	assert.Len(t, pool.Data, 10, "the pool itself is not resized")
}

func TestEndPassWithoutPoolIsNoop(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev)

	require.NoError(t, b.EndPass())
	assert.Empty(t, dev.writes)
}

func TestDedicatedUniformWritesImmediately(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev)
	u := binding.NewUniformBuffer("material", wgpu.ShaderStageFragment, 6)

	assert.ErrorIs(t, b.UpdateBinding(u), ErrNotRealized)

	require.NoError(t, b.CreateBindings(binding.NewBindGroup("material", 1, u)))
	assert.Equal(t, uint64(16), dev.buffers[0].Size)

	require.NoError(t, b.UpdateBinding(u))
	require.Len(t, dev.writes, 1)
	assert.Len(t, dev.writes[0].data, 8)
	assert.Equal(t, uint64(0), dev.writes[0].offset)

	assert.ErrorIs(t, b.UpdateBinding(binding.NewSampler("s", wgpu.ShaderStageFragment, nil)), ErrUnsupportedBinding)
}

func TestUpdateBindingsReusesLayout(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev)
	tex := &binding.Texture{Name: "albedo"}
	residentTexture(b, tex, 4)
	group := binding.NewBindGroup("material", 1, binding.NewSampledTexture("albedo", wgpu.ShaderStageFragment, tex))

	assert.ErrorIs(t, b.UpdateBindings(group), ErrNotRealized)

	require.NoError(t, b.CreateBindings(group))
	provider := b.Provider(group)
	first := provider.BindGroup()
	firstView := provider.TextureView(0)
	layout := provider.BindGroupLayout()

	require.NoError(t, b.UpdateBindings(group))

	assert.Len(t, dev.layouts, 1)
	assert.Len(t, dev.groups, 2)
	assert.Same(t, layout, dev.groups[1].Layout)
	assert.Same(t, layout, provider.BindGroupLayout())
	assert.NotSame(t, first, provider.BindGroup())
	assert.Equal(t, uint64(2), provider.Generation())
	assert.Contains(t, dev.released, bind_group_provider.Releasable(first))
	assert.Contains(t, dev.released, bind_group_provider.Releasable(firstView))
	assert.Equal(t, uint64(1), b.Info().Totals().Regenerations)
}

func TestMissingResourcesAreNotResident(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev)

	tex := &binding.Texture{Name: "pending"}
	group := binding.NewBindGroup("material", 1, binding.NewSampledTexture("pending", wgpu.ShaderStageFragment, tex))
	assert.ErrorIs(t, b.CreateBindings(group), ErrResourceNotResident)
	assert.False(t, b.TextureResident(tex))
	require.Len(t, dev.layouts, 1)
	assert.Len(t, dev.released, 1)

	attr := &binding.Attribute{Name: "positions"}
	storage := binding.NewBindGroup("compute", 0, binding.NewStorageBuffer("positions", wgpu.ShaderStageCompute, attr, 0))
	assert.ErrorIs(t, b.CreateBindings(storage), ErrResourceNotResident)

	storeTarget := binding.NewBindGroup("compute", 0, binding.NewStorageTexture("out", wgpu.ShaderStageCompute, tex, 0))
	_, err := b.CreateBindingsLayout(storeTarget)
	assert.ErrorIs(t, err, ErrResourceNotResident)
}

func TestBindGroupFailureReleasesViews(t *testing.T) {
	dev := &fakeDevice{failBindGroup: errors.New("device lost")}
	b := NewBindingBackend(dev)
	tex := &binding.Texture{Name: "albedo"}
	residentTexture(b, tex, 1)
	group := binding.NewBindGroup("material", 1, binding.NewSampledTexture("albedo", wgpu.ShaderStageFragment, tex))

	err := b.CreateBindings(group)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device lost")
	// the view and the layout
	assert.Len(t, dev.released, 2)
}

func TestTextureViewDescriptors(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev, WithLabelPrefix("scene/"))

	cube := &binding.Texture{Name: "env", Shape: binding.ShapeCube}
	residentTexture(b, cube, 5)
	target := &binding.Texture{Name: "target"}
	residentTexture(b, target, 6)

	group := binding.NewBindGroup("sky", 0,
		binding.NewSampledTexture("env", wgpu.ShaderStageFragment, cube),
		binding.NewStorageTexture("target", wgpu.ShaderStageCompute, target, wgpu.StorageTextureAccessWriteOnly),
	)
	require.NoError(t, b.CreateBindings(group))

	require.Len(t, dev.views, 2)
	assert.Equal(t, wgpu.TextureViewDimensionCube, dev.views[0].Dimension)
	assert.Equal(t, uint32(5), dev.views[0].MipLevelCount)
	assert.Equal(t, uint32(6), dev.views[0].ArrayLayerCount)
	assert.Equal(t, "scene/textureView_env", dev.views[0].Label)

	assert.Equal(t, wgpu.TextureViewDimension2D, dev.views[1].Dimension)
	assert.Equal(t, uint32(1), dev.views[1].MipLevelCount)
	assert.Equal(t, uint32(1), dev.views[1].ArrayLayerCount)
	assert.Equal(t, "scene/bindGroup_sky", dev.groups[0].Label)
}

func TestSamplerCreatedOnceFromSettings(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev)
	tex := &binding.Texture{Name: "albedo", Sampler: binding.SamplerSettings{AddressModeU: wgpu.AddressModeClampToEdge}}
	residentTexture(b, tex, 1)

	first := binding.NewBindGroup("a", 0, binding.NewSampler("s", wgpu.ShaderStageFragment, tex))
	second := binding.NewBindGroup("b", 0, binding.NewSampler("s", wgpu.ShaderStageFragment, tex))
	require.NoError(t, b.CreateBindings(first))
	require.NoError(t, b.CreateBindings(second))

	require.Len(t, dev.samplers, 1)
	assert.Equal(t, wgpu.AddressModeClampToEdge, dev.samplers[0].AddressModeU)
	assert.Same(t, b.Texture(tex).Sampler, dev.groups[1].Entries[0].Sampler)
}

type fakeMipmaps struct {
	calls []*binding.Texture
}

func (m *fakeMipmaps) GenerateMipmaps(_ *wgpu.Texture, source *binding.Texture) error {
	m.calls = append(m.calls, source)
	return nil
}

func TestGenerateMipmapsDelegates(t *testing.T) {
	gen := &fakeMipmaps{}
	b := NewBindingBackend(&fakeDevice{}, WithMipmapGenerator(gen))
	tex := &binding.Texture{Name: "target"}

	assert.ErrorIs(t, b.GenerateMipmaps(tex), ErrResourceNotResident)

	residentTexture(b, tex, 4)
	require.NoError(t, b.GenerateMipmaps(tex))
	assert.Equal(t, []*binding.Texture{tex}, gen.calls)

	withoutGenerator := NewBindingBackend(&fakeDevice{})
	residentTexture(withoutGenerator, tex, 4)
	require.NoError(t, withoutGenerator.GenerateMipmaps(tex))
}

func TestReleaseFreesOwnedObjects(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev)
	tex := &binding.Texture{Name: "albedo"}
	residentTexture(b, tex, 1)

	pool := binding.NewCommonUniformBuffer(512, 0)
	pooled := binding.NewUniformsGroup("object", wgpu.ShaderStageVertex, 16)
	require.NoError(t, pool.Allocate(pooled))

	group := binding.NewBindGroup("material", 0,
		pooled,
		binding.NewUniformBuffer("material", wgpu.ShaderStageFragment, 16),
		binding.NewSampler("s", wgpu.ShaderStageFragment, tex),
		binding.NewSampledTexture("albedo", wgpu.ShaderStageFragment, tex),
	)
	require.NoError(t, b.CreateBindings(group))

	b.Release()

	// group, layout, view, dedicated buffer, sampler, common buffer
	assert.Len(t, dev.released, 6)
	assert.Nil(t, b.Provider(group))
	assert.Nil(t, b.Texture(tex).Sampler)
}

func TestReleaseBindGroupAndBinding(t *testing.T) {
	dev := &fakeDevice{}
	b := NewBindingBackend(dev)
	u := binding.NewUniformBuffer("material", wgpu.ShaderStageFragment, 16)
	group := binding.NewBindGroup("material", 0, u)
	require.NoError(t, b.CreateBindings(group))

	b.ReleaseBindGroup(group)
	assert.Len(t, dev.released, 2)
	assert.Nil(t, b.Provider(group))

	b.ReleaseBinding(u)
	assert.Len(t, dev.released, 3)
	assert.ErrorIs(t, b.UpdateBinding(u), ErrNotRealized)
}

package renderer

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-bind/common"
	"github.com/Carmen-Shannon/oxy-bind/engine/profiler"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/resource_cache"
	"github.com/cogentcore/webgpu/wgpu"
)

// BindingBackend realizes abstract bind groups as native wgpu objects.
// It owns every layout, bind group, uniform buffer and view it creates, and the single
// common uniform pool whose dirty range is flushed once per pass by EndPass.
type BindingBackend interface {
	// CreateBindingsLayout creates the native layout describing the bindings of the group.
	// Binding indices follow the position of each binding in the group.
	//
	// Parameters:
	//   - group: the abstract bind group
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the created layout
	//   - error: ErrUnsupportedBinding for an unknown binding kind, or a device error
	CreateBindingsLayout(group *binding.BindGroup) (*wgpu.BindGroupLayout, error)

	// CreateBindGroup creates a native bind group matching the layout, resolving buffers, samplers and views.
	//
	// Parameters:
	//   - group: the abstract bind group
	//   - layout: the layout created for the group
	//
	// Returns:
	//   - *wgpu.BindGroup: the created bind group
	//   - map[int]*wgpu.TextureView: the texture views created for the group, keyed by binding index
	//   - error: ErrResourceNotResident when a texture or attribute has not been provisioned
	CreateBindGroup(group *binding.BindGroup, layout *wgpu.BindGroupLayout) (*wgpu.BindGroup, map[int]*wgpu.TextureView, error)

	// CreateBindings realizes the group once. Later calls for the same group are no-ops.
	CreateBindings(group *binding.BindGroup) error

	// UpdateBindings regenerates the bind group of a realized group, reusing its cached layout.
	UpdateBindings(group *binding.BindGroup) error

	// UpdateBinding uploads the contents of a uniform binding.
	// Bindings living in the common pool only extend the pending dirty range.
	UpdateBinding(b binding.Binding) error

	// EndPass flushes the pending dirty range of the common pool with a single queue write.
	EndPass() error

	// Provider returns the realized record of the group, or nil when the group was never realized.
	Provider(group *binding.BindGroup) bind_group_provider.BindGroupProvider

	// Texture returns the backend record of the texture, creating an empty one on first access.
	Texture(tex *binding.Texture) *TextureResource

	// TextureResident reports whether a native texture was provisioned for tex.
	TextureResident(tex *binding.Texture) bool

	// Attribute returns the backend record of the attribute, creating an empty one on first access.
	Attribute(attr *binding.Attribute) *AttributeResource

	// GenerateMipmaps regenerates the mip chain of tex with the configured MipmapGenerator.
	GenerateMipmaps(tex *binding.Texture) error

	// ReleaseBindGroup releases the native objects realized for the group and forgets it.
	ReleaseBindGroup(group *binding.BindGroup)

	// ReleaseBinding releases the dedicated uniform buffer of the binding and forgets it.
	ReleaseBinding(b binding.Binding)

	// Info returns the statistics collector of the backend.
	Info() *profiler.Profiler

	// Release releases every native object the backend owns.
	Release()
}

type groupRecord struct {
	provider bind_group_provider.BindGroupProvider
}

type wgpuBindingBackendImpl struct {
	mu *sync.Mutex

	device      Device
	labelPrefix string
	mipmaps     MipmapGenerator
	info        *profiler.Profiler

	groups     *resource_cache.DataMap[groupRecord]
	buffers    *resource_cache.DataMap[bufferRecord]
	textures   *resource_cache.DataMap[TextureResource]
	attributes *resource_cache.DataMap[AttributeResource]

	commonSource  *binding.CommonUniformBuffer
	commonBuffer  *wgpu.Buffer
	lowWaterMark  uint64
	highWaterMark uint64
}

var _ BindingBackend = &wgpuBindingBackendImpl{}

// NewBindingBackend creates a BindingBackend issuing its native calls through device.
//
// Parameters:
//   - device: the native capability surface
//   - options: functional options
//
// Returns:
//   - BindingBackend: the created backend
func NewBindingBackend(device Device, options ...BindingBackendOption) BindingBackend {
	b := &wgpuBindingBackendImpl{
		mu:            &sync.Mutex{},
		device:        device,
		groups:        resource_cache.NewDataMap[groupRecord](),
		buffers:       resource_cache.NewDataMap[bufferRecord](),
		textures:      resource_cache.NewDataMap[TextureResource](),
		attributes:    resource_cache.NewDataMap[AttributeResource](),
		lowWaterMark:  math.MaxUint64,
		highWaterMark: 0,
	}

	for _, opt := range options {
		opt(b)
	}

	if b.info == nil {
		b.info = profiler.NewProfiler()
	}

	return b
}

func (b *wgpuBindingBackendImpl) CreateBindingsLayout(group *binding.BindGroup) (*wgpu.BindGroupLayout, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.createBindingsLayout(group)
}

func (b *wgpuBindingBackendImpl) CreateBindGroup(group *binding.BindGroup, layout *wgpu.BindGroupLayout) (*wgpu.BindGroup, map[int]*wgpu.TextureView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.createBindGroup(group, layout)
}

func (b *wgpuBindingBackendImpl) CreateBindings(group *binding.BindGroup) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.groups.Get(group)
	if rec.provider != nil && rec.provider.BindGroup() != nil {
		return nil
	}

	layout, err := b.createBindingsLayout(group)
	if err != nil {
		return err
	}

	bg, views, err := b.createBindGroup(group, layout)
	if err != nil {
		b.device.Release(layout)
		return err
	}

	rec.provider = bind_group_provider.NewBindGroupProvider(
		b.label("bindGroup_", group.Name),
		bind_group_provider.WithBindGroupLayout(layout),
		bind_group_provider.WithReleaser(b.device.Release),
	)
	rec.provider.SetBindGroup(bg, views)
	b.info.RecordBindGroup(false)

	common.Logger().Debug("realized bind group", "group", group.Name, "bindings", len(group.Bindings))
	return nil
}

func (b *wgpuBindingBackendImpl) UpdateBindings(group *binding.BindGroup) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.groups.Lookup(group)
	if !ok || rec.provider == nil || rec.provider.BindGroupLayout() == nil {
		return fmt.Errorf("failed to update bind group %q: %w", group.Name, ErrNotRealized)
	}

	bg, views, err := b.createBindGroup(group, rec.provider.BindGroupLayout())
	if err != nil {
		return err
	}

	rec.provider.SetBindGroup(bg, views)
	b.info.RecordBindGroup(true)

	common.Logger().Debug("regenerated bind group", "group", group.Name, "generation", rec.provider.Generation())
	return nil
}

func (b *wgpuBindingBackendImpl) UpdateBinding(bnd binding.Binding) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch v := bnd.(type) {
	case *binding.UniformsGroup:
		if v.AllocateCommon() {
			if _, err := b.commonPoolBuffer(v.CommonBuffer()); err != nil {
				return err
			}
			b.lowWaterMark = min(b.lowWaterMark, v.ByteOffset())
			b.highWaterMark = max(b.highWaterMark, v.ByteOffset()+v.ByteLength())
			return nil
		}
		return b.writeDedicated(v, v.Name, v.Data)
	case *binding.UniformBuffer:
		return b.writeDedicated(v, v.Name, v.Data)
	default:
		return fmt.Errorf("failed to update binding %q of type %T: %w", bnd.BindingName(), bnd, ErrUnsupportedBinding)
	}
}

func (b *wgpuBindingBackendImpl) EndPass() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	low, high := b.lowWaterMark, b.highWaterMark
	b.lowWaterMark, b.highWaterMark = math.MaxUint64, 0

	if b.commonBuffer == nil || low >= high {
		return nil
	}

	// queue writes need 4 byte aligned offsets and sizes, the native buffer is padded to match
	size := uint64(len(b.commonSource.Data))
	low &^= 3
	high = common.AlignUp(min(high, size), 4)

	data := b.commonSource.Data[low:min(high, size)]
	if pad := high - low - uint64(len(data)); pad != 0 {
		data = append(slices.Clone(data), make([]byte, pad)...)
	}

	common.Logger().Debug("flushing common uniform buffer", "low", low, "high", high)
	return b.write(bind_group_provider.BufferWrite{
		Label:  b.label("bindingBuffer_", "common"),
		Buffer: b.commonBuffer,
		Offset: low,
		Data:   data,
	})
}

func (b *wgpuBindingBackendImpl) Provider(group *binding.BindGroup) bind_group_provider.BindGroupProvider {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.groups.Lookup(group)
	if !ok {
		return nil
	}
	return rec.provider
}

func (b *wgpuBindingBackendImpl) Texture(tex *binding.Texture) *TextureResource {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.textures.Get(tex)
}

func (b *wgpuBindingBackendImpl) TextureResident(tex *binding.Texture) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, _ := b.textures.Lookup(tex)
	return res.Resident()
}

func (b *wgpuBindingBackendImpl) Attribute(attr *binding.Attribute) *AttributeResource {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attributes.Get(attr)
}

func (b *wgpuBindingBackendImpl) GenerateMipmaps(tex *binding.Texture) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, _ := b.textures.Lookup(tex)
	if !res.Resident() {
		return fmt.Errorf("failed to generate mipmaps for texture %q: %w", tex.Name, ErrResourceNotResident)
	}
	if b.mipmaps == nil {
		common.Logger().Warn("no mipmap generator configured", "texture", tex.Name)
		return nil
	}
	if err := b.mipmaps.GenerateMipmaps(res.Texture, tex); err != nil {
		return fmt.Errorf("failed to generate mipmaps for texture %q: %w", tex.Name, err)
	}
	return nil
}

func (b *wgpuBindingBackendImpl) ReleaseBindGroup(group *binding.BindGroup) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rec := b.groups.Delete(group); rec != nil && rec.provider != nil {
		rec.provider.Release()
	}
}

func (b *wgpuBindingBackendImpl) ReleaseBinding(bnd binding.Binding) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rec := b.buffers.Delete(bnd); rec != nil && rec.buffer != nil {
		b.device.Release(rec.buffer)
	}
}

func (b *wgpuBindingBackendImpl) Info() *profiler.Profiler {
	return b.info
}

func (b *wgpuBindingBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.groups.Range(func(_ any, rec *groupRecord) bool {
		if rec.provider != nil {
			rec.provider.Release()
		}
		return true
	})
	b.buffers.Range(func(_ any, rec *bufferRecord) bool {
		if rec.buffer != nil {
			b.device.Release(rec.buffer)
		}
		return true
	})
	b.textures.Range(func(_ any, rec *TextureResource) bool {
		if rec.ownsSampler && rec.Sampler != nil {
			b.device.Release(rec.Sampler)
			rec.Sampler = nil
			rec.ownsSampler = false
		}
		return true
	})
	if b.commonBuffer != nil {
		b.device.Release(b.commonBuffer)
		b.commonBuffer = nil
		b.commonSource = nil
	}

	b.groups = resource_cache.NewDataMap[groupRecord]()
	b.buffers = resource_cache.NewDataMap[bufferRecord]()
	b.lowWaterMark, b.highWaterMark = math.MaxUint64, 0
}

func (b *wgpuBindingBackendImpl) label(kind, name string) string {
	return b.labelPrefix + kind + name
}

func (b *wgpuBindingBackendImpl) createBindingsLayout(group *binding.BindGroup) (*wgpu.BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(group.Bindings))
	for i, bnd := range group.Bindings {
		entry, err := b.layoutEntry(uint32(i), bnd)
		if err != nil {
			return nil, fmt.Errorf("failed to create layout for bind group %q: %w", group.Name, err)
		}
		entries = append(entries, entry)
	}

	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   b.label("bindGroupLayout_", group.Name),
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create layout for bind group %q: %w", group.Name, err)
	}

	b.info.RecordLayout()
	return layout, nil
}

func (b *wgpuBindingBackendImpl) layoutEntry(index uint32, bnd binding.Binding) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    index,
		Visibility: bnd.BindingVisibility(),
	}

	if tb, ok := bnd.(binding.TextureBinding); ok && tb.Sampled().Texture == nil {
		return entry, fmt.Errorf("texture binding %q without texture: %w", bnd.BindingName(), ErrResourceNotResident)
	}

	switch v := bnd.(type) {
	case *binding.UniformsGroup, *binding.UniformBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case *binding.StorageBuffer:
		entry.Buffer.Type = v.Access
	case *binding.Sampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		if v.Texture != nil {
			entry.Sampler.Type = samplerBindingType(v.Texture)
		}
	case *binding.ExternalTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case *binding.StorageTexture:
		if !v.Store {
			setSampledLayout(&entry, v.Texture)
			break
		}
		res, _ := b.textures.Lookup(v.Texture)
		if !res.Resident() {
			return entry, fmt.Errorf("storage texture %q: %w", v.Name, ErrResourceNotResident)
		}
		entry.StorageTexture.Access = v.Access
		entry.StorageTexture.Format = res.Format
		entry.StorageTexture.ViewDimension = v.Texture.Shape.ViewDimension()
	case *binding.SampledTexture:
		if v.Texture.IsVideo {
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
			break
		}
		setSampledLayout(&entry, v.Texture)
	default:
		common.Logger().Error("unsupported binding", "binding", bnd.BindingName(), "type", fmt.Sprintf("%T", bnd))
		return entry, fmt.Errorf("binding %q of type %T: %w", bnd.BindingName(), bnd, ErrUnsupportedBinding)
	}

	return entry, nil
}

func setSampledLayout(entry *wgpu.BindGroupLayoutEntry, tex *binding.Texture) {
	entry.Texture.Multisampled = tex.Multisampled
	entry.Texture.SampleType = textureSampleType(tex)
	entry.Texture.ViewDimension = tex.Shape.ViewDimension()
}

func textureSampleType(tex *binding.Texture) wgpu.TextureSampleType {
	if tex.IsDepth {
		return wgpu.TextureSampleTypeDepth
	}
	switch tex.ValueType {
	case binding.ValueTypeInt:
		return wgpu.TextureSampleTypeSint
	case binding.ValueTypeUint:
		return wgpu.TextureSampleTypeUint
	case binding.ValueTypeFloat:
		if tex.IsData {
			return wgpu.TextureSampleTypeUnfilterableFloat
		}
		return wgpu.TextureSampleTypeFloat
	default:
		return wgpu.TextureSampleTypeFloat
	}
}

func samplerBindingType(tex *binding.Texture) wgpu.SamplerBindingType {
	switch {
	case tex.IsComparison():
		return wgpu.SamplerBindingTypeComparison
	case tex.IsData && tex.ValueType == binding.ValueTypeFloat:
		return wgpu.SamplerBindingTypeNonFiltering
	default:
		return wgpu.SamplerBindingTypeFiltering
	}
}

func (b *wgpuBindingBackendImpl) createBindGroup(group *binding.BindGroup, layout *wgpu.BindGroupLayout) (*wgpu.BindGroup, map[int]*wgpu.TextureView, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(group.Bindings))
	views := make(map[int]*wgpu.TextureView)

	fail := func(err error) (*wgpu.BindGroup, map[int]*wgpu.TextureView, error) {
		for _, view := range views {
			b.device.Release(view)
		}
		return nil, nil, fmt.Errorf("failed to create bind group %q: %w", group.Name, err)
	}

	for i, bnd := range group.Bindings {
		entry := wgpu.BindGroupEntry{Binding: uint32(i)}

		switch v := bnd.(type) {
		case *binding.UniformsGroup:
			if v.AllocateCommon() {
				buf, err := b.commonPoolBuffer(v.CommonBuffer())
				if err != nil {
					return fail(err)
				}
				entry.Buffer, entry.Offset, entry.Size = buf, v.ByteOffset(), v.ByteLength()
				break
			}
			buf, err := b.dedicatedBuffer(v, v.Name, v.ByteLength())
			if err != nil {
				return fail(err)
			}
			entry.Buffer, entry.Size = buf, wgpu.WholeSize
		case *binding.UniformBuffer:
			buf, err := b.dedicatedBuffer(v, v.Name, v.ByteLength())
			if err != nil {
				return fail(err)
			}
			entry.Buffer, entry.Size = buf, wgpu.WholeSize
		case *binding.StorageBuffer:
			var attr *AttributeResource
			if v.Attribute != nil {
				attr, _ = b.attributes.Lookup(v.Attribute)
			}
			if attr == nil || attr.Buffer == nil {
				return fail(fmt.Errorf("storage buffer %q: %w", v.Name, ErrResourceNotResident))
			}
			entry.Buffer, entry.Size = attr.Buffer, wgpu.WholeSize
		case *binding.Sampler:
			sampler, err := b.sampler(v.Texture)
			if err != nil {
				return fail(err)
			}
			entry.Sampler = sampler
		case binding.TextureBinding:
			view, err := b.textureView(v)
			if err != nil {
				return fail(err)
			}
			views[i] = view
			entry.TextureView = view
		default:
			common.Logger().Error("unsupported binding", "binding", bnd.BindingName(), "type", fmt.Sprintf("%T", bnd))
			return fail(fmt.Errorf("binding %q of type %T: %w", bnd.BindingName(), bnd, ErrUnsupportedBinding))
		}

		entries = append(entries, entry)
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   b.label("bindGroup_", group.Name),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fail(err)
	}

	return bg, views, nil
}

// commonPoolBuffer returns the native buffer backing pool, creating it on first use.
// A backend serves a single pool.
func (b *wgpuBindingBackendImpl) commonPoolBuffer(pool *binding.CommonUniformBuffer) (*wgpu.Buffer, error) {
	if b.commonBuffer != nil {
		if pool != b.commonSource {
			return nil, fmt.Errorf("backend already serves a different common uniform buffer")
		}
		return b.commonBuffer, nil
	}

	label := b.label("bindingBuffer_", "common")
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  common.AlignUp(pool.ByteLength(), 4),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %s: %w", label, err)
	}

	b.commonBuffer, b.commonSource = buf, pool
	b.info.RecordBuffer()
	return buf, nil
}

// dedicatedBuffer returns the native buffer of a uniform binding outside the pool, creating it on first use.
func (b *wgpuBindingBackendImpl) dedicatedBuffer(key binding.Binding, name string, size uint64) (*wgpu.Buffer, error) {
	rec := b.buffers.Get(key)
	if rec.buffer != nil {
		return rec.buffer, nil
	}

	label := b.label("bindingBuffer_", name)
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  common.AlignUp(max(size, 1), 16),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %s: %w", label, err)
	}

	rec.buffer = buf
	b.info.RecordBuffer()
	return buf, nil
}

func (b *wgpuBindingBackendImpl) writeDedicated(key binding.Binding, name string, data []byte) error {
	rec, ok := b.buffers.Lookup(key)
	if !ok || rec.buffer == nil {
		return fmt.Errorf("failed to update binding %q: %w", name, ErrNotRealized)
	}

	if pad := len(data) % 4; pad != 0 {
		data = append(slices.Clone(data), make([]byte, 4-pad)...)
	}

	return b.write(bind_group_provider.BufferWrite{
		Label:  b.label("bindingBuffer_", name),
		Buffer: rec.buffer,
		Data:   data,
	})
}

func (b *wgpuBindingBackendImpl) write(w bind_group_provider.BufferWrite) error {
	if w.Size() == 0 {
		return nil
	}
	if err := b.device.WriteBuffer(w.Buffer, w.Offset, w.Data); err != nil {
		return fmt.Errorf("failed to write buffer %s: %w", w.Label, err)
	}
	b.info.RecordWrite(w.Size())
	return nil
}

// sampler returns the sampler recorded for tex, creating one from its settings when the upload
// collaborator did not provide any.
func (b *wgpuBindingBackendImpl) sampler(tex *binding.Texture) (*wgpu.Sampler, error) {
	if tex == nil {
		return nil, fmt.Errorf("sampler without texture: %w", ErrResourceNotResident)
	}

	res := b.textures.Get(tex)
	if res.Sampler != nil {
		return res.Sampler, nil
	}

	compare := wgpu.CompareFunctionUndefined
	if tex.IsComparison() {
		compare = tex.CompareFunction
	}

	label := b.label("sampler_", tex.Name)
	sampler, err := b.device.CreateSampler(tex.Sampler.Descriptor(label, compare))
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler %s: %w", label, err)
	}

	res.Sampler, res.ownsSampler = sampler, true
	return sampler, nil
}

func (b *wgpuBindingBackendImpl) textureView(tb binding.TextureBinding) (*wgpu.TextureView, error) {
	sampled := tb.Sampled()
	if sampled.Texture == nil {
		return nil, fmt.Errorf("texture binding %q without texture: %w", sampled.Name, ErrResourceNotResident)
	}

	res, _ := b.textures.Lookup(sampled.Texture)
	if !res.Resident() {
		return nil, fmt.Errorf("texture %q: %w", sampled.Texture.Name, ErrResourceNotResident)
	}

	writeTarget := false
	if st, ok := tb.(*binding.StorageTexture); ok {
		writeTarget = st.Store
	}

	label := b.label("textureView_", sampled.Name)
	native, desc := res.viewDescriptor(label, sampled.Texture, writeTarget)
	view, err := b.device.CreateTextureView(native, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create texture view %s: %w", label, err)
	}
	return view, nil
}

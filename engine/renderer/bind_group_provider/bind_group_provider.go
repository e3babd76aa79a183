package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Releasable is a native object that must be released when no longer needed.
type Releasable interface {
	Release()
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources and must be released when no longer needed. They are populated by the binding backend, not by user-creation.

	// bindGroup is the GPU bind group created for this provider, or nil if not realized.
	bindGroup *wgpu.BindGroup
	// bindGroupLayout is the GPU bind group layout created for this provider, or nil if not realized.
	// The layout outlives bind group regenerations.
	bindGroupLayout *wgpu.BindGroupLayout
	// textureViews holds the GPU texture views created for the current bind group, keyed by binding index.
	textureViews map[int]*wgpu.TextureView

	// generation counts how many bind groups have been set on this provider.
	generation uint64

	release func(Releasable)
}

// BindGroupProvider is the backend record of one realized bind group. The binding backend
// fills it with the native layout, the native group and the texture views the group refers to.
//
// Lifecycle:
//  1. The backend creates a provider the first time a bind group is realized
//  2. The backend stores the layout and the group via SetBindGroupLayout and SetBindGroup
//  3. On regeneration the backend replaces the group; the previous group and its views are released
//  4. Release frees everything when the bind group is disposed
type BindGroupProvider interface {
	// Release releases any GPU resources held by this provider, including the layout.
	Release()

	// ReleaseBindGroup releases the bind group and its texture views but keeps the layout.
	ReleaseBindGroup()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the realized bind group.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the realized bind group layout.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// TextureView returns the GPU texture view for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// TextureViews returns all texture views of the current bind group, keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.TextureView: a map of texture views keyed by binding index
	TextureViews() map[int]*wgpu.TextureView

	// Generation returns how many bind groups have been set on this provider.
	//
	// Returns:
	//   - uint64: 0 before realization, 1 after the first bind group, incremented per regeneration
	Generation() uint64

	// SetBindGroup stores a new bind group. A previously stored group and its texture views are released first.
	//
	// Parameters:
	//   - bg: the created bind group
	//   - views: the texture views bg refers to, keyed by binding index
	SetBindGroup(bg *wgpu.BindGroup, views map[int]*wgpu.TextureView)

	// SetBindGroupLayout sets the bind group layout after GPU initialization.
	//
	// Parameters:
	//   - bgl: the created bind group layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label of the provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		textureViews: make(map[int]*wgpu.TextureView),
		release:      func(r Releasable) { r.Release() },
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) TextureViews() map[int]*wgpu.TextureView {
	return p.textureViews
}

func (p *bindGroupProvider) Generation() uint64 {
	return p.generation
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup, views map[int]*wgpu.TextureView) {
	p.ReleaseBindGroup()
	p.bindGroup = bg
	if views == nil {
		views = make(map[int]*wgpu.TextureView)
	}
	p.textureViews = views
	p.generation++
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) ReleaseBindGroup() {
	for i, tv := range p.textureViews {
		if tv != nil {
			p.release(tv)
		}
		delete(p.textureViews, i)
	}
	if p.bindGroup != nil {
		p.release(p.bindGroup)
		p.bindGroup = nil
	}
}

func (p *bindGroupProvider) Release() {
	p.ReleaseBindGroup()
	if p.bindGroupLayout != nil {
		p.release(p.bindGroupLayout)
		p.bindGroupLayout = nil
	}
}

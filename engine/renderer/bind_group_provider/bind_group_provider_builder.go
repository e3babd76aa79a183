package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBindGroupLayout sets the bind group layout for this provider.
//
// Parameters:
//   - bgl: the bind group layout to use for this provider
//
// Returns:
//   - BindGroupProviderOption: a function that sets the bind group layout for this provider
func WithBindGroupLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroupLayout = bgl
	}
}

// WithReleaser replaces how native objects are released. The binding backend routes releases
// through its device so every native object goes back the way it came.
//
// Parameters:
//   - release: called once for every native object the provider frees
//
// Returns:
//   - BindGroupProviderOption: a function that sets the release function for this provider
func WithReleaser(release func(Releasable)) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.release = release
	}
}

package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-bind/common"
	"github.com/Carmen-Shannon/oxy-bind/engine/profiler"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/bindings"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/clipping"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	bindings    bindings.Bindings
	clipping    *clipping.ClippingContext
	info        *profiler.Profiler

	// Pre-creation config collected from builder options
	backendOptions  []BindingBackendOption
	bindingsOptions []bindings.BindingsOption

	frame uint64
}

// Renderer drives the binding subsystem through a frame.
//
// A frame runs as:
//  1. BeginFrame refreshes the root clipping context from the scene and camera
//  2. PrepareRender and PrepareCompute realize and update the bind groups of each object
//  3. EndPass flushes the coalesced uniform writes of the pass
//  4. EndFrame advances the statistics
type Renderer interface {
	// BeginFrame starts a frame, refreshing the root clipping context.
	//
	// Parameters:
	//   - scene: the rendered scene
	//   - camera: the camera the frame is rendered from
	BeginFrame(scene clipping.Scene, camera clipping.Camera)

	// ClippingContext returns the root clipping context. Descendant contexts are obtained
	// through GetGroupContext while traversing the scene.
	//
	// Returns:
	//   - *clipping.ClippingContext: the root context
	ClippingContext() *clipping.ClippingContext

	// PrepareRender realizes and updates the bind groups of a render object.
	//
	// Parameters:
	//   - obj: the object about to be drawn
	//   - bundle: the active render bundle, or nil
	//
	// Returns:
	//   - []bind_group_provider.BindGroupProvider: the realized groups in @group order
	//   - error: an error if a group could not be realized or updated
	PrepareRender(obj bindings.RenderObject, bundle *bindings.RenderBundleData) ([]bind_group_provider.BindGroupProvider, error)

	// PrepareCompute realizes and updates the bind groups of a compute node.
	//
	// Parameters:
	//   - node: the node about to be dispatched
	//
	// Returns:
	//   - []bind_group_provider.BindGroupProvider: the realized groups in @group order
	//   - error: an error if a group could not be realized or updated
	PrepareCompute(node bindings.ComputeNode) ([]bind_group_provider.BindGroupProvider, error)

	// EndPass flushes the uniform writes recorded during the pass. It must be the last
	// binding call before the pass is submitted.
	//
	// Returns:
	//   - error: an error if the queue write failed
	EndPass() error

	// EndFrame finishes the frame and logs statistics when their interval has elapsed.
	EndFrame()

	// Frame returns the number of frames begun.
	Frame() uint64

	// Backend returns the binding backend.
	Backend() RendererBackend

	// Bindings returns the binding set builder.
	Bindings() bindings.Bindings

	// Info returns the statistics collector shared by the backend and the builder.
	Info() *profiler.Profiler

	// Release releases every native object owned by the backend and forgets the binding
	// records, so render objects are realized again on their next use.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer issuing native calls through device.
//
// Parameters:
//   - backendType: the backend implementation to use
//   - device: the native capability surface
//   - nodes: the shader compiler providing compute bind groups and uniform group updates
//   - textures: the texture-upload subsystem
//   - attributes: the attribute-upload subsystem
//   - options: a variadic list of RendererBuilderOption functions to configure the renderer
//
// Returns:
//   - Renderer: the created renderer
func NewRenderer(backendType RendererBackendType, device Device, nodes bindings.Nodes, textures bindings.Textures, attributes bindings.Attributes, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		clipping:    clipping.NewClippingContext(),
	}

	for _, opt := range options {
		opt(r)
	}

	if r.info == nil {
		r.info = profiler.NewProfiler()
	}
	if r.backend == nil {
		opts := append([]BindingBackendOption{WithInfo(r.info)}, r.backendOptions...)
		r.backend = newRendererBackend(backendType, device, opts...)
	}

	opts := append([]bindings.BindingsOption{bindings.WithInfo(r.info)}, r.bindingsOptions...)
	r.bindings = bindings.New(r.backend, nodes, textures, attributes, opts...)

	return r
}

func (r *renderer) BeginFrame(scene clipping.Scene, camera clipping.Camera) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frame++
	r.clipping.UpdateGlobal(scene, camera)
}

func (r *renderer) ClippingContext() *clipping.ClippingContext {
	return r.clipping
}

func (r *renderer) PrepareRender(obj bindings.RenderObject, bundle *bindings.RenderBundleData) ([]bind_group_provider.BindGroupProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.bindings.UpdateForRender(obj, bundle); err != nil {
		return nil, fmt.Errorf("failed to prepare render bindings: %w", err)
	}
	groups, err := r.bindings.GetForRender(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare render bindings: %w", err)
	}
	return r.providers(groups)
}

func (r *renderer) PrepareCompute(node bindings.ComputeNode) ([]bind_group_provider.BindGroupProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.bindings.UpdateForCompute(node); err != nil {
		return nil, fmt.Errorf("failed to prepare compute bindings: %w", err)
	}
	groups, err := r.bindings.GetForCompute(node)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare compute bindings: %w", err)
	}
	return r.providers(groups)
}

func (r *renderer) EndPass() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.EndPass()
}

func (r *renderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.info.Tick() {
		common.Logger().Debug("frame statistics logged", "frame", r.frame)
	}
}

func (r *renderer) Frame() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) Bindings() bindings.Bindings {
	return r.bindings
}

func (r *renderer) Info() *profiler.Profiler {
	return r.info
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
	r.bindings.Reset()
}

func (r *renderer) providers(groups []*binding.BindGroup) ([]bind_group_provider.BindGroupProvider, error) {
	providers := make([]bind_group_provider.BindGroupProvider, 0, len(groups))
	for _, g := range groups {
		p := r.backend.Provider(g)
		if p == nil {
			return nil, fmt.Errorf("bind group %q: %w", g.Name, ErrNotRealized)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

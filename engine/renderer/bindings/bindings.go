// Package bindings keeps the bind groups of render objects and compute nodes realized and
// their contents current from frame to frame.
package bindings

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-bind/common"
	"github.com/Carmen-Shannon/oxy-bind/engine/profiler"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/resource_cache"
)

// Bindings is the binding set builder. Bind groups are realized once, on first sight, and
// afterwards only receive content updates. A group is regenerated against its cached layout
// when one of its texture views became stale.
type Bindings interface {
	// GetForRender returns the bind groups of obj, realizing the ones seen for the first time.
	//
	// Parameters:
	//   - obj: the render object
	//
	// Returns:
	//   - []*binding.BindGroup: the bind groups of obj
	//   - error: an error if the backend failed to realize a group
	GetForRender(obj RenderObject) ([]*binding.BindGroup, error)

	// GetForCompute returns the bind groups of node, realizing the ones seen for the first time.
	//
	// Parameters:
	//   - node: the compute node
	//
	// Returns:
	//   - []*binding.BindGroup: the bind groups of node
	//   - error: an error if the backend failed to realize a group
	GetForCompute(node ComputeNode) ([]*binding.BindGroup, error)

	// UpdateForRender pushes changed contents of every bind group of obj to the backend.
	// When a group has to be regenerated and bundle is not nil, the bundle is flagged for re-recording.
	//
	// Parameters:
	//   - obj: the render object
	//   - bundle: the active render bundle, or nil
	//
	// Returns:
	//   - error: an error if the backend failed to update a group
	UpdateForRender(obj RenderObject, bundle *RenderBundleData) error

	// UpdateForCompute pushes changed contents of every bind group of node to the backend.
	//
	// Parameters:
	//   - node: the compute node
	//
	// Returns:
	//   - error: an error if the backend failed to update a group
	UpdateForCompute(node ComputeNode) error

	// Dispose forgets the bind groups recorded for a render object or compute node.
	// Native objects stay with the backend, which may share them with other owners.
	Dispose(owner any)

	// Reset forgets every owner, group and texture record, so each group is realized again
	// on its next use. Call it after the backend released its native objects.
	Reset()
}

type ownerRecord struct {
	groups []*binding.BindGroup
}

type groupRecord struct {
	realized bool
}

type textureRecord struct {
	needsMipmap bool
}

type bindingsImpl struct {
	backend    Backend
	nodes      Nodes
	textures   Textures
	attributes Attributes
	info       *profiler.Profiler

	owners        *resource_cache.DataMap[ownerRecord]
	groups        *resource_cache.DataMap[groupRecord]
	textureStates *resource_cache.DataMap[textureRecord]
}

var _ Bindings = &bindingsImpl{}

// New creates a Bindings builder.
//
// Parameters:
//   - backend: the realizer of native bind groups
//   - nodes: the shader compiler providing compute bind groups and uniform group updates
//   - textures: the texture-upload subsystem
//   - attributes: the attribute-upload subsystem
//   - options: functional options
//
// Returns:
//   - Bindings: the created builder
func New(backend Backend, nodes Nodes, textures Textures, attributes Attributes, options ...BindingsOption) Bindings {
	b := &bindingsImpl{
		backend:       backend,
		nodes:         nodes,
		textures:      textures,
		attributes:    attributes,
		owners:        resource_cache.NewDataMap[ownerRecord](),
		groups:        resource_cache.NewDataMap[groupRecord](),
		textureStates: resource_cache.NewDataMap[textureRecord](),
	}

	for _, opt := range options {
		opt(b)
	}

	return b
}

func (b *bindingsImpl) GetForRender(obj RenderObject) ([]*binding.BindGroup, error) {
	return b.get(obj, obj.Bindings())
}

func (b *bindingsImpl) GetForCompute(node ComputeNode) ([]*binding.BindGroup, error) {
	return b.get(node, b.nodes.ComputeBindings(node))
}

func (b *bindingsImpl) UpdateForRender(obj RenderObject, bundle *RenderBundleData) error {
	groups, err := b.GetForRender(obj)
	if err != nil {
		return err
	}
	return b.updateGroups(groups, bundle)
}

func (b *bindingsImpl) UpdateForCompute(node ComputeNode) error {
	groups, err := b.GetForCompute(node)
	if err != nil {
		return err
	}
	return b.updateGroups(groups, nil)
}

func (b *bindingsImpl) Dispose(owner any) {
	rec := b.owners.Delete(owner)
	if rec == nil {
		return
	}
	for _, g := range rec.groups {
		b.groups.Delete(g)
	}
}

func (b *bindingsImpl) Reset() {
	b.owners = resource_cache.NewDataMap[ownerRecord]()
	b.groups = resource_cache.NewDataMap[groupRecord]()
	b.textureStates = resource_cache.NewDataMap[textureRecord]()
}

func (b *bindingsImpl) get(owner any, groups []*binding.BindGroup) ([]*binding.BindGroup, error) {
	rec := b.owners.Get(owner)
	rec.groups = groups

	for _, g := range rec.groups {
		state := b.groups.Get(g)
		if state.realized {
			continue
		}

		b.initGroup(g)
		if err := b.backend.CreateBindings(g); err != nil {
			return nil, fmt.Errorf("failed to create bindings for group %q: %w", g.Name, err)
		}
		state.realized = true
	}

	return rec.groups, nil
}

// initGroup provisions the attributes and textures a group refers to before it is realized.
func (b *bindingsImpl) initGroup(g *binding.BindGroup) {
	for _, bnd := range g.Bindings {
		switch v := bnd.(type) {
		case *binding.Sampler:
			// the group is created against the current texture
			v.Update()
		case binding.TextureBinding:
			if tex := v.Sampled().Texture; tex != nil {
				b.textures.UpdateTexture(tex)
			}
		case *binding.StorageBuffer:
			if v.Attribute == nil {
				continue
			}
			attrType := AttributeTypeStorage
			if v.Attribute.Indirect {
				attrType = AttributeTypeIndirect
			}
			b.attributes.Update(v.Attribute, attrType)
		}
	}
}

func (b *bindingsImpl) updateGroups(groups []*binding.BindGroup, bundle *RenderBundleData) error {
	for _, g := range groups {
		if err := b.updateGroup(g, bundle); err != nil {
			return err
		}
	}
	return nil
}

func (b *bindingsImpl) updateGroup(g *binding.BindGroup, bundle *RenderBundleData) error {
	needsBindingsUpdate := false

	for _, bnd := range g.Bindings {
		switch v := bnd.(type) {
		case *binding.UniformsGroup:
			if !b.nodes.UpdateGroup(v) {
				continue
			}
			if v.Update() {
				if err := b.backend.UpdateBinding(v); err != nil {
					return fmt.Errorf("failed to update binding %q of group %q: %w", v.Name, g.Name, err)
				}
			}
		case *binding.UniformBuffer:
			if v.Update() {
				if err := b.backend.UpdateBinding(v); err != nil {
					return fmt.Errorf("failed to update binding %q of group %q: %w", v.Name, g.Name, err)
				}
			}
		case *binding.Sampler:
			if v.Update() {
				needsBindingsUpdate = true
			}
		case binding.TextureBinding:
			stale, err := b.updateTexture(v)
			if err != nil {
				return fmt.Errorf("failed to update binding %q of group %q: %w", v.BindingName(), g.Name, err)
			}
			needsBindingsUpdate = needsBindingsUpdate || stale
		}
	}

	if !needsBindingsUpdate {
		return nil
	}

	if bundle != nil {
		bundle.NeedsUpdate = true
	}
	if err := b.backend.UpdateBindings(g); err != nil {
		return fmt.Errorf("failed to update bindings for group %q: %w", g.Name, err)
	}
	return nil
}

// updateTexture refreshes a texture binding and reports whether its native view is stale.
func (b *bindingsImpl) updateTexture(tb binding.TextureBinding) (bool, error) {
	sampled := tb.Sampled()
	tex := sampled.Texture
	if tex == nil {
		return false, nil
	}

	stale := sampled.NeedsBindingsUpdate(b.textures.Generation(tex))
	if sampled.Update() {
		b.textures.UpdateTexture(tex)
	}

	if !b.backend.TextureResident(tex) {
		common.Logger().Warn("texture bound before it was provisioned, uploading it now",
			"binding", sampled.Name, "texture", tex.Name)
		b.textures.UpdateTexture(tex)
		if b.info != nil {
			b.info.RecordRepair()
		}
		stale = true
	}

	if !tex.IsStorage {
		return stale, nil
	}

	state := b.textureStates.Get(tex)
	if st, ok := tb.(*binding.StorageTexture); ok && st.Store {
		state.needsMipmap = true
	} else if state.needsMipmap && tex.GenerateMipmaps && b.textures.NeedsMipmaps(tex) {
		if err := b.backend.GenerateMipmaps(tex); err != nil {
			return stale, err
		}
		state.needsMipmap = false
	}

	return stale, nil
}

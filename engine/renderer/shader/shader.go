// Package shader reflects the resource declarations of WGSL modules and builds the bind
// groups a render object or compute node binds for them.
package shader

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-bind/common"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/binding"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrMissingResource is returned when a declaration names a texture or attribute that was not supplied.
	ErrMissingResource = errors.New("missing resource")

	// ErrConflictingDeclaration is returned when two stages declare the same slot differently.
	ErrConflictingDeclaration = errors.New("conflicting declaration")
)

// Reflection is the resource interface of one or more WGSL modules.
type Reflection struct {
	key          string
	source       string
	declarations []Declaration
}

// Reflect parses the @group/@binding declarations of a WGSL module after expanding its includes.
//
// Parameters:
//   - key: a unique identifier for the module, used in bind group names
//   - source: the WGSL source
//   - stage: the stages reading the declarations, or ShaderStageNone to use the entry points in source
//
// Returns:
//   - *Reflection: the reflected interface
//   - error: an error if pre-processing failed
func Reflect(key, source string, stage wgpu.ShaderStage) (*Reflection, error) {
	processed, err := NewPreProcessor().Process(source)
	if err != nil {
		return nil, fmt.Errorf("failed to pre-process shader %q: %w", key, err)
	}

	cleaned := stripComments(processed)
	if stage == wgpu.ShaderStageNone {
		stage = detectStages(cleaned)
	}

	r := &Reflection{
		key:          key,
		source:       processed,
		declarations: parseDeclarations(cleaned, stage),
	}
	common.Logger().Debug("reflected shader", "key", key, "declarations", len(r.declarations))
	return r, nil
}

// Key returns the identifier of the reflected module.
func (r *Reflection) Key() string {
	return r.key
}

// Source returns the pre-processed WGSL source.
func (r *Reflection) Source() string {
	return r.source
}

// Declarations returns the declarations sorted by group then binding.
func (r *Reflection) Declarations() []Declaration {
	return r.declarations
}

// Declaration returns the declaration of a slot.
//
// Parameters:
//   - group: the @group index
//   - index: the @binding index
//
// Returns:
//   - Declaration: the declaration
//   - bool: false if the slot is not declared
func (r *Reflection) Declaration(group, index uint32) (Declaration, bool) {
	i := slices.IndexFunc(r.declarations, func(d Declaration) bool {
		return d.Group == group && d.Binding == index
	})
	if i < 0 {
		return Declaration{}, false
	}
	return r.declarations[i], true
}

// Merge combines the declarations of modules bound together, such as a vertex and a
// fragment module of one pipeline. Slots declared by several modules get the union of
// their visibilities.
//
// Parameters:
//   - key: the identifier of the combined interface
//   - reflections: the interfaces to combine
//
// Returns:
//   - *Reflection: the combined interface
//   - error: ErrConflictingDeclaration if a slot is declared with different names or types
func Merge(key string, reflections ...*Reflection) (*Reflection, error) {
	merged := &Reflection{key: key}
	sources := make([]string, 0, len(reflections))

	for _, r := range reflections {
		sources = append(sources, r.source)
		for _, d := range r.declarations {
			i := slices.IndexFunc(merged.declarations, func(m Declaration) bool {
				return m.Group == d.Group && m.Binding == d.Binding
			})
			if i < 0 {
				merged.declarations = append(merged.declarations, d)
				continue
			}

			existing := &merged.declarations[i]
			if existing.Name != d.Name || existing.TypeName != d.TypeName {
				return nil, fmt.Errorf("@group(%d) @binding(%d) declared as %s: %s and %s: %s: %w",
					d.Group, d.Binding, existing.Name, existing.TypeName, d.Name, d.TypeName, ErrConflictingDeclaration)
			}
			existing.Visibility |= d.Visibility
		}
	}

	sortDeclarations(merged.declarations)
	merged.source = strings.Join(sources, "\n")
	return merged, nil
}

// Resources supplies the objects bound by name when building bind groups.
type Resources struct {
	// Groups are whole bind groups bound at a @group index instead of building one, such as
	// a camera group shared by every object.
	Groups map[uint32]*binding.BindGroup
	// Uniforms are existing uniform bindings bound by variable name.
	Uniforms map[string]binding.Binding
	// Textures are bound by variable name. A sampler named "<texture>Sampler" or
	// "<texture>_sampler" binds the sampler of that texture.
	Textures map[string]*binding.Texture
	// Attributes back storage buffers by variable name.
	Attributes map[string]*binding.Attribute
	// CommonBuffer, when set, pools the uniform groups created for uniform declarations.
	CommonBuffer *binding.CommonUniformBuffer
}

// BindGroups builds one bind group per declared @group index, in index order. Uniform
// declarations without a supplied binding get a new UniformsGroup sized from the shader.
//
// Parameters:
//   - resources: the objects to bind
//
// Returns:
//   - []*binding.BindGroup: the bind groups in @group order
//   - error: ErrMissingResource if a texture or attribute is missing, or an error if the
//     bindings of a group are not numbered contiguously from zero
func (r *Reflection) BindGroups(resources Resources) ([]*binding.BindGroup, error) {
	var groups []*binding.BindGroup

	for start := 0; start < len(r.declarations); {
		index := r.declarations[start].Group
		end := start
		for end < len(r.declarations) && r.declarations[end].Group == index {
			end++
		}

		if shared, ok := resources.Groups[index]; ok {
			groups = append(groups, shared)
			start = end
			continue
		}

		group := binding.NewBindGroup(fmt.Sprintf("%s_group%d", r.key, index), index)
		for i, decl := range r.declarations[start:end] {
			if decl.Binding != uint32(i) {
				return nil, fmt.Errorf("@group(%d) of %q: expected @binding(%d), found @binding(%d)", index, r.key, i, decl.Binding)
			}

			b, err := resources.bind(decl)
			if err != nil {
				return nil, fmt.Errorf("failed to bind %q of %q: %w", decl.Name, r.key, err)
			}
			group.Bindings = append(group.Bindings, b)
		}

		groups = append(groups, group)
		start = end
	}

	return groups, nil
}

func (res Resources) bind(decl Declaration) (binding.Binding, error) {
	switch decl.Kind {
	case KindUniform:
		if u, ok := res.Uniforms[decl.Name]; ok {
			return u, nil
		}
		g := binding.NewUniformsGroup(decl.Name, decl.Visibility, int(decl.Size))
		if res.CommonBuffer != nil {
			if err := res.CommonBuffer.Allocate(g); err != nil {
				common.Logger().Warn("uniform group kept out of the common buffer", "binding", decl.Name, "error", err)
			}
		}
		return g, nil

	case KindStorage:
		attr, ok := res.Attributes[decl.Name]
		if !ok {
			return nil, fmt.Errorf("attribute %q: %w", decl.Name, ErrMissingResource)
		}
		return binding.NewStorageBuffer(decl.Name, decl.Visibility, attr, decl.BufferType), nil

	case KindSampler, KindComparisonSampler:
		tex, err := res.samplerTexture(decl.Name)
		if err != nil {
			return nil, err
		}
		return binding.NewSampler(decl.Name, decl.Visibility, tex), nil

	case KindSampledTexture, KindExternalTexture, KindStorageTexture:
		tex, ok := res.Textures[decl.Name]
		if !ok {
			return nil, fmt.Errorf("texture %q: %w", decl.Name, ErrMissingResource)
		}
		if decl.SampleType == wgpu.TextureSampleTypeDepth && !tex.IsDepth {
			common.Logger().Warn("depth texture declaration bound to a color texture", "binding", decl.Name, "texture", tex.Name)
		}
		switch {
		case decl.Kind == KindStorageTexture:
			tex.IsStorage = true
			return binding.NewStorageTexture(decl.Name, decl.Visibility, tex, decl.Access), nil
		case decl.Kind == KindExternalTexture || tex.IsVideo:
			return binding.NewExternalTexture(decl.Name, decl.Visibility, tex), nil
		default:
			return binding.NewSampledTexture(decl.Name, decl.Visibility, tex), nil
		}

	default:
		return nil, fmt.Errorf("declaration of type %s has no binding kind", decl.TypeName)
	}
}

func (res Resources) samplerTexture(name string) (*binding.Texture, error) {
	if tex, ok := res.Textures[name]; ok {
		return tex, nil
	}
	for _, suffix := range []string{"Sampler", "_sampler"} {
		if base, ok := strings.CutSuffix(name, suffix); ok {
			if tex, ok := res.Textures[base]; ok {
				return tex, nil
			}
		}
	}
	return nil, fmt.Errorf("texture for sampler %q: %w", name, ErrMissingResource)
}

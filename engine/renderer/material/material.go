package material

import (
	"errors"
	"fmt"
	"maps"

	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultParamsBinding is the shader variable the surface parameters are bound to.
const DefaultParamsBinding = "material"

// ErrNoShader is returned when a material is built without a reflected shader.
var ErrNoShader = errors.New("material has no shader")

// material is the implementation of the Material interface.
type material struct {
	name          string
	baseColor     [4]float32
	metallic      float32
	roughness     float32
	reflection    *shader.Reflection
	paramsBinding string
	params        *binding.UniformBuffer
	groups        []*binding.BindGroup
}

// Material defines the interface for a render material: surface properties uploaded as a
// uniform, plus the bind groups its shader declares. A built Material is a render object
// for the binding set builder.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo RGBA color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor of the material.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// SetBaseColor sets the albedo color and marks the parameter uniform dirty.
	//
	// Parameters:
	//   - color: the base color as RGBA values
	SetBaseColor(color [4]float32)

	// SetMetallic sets the metallic factor and marks the parameter uniform dirty.
	//
	// Parameters:
	//   - metallic: the metallic factor
	SetMetallic(metallic float32)

	// SetRoughness sets the roughness factor and marks the parameter uniform dirty.
	//
	// Parameters:
	//   - roughness: the roughness factor
	SetRoughness(roughness float32)

	// Params retrieves the uniform holding the surface parameters.
	//
	// Returns:
	//   - *binding.UniformBuffer: the parameter uniform
	Params() *binding.UniformBuffer

	// Reflection retrieves the reflected shader the material binds for.
	//
	// Returns:
	//   - *shader.Reflection: the shader reflection, or nil if none is set
	Reflection() *shader.Reflection

	// Build creates the material's bind groups from its shader. The parameter uniform is
	// bound to its configured variable name unless resources already supply one.
	//
	// Parameters:
	//   - resources: the textures, attributes and shared groups to bind
	//
	// Returns:
	//   - error: ErrNoShader without a reflection, or the error of building the groups
	Build(resources shader.Resources) error

	// Bindings retrieves the bind groups created by Build.
	//
	// Returns:
	//   - []*binding.BindGroup: the bind groups in @group order, or nil before Build
	Bindings() []*binding.BindGroup
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor:     [4]float32{1, 1, 1, 1},
		metallic:      0.0,
		roughness:     1.0,
		paramsBinding: DefaultParamsBinding,
	}
	for _, opt := range options {
		opt(m)
	}

	var gpu GPUMaterialParams
	m.params = binding.NewUniformBuffer(m.paramsBinding, wgpu.ShaderStageFragment, gpu.Size())
	m.writeParams()
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) SetBaseColor(color [4]float32) {
	m.baseColor = color
	m.writeParams()
}

func (m *material) SetMetallic(metallic float32) {
	m.metallic = metallic
	m.writeParams()
}

func (m *material) SetRoughness(roughness float32) {
	m.roughness = roughness
	m.writeParams()
}

func (m *material) Params() *binding.UniformBuffer {
	return m.params
}

func (m *material) Reflection() *shader.Reflection {
	return m.reflection
}

func (m *material) Build(resources shader.Resources) error {
	if m.reflection == nil {
		return fmt.Errorf("failed to build material %q: %w", m.name, ErrNoShader)
	}

	uniforms := maps.Clone(resources.Uniforms)
	if uniforms == nil {
		uniforms = make(map[string]binding.Binding)
	}
	if _, ok := uniforms[m.paramsBinding]; !ok {
		for _, decl := range m.reflection.Declarations() {
			if decl.Name == m.paramsBinding {
				m.params.Visibility = decl.Visibility
			}
		}
		uniforms[m.paramsBinding] = m.params
	}
	resources.Uniforms = uniforms

	groups, err := m.reflection.BindGroups(resources)
	if err != nil {
		return fmt.Errorf("failed to build material %q: %w", m.name, err)
	}
	m.groups = groups
	return nil
}

func (m *material) Bindings() []*binding.BindGroup {
	return m.groups
}

func (m *material) writeParams() {
	gpu := GPUMaterialParams{
		BaseColor: m.baseColor,
		Metallic:  m.metallic,
		Roughness: m.roughness,
	}
	if err := m.params.Write(0, gpu.Marshal()); err != nil {
		panic(fmt.Sprintf("material %q: %v", m.name, err))
	}
}

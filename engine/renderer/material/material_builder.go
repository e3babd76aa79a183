package material

import "github.com/Carmen-Shannon/oxy-bind/engine/renderer/shader"

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = roughness
	}
}

// WithShader is an option builder that sets the reflected shader the material binds for.
//
// Parameters:
//   - reflection: the shader reflection
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shader option to a material
func WithShader(reflection *shader.Reflection) MaterialBuilderOption {
	return func(m *material) {
		m.reflection = reflection
	}
}

// WithParamsBinding is an option builder that sets the shader variable the surface
// parameters are bound to. Defaults to DefaultParamsBinding.
//
// Parameters:
//   - name: the WGSL variable name
//
// Returns:
//   - MaterialBuilderOption: a function that applies the binding name option to a material
func WithParamsBinding(name string) MaterialBuilderOption {
	return func(m *material) {
		m.paramsBinding = name
	}
}

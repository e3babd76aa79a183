package material

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-bind/common"
)

// GPUMaterialParamsSource is the WGSL declaration matching GPUMaterialParams.
const GPUMaterialParamsSource = `struct MaterialParams {
    baseColor: vec4<f32>,
    metallic: f32,
    roughness: f32,
};`

// GPUMaterialParams is the GPU-aligned uniform of a material's surface properties.
// Size: 32 bytes (WGSL aligned).
type GPUMaterialParams struct {
	BaseColor [4]float32 // offset  0: albedo RGBA (vec4<f32>)
	Metallic  float32    // offset 16: metallic factor (f32)
	Roughness float32    // offset 20: roughness factor (f32)
	_pad      [2]float32 // offset 24: padding to the struct alignment
}

// Size returns the size of the GPUMaterialParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUMaterialParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal returns a copy of the struct's bytes suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUMaterialParams) Marshal() []byte {
	return append([]byte(nil), common.StructToBytes(g)...)
}

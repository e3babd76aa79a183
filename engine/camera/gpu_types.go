package camera

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-bind/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniformSource is the WGSL declaration matching GPUCameraUniform.
const GPUCameraUniformSource = `struct CameraUniform {
    viewProj: mat4x4<f32>,
    view: mat4x4<f32>,
    position: vec3<f32>,
};`

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Size: 144 bytes (WGSL aligned).
type GPUCameraUniform struct {
	ViewProj mgl32.Mat4 // offset   0: combined view-projection matrix (mat4x4<f32>)
	View     mgl32.Mat4 // offset  64: world-to-view matrix (mat4x4<f32>)
	Position mgl32.Vec3 // offset 128: world-space camera position (vec3<f32>)
	_pad     float32    // offset 140: padding to 144 bytes
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal returns a copy of the struct's bytes suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	return append([]byte(nil), common.StructToBytes(g)...)
}

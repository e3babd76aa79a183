package camera

import (
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/binding"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraCount is an atomic counter used to generate unique uniform names for each camera instance.
var cameraCount atomic.Uint64

type cameraImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3
	up       mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4

	uniform *binding.UniformBuffer
}

// Camera defines the interface for a perspective camera looking from a position toward a target.
// The view matrix it produces drives clipping plane projection, and its uniform buffer carries
// the matrices to shaders.
type Camera interface {
	// Position returns the world-space eye position.
	Position() mgl32.Vec3

	// Target returns the world-space point the camera looks at.
	Target() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// MatrixWorldInverse returns the world-to-view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	MatrixWorldInverse() mgl32.Mat4

	// ProjectionMatrix returns the perspective projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// Uniform returns the camera's uniform buffer binding. Its contents are refreshed whenever
	// the camera's matrices change.
	//
	// Returns:
	//   - *binding.UniformBuffer: the camera uniform
	Uniform() *binding.UniformBuffer

	// SetPosition moves the eye and recomputes matrices.
	//
	// Parameters:
	//   - position: the new world-space eye position
	SetPosition(position mgl32.Vec3)

	// SetTarget changes the look-at point and recomputes matrices.
	//
	// Parameters:
	//   - target: the new world-space target
	SetTarget(target mgl32.Vec3)

	// SetFov sets the field of view in radians and recomputes matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera at (0, 0, 5) looking at the origin with default perspective settings.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	var layout GPUCameraUniform
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		position: mgl32.Vec3{0, 0, 5},
		up:       mgl32.Vec3{0, 1, 0},
		fov:      45.0 * (math.Pi / 180.0), // radians
		aspect:   1.0,
		near:     0.1,
		far:      100.0,
		uniform: binding.NewUniformBuffer(
			"camera_"+strconv.FormatUint(cameraCount.Add(1)-1, 10),
			wgpu.ShaderStageVertex|wgpu.ShaderStageFragment,
			layout.Size(),
		),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) MatrixWorldInverse() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) Uniform() *binding.UniformBuffer {
	return c.uniform
}

func (c *cameraImpl) SetPosition(position mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.updateMatrices()
}

func (c *cameraImpl) SetTarget(target mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

// updateMatrices recalculates the view and projection matrices and rewrites the uniform.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.viewMatrix = mgl32.LookAtV(c.position, c.target, c.up)
	c.projectionMatrix = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)

	u := GPUCameraUniform{
		ViewProj: c.projectionMatrix.Mul4(c.viewMatrix),
		View:     c.viewMatrix,
		Position: c.position,
	}
	// Size matches by construction.
	_ = c.uniform.Write(0, u.Marshal())
}

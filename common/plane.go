package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: n·p + c = 0
// where n is the unit normal and c is the signed constant.
type Plane struct {
	Normal   mgl32.Vec3
	Constant float32
}

// NewPlane creates a plane from a normal and constant. The normal is normalized and the constant rescaled to match.
//
// Parameters:
//   - normal: the plane normal, any non-zero length
//   - constant: the plane constant for the given normal
//
// Returns:
//   - Plane: the normalized plane
func NewPlane(normal mgl32.Vec3, constant float32) Plane {
	return Plane{Normal: normal, Constant: constant}.Normalize()
}

// Normalize returns the plane with a unit-length normal. A zero normal is returned unchanged.
func (p Plane) Normalize() Plane {
	length := math32.Sqrt(p.Normal.Dot(p.Normal))
	if length == 0 {
		return p
	}
	inv := 1 / length
	return Plane{Normal: p.Normal.Mul(inv), Constant: p.Constant * inv}
}

// CoplanarPoint returns the point on the plane closest to the origin.
func (p Plane) CoplanarPoint() mgl32.Vec3 {
	return p.Normal.Mul(-p.Constant)
}

// DistanceToPoint returns the signed distance from point to the plane.
func (p Plane) DistanceToPoint(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Constant
}

// ApplyMatrix4 transforms the plane by m. The normal is transformed by normalMatrix,
// which must be the normal matrix of m (see NormalMatrix).
//
// Parameters:
//   - m: the point transform
//   - normalMatrix: the inverse transpose of the upper 3x3 of m
//
// Returns:
//   - Plane: the transformed plane
func (p Plane) ApplyMatrix4(m mgl32.Mat4, normalMatrix mgl32.Mat3) Plane {
	point := m.Mul4x1(p.CoplanarPoint().Vec4(1)).Vec3()
	normal := normalMatrix.Mul3x1(p.Normal)
	length := math32.Sqrt(normal.Dot(normal))
	if length != 0 {
		normal = normal.Mul(1 / length)
	}
	return Plane{Normal: normal, Constant: -point.Dot(normal)}
}

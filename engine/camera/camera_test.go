package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewCameraViewMatrix(t *testing.T) {
	c := NewCamera(WithPosition(mgl32.Vec3{0, 0, 10}))

	p := c.MatrixWorldInverse().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -10, p.Z(), 1e-5, "the target sits in front of the camera")
}

func TestCameraUniformTracksMatrices(t *testing.T) {
	c := NewCamera()
	u := c.Uniform()
	assert.Len(t, u.Data, 144)
	assert.True(t, u.Update())
	assert.False(t, u.Update())

	c.SetPosition(mgl32.Vec3{1, 2, 3})
	assert.True(t, u.Update())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, c.Position())
}

func TestCameraUniformNamesAreUnique(t *testing.T) {
	a := NewCamera()
	b := NewCamera()
	assert.NotEqual(t, a.Uniform().Name, b.Uniform().Name)
}

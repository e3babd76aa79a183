// Package clipping maintains the camera-space clipping planes visible to each subtree of a scene.
package clipping

import (
	"slices"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-bind/common"
	"github.com/Carmen-Shannon/oxy-bind/engine/renderer/resource_cache"
	"github.com/go-gl/mathgl/mgl32"
)

// contextVersion hands out versions shared by every ClippingContext in the process.
var contextVersion atomic.Uint64

func nextVersion() uint64 {
	return contextVersion.Add(1)
}

// ShadowMaterial is implemented by override materials that may mark a shadow pass.
type ShadowMaterial interface {
	IsShadowMaterial() bool
}

// Scene supplies the per-frame pass state of the root context.
type Scene interface {
	// OverrideMaterial returns the material forced onto every object this pass, or nil.
	OverrideMaterial() ShadowMaterial
}

// Camera supplies the view transform of the root context.
type Camera interface {
	// MatrixWorldInverse returns the world-to-view matrix.
	MatrixWorldInverse() mgl32.Mat4
}

// viewState holds the camera and pass inputs of plane projection. The root context owns one
// and every descendant shares it, so a camera update is visible to the whole tree.
type viewState struct {
	shadowPass       bool
	viewMatrix       mgl32.Mat4
	viewNormalMatrix mgl32.Mat3
}

// ternary is a boolean that also records "never observed".
type ternary uint8

const (
	unset ternary = iota
	no
	yes
)

func ternaryOf(b bool) ternary {
	if b {
		return yes
	}
	return no
}

func (t ternary) is(b bool) bool {
	return t == ternaryOf(b)
}

// ClippingContext is the effective clip state of a subtree.
//
// Each context holds two plane lists, one per combination mode. A list starts with the
// planes inherited from the nearest clipping ancestor (the prefix, up to the list's offset)
// followed by the group's own planes projected into camera space. Planes are stored as
// (-n.x, -n.y, -n.z, c) so a fragment at view position p lies on the clipped side of a plane
// when dot(p, xyz) > w.
//
// Version changes exactly when the length of either list changes. Descendants compare it to
// the version they last observed to detect that an ancestor changed structurally.
type ClippingContext struct {
	version       uint64
	parentVersion uint64

	intersectionPlanes []mgl32.Vec4
	unionPlanes        []mgl32.Vec4
	intersectionOffset int
	unionOffset        int

	clipIntersection ternary
	inherit          ternary

	view *viewState

	groups *resource_cache.DataMap[ClippingContext]
}

// NewClippingContext creates an empty context with a fresh version and an identity view.
//
// Returns:
//   - *ClippingContext: the created context
func NewClippingContext() *ClippingContext {
	return &ClippingContext{
		version: nextVersion(),
		view: &viewState{
			viewMatrix:       mgl32.Ident4(),
			viewNormalMatrix: mgl32.Ident3(),
		},
		groups: resource_cache.NewDataMap(resource_cache.WithConstructor(func(any) *ClippingContext {
			return NewClippingContext()
		})),
	}
}

// Version returns the structural version of the context.
func (c *ClippingContext) Version() uint64 {
	return c.version
}

// ParentVersion returns the ancestor version observed by the last Update.
func (c *ClippingContext) ParentVersion() uint64 {
	return c.parentVersion
}

// IntersectionPlanes returns the intersection-mode planes. The slice must not be modified.
func (c *ClippingContext) IntersectionPlanes() []mgl32.Vec4 {
	return c.intersectionPlanes
}

// UnionPlanes returns the union-mode planes. The slice must not be modified.
func (c *ClippingContext) UnionPlanes() []mgl32.Vec4 {
	return c.unionPlanes
}

// IntersectionOffset returns the index where local planes begin in IntersectionPlanes.
func (c *ClippingContext) IntersectionOffset() int {
	return c.intersectionOffset
}

// UnionOffset returns the index where local planes begin in UnionPlanes.
func (c *ClippingContext) UnionOffset() int {
	return c.unionOffset
}

// ShadowPass reports whether the current pass renders shadow maps.
func (c *ClippingContext) ShadowPass() bool {
	return c.view.shadowPass
}

// ViewMatrix returns the world-to-view matrix planes are projected with.
func (c *ClippingContext) ViewMatrix() mgl32.Mat4 {
	return c.view.viewMatrix
}

// ViewNormalMatrix returns the normal matrix of ViewMatrix.
func (c *ClippingContext) ViewNormalMatrix() mgl32.Mat3 {
	return c.view.viewNormalMatrix
}

// UpdateGlobal refreshes the pass and camera inputs. It is called once per frame on the root
// context, before any descendant is updated.
//
// Parameters:
//   - scene: the scene being rendered
//   - camera: the camera being rendered from
func (c *ClippingContext) UpdateGlobal(scene Scene, camera Camera) {
	mat := scene.OverrideMaterial()
	c.view.shadowPass = mat != nil && mat.IsShadowMaterial()
	c.view.viewMatrix = camera.MatrixWorldInverse()
	c.view.viewNormalMatrix = common.NormalMatrix(c.view.viewMatrix)
}

// Update derives the context of group from its parent context. Parents must be updated
// before their children.
//
// Parameters:
//   - parent: the context of the nearest clipping ancestor, or the root context
//   - group: the clipping group this context belongs to
func (c *ClippingContext) Update(parent *ClippingContext, group ClippingGroup) {
	prevIntersection := len(c.intersectionPlanes)
	prevUnion := len(c.unionPlanes)

	parentChanged := false
	if parent.version != c.parentVersion {
		c.parentVersion = parent.version
		c.view = parent.view
		parentChanged = true
	}

	inherit := group.Inherit()
	if !c.inherit.is(inherit) || parentChanged {
		c.inherit = ternaryOf(inherit)
		if inherit {
			c.intersectionPlanes = slices.Clone(parent.intersectionPlanes)
			c.unionPlanes = slices.Clone(parent.unionPlanes)
		} else {
			c.intersectionPlanes = c.intersectionPlanes[:0]
			c.unionPlanes = c.unionPlanes[:0]
		}
	} else if inherit {
		// Ancestor planes are re-projected every frame; keep the prefix current.
		copy(c.intersectionPlanes[:c.intersectionOffset], parent.intersectionPlanes)
		copy(c.unionPlanes[:c.unionOffset], parent.unionPlanes)
	}

	c.intersectionOffset, c.unionOffset = 0, 0
	if inherit {
		c.intersectionOffset = len(parent.intersectionPlanes)
		c.unionOffset = len(parent.unionPlanes)
	}

	intersect := group.ClipIntersection()
	if !c.clipIntersection.is(intersect) || parentChanged {
		c.clipIntersection = ternaryOf(intersect)
		if intersect {
			c.unionPlanes = c.unionPlanes[:min(c.unionOffset, len(c.unionPlanes))]
		} else {
			c.intersectionPlanes = c.intersectionPlanes[:min(c.intersectionOffset, len(c.intersectionPlanes))]
		}
	}

	planes := group.ClippingPlanes()
	dst, offset := &c.unionPlanes, c.unionOffset
	if intersect {
		dst, offset = &c.intersectionPlanes, c.intersectionOffset
	}
	*dst = resize(*dst, offset+len(planes))
	c.projectPlanes(planes, (*dst)[offset:])

	if len(c.intersectionPlanes) != prevIntersection || len(c.unionPlanes) != prevUnion {
		c.version = nextVersion()
	}
}

// GetGroupContext returns the context for group, creating it on first use and updating it
// against the receiver. During a shadow pass a group that does not clip shadows shares the
// receiver instead.
//
// Parameters:
//   - group: the clipping group
//
// Returns:
//   - *ClippingContext: the context visible to the group's subtree
func (c *ClippingContext) GetGroupContext(group ClippingGroup) *ClippingContext {
	if c.view.shadowPass && !group.ClipShadows() {
		return c
	}
	ctx := c.groups.Get(group)
	ctx.Update(c, group)
	return ctx
}

// ForgetGroup drops the context derived for group. It is called when the group is disposed.
//
// Parameters:
//   - group: the disposed clipping group
func (c *ClippingContext) ForgetGroup(group ClippingGroup) {
	c.groups.Delete(group)
}

// projectPlanes writes the camera-space form of src into dst.
func (c *ClippingContext) projectPlanes(src []common.Plane, dst []mgl32.Vec4) {
	for i, p := range src {
		projected := p.ApplyMatrix4(c.view.viewMatrix, c.view.viewNormalMatrix)
		n := projected.Normal
		dst[i] = mgl32.Vec4{-n[0], -n[1], -n[2], projected.Constant}
	}
}

// resize returns s with length n. Entries added by growing are zeroed.
func resize(s []mgl32.Vec4, n int) []mgl32.Vec4 {
	if len(s) >= n {
		return s[:n]
	}
	return append(s, make([]mgl32.Vec4, n-len(s))...)
}

package clipping

import "github.com/Carmen-Shannon/oxy-bind/common"

// ClippingGroup is a scene node that declares clipping planes for its subtree.
type ClippingGroup interface {
	// ClippingPlanes returns the node's own planes in world space.
	ClippingPlanes() []common.Plane

	// ClipIntersection reports whether the planes clip as an intersection (a fragment is
	// clipped only when every plane clips it) instead of a union.
	ClipIntersection() bool

	// Inherit reports whether the planes of the nearest clipping ancestor apply as well.
	Inherit() bool

	// ClipShadows reports whether the planes also apply while rendering shadow maps.
	ClipShadows() bool
}

// group is the unexported implementation of Group.
type group struct {
	planes           []common.Plane
	clipIntersection bool
	inherit          bool
	clipShadows      bool
}

// Group is a mutable ClippingGroup.
type Group interface {
	ClippingGroup

	// SetClippingPlanes replaces the group's planes.
	//
	// Parameters:
	//   - planes: the new planes in world space
	SetClippingPlanes(planes ...common.Plane)

	// SetClipIntersection selects intersection or union clipping.
	SetClipIntersection(intersection bool)

	// SetInherit selects whether ancestor planes apply.
	SetInherit(inherit bool)

	// SetClipShadows selects whether the planes apply to shadow passes.
	SetClipShadows(clipShadows bool)
}

var _ Group = &group{}

// NewGroup creates a Group. By default it clips as a union, inherits ancestor planes and
// does not clip shadows.
//
// Parameters:
//   - options: a variadic list of options to configure the group
//
// Returns:
//   - Group: the created group
func NewGroup(options ...GroupBuilderOption) Group {
	g := &group{
		inherit: true,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *group) ClippingPlanes() []common.Plane {
	return g.planes
}

func (g *group) ClipIntersection() bool {
	return g.clipIntersection
}

func (g *group) Inherit() bool {
	return g.inherit
}

func (g *group) ClipShadows() bool {
	return g.clipShadows
}

func (g *group) SetClippingPlanes(planes ...common.Plane) {
	g.planes = planes
}

func (g *group) SetClipIntersection(intersection bool) {
	g.clipIntersection = intersection
}

func (g *group) SetInherit(inherit bool) {
	g.inherit = inherit
}

func (g *group) SetClipShadows(clipShadows bool) {
	g.clipShadows = clipShadows
}

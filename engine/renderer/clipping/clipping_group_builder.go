package clipping

import "github.com/Carmen-Shannon/oxy-bind/common"

// GroupBuilderOption is a functional option used to configure a Group during construction.
type GroupBuilderOption func(*group)

// WithPlanes sets the group's clipping planes.
//
// Parameters:
//   - planes: the planes in world space
//
// Returns:
//   - GroupBuilderOption: a function that sets the planes
func WithPlanes(planes ...common.Plane) GroupBuilderOption {
	return func(g *group) {
		g.planes = planes
	}
}

// WithClipIntersection sets whether the planes clip as an intersection.
//
// Parameters:
//   - intersection: true for intersection clipping, false for union clipping
//
// Returns:
//   - GroupBuilderOption: a function that sets the combination mode
func WithClipIntersection(intersection bool) GroupBuilderOption {
	return func(g *group) {
		g.clipIntersection = intersection
	}
}

// WithInherit sets whether ancestor planes apply to the group.
//
// Parameters:
//   - inherit: true to inherit ancestor planes
//
// Returns:
//   - GroupBuilderOption: a function that sets the inherit flag
func WithInherit(inherit bool) GroupBuilderOption {
	return func(g *group) {
		g.inherit = inherit
	}
}

// WithClipShadows sets whether the planes apply to shadow passes.
//
// Parameters:
//   - clipShadows: true to clip shadow casters
//
// Returns:
//   - GroupBuilderOption: a function that sets the shadow flag
func WithClipShadows(clipShadows bool) GroupBuilderOption {
	return func(g *group) {
		g.clipShadows = clipShadows
	}
}

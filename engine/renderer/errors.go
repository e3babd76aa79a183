package renderer

import "errors"

var (
	// ErrUnsupportedBinding is returned when a bind group holds a binding kind the backend cannot map.
	// It indicates an upstream shader compiler bug.
	ErrUnsupportedBinding = errors.New("unsupported binding")

	// ErrResourceNotResident is returned when a binding refers to a texture or attribute whose
	// native resource has not been provisioned.
	ErrResourceNotResident = errors.New("resource not resident")

	// ErrNotRealized is returned when a bind group is updated before it was created.
	ErrNotRealized = errors.New("bind group not realized")
)
